package models

import "github.com/uptrace/bun"

// Club is a professional football club players can support.
type Club struct {
	bun.BaseModel `bun:"table:clubs,alias:cl"`

	ID   int    `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// Country is keyed by its ISO 3166 code.
type Country struct {
	bun.BaseModel `bun:"table:countries,alias:co"`

	ISOCode string `bun:"iso_code,pk" json:"isoCode"`
	Name    string `bun:"name,notnull" json:"name"`
}

type ClubSupporter struct {
	bun.BaseModel `bun:"table:club_supporters,alias:cs"`

	PlayerID int `bun:"player_id,pk" json:"playerID"`
	ClubID   int `bun:"club_id,pk" json:"clubID"`
}

type CountrySupporter struct {
	bun.BaseModel `bun:"table:country_supporters,alias:cos"`

	PlayerID       int    `bun:"player_id,pk" json:"playerID"`
	CountryISOCode string `bun:"country_iso_code,pk" json:"countryISOCode"`
}
