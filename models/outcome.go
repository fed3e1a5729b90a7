package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Response is a player's reply to a game invitation.
type Response string

const (
	ResponseYes     Response = "yes"
	ResponseNo      Response = "no"
	ResponseUnknown Response = "unknown"
)

// Valid reports whether r is one of the known responses.
func (r Response) Valid() bool {
	switch r {
	case ResponseYes, ResponseNo, ResponseUnknown:
		return true
	}
	return false
}

// Team is the side a player was picked for.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Valid reports whether t names a real team.
func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Points earned by a player for one game.
const (
	PointsLoss = 0
	PointsDraw = 1
	PointsWin  = 3
)

// Pub values recorded by the drinkers tool.
const (
	PubPlayed    = 1
	PubNotPlayed = 2
)

// Outcome joins a player and a game day. There is at most one row per
// (game_day_id, player_id).
type Outcome struct {
	bun.BaseModel `bun:"table:outcomes,alias:o"`

	ID               int       `bun:"id,pk,autoincrement" json:"id"`
	GameDayID        int       `bun:"game_day_id,notnull" json:"gameDayID"`
	PlayerID         int       `bun:"player_id,notnull" json:"playerID"`
	Response         *Response `bun:"response" json:"response,omitempty"`
	ResponseInterval *int      `bun:"response_interval" json:"responseInterval,omitempty"`
	Points           *int      `bun:"points" json:"points,omitempty"`
	Team             *Team     `bun:"team" json:"team,omitempty"`
	Goalie           bool      `bun:"goalie,notnull,default:false" json:"goalie"`
	Comment          *string   `bun:"comment" json:"comment,omitempty"`
	Pub              *int      `bun:"pub" json:"pub,omitempty"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	GameDay *GameDay `bun:"rel:belongs-to,join:game_day_id=id" json:"-"`
}

// Played reports whether the player was on a team for the game.
func (o *Outcome) Played() bool {
	return o.Team != nil && o.Team.Valid()
}
