package models

import (
	"time"

	"github.com/uptrace/bun"
)

// GameDay is one scheduled weekly fixture.
type GameDay struct {
	bun.BaseModel `bun:"table:game_days,alias:gd"`

	ID             int        `bun:"id,pk,autoincrement" json:"id"`
	Date           time.Time  `bun:"date,notnull,unique" json:"date"`
	Game           bool       `bun:"game,notnull,default:true" json:"game"`
	Cost           int        `bun:"cost,notnull,default:0" json:"cost"`
	InvitationSent *time.Time `bun:"invitation_sent" json:"invitationSent,omitempty"`
	Comment        *string    `bun:"comment" json:"comment,omitempty"`
	Bibs           *Team      `bun:"bibs" json:"bibs,omitempty"`
	PickerGames    int        `bun:"picker_games,notnull,default:10" json:"pickerGames"`
}
