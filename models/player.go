package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AnonymousName is shown in place of a scrubbed or hidden player name.
const AnonymousName = "Anonymous"

// Player is a club member. Deleted players are anonymised, never removed,
// so their outcomes stay attributable.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID           int        `bun:"id,pk,autoincrement" json:"id"`
	Name         *string    `bun:"name" json:"name,omitempty"`
	Anonymous    bool       `bun:"anonymous,notnull,default:false" json:"anonymous"`
	Joined       time.Time  `bun:"joined,notnull,type:date" json:"joined"`
	Finished     *time.Time `bun:"finished,type:date" json:"finished,omitempty"`
	Born         *int       `bun:"born" json:"born,omitempty"`
	Comment      *string    `bun:"comment" json:"comment,omitempty"`
	IntroducedBy *int       `bun:"introduced_by" json:"introducedBy,omitempty"`
}

// Active reports whether the player has not been finished.
func (p *Player) Active() bool {
	return p.Finished == nil
}

// DisplayName returns the public name for the player.
func (p *Player) DisplayName() string {
	if p.Anonymous || p.Name == nil || *p.Name == "" {
		return AnonymousName
	}
	return *p.Name
}
