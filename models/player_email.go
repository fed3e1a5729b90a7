package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PlayerEmail is an extra address a player receives club mail on.
// Only verified addresses are used for broadcasts.
type PlayerEmail struct {
	bun.BaseModel `bun:"table:player_emails,alias:pe"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	PlayerID  int       `bun:"player_id,notnull" json:"playerID"`
	Email     string    `bun:"email,notnull" json:"email"`
	Verified  bool      `bun:"verified,notnull,default:false" json:"verified"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
