package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is the authorisation level of a session.
type Role string

const (
	RoleNone  Role = "none"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a login account with a bcrypt-hashed password, optionally linked
// to the player who claimed it.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Role      Role      `bun:"role,notnull,default:'user'" json:"role"`
	PlayerID  *int      `bun:"player_id,unique" json:"playerID,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
