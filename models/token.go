package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenPurpose says which email action a verification token authorises.
type TokenPurpose string

const (
	PurposePlayerInvite  TokenPurpose = "player_invite"
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
	PurposeGameResponse  TokenPurpose = "game_response"
)

// VerificationToken ties an emailed link to its target. Only the hash of the
// raw token is ever stored.
type VerificationToken struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:vt"`

	ID        uuid.UUID    `bun:"id,pk,type:uuid" json:"id"`
	Purpose   TokenPurpose `bun:"purpose,notnull" json:"purpose"`
	TokenHash string       `bun:"token_hash,notnull,unique" json:"-"`
	PlayerID  *int         `bun:"player_id" json:"playerID,omitempty"`
	UserID    *int         `bun:"user_id" json:"userID,omitempty"`
	GameDayID *int         `bun:"game_day_id" json:"gameDayID,omitempty"`
	Email     *string      `bun:"email" json:"email,omitempty"`
	ExpiresAt time.Time    `bun:"expires_at,notnull" json:"expiresAt"`
	UsedAt    *time.Time   `bun:"used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time    `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Usable reports whether the token is unused and unexpired at now.
func (t *VerificationToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
