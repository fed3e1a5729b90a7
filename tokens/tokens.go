// Package tokens issues and redeems the random links sent by email. The raw
// value only ever leaves the process inside a URL; the database holds an
// HMAC of it.
package tokens

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
)

const rawBytes = 32

// ErrInvalid is returned for unknown, used, expired or mismatched tokens.
// The caller never learns which.
var ErrInvalid = apperr.Auth("invalid or expired link")

// Target names what a token acts on.
type Target struct {
	PlayerID  *int
	UserID    *int
	GameDayID *int
	Email     *string
}

type Service struct {
	store store.Tokens
	key   []byte
	clock clock.Clock
}

func New(st store.Tokens, key []byte, clk clock.Clock) *Service {
	return &Service{store: st, key: key, clock: clk}
}

// Hash returns the hex HMAC-SHA256 of raw under key.
func Hash(raw string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Generate returns a new URL-safe raw token.
func Generate() (string, error) {
	b := make([]byte, rawBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue stores a new token for purpose and returns the raw value to embed in a link.
func (s *Service) Issue(ctx context.Context, purpose models.TokenPurpose, target Target, ttl time.Duration) (string, *models.VerificationToken, error) {
	raw, err := Generate()
	if err != nil {
		return "", nil, err
	}
	now := s.clock.Now()
	tok := &models.VerificationToken{
		ID:        uuid.New(),
		Purpose:   purpose,
		TokenHash: Hash(raw, s.key),
		PlayerID:  target.PlayerID,
		UserID:    target.UserID,
		GameDayID: target.GameDayID,
		Email:     target.Email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.store.CreateToken(ctx, tok); err != nil {
		return "", nil, err
	}
	return raw, tok, nil
}

// Lookup resolves raw without using it up. Game response links are reusable
// until they expire so players can change their answer.
func (s *Service) Lookup(ctx context.Context, purpose models.TokenPurpose, raw string) (*models.VerificationToken, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalid
	}
	tok, err := s.store.GetTokenByHash(ctx, Hash(raw, s.key))
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, ErrInvalid
		}
		return nil, err
	}
	if tok.Purpose != purpose || !tok.Usable(s.clock.Now()) {
		return nil, ErrInvalid
	}
	return tok, nil
}

// Consume resolves raw and marks it used. Of two concurrent consumers only
// one succeeds.
func (s *Service) Consume(ctx context.Context, purpose models.TokenPurpose, raw string) (*models.VerificationToken, error) {
	tok, err := s.Lookup(ctx, purpose, raw)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	ok, err := s.store.MarkTokenUsed(ctx, tok.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalid
	}
	tok.UsedAt = &now
	return tok, nil
}
