// Package store defines the persistence boundary. Every method is a single
// row or single query operation; there are no cross-entity transactions.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/models"
)

// Outcome columns that callers may ask UpsertOutcome to overwrite on conflict.
const (
	ColResponse         = "response"
	ColResponseInterval = "response_interval"
	ColGoalie           = "goalie"
	ColComment          = "comment"
	ColPoints           = "points"
	ColTeam             = "team"
	ColPub              = "pub"
)

// Common errors returned by implementations.
var (
	ErrPlayerNotFound  = apperr.NotFound("player not found")
	ErrGameDayNotFound = apperr.NotFound("game day not found")
	ErrOutcomeNotFound = apperr.NotFound("outcome not found")
	ErrTokenNotFound   = apperr.NotFound("token not found")
	ErrUserNotFound    = apperr.NotFound("user not found")
	ErrEmailNotFound   = apperr.NotFound("email not found")
	ErrEmailExists     = apperr.Conflict("email already in use", nil)
)

type Players interface {
	CreatePlayer(ctx context.Context, p *models.Player) error
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	// UpdatePlayer writes only the named columns.
	UpdatePlayer(ctx context.Context, p *models.Player, columns ...string) error
	ListActivePlayers(ctx context.Context) ([]models.Player, error)
	SetPlayerFinished(ctx context.Context, id int, at time.Time) error
	// AnonymisePlayer clears the identifying fields and marks the player anonymous.
	AnonymisePlayer(ctx context.Context, id int) error
}

type PlayerEmails interface {
	ListPlayerEmails(ctx context.Context, playerIDs ...int) ([]models.PlayerEmail, error)
	// AddPlayerEmail is a no-op when the (player, email) pair exists.
	AddPlayerEmail(ctx context.Context, e *models.PlayerEmail) error
	DeletePlayerEmail(ctx context.Context, playerID int, email string) error
	DeletePlayerEmails(ctx context.Context, playerID int) error
	MarkPlayerEmailVerified(ctx context.Context, playerID int, email string) error
}

type Supporters interface {
	ListClubSupporters(ctx context.Context, playerID int) ([]int, error)
	DeleteClubSupportersExcept(ctx context.Context, playerID int, keep []int) error
	UpsertClubSupporters(ctx context.Context, playerID int, clubIDs []int) error
	ListCountrySupporters(ctx context.Context, playerID int) ([]string, error)
	DeleteCountrySupportersExcept(ctx context.Context, playerID int, keep []string) error
	UpsertCountrySupporters(ctx context.Context, playerID int, isoCodes []string) error
}

type GameDays interface {
	CreateGameDays(ctx context.Context, days []*models.GameDay) error
	GetGameDay(ctx context.Context, id int) (*models.GameDay, error)
	UpdateGameDay(ctx context.Context, gd *models.GameDay, columns ...string) error
	// NextUninvitedGameDay returns the earliest enabled game day on or after
	// from whose invitation has not been sent.
	NextUninvitedGameDay(ctx context.Context, from time.Time) (*models.GameDay, error)
}

type Outcomes interface {
	GetOutcome(ctx context.Context, gameDayID, playerID int) (*models.Outcome, error)
	// UpsertOutcome inserts o or, when (game_day_id, player_id) exists,
	// overwrites only the named columns. A stored response_interval is never
	// overwritten.
	UpsertOutcome(ctx context.Context, o *models.Outcome, columns ...string) error
	ListOutcomes(ctx context.Context, gameDayID int) ([]models.Outcome, error)
	// ListOutcomesBetween returns outcomes of game days in [from, to) with
	// GameDay populated.
	ListOutcomesBetween(ctx context.Context, from, to time.Time) ([]models.Outcome, error)
}

type Records interface {
	UpsertPlayerRecords(ctx context.Context, recs []models.PlayerRecord) error
	ListPlayerRecords(ctx context.Context, year int) ([]models.PlayerRecord, error)
	ListPlayerRecordsForPlayer(ctx context.Context, playerID int) ([]models.PlayerRecord, error)
	// ListWinners returns rank 1 rows for table; year 0 means every year.
	ListWinners(ctx context.Context, table models.Table, year int) ([]models.PlayerRecord, error)
}

type Tokens interface {
	CreateToken(ctx context.Context, t *models.VerificationToken) error
	GetTokenByHash(ctx context.Context, hash string) (*models.VerificationToken, error)
	// MarkTokenUsed sets used_at only if the token is still unused and
	// unexpired at at; it reports whether it did.
	MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	DeletePlayerTokens(ctx context.Context, playerID int, purposes ...models.TokenPurpose) error
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByPlayer(ctx context.Context, playerID int) (*models.User, error)
	ListUsersByPlayers(ctx context.Context, playerIDs ...int) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User, columns ...string) error
	DeleteUser(ctx context.Context, id int) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	Players
	PlayerEmails
	Supporters
	GameDays
	Outcomes
	Records
	Tokens
	Users
}
