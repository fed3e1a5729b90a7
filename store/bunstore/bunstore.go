// Package bunstore implements store.Store on PostgreSQL through bun.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
)

// Store is a bun backed store.Store.
type Store struct {
	db bun.IDB
}

var _ store.Store = (*Store)(nil)

// New wraps db, which may be a *bun.DB or a bun.Tx.
func New(db bun.IDB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}

// mapErr turns driver errors into classified ones.
func mapErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case isUniqueViolation(err):
		return apperr.Conflict("already exists", err)
	}
	return err
}

func mustAffect(res sql.Result, err error, notFound error) error {
	if err != nil {
		return mapErr(err, notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// Players

func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	_, err := s.db.NewInsert().Model(p).Returning("id").Exec(ctx)
	return mapErr(err, store.ErrPlayerNotFound)
}

func (s *Store) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	p := &models.Player{}
	if err := s.db.NewSelect().Model(p).Where("p.id = ?", id).Scan(ctx); err != nil {
		return nil, mapErr(err, store.ErrPlayerNotFound)
	}
	return p, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, p *models.Player, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res, err := s.db.NewUpdate().Model(p).Column(columns...).WherePK().Exec(ctx)
	return mustAffect(res, err, store.ErrPlayerNotFound)
}

func (s *Store) ListActivePlayers(ctx context.Context) ([]models.Player, error) {
	var out []models.Player
	err := s.db.NewSelect().Model(&out).
		Where("p.finished IS NULL").
		Order("p.id ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) SetPlayerFinished(ctx context.Context, id int, at time.Time) error {
	res, err := s.db.NewUpdate().Model((*models.Player)(nil)).
		Set("finished = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return mustAffect(res, err, store.ErrPlayerNotFound)
}

func (s *Store) AnonymisePlayer(ctx context.Context, id int) error {
	res, err := s.db.NewUpdate().Model((*models.Player)(nil)).
		Set("name = NULL").
		Set("anonymous = TRUE").
		Set("born = NULL").
		Set("comment = NULL").
		Where("id = ?", id).
		Exec(ctx)
	return mustAffect(res, err, store.ErrPlayerNotFound)
}

// Player emails

func (s *Store) ListPlayerEmails(ctx context.Context, playerIDs ...int) ([]models.PlayerEmail, error) {
	var out []models.PlayerEmail
	if len(playerIDs) == 0 {
		return out, nil
	}
	err := s.db.NewSelect().Model(&out).
		Where("pe.player_id IN (?)", bun.In(playerIDs)).
		Order("pe.player_id ASC", "pe.id ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) AddPlayerEmail(ctx context.Context, e *models.PlayerEmail) error {
	_, err := s.db.NewInsert().Model(e).
		On("CONFLICT (player_id, email) DO NOTHING").
		Returning("id").
		Exec(ctx)
	return mapErr(err, store.ErrEmailNotFound)
}

func (s *Store) DeletePlayerEmail(ctx context.Context, playerID int, email string) error {
	_, err := s.db.NewDelete().Model((*models.PlayerEmail)(nil)).
		Where("player_id = ?", playerID).
		Where("email = ?", email).
		Exec(ctx)
	return err
}

func (s *Store) DeletePlayerEmails(ctx context.Context, playerID int) error {
	_, err := s.db.NewDelete().Model((*models.PlayerEmail)(nil)).
		Where("player_id = ?", playerID).
		Exec(ctx)
	return err
}

func (s *Store) MarkPlayerEmailVerified(ctx context.Context, playerID int, email string) error {
	res, err := s.db.NewUpdate().Model((*models.PlayerEmail)(nil)).
		Set("verified = TRUE").
		Where("player_id = ?", playerID).
		Where("email = ?", email).
		Exec(ctx)
	return mustAffect(res, err, store.ErrEmailNotFound)
}

// Supporters

func (s *Store) ListClubSupporters(ctx context.Context, playerID int) ([]int, error) {
	var ids []int
	err := s.db.NewSelect().Model((*models.ClubSupporter)(nil)).
		Column("club_id").
		Where("player_id = ?", playerID).
		Order("club_id ASC").
		Scan(ctx, &ids)
	return ids, err
}

func (s *Store) DeleteClubSupportersExcept(ctx context.Context, playerID int, keep []int) error {
	q := s.db.NewDelete().Model((*models.ClubSupporter)(nil)).Where("player_id = ?", playerID)
	if len(keep) > 0 {
		q = q.Where("club_id NOT IN (?)", bun.In(keep))
	}
	_, err := q.Exec(ctx)
	return err
}

func (s *Store) UpsertClubSupporters(ctx context.Context, playerID int, clubIDs []int) error {
	if len(clubIDs) == 0 {
		return nil
	}
	rows := make([]models.ClubSupporter, len(clubIDs))
	for i, id := range clubIDs {
		rows[i] = models.ClubSupporter{PlayerID: playerID, ClubID: id}
	}
	_, err := s.db.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

func (s *Store) ListCountrySupporters(ctx context.Context, playerID int) ([]string, error) {
	var codes []string
	err := s.db.NewSelect().Model((*models.CountrySupporter)(nil)).
		Column("country_iso_code").
		Where("player_id = ?", playerID).
		Order("country_iso_code ASC").
		Scan(ctx, &codes)
	return codes, err
}

func (s *Store) DeleteCountrySupportersExcept(ctx context.Context, playerID int, keep []string) error {
	q := s.db.NewDelete().Model((*models.CountrySupporter)(nil)).Where("player_id = ?", playerID)
	if len(keep) > 0 {
		q = q.Where("country_iso_code NOT IN (?)", bun.In(keep))
	}
	_, err := q.Exec(ctx)
	return err
}

func (s *Store) UpsertCountrySupporters(ctx context.Context, playerID int, isoCodes []string) error {
	if len(isoCodes) == 0 {
		return nil
	}
	rows := make([]models.CountrySupporter, len(isoCodes))
	for i, code := range isoCodes {
		rows[i] = models.CountrySupporter{PlayerID: playerID, CountryISOCode: code}
	}
	_, err := s.db.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// Game days

func (s *Store) CreateGameDays(ctx context.Context, days []*models.GameDay) error {
	if len(days) == 0 {
		return nil
	}
	_, err := s.db.NewInsert().Model(&days).Returning("id").Exec(ctx)
	return mapErr(err, store.ErrGameDayNotFound)
}

func (s *Store) GetGameDay(ctx context.Context, id int) (*models.GameDay, error) {
	gd := &models.GameDay{}
	if err := s.db.NewSelect().Model(gd).Where("gd.id = ?", id).Scan(ctx); err != nil {
		return nil, mapErr(err, store.ErrGameDayNotFound)
	}
	return gd, nil
}

func (s *Store) UpdateGameDay(ctx context.Context, gd *models.GameDay, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res, err := s.db.NewUpdate().Model(gd).Column(columns...).WherePK().Exec(ctx)
	return mustAffect(res, err, store.ErrGameDayNotFound)
}

func (s *Store) NextUninvitedGameDay(ctx context.Context, from time.Time) (*models.GameDay, error) {
	gd := &models.GameDay{}
	err := s.db.NewSelect().Model(gd).
		Where("gd.game").
		Where("gd.invitation_sent IS NULL").
		Where("gd.date >= ?", from).
		Order("gd.date ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err, store.ErrGameDayNotFound)
	}
	return gd, nil
}

// Outcomes

func (s *Store) GetOutcome(ctx context.Context, gameDayID, playerID int) (*models.Outcome, error) {
	o := &models.Outcome{}
	err := s.db.NewSelect().Model(o).
		Where("o.game_day_id = ?", gameDayID).
		Where("o.player_id = ?", playerID).
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err, store.ErrOutcomeNotFound)
	}
	return o, nil
}

func (s *Store) UpsertOutcome(ctx context.Context, o *models.Outcome, columns ...string) error {
	q := s.db.NewInsert().Model(o).On("CONFLICT (game_day_id, player_id) DO UPDATE")
	for _, c := range columns {
		if c == store.ColResponseInterval {
			q = q.Set("response_interval = COALESCE(o.response_interval, EXCLUDED.response_interval)")
			continue
		}
		q = q.Set("? = EXCLUDED.?", bun.Ident(c), bun.Ident(c))
	}
	q = q.Set("updated_at = EXCLUDED.updated_at")
	_, err := q.Returning("id").Exec(ctx)
	return mapErr(err, store.ErrOutcomeNotFound)
}

func (s *Store) ListOutcomes(ctx context.Context, gameDayID int) ([]models.Outcome, error) {
	var out []models.Outcome
	err := s.db.NewSelect().Model(&out).
		Where("o.game_day_id = ?", gameDayID).
		Order("o.player_id ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) ListOutcomesBetween(ctx context.Context, from, to time.Time) ([]models.Outcome, error) {
	var out []models.Outcome
	err := s.db.NewSelect().Model(&out).
		Relation("GameDay").
		Where("game_day.date >= ?", from).
		Where("game_day.date < ?", to).
		Order("o.game_day_id ASC", "o.player_id ASC").
		Scan(ctx)
	return out, err
}

// Records

var recordColumns = []string{
	"game_day_id", "played", "won", "drawn", "lost", "points", "averages",
	"stalwart", "responses", "speedy", "pub",
	"rank_points", "rank_averages", "rank_stalwart", "rank_speedy", "rank_pub",
}

func (s *Store) UpsertPlayerRecords(ctx context.Context, recs []models.PlayerRecord) error {
	if len(recs) == 0 {
		return nil
	}
	q := s.db.NewInsert().Model(&recs).On("CONFLICT (year, player_id) DO UPDATE")
	for _, c := range recordColumns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(c), bun.Ident(c))
	}
	_, err := q.Returning("id").Exec(ctx)
	return err
}

func (s *Store) ListPlayerRecords(ctx context.Context, year int) ([]models.PlayerRecord, error) {
	var out []models.PlayerRecord
	err := s.db.NewSelect().Model(&out).
		Where("pr.year = ?", year).
		Order("pr.player_id ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) ListPlayerRecordsForPlayer(ctx context.Context, playerID int) ([]models.PlayerRecord, error) {
	var out []models.PlayerRecord
	err := s.db.NewSelect().Model(&out).
		Where("pr.player_id = ?", playerID).
		Order("pr.year ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) ListWinners(ctx context.Context, table models.Table, year int) ([]models.PlayerRecord, error) {
	var out []models.PlayerRecord
	q := s.db.NewSelect().Model(&out).
		Where("? = 1", bun.Ident("pr."+table.RankColumn()))
	if year != 0 {
		q = q.Where("pr.year = ?", year)
	}
	err := q.Order("pr.year DESC", "pr.player_id ASC").Scan(ctx)
	return out, err
}

// Tokens

func (s *Store) CreateToken(ctx context.Context, t *models.VerificationToken) error {
	_, err := s.db.NewInsert().Model(t).Exec(ctx)
	return mapErr(err, store.ErrTokenNotFound)
}

func (s *Store) GetTokenByHash(ctx context.Context, hash string) (*models.VerificationToken, error) {
	t := &models.VerificationToken{}
	if err := s.db.NewSelect().Model(t).Where("vt.token_hash = ?", hash).Scan(ctx); err != nil {
		return nil, mapErr(err, store.ErrTokenNotFound)
	}
	return t, nil
}

func (s *Store) MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res, err := s.db.NewUpdate().Model((*models.VerificationToken)(nil)).
		Set("used_at = ?", at).
		Where("id = ?", id).
		Where("used_at IS NULL").
		Where("expires_at > ?", at).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) DeletePlayerTokens(ctx context.Context, playerID int, purposes ...models.TokenPurpose) error {
	q := s.db.NewDelete().Model((*models.VerificationToken)(nil)).Where("player_id = ?", playerID)
	if len(purposes) > 0 {
		q = q.Where("purpose IN (?)", bun.In(purposes))
	}
	_, err := q.Exec(ctx)
	return err
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.NewInsert().Model(u).Returning("id").Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return store.ErrEmailExists
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	if err := s.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx); err != nil {
		return nil, mapErr(err, store.ErrUserNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := s.db.NewSelect().Model(u).
		Where("lower(u.email) = lower(?)", strings.TrimSpace(email)).
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err, store.ErrUserNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByPlayer(ctx context.Context, playerID int) (*models.User, error) {
	u := &models.User{}
	if err := s.db.NewSelect().Model(u).Where("u.player_id = ?", playerID).Scan(ctx); err != nil {
		return nil, mapErr(err, store.ErrUserNotFound)
	}
	return u, nil
}

func (s *Store) ListUsersByPlayers(ctx context.Context, playerIDs ...int) ([]models.User, error) {
	var out []models.User
	if len(playerIDs) == 0 {
		return out, nil
	}
	err := s.db.NewSelect().Model(&out).
		Where("u.player_id IN (?)", bun.In(playerIDs)).
		Order("u.id ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res, err := s.db.NewUpdate().Model(u).Column(columns...).WherePK().Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return store.ErrEmailExists
	}
	return mustAffect(res, err, store.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().Model((*models.User)(nil)).Where("id = ?", id).Exec(ctx)
	return mustAffect(res, err, store.ErrUserNotFound)
}
