// Package memstore is an in-memory store.Store used by tests and dry runs.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
)

type outcomeKey struct {
	gameDayID int
	playerID  int
}

type recordKey struct {
	year     int
	playerID int
}

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	players       map[int]*models.Player
	emails        []models.PlayerEmail
	clubs         map[int]map[int]struct{}
	countries     map[int]map[string]struct{}
	gameDays      map[int]*models.GameDay
	outcomes      map[outcomeKey]*models.Outcome
	records       map[recordKey]*models.PlayerRecord
	tokens        map[uuid.UUID]*models.VerificationToken
	users         map[int]*models.User
	nextPlayer    int
	nextGameDay   int
	nextOutcome   int
	nextRecord    int
	nextUser      int
	nextEmail     int
	outcomeWrites int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		players:   make(map[int]*models.Player),
		clubs:     make(map[int]map[int]struct{}),
		countries: make(map[int]map[string]struct{}),
		gameDays:  make(map[int]*models.GameDay),
		outcomes:  make(map[outcomeKey]*models.Outcome),
		records:   make(map[recordKey]*models.PlayerRecord),
		tokens:    make(map[uuid.UUID]*models.VerificationToken),
		users:     make(map[int]*models.User),
	}
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// OutcomeWrites returns how many times UpsertOutcome has been called.
func (s *Store) OutcomeWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcomeWrites
}

// Players

func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextPlayer++
		p.ID = s.nextPlayer
	} else if p.ID > s.nextPlayer {
		s.nextPlayer = p.ID
	}
	cp := *p
	s.players[p.ID] = &cp
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, store.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, p *models.Player, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.players[p.ID]
	if !ok {
		return store.ErrPlayerNotFound
	}
	for _, c := range columns {
		switch c {
		case "name":
			cur.Name = p.Name
		case "anonymous":
			cur.Anonymous = p.Anonymous
		case "born":
			cur.Born = p.Born
		case "finished":
			cur.Finished = p.Finished
		case "comment":
			cur.Comment = p.Comment
		case "introduced_by":
			cur.IntroducedBy = p.IntroducedBy
		case "joined":
			cur.Joined = p.Joined
		}
	}
	return nil
}

func (s *Store) ListActivePlayers(ctx context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Player
	for _, p := range s.players {
		if p.Finished == nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetPlayerFinished(ctx context.Context, id int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return store.ErrPlayerNotFound
	}
	p.Finished = &at
	return nil
}

func (s *Store) AnonymisePlayer(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return store.ErrPlayerNotFound
	}
	p.Name = nil
	p.Anonymous = true
	p.Born = nil
	p.Comment = nil
	return nil
}

// Player emails

func (s *Store) ListPlayerEmails(ctx context.Context, playerIDs ...int) ([]models.PlayerEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PlayerEmail
	for _, e := range s.emails {
		if slices.Contains(playerIDs, e.PlayerID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) AddPlayerEmail(ctx context.Context, e *models.PlayerEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.emails {
		if cur.PlayerID == e.PlayerID && cur.Email == e.Email {
			e.ID = cur.ID
			return nil
		}
	}
	s.nextEmail++
	e.ID = s.nextEmail
	s.emails = append(s.emails, *e)
	return nil
}

func (s *Store) DeletePlayerEmail(ctx context.Context, playerID int, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = slices.DeleteFunc(s.emails, func(e models.PlayerEmail) bool {
		return e.PlayerID == playerID && e.Email == email
	})
	return nil
}

func (s *Store) DeletePlayerEmails(ctx context.Context, playerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = slices.DeleteFunc(s.emails, func(e models.PlayerEmail) bool {
		return e.PlayerID == playerID
	})
	return nil
}

func (s *Store) MarkPlayerEmailVerified(ctx context.Context, playerID int, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.emails {
		if s.emails[i].PlayerID == playerID && s.emails[i].Email == email {
			s.emails[i].Verified = true
			return nil
		}
	}
	return store.ErrEmailNotFound
}

// Supporters

func (s *Store) ListClubSupporters(ctx context.Context, playerID int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for id := range s.clubs[playerID] {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func (s *Store) DeleteClubSupportersExcept(ctx context.Context, playerID int, keep []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.clubs[playerID] {
		if !slices.Contains(keep, id) {
			delete(s.clubs[playerID], id)
		}
	}
	return nil
}

func (s *Store) UpsertClubSupporters(ctx context.Context, playerID int, clubIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clubs[playerID] == nil {
		s.clubs[playerID] = make(map[int]struct{})
	}
	for _, id := range clubIDs {
		s.clubs[playerID][id] = struct{}{}
	}
	return nil
}

func (s *Store) ListCountrySupporters(ctx context.Context, playerID int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for code := range s.countries[playerID] {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) DeleteCountrySupportersExcept(ctx context.Context, playerID int, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range s.countries[playerID] {
		if !slices.Contains(keep, code) {
			delete(s.countries[playerID], code)
		}
	}
	return nil
}

func (s *Store) UpsertCountrySupporters(ctx context.Context, playerID int, isoCodes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countries[playerID] == nil {
		s.countries[playerID] = make(map[string]struct{})
	}
	for _, code := range isoCodes {
		s.countries[playerID][code] = struct{}{}
	}
	return nil
}

// Game days

func (s *Store) CreateGameDays(ctx context.Context, days []*models.GameDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, gd := range days {
		if gd.ID == 0 {
			s.nextGameDay++
			gd.ID = s.nextGameDay
		} else if gd.ID > s.nextGameDay {
			s.nextGameDay = gd.ID
		}
		cp := *gd
		s.gameDays[gd.ID] = &cp
	}
	return nil
}

func (s *Store) GetGameDay(ctx context.Context, id int) (*models.GameDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gd, ok := s.gameDays[id]
	if !ok {
		return nil, store.ErrGameDayNotFound
	}
	cp := *gd
	return &cp, nil
}

func (s *Store) UpdateGameDay(ctx context.Context, gd *models.GameDay, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.gameDays[gd.ID]
	if !ok {
		return store.ErrGameDayNotFound
	}
	for _, c := range columns {
		switch c {
		case "game":
			cur.Game = gd.Game
		case "comment":
			cur.Comment = gd.Comment
		case "invitation_sent":
			cur.InvitationSent = gd.InvitationSent
		case "bibs":
			cur.Bibs = gd.Bibs
		case "cost":
			cur.Cost = gd.Cost
		case "picker_games":
			cur.PickerGames = gd.PickerGames
		case "date":
			cur.Date = gd.Date
		}
	}
	return nil
}

func (s *Store) NextUninvitedGameDay(ctx context.Context, from time.Time) (*models.GameDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var next *models.GameDay
	for _, gd := range s.gameDays {
		if !gd.Game || gd.InvitationSent != nil || gd.Date.Before(from) {
			continue
		}
		if next == nil || gd.Date.Before(next.Date) {
			next = gd
		}
	}
	if next == nil {
		return nil, store.ErrGameDayNotFound
	}
	cp := *next
	return &cp, nil
}

// Outcomes

func (s *Store) GetOutcome(ctx context.Context, gameDayID, playerID int) (*models.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[outcomeKey{gameDayID, playerID}]
	if !ok {
		return nil, store.ErrOutcomeNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) UpsertOutcome(ctx context.Context, o *models.Outcome, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomeWrites++
	key := outcomeKey{o.GameDayID, o.PlayerID}
	cur, ok := s.outcomes[key]
	if !ok {
		s.nextOutcome++
		cp := *o
		cp.ID = s.nextOutcome
		cp.GameDay = nil
		s.outcomes[key] = &cp
		o.ID = cp.ID
		return nil
	}
	for _, c := range columns {
		switch c {
		case store.ColResponse:
			cur.Response = o.Response
		case store.ColResponseInterval:
			if cur.ResponseInterval == nil {
				cur.ResponseInterval = o.ResponseInterval
			}
		case store.ColGoalie:
			cur.Goalie = o.Goalie
		case store.ColComment:
			cur.Comment = o.Comment
		case store.ColPoints:
			cur.Points = o.Points
		case store.ColTeam:
			cur.Team = o.Team
		case store.ColPub:
			cur.Pub = o.Pub
		}
	}
	cur.UpdatedAt = o.UpdatedAt
	o.ID = cur.ID
	return nil
}

func (s *Store) ListOutcomes(ctx context.Context, gameDayID int) ([]models.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Outcome
	for k, o := range s.outcomes {
		if k.gameDayID == gameDayID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (s *Store) ListOutcomesBetween(ctx context.Context, from, to time.Time) ([]models.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Outcome
	for k, o := range s.outcomes {
		gd, ok := s.gameDays[k.gameDayID]
		if !ok || gd.Date.Before(from) || !gd.Date.Before(to) {
			continue
		}
		cp := *o
		gdc := *gd
		cp.GameDay = &gdc
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GameDayID != out[j].GameDayID {
			return out[i].GameDayID < out[j].GameDayID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

// Records

func (s *Store) UpsertPlayerRecords(ctx context.Context, recs []models.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		key := recordKey{r.Year, r.PlayerID}
		if cur, ok := s.records[key]; ok {
			r.ID = cur.ID
		} else {
			s.nextRecord++
			r.ID = s.nextRecord
		}
		cp := r
		s.records[key] = &cp
	}
	return nil
}

func (s *Store) ListPlayerRecords(ctx context.Context, year int) ([]models.PlayerRecord, error) {
	return s.filterRecords(func(r *models.PlayerRecord) bool { return r.Year == year }), nil
}

func (s *Store) ListPlayerRecordsForPlayer(ctx context.Context, playerID int) ([]models.PlayerRecord, error) {
	return s.filterRecords(func(r *models.PlayerRecord) bool { return r.PlayerID == playerID }), nil
}

func (s *Store) ListWinners(ctx context.Context, table models.Table, year int) ([]models.PlayerRecord, error) {
	out := s.filterRecords(func(r *models.PlayerRecord) bool {
		rank := r.Rank(table)
		return rank != nil && *rank == 1 && (year == 0 || r.Year == year)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (s *Store) filterRecords(keep func(*models.PlayerRecord) bool) []models.PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PlayerRecord
	for _, r := range s.records {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// Tokens

func (s *Store) CreateToken(ctx context.Context, t *models.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.ID] = &cp
	return nil
}

func (s *Store) GetTokenByHash(ctx context.Context, hash string) (*models.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrTokenNotFound
}

func (s *Store) MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || !t.Usable(at) {
		return false, nil
	}
	t.UsedAt = &at
	return true, nil
}

func (s *Store) DeletePlayerTokens(ctx context.Context, playerID int, purposes ...models.TokenPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tokens {
		if t.PlayerID == nil || *t.PlayerID != playerID {
			continue
		}
		if len(purposes) == 0 || slices.Contains(purposes, t.Purpose) {
			delete(s.tokens, id)
		}
	}
	return nil
}

// Tokens returns a snapshot of every stored token.
func (s *Store) Tokens() []models.VerificationToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.VerificationToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.users {
		if strings.EqualFold(cur.Email, u.Email) {
			return store.ErrEmailExists
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *Store) GetUserByPlayer(ctx context.Context, playerID int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.PlayerID != nil && *u.PlayerID == playerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *Store) ListUsersByPlayers(ctx context.Context, playerIDs ...int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.PlayerID != nil && slices.Contains(playerIDs, *u.PlayerID) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	for _, c := range columns {
		switch c {
		case "email":
			for id, other := range s.users {
				if id != u.ID && strings.EqualFold(other.Email, u.Email) {
					return store.ErrEmailExists
				}
			}
			cur.Email = u.Email
		case "password":
			cur.Password = u.Password
		case "role":
			cur.Role = u.Role
		case "player_id":
			cur.PlayerID = u.PlayerID
		}
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
