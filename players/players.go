// Package players covers a member's life in the club: invitation, claiming
// an account, profile edits, and removal by anonymisation.
package players

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/mailer"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/tokens"
)

const (
	minBornYear = 1900
	dateLayout  = "2006-01-02"
)

// Accounts is the slice of the auth service players need.
type Accounts interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	CreateUser(ctx context.Context, email, password string, role models.Role, playerID *int) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

// Options are the config values the service reads.
type Options struct {
	BaseURL   string
	InviteTTL time.Duration
	VerifyTTL time.Duration
	Location  *time.Location
}

type Service struct {
	store    store.Store
	tokens   *tokens.Service
	accounts Accounts
	mailer   mailer.Mailer
	opts     Options
	clock    clock.Clock
	logger   *zap.Logger
}

func New(st store.Store, tok *tokens.Service, acc Accounts, m mailer.Mailer, opts Options, clk clock.Clock, logger *zap.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:    st,
		tokens:   tok,
		accounts: acc,
		mailer:   m,
		opts:     opts,
		clock:    clk,
		logger:   logger.Named("players"),
	}
}

func (s *Service) today() time.Time {
	now := s.clock.Now().In(s.opts.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
}

func trimmedOrNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// NewPlayer is the admin form for adding a member.
type NewPlayer struct {
	Name         string `json:"name"`
	IntroducedBy string `json:"introducedBy"`
	Email        string `json:"email"`
}

// Created is returned by Create.
type Created struct {
	Player       *models.Player `json:"player"`
	ClaimURL     string         `json:"claimUrl"`
	EmailPending bool           `json:"emailPending"`
}

// Create adds a player and an invitation to claim them. When an email is
// given it is recorded unverified and a verification link is mailed.
func (s *Service) Create(ctx context.Context, in NewPlayer) (*Created, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required", nil)
	}

	var introducer *int
	if raw := strings.TrimSpace(in.IntroducedBy); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return nil, apperr.Validation("introducer must be a player id", err)
		}
		if _, err := s.store.GetPlayer(ctx, id); err != nil {
			if errors.Is(err, store.ErrPlayerNotFound) {
				return nil, apperr.Validation("introducer must be a player id", err)
			}
			return nil, err
		}
		introducer = &id
	}

	var email string
	if strings.TrimSpace(in.Email) != "" {
		var err error
		if email, err = auth.NormaliseEmail(in.Email); err != nil {
			return nil, err
		}
	}

	p := &models.Player{
		Name:         &name,
		Joined:       s.today(),
		IntroducedBy: introducer,
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, err
	}

	raw, _, err := s.tokens.Issue(ctx, models.PurposePlayerInvite, tokens.Target{PlayerID: &p.ID}, s.opts.InviteTTL)
	if err != nil {
		return nil, err
	}
	out := &Created{Player: p, ClaimURL: fmt.Sprintf("%s/claim/%s", s.opts.BaseURL, raw)}

	if email != "" {
		if err := s.addEmail(ctx, p.ID, email); err != nil {
			s.logger.Warn("verification mail failed", zap.Int("player_id", p.ID), zap.Error(err))
		}
		out.EmailPending = true
	}

	s.logger.Info("player created", zap.Int("player_id", p.ID))
	return out, nil
}

// addEmail records email unverified and mails its verification link.
func (s *Service) addEmail(ctx context.Context, playerID int, email string) error {
	err := s.store.AddPlayerEmail(ctx, &models.PlayerEmail{PlayerID: playerID, Email: email, CreatedAt: s.clock.Now()})
	if err != nil {
		return err
	}
	raw, _, err := s.tokens.Issue(ctx, models.PurposeEmailVerify,
		tokens.Target{PlayerID: &playerID, Email: &email}, s.opts.VerifyTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/verify/%s", s.opts.BaseURL, raw)
	return s.mailer.Send(ctx, mailer.Message{
		To:      []string{email},
		Subject: "Confirm your email for footy",
		HTML:    fmt.Sprintf(`<p>Please <a href="%s">confirm this address</a> to receive club emails.</p>`, link),
	})
}

// Claim redeems an invitation and creates the player's login.
func (s *Service) Claim(ctx context.Context, raw, email, password string) (*models.User, error) {
	if _, err := auth.NormaliseEmail(email); err != nil {
		return nil, err
	}
	if _, err := auth.HashPassword(password); err != nil {
		return nil, err
	}
	tok, err := s.tokens.Lookup(ctx, models.PurposePlayerInvite, raw)
	if err != nil {
		return nil, err
	}
	if tok.PlayerID == nil {
		return nil, tokens.ErrInvalid
	}
	if _, err := s.store.GetUserByPlayer(ctx, *tok.PlayerID); err == nil {
		return nil, apperr.Conflict("player already claimed", nil)
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.tokens.Consume(ctx, models.PurposePlayerInvite, raw); err != nil {
		return nil, err
	}
	u, err := s.accounts.CreateUser(ctx, email, password, models.RoleUser, tok.PlayerID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("player claimed", zap.Int("player_id", *tok.PlayerID), zap.Int("user_id", u.ID))
	return u, nil
}

// VerifyEmail redeems an email verification link.
func (s *Service) VerifyEmail(ctx context.Context, raw string) error {
	tok, err := s.tokens.Consume(ctx, models.PurposeEmailVerify, raw)
	if err != nil {
		return err
	}
	if tok.PlayerID == nil || tok.Email == nil {
		return tokens.ErrInvalid
	}
	return s.store.MarkPlayerEmailVerified(ctx, *tok.PlayerID, *tok.Email)
}

// authorize lets admins act on anyone and users on their own player.
func (s *Service) authorize(ctx context.Context, playerID int) (*models.User, error) {
	u, err := s.accounts.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin || (u.PlayerID != nil && *u.PlayerID == playerID) {
		return u, nil
	}
	return nil, apperr.Forbidden("not your player")
}

// Profile is the public view of a player.
type Profile struct {
	ID        int                   `json:"id"`
	Name      string                `json:"name"`
	Joined    time.Time             `json:"joined"`
	Finished  *time.Time            `json:"finished,omitempty"`
	Comment   *string               `json:"comment,omitempty"`
	Clubs     []int                 `json:"clubs"`
	Countries []string              `json:"countries"`
	Records   []models.PlayerRecord `json:"records"`
}

func (s *Service) Profile(ctx context.Context, id int) (*Profile, error) {
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	clubs, err := s.store.ListClubSupporters(ctx, id)
	if err != nil {
		return nil, err
	}
	countries, err := s.store.ListCountrySupporters(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListPlayerRecordsForPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Profile{
		ID:        p.ID,
		Name:      p.DisplayName(),
		Joined:    p.Joined,
		Finished:  p.Finished,
		Clubs:     clubs,
		Countries: countries,
		Records:   recs,
	}
	if !p.Anonymous {
		out.Comment = p.Comment
	}
	return out, nil
}

// Update is the profile form. Emails, Clubs and Countries are the complete
// desired sets.
type Update struct {
	Name      string   `json:"name"`
	Anonymous bool     `json:"anonymous"`
	Born      *int     `json:"born"`
	Finished  string   `json:"finished"`
	Comment   string   `json:"comment"`
	Emails    []string `json:"emails"`
	Clubs     []int    `json:"clubs"`
	Countries []string `json:"countries"`
}

// UpdateResult lists extra emails whose verification could not be sent.
type UpdateResult struct {
	FailedEmails []string `json:"failedEmails,omitempty"`
}

// Update writes the core fields in one go, then reconciles extra emails and
// supporter links. A failed verification mail does not stop the others.
func (s *Service) Update(ctx context.Context, id int, in Update) (*UpdateResult, error) {
	if _, err := s.authorize(ctx, id); err != nil {
		return nil, err
	}

	p := &models.Player{
		ID:        id,
		Name:      trimmedOrNil(in.Name),
		Anonymous: in.Anonymous,
		Born:      in.Born,
		Comment:   trimmedOrNil(in.Comment),
	}
	if p.Born != nil {
		if year := s.clock.Now().In(s.opts.Location).Year(); *p.Born < minBornYear || *p.Born > year {
			return nil, apperr.Validation(fmt.Sprintf("born must be between %d and %d", minBornYear, year), nil)
		}
	}
	if f := strings.TrimSpace(in.Finished); f != "" {
		t, err := time.ParseInLocation(dateLayout, f, s.opts.Location)
		if err != nil {
			return nil, apperr.Validation("finished must be a YYYY-MM-DD date", err)
		}
		p.Finished = &t
	}

	desired := make([]string, 0, len(in.Emails))
	for _, e := range in.Emails {
		email, err := auth.NormaliseEmail(e)
		if err != nil {
			return nil, err
		}
		desired = append(desired, email)
	}

	if err := s.store.UpdatePlayer(ctx, p, "name", "anonymous", "born", "finished", "comment"); err != nil {
		return nil, err
	}

	res, err := s.reconcileEmails(ctx, id, desired)
	if err != nil {
		return nil, err
	}
	if err := s.reconcileClubs(ctx, id, in.Clubs); err != nil {
		return nil, err
	}
	if err := s.reconcileCountries(ctx, id, in.Countries); err != nil {
		return nil, err
	}

	s.logger.Info("player updated", zap.Int("player_id", id))
	return res, nil
}

func (s *Service) reconcileEmails(ctx context.Context, id int, desired []string) (*UpdateResult, error) {
	current, err := s.store.ListPlayerEmails(ctx, id)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(desired))
	for _, e := range desired {
		want[e] = true
	}
	have := make(map[string]bool, len(current))
	for _, e := range current {
		have[e.Email] = true
		if !want[e.Email] {
			if err := s.store.DeletePlayerEmail(ctx, id, e.Email); err != nil {
				return nil, err
			}
		}
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		result UpdateResult
	)
	for email := range want {
		if have[email] {
			continue
		}
		g.Go(func() error {
			if err := s.addEmail(ctx, id, email); err != nil {
				s.logger.Warn("email verification failed",
					zap.Int("player_id", id), zap.String("email", email), zap.Error(err))
				mu.Lock()
				result.FailedEmails = append(result.FailedEmails, email)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(result.FailedEmails)
	return &result, nil
}

func (s *Service) reconcileClubs(ctx context.Context, id int, clubs []int) error {
	if err := s.store.DeleteClubSupportersExcept(ctx, id, clubs); err != nil {
		return err
	}
	return s.store.UpsertClubSupporters(ctx, id, clubs)
}

func (s *Service) reconcileCountries(ctx context.Context, id int, countries []string) error {
	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		c = strings.ToUpper(strings.TrimSpace(c))
		if len(c) != 2 {
			return apperr.Validation("countries must be ISO 3166 alpha-2 codes", nil)
		}
		codes = append(codes, c)
	}
	if err := s.store.DeleteCountrySupportersExcept(ctx, id, codes); err != nil {
		return err
	}
	return s.store.UpsertCountrySupporters(ctx, id, codes)
}

// Delete finishes and anonymises a player. Dependent rows go in parallel
// between the two; the login is removed last because the earlier steps run
// under the caller's session.
func (s *Service) Delete(ctx context.Context, id int) error {
	if _, err := s.authorize(ctx, id); err != nil {
		return err
	}
	owner, err := s.store.GetUserByPlayer(ctx, id)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		return err
	}

	if err := s.store.SetPlayerFinished(ctx, id, s.today()); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.store.DeletePlayerEmails(gctx, id) })
	g.Go(func() error { return s.store.DeletePlayerTokens(gctx, id) })
	g.Go(func() error { return s.store.DeleteClubSupportersExcept(gctx, id, nil) })
	g.Go(func() error { return s.store.DeleteCountrySupportersExcept(gctx, id, nil) })
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.store.AnonymisePlayer(ctx, id); err != nil {
		return err
	}

	if owner != nil {
		if err := s.accounts.DeleteUser(ctx, owner.ID); err != nil {
			return err
		}
	}
	s.logger.Info("player deleted", zap.Int("player_id", id))
	return nil
}

// BroadcastResult reports how many addresses a broadcast went to.
type BroadcastResult struct {
	RecipientCount int `json:"recipientCount"`
}

// EmailActivePlayers sends one message to every active player, all bcc'd.
// Account emails and verified extra emails count; each address once.
func (s *Service) EmailActivePlayers(ctx context.Context, subject, html string) (*BroadcastResult, error) {
	active, err := s.store.ListActivePlayers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}

	set := make(map[string]struct{})
	add := func(email string) {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			set[email] = struct{}{}
		}
	}
	if len(ids) > 0 {
		users, err := s.store.ListUsersByPlayers(ctx, ids...)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			add(u.Email)
		}
		extra, err := s.store.ListPlayerEmails(ctx, ids...)
		if err != nil {
			return nil, err
		}
		for _, e := range extra {
			if e.Verified {
				add(e.Email)
			}
		}
	}

	if len(set) == 0 {
		return &BroadcastResult{RecipientCount: 0}, nil
	}
	bcc := make([]string, 0, len(set))
	for e := range set {
		bcc = append(bcc, e)
	}
	sort.Strings(bcc)

	if err := s.mailer.Send(ctx, mailer.Message{Bcc: bcc, Subject: subject, HTML: html}); err != nil {
		return nil, err
	}
	s.logger.Info("broadcast sent", zap.String("subject", subject), zap.Int("recipients", len(bcc)))
	return &BroadcastResult{RecipientCount: len(bcc)}, nil
}
