// Package gamedays schedules fixtures and runs the admin side of a game day:
// cancelling, picking teams, entering results and sending invitations.
package gamedays

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/mailer"
	"github.com/padraicbc/footy/metrics"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/outcome"
	"github.com/padraicbc/footy/players"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/tokens"
)

const (
	dateLayout  = "2006-01-02"
	kickOff     = 18
	sendLimit   = 4
	minReplyTTL = time.Hour
)

// Recomputer rebuilds standings after an outcome write.
type Recomputer interface {
	UpsertFromGameDay(ctx context.Context, gameDayID int) error
}

// Broadcaster mails every active player.
type Broadcaster interface {
	EmailActivePlayers(ctx context.Context, subject, html string) (*players.BroadcastResult, error)
}

type Options struct {
	Location    *time.Location
	GameCost    int
	PickerGames int
	BaseURL     string
}

type Service struct {
	store       store.Store
	tokens      *tokens.Service
	standings   Recomputer
	broadcaster Broadcaster
	mailer      mailer.Mailer
	opts        Options
	clock       clock.Clock
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func New(st store.Store, tok *tokens.Service, rc Recomputer, b Broadcaster, m mailer.Mailer, opts Options, clk clock.Clock, logger *zap.Logger, mt *metrics.Metrics) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:       st,
		tokens:      tok,
		standings:   rc,
		broadcaster: b,
		mailer:      m,
		opts:        opts,
		clock:       clk,
		logger:      logger.Named("gamedays"),
		metrics:     mt,
	}
}

// ParseDate reads a YYYY-MM-DD string as kick-off time on that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s), err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), kickOff, 0, 0, 0, loc), nil
}

// CreateMoreGameDays adds an enabled game day at kick-off for each date.
// Every date is checked before anything is stored.
func (s *Service) CreateMoreGameDays(ctx context.Context, dates []string) ([]*models.GameDay, error) {
	if len(dates) == 0 {
		return nil, apperr.Validation("no dates given", nil)
	}
	days := make([]*models.GameDay, 0, len(dates))
	for _, raw := range dates {
		d, err := ParseDate(raw, s.opts.Location)
		if err != nil {
			return nil, err
		}
		days = append(days, &models.GameDay{
			Date:        d,
			Game:        true,
			Cost:        s.opts.GameCost,
			PickerGames: s.opts.PickerGames,
		})
	}
	if err := s.store.CreateGameDays(ctx, days); err != nil {
		return nil, err
	}
	s.logger.Info("game days created", zap.Int("count", len(days)))
	return days, nil
}

func (s *Service) Get(ctx context.Context, id int) (*models.GameDay, error) {
	return s.store.GetGameDay(ctx, id)
}

// Cancel disables the game day and stores reason. With notify set every
// active player is told; the count of addresses mailed is returned.
func (s *Service) Cancel(ctx context.Context, id int, reason string, notify bool) (*models.GameDay, int, error) {
	gd, err := s.store.GetGameDay(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	gd.Game = false
	if r := strings.TrimSpace(reason); r != "" {
		gd.Comment = &r
	} else {
		gd.Comment = nil
	}
	if err := s.store.UpdateGameDay(ctx, gd, "game", "comment"); err != nil {
		return nil, 0, err
	}
	s.logger.Info("game day cancelled", zap.Int("game_day_id", id))

	if err := s.standings.UpsertFromGameDay(ctx, id); err != nil {
		return gd, 0, err
	}
	if !notify {
		return gd, 0, nil
	}

	when := gd.Date.In(s.opts.Location).Format("Monday 2 January")
	body := fmt.Sprintf("<p>There is no game on %s.</p>", when)
	if gd.Comment != nil {
		body += fmt.Sprintf("<p>%s</p>", html.EscapeString(*gd.Comment))
	}
	res, err := s.broadcaster.EmailActivePlayers(ctx, "Game cancelled: "+when, body)
	if err != nil {
		return gd, 0, err
	}
	return gd, res.RecipientCount, nil
}

// Reinstate enables a cancelled game day and clears its reason.
func (s *Service) Reinstate(ctx context.Context, id int) (*models.GameDay, error) {
	gd, err := s.store.GetGameDay(ctx, id)
	if err != nil {
		return nil, err
	}
	gd.Game = true
	gd.Comment = nil
	if err := s.store.UpdateGameDay(ctx, gd, "game", "comment"); err != nil {
		return nil, err
	}
	s.logger.Info("game day reinstated", zap.Int("game_day_id", id))
	return gd, s.standings.UpsertFromGameDay(ctx, id)
}

// SetTeam puts a player on a team, or takes them off the teams when team
// is nil.
func (s *Service) SetTeam(ctx context.Context, id, playerID int, team *models.Team, goalie bool) (*models.Outcome, error) {
	if team != nil && !team.Valid() {
		return nil, apperr.Validation("team must be A or B", nil)
	}
	if _, err := s.store.GetGameDay(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	o := &models.Outcome{GameDayID: id, PlayerID: playerID, Team: team, Goalie: goalie, UpdatedAt: s.clock.Now()}
	if err := s.store.UpsertOutcome(ctx, o, store.ColTeam, store.ColGoalie); err != nil {
		return nil, err
	}
	s.metrics.OutcomeWritten("team")
	return o, s.standings.UpsertFromGameDay(ctx, id)
}

// ResultView is the resolved result of a game day.
type ResultView struct {
	GameDayID int            `json:"gameDayId"`
	Winner    outcome.Winner `json:"winner"`
	TeamA     outcome.State  `json:"teamA"`
	TeamB     outcome.State  `json:"teamB"`
	Bibs      *models.Team   `json:"bibs,omitempty"`
}

// SetResult writes points for every player on a team and records which
// team wore the bibs. The returned view is resolved from the points as
// written, so a result entered while one team is empty reads back unset.
func (s *Service) SetResult(ctx context.Context, id int, winner outcome.Winner, bibs *models.Team) (*ResultView, error) {
	if _, ok := outcome.ParseWinner(string(winner)); !ok {
		return nil, apperr.Validation("winner must be A, B, draw or unset", nil)
	}
	if bibs != nil && !bibs.Valid() {
		return nil, apperr.Validation("bibs must be A or B", nil)
	}
	gd, err := s.store.GetGameDay(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.store.ListOutcomes(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for i := range outcomes {
		o := &outcomes[i]
		if !o.Played() {
			continue
		}
		o.Points = outcome.PointsFor(winner, *o.Team)
		o.UpdatedAt = now
		if err := s.store.UpsertOutcome(ctx, o, store.ColPoints); err != nil {
			return nil, err
		}
		s.metrics.OutcomeWritten("result")
	}

	gd.Bibs = bibs
	if err := s.store.UpdateGameDay(ctx, gd, "bibs"); err != nil {
		return nil, err
	}
	view := s.resolve(gd, outcomes)
	s.logger.Info("result recorded", zap.Int("game_day_id", id),
		zap.String("entered", string(winner)), zap.String("winner", string(view.Winner)))
	return view, s.standings.UpsertFromGameDay(ctx, id)
}

// Result resolves the winner from the recorded points.
func (s *Service) Result(ctx context.Context, id int) (*ResultView, error) {
	gd, err := s.store.GetGameDay(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.store.ListOutcomes(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(gd, outcomes), nil
}

func (s *Service) resolve(gd *models.GameDay, outcomes []models.Outcome) *ResultView {
	teamA, teamB := outcome.SplitTeams(outcomes)
	winner := outcome.ResolveWinner(teamA, teamB)
	if outcome.Inconsistent(teamA, teamB) {
		s.logger.Warn("inconsistent points recorded", zap.Int("game_day_id", gd.ID))
	}
	return &ResultView{
		GameDayID: gd.ID,
		Winner:    winner,
		TeamA:     outcome.TeamState(winner, models.TeamA),
		TeamB:     outcome.TeamState(winner, models.TeamB),
		Bibs:      gd.Bibs,
	}
}

// TurnoutRow is one player's entry on the turnout sheet.
type TurnoutRow struct {
	PlayerID int              `json:"playerId"`
	Name     string           `json:"name"`
	Response *models.Response `json:"response,omitempty"`
	Goalie   bool             `json:"goalie"`
	Team     *models.Team     `json:"team,omitempty"`
	Comment  *string          `json:"comment,omitempty"`
}

// Turnout counts the replies for a game day.
type Turnout struct {
	GameDay *models.GameDay `json:"gameDay"`
	Yes     int             `json:"yes"`
	No      int             `json:"no"`
	Unknown int             `json:"unknown"`
	Players []TurnoutRow    `json:"players"`
}

func (s *Service) Turnout(ctx context.Context, id int) (*Turnout, error) {
	gd, err := s.store.GetGameDay(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.store.ListOutcomes(ctx, id)
	if err != nil {
		return nil, err
	}
	t := &Turnout{GameDay: gd, Players: make([]TurnoutRow, 0, len(outcomes))}
	for _, o := range outcomes {
		if o.Response == nil {
			continue
		}
		switch *o.Response {
		case models.ResponseYes:
			t.Yes++
		case models.ResponseNo:
			t.No++
		default:
			t.Unknown++
		}
		p, err := s.store.GetPlayer(ctx, o.PlayerID)
		if err != nil {
			return nil, err
		}
		t.Players = append(t.Players, TurnoutRow{
			PlayerID: o.PlayerID,
			Name:     p.DisplayName(),
			Response: o.Response,
			Goalie:   o.Goalie,
			Team:     o.Team,
			Comment:  o.Comment,
		})
	}
	return t, nil
}

// InvitationReport summarises one SendInvitations run.
type InvitationReport struct {
	GameDayID int   `json:"gameDayId,omitempty"`
	Sent      int   `json:"sent"`
	Failed    []int `json:"failed,omitempty"`
}

// SendInvitations mails a reply link for the next uninvited game day to each
// active player with an account. Failures are logged and reported; the game
// day is marked invited once every send has been attempted.
func (s *Service) SendInvitations(ctx context.Context) (*InvitationReport, error) {
	now := s.clock.Now().In(s.opts.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
	gd, err := s.store.NextUninvitedGameDay(ctx, today)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.logger.Info("no game day awaiting invitations")
			return &InvitationReport{}, nil
		}
		return nil, err
	}

	active, err := s.store.ListActivePlayers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}
	var users []models.User
	if len(ids) > 0 {
		if users, err = s.store.ListUsersByPlayers(ctx, ids...); err != nil {
			return nil, err
		}
	}

	ttl := replyTTL(gd.Date, s.clock.Now())
	when := gd.Date.In(s.opts.Location).Format("Monday 2 January")
	report := &InvitationReport{GameDayID: gd.ID}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(sendLimit)
	for _, u := range users {
		g.Go(func() error {
			err := s.invite(ctx, gd, u, ttl, when)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("invitation failed",
					zap.Int("game_day_id", gd.ID), zap.Int("player_id", *u.PlayerID), zap.Error(err))
				report.Failed = append(report.Failed, *u.PlayerID)
				return nil
			}
			report.Sent++
			return nil
		})
	}
	_ = g.Wait()
	sort.Ints(report.Failed)

	sent := s.clock.Now()
	gd.InvitationSent = &sent
	if err := s.store.UpdateGameDay(ctx, gd, "invitation_sent"); err != nil {
		return nil, err
	}
	s.metrics.InvitationsDispatched(report.Sent)
	s.logger.Info("invitations sent",
		zap.Int("game_day_id", gd.ID), zap.Int("sent", report.Sent), zap.Int("failed", len(report.Failed)))
	return report, nil
}

// replyTTL keeps reply links open until a day after kick-off, and never
// for less than minReplyTTL.
func replyTTL(kickOff, now time.Time) time.Duration {
	closes := kickOff.Add(24 * time.Hour)
	return max(closes.Sub(now), minReplyTTL)
}

func (s *Service) invite(ctx context.Context, gd *models.GameDay, u models.User, ttl time.Duration, when string) error {
	raw, _, err := s.tokens.Issue(ctx, models.PurposeGameResponse,
		tokens.Target{PlayerID: u.PlayerID, GameDayID: &gd.ID}, ttl)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/respond/%s", s.opts.BaseURL, raw)
	body := fmt.Sprintf(`<p>Are you playing on %s?</p>
<p><a href="%s?response=yes">Yes</a> | <a href="%s?response=no">No</a> | <a href="%s?response=unknown">Not sure</a></p>`,
		when, link, link, link)
	return s.mailer.Send(ctx, mailer.Message{
		To:      []string{u.Email},
		Subject: "Footy on " + when,
		HTML:    body,
	})
}
