package gamedays

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/mailer"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/outcome"
	"github.com/padraicbc/footy/players"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/store/memstore"
	"github.com/padraicbc/footy/tokens"
)

type recomputeSpy struct{ calls []int }

func (r *recomputeSpy) UpsertFromGameDay(ctx context.Context, id int) error {
	r.calls = append(r.calls, id)
	return nil
}

type broadcastSpy struct {
	subjects []string
}

func (b *broadcastSpy) EmailActivePlayers(ctx context.Context, subject, html string) (*players.BroadcastResult, error) {
	b.subjects = append(b.subjects, subject)
	return &players.BroadcastResult{RecipientCount: 7}, nil
}

type GameDaysSuite struct {
	suite.Suite
	ctx   context.Context
	loc   *time.Location
	store *memstore.Store
	clock *clock.Mock
	mail  *mailer.Fake
	spy   *recomputeSpy
	bc    *broadcastSpy
	svc   *Service
}

func TestGameDaysSuite(t *testing.T) {
	suite.Run(t, new(GameDaysSuite))
}

func (s *GameDaysSuite) SetupTest() {
	s.loc = time.FixedZone("club", 3600)
	s.ctx = context.Background()
	s.store = memstore.New()
	s.clock = clock.NewMock(time.Date(2026, 2, 23, 9, 0, 0, 0, s.loc))
	s.mail = mailer.NewFake(nil)
	s.spy = &recomputeSpy{}
	s.bc = &broadcastSpy{}
	tok := tokens.New(s.store, []byte("k"), s.clock)
	s.svc = New(s.store, tok, s.spy, s.bc, s.mail, Options{
		Location:    s.loc,
		GameCost:    5,
		PickerGames: 10,
		BaseURL:     "https://footy.test",
	}, s.clock, zap.NewNop(), nil)
}

func (s *GameDaysSuite) TestCreateMoreGameDays() {
	days, err := s.svc.CreateMoreGameDays(s.ctx, []string{"2026-03-01", "2026-03-08"})
	s.Require().NoError(err)
	s.Require().Len(days, 2)

	gd, err := s.store.GetGameDay(s.ctx, days[0].ID)
	s.Require().NoError(err)
	s.Equal(time.Date(2026, 3, 1, 18, 0, 0, 0, s.loc), gd.Date)
	s.True(gd.Game)
	s.Equal(5, gd.Cost)
	s.Equal(10, gd.PickerGames)
}

func (s *GameDaysSuite) TestCreateMoreGameDaysRejectsBadDateAtomically() {
	_, err := s.svc.CreateMoreGameDays(s.ctx, []string{"2026-03-01", "2026-13-01"})
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	_, err = s.store.GetGameDay(s.ctx, 1)
	s.ErrorIs(err, store.ErrGameDayNotFound)

	_, err = s.svc.CreateMoreGameDays(s.ctx, nil)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
}

func (s *GameDaysSuite) seedGame() int {
	days, err := s.svc.CreateMoreGameDays(s.ctx, []string{"2026-02-24"})
	s.Require().NoError(err)
	return days[0].ID
}

func (s *GameDaysSuite) TestCancelAndReinstate() {
	id := s.seedGame()

	gd, n, err := s.svc.Cancel(s.ctx, id, " pitch frozen ", true)
	s.Require().NoError(err)
	s.False(gd.Game)
	s.Equal("pitch frozen", *gd.Comment)
	s.Equal(7, n)
	s.Require().Len(s.bc.subjects, 1)
	s.True(strings.HasPrefix(s.bc.subjects[0], "Game cancelled: "))

	gd, err = s.svc.Reinstate(s.ctx, id)
	s.Require().NoError(err)
	s.True(gd.Game)
	s.Nil(gd.Comment)
	s.Equal([]int{id, id}, s.spy.calls)
}

func (s *GameDaysSuite) TestCancelQuietly() {
	id := s.seedGame()
	_, n, err := s.svc.Cancel(s.ctx, id, "", false)
	s.Require().NoError(err)
	s.Zero(n)
	s.Empty(s.bc.subjects)
}

func (s *GameDaysSuite) TestResultWritesPoints() {
	id := s.seedGame()
	a, b := models.TeamA, models.TeamB
	for pid := 1; pid <= 4; pid++ {
		s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{}))
		team := &a
		if pid > 2 {
			team = &b
		}
		_, err := s.svc.SetTeam(s.ctx, id, pid, team, pid == 1)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{}))
	yes := models.ResponseYes
	s.Require().NoError(s.store.UpsertOutcome(s.ctx, &models.Outcome{GameDayID: id, PlayerID: 5, Response: &yes}))

	view, err := s.svc.SetResult(s.ctx, id, outcome.WinnerB, &a)
	s.Require().NoError(err)
	s.Equal(outcome.StateLoss, view.TeamA)
	s.Equal(outcome.StateWin, view.TeamB)

	got, err := s.store.GetOutcome(s.ctx, id, 1)
	s.Require().NoError(err)
	s.Equal(models.PointsLoss, *got.Points)
	s.True(got.Goalie)
	got, err = s.store.GetOutcome(s.ctx, id, 3)
	s.Require().NoError(err)
	s.Equal(models.PointsWin, *got.Points)
	got, err = s.store.GetOutcome(s.ctx, id, 5)
	s.Require().NoError(err)
	s.Nil(got.Points)

	read, err := s.svc.Result(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(outcome.WinnerB, read.Winner)
	s.Equal(models.TeamA, *read.Bibs)

	_, err = s.svc.SetResult(s.ctx, id, outcome.WinnerDraw, nil)
	s.Require().NoError(err)
	read, err = s.svc.Result(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(outcome.WinnerDraw, read.Winner)
	s.Nil(read.Bibs)
}

func (s *GameDaysSuite) TestSetResultValidates() {
	id := s.seedGame()
	_, err := s.svc.SetResult(s.ctx, id, outcome.Winner("C"), nil)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
	bad := models.Team("Z")
	_, err = s.svc.SetTeam(s.ctx, id, 1, &bad, false)
	s.Equal(apperr.KindValidation, apperr.KindOf(err))
	_, err = s.svc.SetResult(s.ctx, 999, outcome.WinnerA, nil)
	s.ErrorIs(err, store.ErrGameDayNotFound)
}

func (s *GameDaysSuite) TestTurnout() {
	id := s.seedGame()
	for _, name := range []string{"Ann", "Bob", "Cat"} {
		s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{Name: &name}))
	}
	for pid, r := range map[int]models.Response{1: models.ResponseYes, 2: models.ResponseNo, 3: models.ResponseUnknown} {
		s.Require().NoError(s.store.UpsertOutcome(s.ctx, &models.Outcome{GameDayID: id, PlayerID: pid, Response: &r}))
	}
	t, err := s.svc.Turnout(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, t.Yes)
	s.Equal(1, t.No)
	s.Equal(1, t.Unknown)
	s.Len(t.Players, 3)
}

func (s *GameDaysSuite) TestSendInvitations() {
	id := s.seedGame()
	emails := []string{"one@example.com", "two@example.com", "three@example.com"}
	for i, email := range emails {
		s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{}))
		pid := i + 1
		s.Require().NoError(s.store.CreateUser(s.ctx, &models.User{Email: email, Role: models.RoleUser, PlayerID: &pid}))
	}
	s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{}))
	s.mail.Err = errors.New("mailbox full")
	s.mail.FailFor = "two@example.com"

	report, err := s.svc.SendInvitations(s.ctx)
	s.Require().NoError(err)
	s.Equal(id, report.GameDayID)
	s.Equal(2, report.Sent)
	s.Equal([]int{2}, report.Failed)

	sent := s.mail.Sent()
	s.Require().Len(sent, 2)
	s.Contains(sent[0].HTML, "https://footy.test/respond/")

	gd, err := s.store.GetGameDay(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(gd.InvitationSent)

	report, err = s.svc.SendInvitations(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.GameDayID)
	s.Len(s.mail.Sent(), 2)
}

func (s *GameDaysSuite) TestResultWithOneTeamReadsUnset() {
	id := s.seedGame()
	a := models.TeamA
	s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{}))
	_, err := s.svc.SetTeam(s.ctx, id, 1, &a, false)
	s.Require().NoError(err)

	view, err := s.svc.SetResult(s.ctx, id, outcome.WinnerA, nil)
	s.Require().NoError(err)
	s.Equal(outcome.WinnerUnset, view.Winner)

	got, err := s.store.GetOutcome(s.ctx, id, 1)
	s.Require().NoError(err)
	s.Equal(models.PointsWin, *got.Points)

	read, err := s.svc.Result(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(view.Winner, read.Winner)
}

func TestReplyTTL(t *testing.T) {
	kickOff := time.Date(2026, 2, 24, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, 33*time.Hour, replyTTL(kickOff, kickOff.Add(-9*time.Hour)))
	assert.Equal(t, minReplyTTL, replyTTL(kickOff, kickOff.Add(24*time.Hour)))
	assert.Equal(t, minReplyTTL, replyTTL(kickOff, kickOff.Add(72*time.Hour)))
}
