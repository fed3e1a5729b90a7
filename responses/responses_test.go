package responses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/standings"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/store/memstore"
	"github.com/padraicbc/footy/tokens"
)

type recomputeSpy struct {
	calls []int
	err   error
}

func (r *recomputeSpy) UpsertFromGameDay(ctx context.Context, gameDayID int) error {
	r.calls = append(r.calls, gameDayID)
	if r.err != nil {
		return &standings.RecordsError{GameDayID: gameDayID, Err: r.err}
	}
	return nil
}

type ResponsesSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memstore.Store
	clock  *clock.Mock
	spy    *recomputeSpy
	tokens *tokens.Service
	svc    *Service
	sent   time.Time
}

func TestResponsesSuite(t *testing.T) {
	suite.Run(t, new(ResponsesSuite))
}

func (s *ResponsesSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.sent = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s.clock = clock.NewMock(s.sent.Add(2 * time.Minute))
	s.spy = &recomputeSpy{}
	s.tokens = tokens.New(s.store, []byte("k"), s.clock)
	s.svc = New(s.store, s.tokens, s.spy, s.clock, zap.NewNop(), nil)

	for range 9 {
		s.Require().NoError(s.store.CreatePlayer(s.ctx, &models.Player{}))
	}
	s.Require().NoError(s.store.CreateGameDays(s.ctx, []*models.GameDay{
		{ID: 1249, Date: time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC), Game: true, InvitationSent: &s.sent},
		{ID: 1250, Date: time.Date(2024, 3, 12, 18, 0, 0, 0, time.UTC), Game: true},
	}))
}

func (s *ResponsesSuite) TestFirstResponseStoresInterval() {
	o, err := s.svc.Respond(s.ctx, Reply{GameDayID: 1249, PlayerID: 1, Response: models.ResponseYes, Comment: "  see you  "})
	s.Require().NoError(err)
	s.Require().NotNil(o.ResponseInterval)
	s.Equal(120, *o.ResponseInterval)
	s.Equal("see you", *o.Comment)
	s.Equal([]int{1249}, s.spy.calls)
}

func (s *ResponsesSuite) TestIntervalIsWriteOnce() {
	interval := 123
	yes := models.ResponseYes
	s.Require().NoError(s.store.UpsertOutcome(s.ctx, &models.Outcome{
		GameDayID: 1249, PlayerID: 2, Response: &yes, ResponseInterval: &interval,
	}, store.ColResponse))

	s.clock.Advance(48 * time.Hour)
	_, err := s.svc.Respond(s.ctx, Reply{GameDayID: 1249, PlayerID: 2, Response: models.ResponseNo, Goalie: true})
	s.Require().NoError(err)

	got, err := s.store.GetOutcome(s.ctx, 1249, 2)
	s.Require().NoError(err)
	s.Equal(123, *got.ResponseInterval)
	s.Equal(models.ResponseNo, *got.Response)
	s.True(got.Goalie)
	s.Nil(got.Comment)

	all, err := s.store.ListOutcomes(s.ctx, 1249)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ResponsesSuite) TestNoInvitationMeansNoInterval() {
	o, err := s.svc.Respond(s.ctx, Reply{GameDayID: 1250, PlayerID: 1, Response: models.ResponseUnknown})
	s.Require().NoError(err)
	s.Nil(o.ResponseInterval)
}

func (s *ResponsesSuite) TestIntervalClampedAtZero() {
	s.clock.Set(s.sent.Add(-time.Hour))
	o, err := s.svc.Respond(s.ctx, Reply{GameDayID: 1249, PlayerID: 3, Response: models.ResponseYes})
	s.Require().NoError(err)
	s.Equal(0, *o.ResponseInterval)
}

func (s *ResponsesSuite) TestValidationAndNotFound() {
	_, err := s.svc.Respond(s.ctx, Reply{GameDayID: 1249, PlayerID: 1, Response: "maybe"})
	s.Equal(apperr.KindValidation, apperr.KindOf(err))

	_, err = s.svc.Respond(s.ctx, Reply{GameDayID: 7, PlayerID: 1, Response: models.ResponseYes})
	s.ErrorIs(err, store.ErrGameDayNotFound)

	_, err = s.svc.AdminRespond(s.ctx, Reply{GameDayID: 1249, PlayerID: 77, Response: models.ResponseYes})
	s.ErrorIs(err, store.ErrPlayerNotFound)
	s.Empty(s.spy.calls)
}

func (s *ResponsesSuite) TestRespondWithTokenUsesTokenTarget() {
	gd, pid := 1249, 4
	raw, _, err := s.tokens.Issue(s.ctx, models.PurposeGameResponse, tokens.Target{GameDayID: &gd, PlayerID: &pid}, time.Hour)
	s.Require().NoError(err)

	o, err := s.svc.RespondWithToken(s.ctx, raw, Reply{GameDayID: 1, PlayerID: 1, Response: models.ResponseYes})
	s.Require().NoError(err)
	s.Equal(1249, o.GameDayID)
	s.Equal(4, o.PlayerID)

	_, err = s.svc.RespondWithToken(s.ctx, raw, Reply{Response: models.ResponseNo})
	s.Require().NoError(err, "game response links can be reused")

	_, err = s.svc.RespondWithToken(s.ctx, "forged", Reply{Response: models.ResponseNo})
	s.Equal(apperr.KindAuth, apperr.KindOf(err))
}

func (s *ResponsesSuite) TestRecomputeFailureKeepsWrite() {
	s.spy.err = errors.New("boom")
	_, err := s.svc.Respond(s.ctx, Reply{GameDayID: 1249, PlayerID: 5, Response: models.ResponseYes})
	s.EqualError(err, "failed to update records for 1249: boom")

	_, getErr := s.store.GetOutcome(s.ctx, 1249, 5)
	s.NoError(getErr)
}

func (s *ResponsesSuite) TestDrinkersCoverRosterAndSelections() {
	a, b := models.TeamA, models.TeamB
	s.Require().NoError(s.store.UpsertOutcome(s.ctx, &models.Outcome{GameDayID: 1249, PlayerID: 1, Team: &a}, store.ColTeam))
	s.Require().NoError(s.store.UpsertOutcome(s.ctx, &models.Outcome{GameDayID: 1249, PlayerID: 2}, store.ColTeam))
	s.Require().NoError(s.store.UpsertOutcome(s.ctx, &models.Outcome{GameDayID: 1249, PlayerID: 9, Team: &b}, store.ColTeam))
	before := s.store.OutcomeWrites()

	got, err := s.svc.SetDrinkers(s.ctx, 1249, []Selection{
		{PlayerID: 1, Drinker: true},
		{PlayerID: 2, Drinker: true},
		{PlayerID: 3, Drinker: false},
	})
	s.Require().NoError(err)
	s.Equal(4, s.store.OutcomeWrites()-before)

	pubOf := func(id int) *int {
		o, err := s.store.GetOutcome(s.ctx, 1249, id)
		s.Require().NoError(err)
		return o.Pub
	}
	s.Equal(models.PubPlayed, *pubOf(1))
	s.Equal(models.PubNotPlayed, *pubOf(2))
	s.Nil(pubOf(3))
	s.Nil(pubOf(9))
	s.Len(got, 4)
	s.Equal([]int{1249}, s.spy.calls)
}

func (s *ResponsesSuite) TestDuplicateSelectionLastWins() {
	before := s.store.OutcomeWrites()
	got, err := s.svc.SetDrinkers(s.ctx, 1250, []Selection{
		{PlayerID: 7, Drinker: true},
		{PlayerID: 7, Drinker: false},
	})
	s.Require().NoError(err)
	s.Equal(1, s.store.OutcomeWrites()-before)
	s.Nil(got[7])

	o, err := s.store.GetOutcome(s.ctx, 1250, 7)
	s.Require().NoError(err)
	s.Nil(o.Pub)
}

func (s *ResponsesSuite) TestDrinkersUnknownGameDay() {
	_, err := s.svc.SetDrinkers(s.ctx, 404, nil)
	s.ErrorIs(err, store.ErrGameDayNotFound)
}
