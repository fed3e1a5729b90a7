package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
)

func TestUpsertOutcomeKeepsStoredInterval(t *testing.T) {
	ctx := context.Background()
	s := New()
	yes, no := models.ResponseYes, models.ResponseNo
	first, later := 60, 600

	require.NoError(t, s.UpsertOutcome(ctx, &models.Outcome{GameDayID: 1, PlayerID: 2, Response: &yes, ResponseInterval: &first},
		store.ColResponse, store.ColResponseInterval))
	require.NoError(t, s.UpsertOutcome(ctx, &models.Outcome{GameDayID: 1, PlayerID: 2, Response: &no, ResponseInterval: &later},
		store.ColResponse, store.ColResponseInterval))

	got, err := s.GetOutcome(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseNo, *got.Response)
	assert.Equal(t, 60, *got.ResponseInterval)

	all, err := s.ListOutcomes(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 2, s.OutcomeWrites())
}

func TestUpsertOutcomeOnlyTouchesNamedColumns(t *testing.T) {
	ctx := context.Background()
	s := New()
	team := models.TeamB
	pub := models.PubPlayed

	require.NoError(t, s.UpsertOutcome(ctx, &models.Outcome{GameDayID: 1, PlayerID: 1, Team: &team}, store.ColTeam))
	require.NoError(t, s.UpsertOutcome(ctx, &models.Outcome{GameDayID: 1, PlayerID: 1, Pub: &pub}, store.ColPub))

	got, err := s.GetOutcome(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, got.Team)
	assert.Equal(t, models.TeamB, *got.Team)
	assert.Equal(t, models.PubPlayed, *got.Pub)
}

func TestMarkTokenUsedIsSingleShot(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := &models.VerificationToken{ID: uuid.New(), TokenHash: "abc", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.CreateToken(ctx, tok))

	ok, err := s.MarkTokenUsed(ctx, tok.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkTokenUsed(ctx, tok.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	expired := &models.VerificationToken{ID: uuid.New(), TokenHash: "def", ExpiresAt: now}
	require.NoError(t, s.CreateToken(ctx, expired))
	ok, err = s.MarkTokenUsed(ctx, expired.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListWinnersOrdersByYearThenPlayer(t *testing.T) {
	ctx := context.Background()
	s := New()
	one, two := 1, 2
	require.NoError(t, s.UpsertPlayerRecords(ctx, []models.PlayerRecord{
		{Year: 2022, PlayerID: 5, RankPoints: &one},
		{Year: 2023, PlayerID: 7, RankPoints: &one},
		{Year: 2023, PlayerID: 3, RankPoints: &one},
		{Year: 2023, PlayerID: 4, RankPoints: &two},
	}))

	all, err := s.ListWinners(ctx, models.TablePoints, 0)
	require.NoError(t, err)
	var got [][2]int
	for _, r := range all {
		got = append(got, [2]int{r.Year, r.PlayerID})
	}
	assert.Equal(t, [][2]int{{2023, 3}, {2023, 7}, {2022, 5}}, got)

	only, err := s.ListWinners(ctx, models.TablePoints, 2022)
	require.NoError(t, err)
	assert.Len(t, only, 1)

	none, err := s.ListWinners(ctx, models.TablePub, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a@b.com"}))
	err := s.CreateUser(ctx, &models.User{Email: "A@B.com"})
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestMissingRowsReturnNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.GetPlayer(ctx, 1)
	assert.ErrorIs(t, err, store.ErrPlayerNotFound)
	_, err = s.GetGameDay(ctx, 1)
	assert.ErrorIs(t, err, store.ErrGameDayNotFound)
	_, err = s.NextUninvitedGameDay(ctx, time.Now())
	assert.ErrorIs(t, err, store.ErrGameDayNotFound)
}
