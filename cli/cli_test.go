package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/app"
	"github.com/padraicbc/footy/config"
	"github.com/padraicbc/footy/mailer"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store/memstore"
)

func testApp(t *testing.T) (*app.App, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	a, err := app.New(&config.Config{
		JWTSecret:           "jwt",
		TokenSecret:         "tok",
		BaseURL:             "https://footy.test",
		MailDryRun:          true,
		Location:            time.UTC,
		MinGamesForAverages: 1,
		MinResponsesSpeedy:  1,
		GameCost:            5,
		PickerGames:         10,
		InviteTTL:           time.Hour,
		VerifyTTL:           time.Hour,
		ResetTTL:            time.Hour,
	}, st, zap.NewNop(), nil)
	require.NoError(t, err)
	return a, st
}

func run(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	closed := false
	cmd := NewRootCmd(func(ctx context.Context) (*app.App, func(), error) {
		return a, func() { closed = true }, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, closed, "services left open")
	}
	return out.String(), err
}

func TestGameDaysAdd(t *testing.T) {
	a, st := testApp(t)

	out, err := run(t, a, "gamedays", "add", "2099-03-03", "2099-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "2 game days added")

	gd, err := st.GetGameDay(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2099, 3, 10, 18, 0, 0, 0, time.UTC), gd.Date)

	_, err = run(t, a, "gamedays", "add", "tomorrow")
	assert.Error(t, err)
	_, err = st.GetGameDay(context.Background(), 3)
	assert.Error(t, err)
}

func TestInvitationsSendJSON(t *testing.T) {
	a, st := testApp(t)
	ctx := context.Background()
	_, err := run(t, a, "gamedays", "add", "2099-03-03")
	require.NoError(t, err)
	require.NoError(t, st.CreatePlayer(ctx, &models.Player{}))
	pid := 1
	require.NoError(t, st.CreateUser(ctx, &models.User{Email: "ann@example.com", Role: models.RoleUser, PlayerID: &pid}))

	out, err := run(t, a, "invitations", "send", "-o", "json")
	require.NoError(t, err)
	var report struct {
		GameDayID int `json:"gameDayId"`
		Sent      int `json:"sent"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.GameDayID)
	assert.Equal(t, 1, report.Sent)
	assert.Len(t, a.Mailer.(*mailer.Fake).Sent(), 1)

	out, err = run(t, a, "invitations", "send")
	require.NoError(t, err)
	assert.Contains(t, out, "no game day awaiting invitations")
}

func TestRecordsRecompute(t *testing.T) {
	a, st := testApp(t)
	ctx := context.Background()
	_, err := run(t, a, "gamedays", "add", "2024-05-07")
	require.NoError(t, err)
	require.NoError(t, st.CreatePlayer(ctx, &models.Player{}))
	team, pts := models.TeamA, models.PointsWin
	require.NoError(t, st.UpsertOutcome(ctx, &models.Outcome{GameDayID: 1, PlayerID: 1, Team: &team, Points: &pts}))

	out, err := run(t, a, "records", "recompute", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "records for 2024 rebuilt")

	recs, err := st.ListPlayerRecords(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.PointsWin, recs[0].Points)
	assert.Equal(t, 1, *recs[0].RankPoints)

	_, err = run(t, a, "records", "recompute", "--year", "12")
	assert.Error(t, err)
}
