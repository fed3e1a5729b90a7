package standings

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/footy/models"
)

var th = Thresholds{MinGamesForAverages: 2, MinResponsesForSpeedy: 2}

func ptr[T any](v T) *T { return &v }

func day(id int, game bool) *models.GameDay {
	return &models.GameDay{ID: id, Game: game, Date: time.Date(2024, 1, id, 18, 0, 0, 0, time.UTC)}
}

func played(gd *models.GameDay, player int, team models.Team, points int) models.Outcome {
	return models.Outcome{GameDayID: gd.ID, GameDay: gd, PlayerID: player, Team: &team, Points: &points}
}

func byPlayer(recs []models.PlayerRecord) map[int]models.PlayerRecord {
	out := make(map[int]models.PlayerRecord, len(recs))
	for _, r := range recs {
		out[r.PlayerID] = r
	}
	return out
}

func TestComputeTalliesGames(t *testing.T) {
	d1, d2 := day(1, true), day(2, true)
	outcomes := []models.Outcome{
		played(d1, 1, models.TeamA, 3),
		played(d1, 2, models.TeamB, 0),
		played(d2, 1, models.TeamA, 1),
		played(d2, 2, models.TeamB, 1),
	}
	recs := byPlayer(Compute(2024, outcomes, th))

	want := models.PlayerRecord{
		Year: 2024, PlayerID: 1, GameDayID: ptr(2),
		Played: 2, Won: 1, Drawn: 1, Points: 4, Averages: 2, Stalwart: 2,
		RankPoints: ptr(1), RankAverages: ptr(1), RankStalwart: ptr(1),
	}
	if diff := cmp.Diff(want, recs[1], cmpopts.IgnoreFields(models.PlayerRecord{}, "BaseModel")); diff != "" {
		t.Errorf("player 1 record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, recs[2].Lost)
	assert.Equal(t, 2, *recs[2].RankPoints)
	assert.Equal(t, 1, *recs[2].RankStalwart, "equal games played share the rank")
}

func TestComputeIgnoresDisabledDaysAndMissingPoints(t *testing.T) {
	off := day(3, false)
	on := day(4, true)
	team := models.TeamA
	outcomes := []models.Outcome{
		played(off, 1, models.TeamA, 3),
		{GameDayID: on.ID, GameDay: on, PlayerID: 1, Team: &team},
		{GameDayID: on.ID, GameDay: on, PlayerID: 1, Points: ptr(3)},
	}
	rec := Compute(2024, outcomes, th)[0]
	assert.Zero(t, rec.Played)
	assert.Zero(t, rec.Points)
	assert.Nil(t, rec.RankPoints)
}

func TestCompetitionRanks(t *testing.T) {
	d := day(1, true)
	outcomes := []models.Outcome{
		played(d, 1, models.TeamA, 3),
		played(d, 2, models.TeamA, 3),
		played(d, 3, models.TeamB, 1),
		played(d, 4, models.TeamB, 0),
	}
	recs := byPlayer(Compute(2024, outcomes, Thresholds{}))
	got := []int{*recs[1].RankPoints, *recs[2].RankPoints, *recs[3].RankPoints, *recs[4].RankPoints}
	assert.Equal(t, []int{1, 1, 3, 4}, got)
}

func TestQualificationThresholds(t *testing.T) {
	d1, d2 := day(1, true), day(2, true)
	outcomes := []models.Outcome{
		played(d1, 1, models.TeamA, 3),
		played(d2, 1, models.TeamA, 3),
		played(d1, 2, models.TeamB, 0),
	}
	outcomes[0].ResponseInterval = ptr(30)
	outcomes[1].ResponseInterval = ptr(90)
	outcomes[2].ResponseInterval = ptr(5)

	recs := byPlayer(Compute(2024, outcomes, th))

	require.NotNil(t, recs[1].RankAverages)
	assert.Nil(t, recs[2].RankAverages, "one game is below the averages threshold")

	require.NotNil(t, recs[1].Speedy)
	assert.InDelta(t, 60.0, *recs[1].Speedy, 0.0001)
	assert.Equal(t, 1, *recs[1].RankSpeedy)
	assert.Nil(t, recs[2].RankSpeedy, "one response is below the speedy threshold")

	assert.Nil(t, recs[1].RankPub)
}

func TestSpeedyRanksLowestFirst(t *testing.T) {
	d := day(1, true)
	var outcomes []models.Outcome
	for player, secs := range map[int]int{1: 300, 2: 10, 3: 10} {
		o := models.Outcome{GameDayID: d.ID, GameDay: d, PlayerID: player, ResponseInterval: ptr(secs)}
		outcomes = append(outcomes, o)
	}
	recs := byPlayer(Compute(2024, outcomes, Thresholds{MinResponsesForSpeedy: 1}))
	assert.Equal(t, 1, *recs[2].RankSpeedy)
	assert.Equal(t, 1, *recs[3].RankSpeedy)
	assert.Equal(t, 3, *recs[1].RankSpeedy)
}

func TestPubCountsAndRanks(t *testing.T) {
	d1, d2 := day(1, true), day(2, true)
	outcomes := []models.Outcome{
		{GameDayID: d1.ID, GameDay: d1, PlayerID: 1, Pub: ptr(models.PubPlayed)},
		{GameDayID: d2.ID, GameDay: d2, PlayerID: 1, Pub: ptr(models.PubNotPlayed)},
		{GameDayID: d1.ID, GameDay: d1, PlayerID: 2, Pub: ptr(models.PubNotPlayed)},
		{GameDayID: d2.ID, GameDay: d2, PlayerID: 3},
	}
	recs := byPlayer(Compute(2024, outcomes, th))
	assert.Equal(t, 2, recs[1].Pub)
	assert.Equal(t, 1, *recs[1].RankPub)
	assert.Equal(t, 2, *recs[2].RankPub)
	assert.Nil(t, recs[3].RankPub)
}
