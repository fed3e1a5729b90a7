package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/padraicbc/footy/models"
)

func pts(values ...any) []models.Outcome {
	out := make([]models.Outcome, 0, len(values))
	for _, v := range values {
		o := models.Outcome{}
		if n, ok := v.(int); ok {
			o.Points = &n
		}
		out = append(out, o)
	}
	return out
}

func TestResolveWinner(t *testing.T) {
	tests := []struct {
		name  string
		teamA []models.Outcome
		teamB []models.Outcome
		want  Winner
	}{
		{"A wins", pts(3, 3), pts(0), WinnerA},
		{"B wins", pts(0, 0), pts(3, 3, 3), WinnerB},
		{"draw", pts(1), pts(1), WinnerDraw},
		{"disagreement in A", pts(3, 1), pts(0), WinnerUnset},
		{"nulls ignored", pts(3, nil, 3), pts(nil, 0), WinnerA},
		{"all null", pts(nil), pts(0), WinnerUnset},
		{"empty team", pts(), pts(3), WinnerUnset},
		{"both empty", nil, nil, WinnerUnset},
		{"both winners", pts(3), pts(3), WinnerUnset},
		{"win against draw", pts(3), pts(1), WinnerUnset},
		{"both lost", pts(0), pts(0), WinnerUnset},
		{"draw against loss", pts(1), pts(0), WinnerUnset},
		{"out of range points", pts(2), pts(0), WinnerUnset},
		{"negative points", pts(-3), pts(3), WinnerUnset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveWinner(tt.teamA, tt.teamB))
		})
	}
}

func TestResolveWinnerSymmetric(t *testing.T) {
	swap := map[Winner]Winner{WinnerA: WinnerB, WinnerB: WinnerA, WinnerDraw: WinnerDraw, WinnerUnset: WinnerUnset}
	teams := [][]models.Outcome{pts(), pts(0), pts(1), pts(3), pts(3, 3), pts(3, 1), pts(nil, 1), pts(2), pts(0, nil, 0)}

	for _, a := range teams {
		for _, b := range teams {
			w := ResolveWinner(a, b)
			assert.Contains(t, []Winner{WinnerA, WinnerB, WinnerDraw, WinnerUnset}, w)
			assert.Equal(t, swap[w], ResolveWinner(b, a))
		}
	}
}

func TestInconsistent(t *testing.T) {
	assert.True(t, Inconsistent(pts(3), pts(3)))
	assert.True(t, Inconsistent(pts(3), pts(1)))
	assert.False(t, Inconsistent(pts(3), pts(0)))
	assert.False(t, Inconsistent(pts(3, 1), pts(0)))
	assert.False(t, Inconsistent(pts(), pts(0)))
}

func TestResolveGameDay(t *testing.T) {
	a, b := models.TeamA, models.TeamB
	three, zero := 3, 0
	outcomes := []models.Outcome{
		{PlayerID: 1, Team: &a, Points: &three},
		{PlayerID: 2, Team: &b, Points: &zero},
		{PlayerID: 3, Points: &three}, // no team, ignored
		{PlayerID: 4, Team: &a, Points: &three},
	}

	assert.Equal(t, WinnerA, ResolveGameDay(outcomes))

	teamA, teamB := SplitTeams(outcomes)
	assert.Len(t, teamA, 2)
	assert.Len(t, teamB, 1)
}

func TestTeamState(t *testing.T) {
	assert.Equal(t, StateWin, TeamState(WinnerA, models.TeamA))
	assert.Equal(t, StateLoss, TeamState(WinnerA, models.TeamB))
	assert.Equal(t, StateWin, TeamState(WinnerB, models.TeamB))
	assert.Equal(t, StateDraw, TeamState(WinnerDraw, models.TeamA))
	assert.Equal(t, StateUnset, TeamState(WinnerUnset, models.TeamB))
	assert.Equal(t, StateUnset, TeamState("", models.TeamA))
}

func TestPointsForRoundTrips(t *testing.T) {
	for _, w := range []Winner{WinnerA, WinnerB, WinnerDraw} {
		a, b := models.TeamA, models.TeamB
		teamA := []models.Outcome{{Team: &a, Points: PointsFor(w, a)}}
		teamB := []models.Outcome{{Team: &b, Points: PointsFor(w, b)}}
		assert.Equal(t, w, ResolveWinner(teamA, teamB), "winner %s", w)
	}
	assert.Nil(t, PointsFor(WinnerUnset, models.TeamA))
}

func TestParseWinner(t *testing.T) {
	w, ok := ParseWinner("draw")
	assert.True(t, ok)
	assert.Equal(t, WinnerDraw, w)
	_, ok = ParseWinner("C")
	assert.False(t, ok)
}
