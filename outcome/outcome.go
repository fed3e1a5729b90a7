// Package outcome derives a game's result from the points recorded against
// each player and maps results back to per-team states and points.
package outcome

import "github.com/padraicbc/footy/models"

// Winner is the overall result of a game day.
type Winner string

const (
	WinnerA     Winner = "A"
	WinnerB     Winner = "B"
	WinnerDraw  Winner = "draw"
	WinnerUnset Winner = "unset"
)

// ParseWinner accepts A, B, draw or unset.
func ParseWinner(s string) (Winner, bool) {
	switch w := Winner(s); w {
	case WinnerA, WinnerB, WinnerDraw, WinnerUnset:
		return w, true
	}
	return "", false
}

// State is a result seen from one team's side.
type State string

const (
	StateUnset State = "unset"
	StateDraw  State = "draw"
	StateWin   State = "win"
	StateLoss  State = "loss"
)

// teamPoints returns the points every player in the team agrees on, or nil
// when the team has no points, disagrees, or holds a value that is not a
// loss, draw or win.
func teamPoints(team []models.Outcome) *int {
	var agreed *int
	for i := range team {
		p := team[i].Points
		if p == nil {
			continue
		}
		switch *p {
		case models.PointsLoss, models.PointsDraw, models.PointsWin:
		default:
			return nil
		}
		if agreed == nil {
			v := *p
			agreed = &v
			continue
		}
		if *agreed != *p {
			return nil
		}
	}
	return agreed
}

// ResolveWinner determines the winner from the outcomes of both teams.
// Only 1 vs 1 (draw) and 3 vs 0 (win) are consistent; anything else is unset.
func ResolveWinner(teamA, teamB []models.Outcome) Winner {
	a, b := teamPoints(teamA), teamPoints(teamB)
	if a == nil || b == nil {
		return WinnerUnset
	}
	switch {
	case *a == models.PointsDraw && *b == models.PointsDraw:
		return WinnerDraw
	case *a == models.PointsWin && *b == models.PointsLoss:
		return WinnerA
	case *a == models.PointsLoss && *b == models.PointsWin:
		return WinnerB
	}
	return WinnerUnset
}

// Inconsistent reports whether both teams are unanimous but their points do
// not form a valid result, e.g. both teams recorded as winners.
func Inconsistent(teamA, teamB []models.Outcome) bool {
	a, b := teamPoints(teamA), teamPoints(teamB)
	return a != nil && b != nil && ResolveWinner(teamA, teamB) == WinnerUnset
}

// SplitTeams partitions a game day's outcomes by team. Outcomes without a
// team are dropped.
func SplitTeams(outcomes []models.Outcome) (teamA, teamB []models.Outcome) {
	for _, o := range outcomes {
		if o.Team == nil {
			continue
		}
		switch *o.Team {
		case models.TeamA:
			teamA = append(teamA, o)
		case models.TeamB:
			teamB = append(teamB, o)
		}
	}
	return teamA, teamB
}

// ResolveGameDay resolves the winner from all outcomes of one game day.
func ResolveGameDay(outcomes []models.Outcome) Winner {
	return ResolveWinner(SplitTeams(outcomes))
}

// TeamState returns how the game went for team given the overall winner.
func TeamState(winner Winner, team models.Team) State {
	switch winner {
	case WinnerDraw:
		return StateDraw
	case WinnerA, WinnerB:
		if string(winner) == string(team) {
			return StateWin
		}
		return StateLoss
	}
	return StateUnset
}

// PointsFor returns the points a player on team earns for winner, nil when
// the result is unset.
func PointsFor(winner Winner, team models.Team) *int {
	var p int
	switch TeamState(winner, team) {
	case StateWin:
		p = models.PointsWin
	case StateDraw:
		p = models.PointsDraw
	case StateLoss:
		p = models.PointsLoss
	default:
		return nil
	}
	return &p
}
