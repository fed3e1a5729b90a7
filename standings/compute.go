// Package standings turns a year of outcomes into the yearly player records
// behind the five leaderboards.
package standings

import (
	"sort"

	"github.com/padraicbc/footy/models"
)

// Thresholds gate the averages and speedy tables.
type Thresholds struct {
	MinGamesForAverages   int
	MinResponsesForSpeedy int
}

// Qualifies reports whether rec may be ranked in table.
func Qualifies(rec *models.PlayerRecord, table models.Table, th Thresholds) bool {
	switch table {
	case models.TablePoints, models.TableStalwart:
		return rec.Played >= 1
	case models.TableAverages:
		return rec.Played >= 1 && rec.Played >= th.MinGamesForAverages
	case models.TableSpeedy:
		return rec.Speedy != nil && rec.Responses >= 1 && rec.Responses >= th.MinResponsesForSpeedy
	case models.TablePub:
		return rec.Pub >= 1
	}
	return false
}

// Value is the figure a table sorts on.
func Value(rec *models.PlayerRecord, table models.Table) float64 {
	switch table {
	case models.TablePoints:
		return float64(rec.Points)
	case models.TableAverages:
		return rec.Averages
	case models.TableStalwart:
		return float64(rec.Stalwart)
	case models.TableSpeedy:
		if rec.Speedy != nil {
			return *rec.Speedy
		}
	case models.TablePub:
		return float64(rec.Pub)
	}
	return 0
}

// lowerIsBetter is true for tables ranked ascending.
func lowerIsBetter(table models.Table) bool {
	return table == models.TableSpeedy
}

type tally struct {
	rec      models.PlayerRecord
	interval int
	lastDate int64
}

// Compute builds one record per player seen in outcomes and ranks them.
// Game results only count on enabled game days and only when both a team and
// points were recorded; responses and pub visits count regardless.
func Compute(year int, outcomes []models.Outcome, th Thresholds) []models.PlayerRecord {
	byPlayer := make(map[int]*tally)
	for i := range outcomes {
		o := &outcomes[i]
		t, ok := byPlayer[o.PlayerID]
		if !ok {
			t = &tally{rec: models.PlayerRecord{Year: year, PlayerID: o.PlayerID}}
			byPlayer[o.PlayerID] = t
		}
		if o.GameDay != nil && o.GameDay.Date.Unix() >= t.lastDate {
			t.lastDate = o.GameDay.Date.Unix()
			id := o.GameDayID
			t.rec.GameDayID = &id
		}

		if o.ResponseInterval != nil {
			t.rec.Responses++
			t.interval += *o.ResponseInterval
		}
		if o.Pub != nil {
			t.rec.Pub++
		}

		enabled := o.GameDay == nil || o.GameDay.Game
		if !enabled || !o.Played() || o.Points == nil {
			continue
		}
		t.rec.Played++
		t.rec.Points += *o.Points
		switch *o.Points {
		case models.PointsWin:
			t.rec.Won++
		case models.PointsDraw:
			t.rec.Drawn++
		case models.PointsLoss:
			t.rec.Lost++
		}
	}

	out := make([]models.PlayerRecord, 0, len(byPlayer))
	for _, t := range byPlayer {
		rec := t.rec
		rec.Stalwart = rec.Played
		if rec.Played > 0 {
			rec.Averages = float64(rec.Points) / float64(rec.Played)
		}
		if rec.Responses > 0 {
			speedy := float64(t.interval) / float64(rec.Responses)
			rec.Speedy = &speedy
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })

	for _, table := range models.Tables {
		Rank(out, table, th)
	}
	return out
}

// Rank assigns standard competition ranks ("1224") for table to the records
// that qualify and clears it on the rest.
func Rank(recs []models.PlayerRecord, table models.Table, th Thresholds) {
	var idx []int
	for i := range recs {
		recs[i].SetRank(table, nil)
		if Qualifies(&recs[i], table, th) {
			idx = append(idx, i)
		}
	}
	asc := lowerIsBetter(table)
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := Value(&recs[idx[a]], table), Value(&recs[idx[b]], table)
		if asc {
			return va < vb
		}
		return va > vb
	})

	var prev float64
	var prevRank int
	for pos, i := range idx {
		v := Value(&recs[i], table)
		rank := pos + 1
		if pos > 0 && v == prev {
			rank = prevRank
		}
		r := rank
		recs[i].SetRank(table, &r)
		prev, prevRank = v, rank
	}
}
