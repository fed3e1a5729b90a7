package models

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Table names one of the leaderboards.
type Table string

const (
	TablePoints   Table = "points"
	TableAverages Table = "averages"
	TableStalwart Table = "stalwart"
	TableSpeedy   Table = "speedy"
	TablePub      Table = "pub"
)

// Tables lists every leaderboard in display order.
var Tables = []Table{TablePoints, TableAverages, TableStalwart, TableSpeedy, TablePub}

// ParseTable validates a leaderboard name.
func ParseTable(s string) (Table, error) {
	t := Table(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tables {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown table %q", s)
}

// RankColumn is the player_records column holding the rank for t.
func (t Table) RankColumn() string {
	return "rank_" + string(t)
}

// PlayerRecord is the yearly statistics snapshot for one player.
type PlayerRecord struct {
	bun.BaseModel `bun:"table:player_records,alias:pr"`

	ID        int      `bun:"id,pk,autoincrement" json:"id"`
	Year      int      `bun:"year,notnull" json:"year"`
	PlayerID  int      `bun:"player_id,notnull" json:"playerID"`
	GameDayID *int     `bun:"game_day_id" json:"gameDayID,omitempty"`
	Played    int      `bun:"played,notnull,default:0" json:"played"`
	Won       int      `bun:"won,notnull,default:0" json:"won"`
	Drawn     int      `bun:"drawn,notnull,default:0" json:"drawn"`
	Lost      int      `bun:"lost,notnull,default:0" json:"lost"`
	Points    int      `bun:"points,notnull,default:0" json:"points"`
	Averages  float64  `bun:"averages,notnull,default:0" json:"averages"`
	Stalwart  int      `bun:"stalwart,notnull,default:0" json:"stalwart"`
	Responses int      `bun:"responses,notnull,default:0" json:"responses"`
	Speedy    *float64 `bun:"speedy" json:"speedy,omitempty"`
	Pub       int      `bun:"pub,notnull,default:0" json:"pub"`

	RankPoints   *int `bun:"rank_points" json:"rankPoints,omitempty"`
	RankAverages *int `bun:"rank_averages" json:"rankAverages,omitempty"`
	RankStalwart *int `bun:"rank_stalwart" json:"rankStalwart,omitempty"`
	RankSpeedy   *int `bun:"rank_speedy" json:"rankSpeedy,omitempty"`
	RankPub      *int `bun:"rank_pub" json:"rankPub,omitempty"`
}

// Rank returns the rank held for t, nil when unqualified.
func (r *PlayerRecord) Rank(t Table) *int {
	switch t {
	case TablePoints:
		return r.RankPoints
	case TableAverages:
		return r.RankAverages
	case TableStalwart:
		return r.RankStalwart
	case TableSpeedy:
		return r.RankSpeedy
	case TablePub:
		return r.RankPub
	}
	return nil
}

// SetRank stores rank for t.
func (r *PlayerRecord) SetRank(t Table, rank *int) {
	switch t {
	case TablePoints:
		r.RankPoints = rank
	case TableAverages:
		r.RankAverages = rank
	case TableStalwart:
		r.RankStalwart = rank
	case TableSpeedy:
		r.RankSpeedy = rank
	case TablePub:
		r.RankPub = rank
	}
}
