package standings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/footy/metrics"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
)

// RecordsError reports a recompute that failed after the outcome write it
// followed had already been saved.
type RecordsError struct {
	GameDayID int
	Err       error
}

func (e *RecordsError) Error() string {
	return fmt.Sprintf("failed to update records for %d: %v", e.GameDayID, e.Err)
}

func (e *RecordsError) Unwrap() error { return e.Err }

// Classified marks the error as handled; the service has already logged it.
func (e *RecordsError) Classified() bool { return true }

// Row is a record with the name to show against it.
type Row struct {
	models.PlayerRecord
	Name string `json:"name"`
}

// View is one leaderboard for one year.
type View struct {
	Table       models.Table `json:"table"`
	Year        int          `json:"year"`
	Qualified   []Row        `json:"qualified"`
	Unqualified []Row        `json:"unqualified"`
}

type Service struct {
	store   store.Store
	th      Thresholds
	loc     *time.Location
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(st store.Store, th Thresholds, loc *time.Location, logger *zap.Logger, m *metrics.Metrics) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: st, th: th, loc: loc, logger: logger.Named("standings"), metrics: m}
}

func (s *Service) Thresholds() Thresholds {
	return s.th
}

// UpsertFromGameDay recomputes the year of gameDayID. Ranks are relative, so
// every player of that year is rewritten, not only the ones on the game day.
// Any failure comes back as a *RecordsError.
func (s *Service) UpsertFromGameDay(ctx context.Context, gameDayID int) error {
	gd, err := s.store.GetGameDay(ctx, gameDayID)
	if err == nil {
		err = s.Recompute(ctx, gd.Date.In(s.loc).Year())
	}
	if err != nil {
		s.metrics.RecordsFailed()
		s.logger.Error("records recompute failed", zap.Int("game_day_id", gameDayID), zap.Error(err))
		return &RecordsError{GameDayID: gameDayID, Err: err}
	}
	return nil
}

// Recompute rebuilds and stores every record for year.
func (s *Service) Recompute(ctx context.Context, year int) error {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	outcomes, err := s.store.ListOutcomesBetween(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return err
	}
	recs := Compute(year, outcomes, s.th)

	// Players whose outcomes all moved out of the year keep a row, emptied.
	existing, err := s.store.ListPlayerRecords(ctx, year)
	if err != nil {
		return err
	}
	seen := make(map[int]bool, len(recs))
	for _, r := range recs {
		seen[r.PlayerID] = true
	}
	for _, r := range existing {
		if !seen[r.PlayerID] {
			recs = append(recs, models.PlayerRecord{Year: year, PlayerID: r.PlayerID})
		}
	}

	if err := s.store.UpsertPlayerRecords(ctx, recs); err != nil {
		return err
	}
	s.logger.Debug("records recomputed", zap.Int("year", year), zap.Int("players", len(recs)))
	return nil
}

// Winners returns the rank-1 rows for table, newest year first. Year 0 means
// every year.
func (s *Service) Winners(ctx context.Context, table models.Table, year int) ([]Row, error) {
	recs, err := s.store.ListWinners(ctx, table, year)
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, recs)
}

// Table returns the qualified rows in rank order and the unqualified rows
// ordered by their figure.
func (s *Service) Table(ctx context.Context, table models.Table, year int) (*View, error) {
	recs, err := s.store.ListPlayerRecords(ctx, year)
	if err != nil {
		return nil, err
	}
	var qualified, unqualified []models.PlayerRecord
	for _, r := range recs {
		switch {
		case r.Rank(table) != nil:
			qualified = append(qualified, r)
		case r.Played > 0 || r.Responses > 0 || r.Pub > 0:
			unqualified = append(unqualified, r)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		ri, rj := *qualified[i].Rank(table), *qualified[j].Rank(table)
		if ri != rj {
			return ri < rj
		}
		return qualified[i].PlayerID < qualified[j].PlayerID
	})
	asc := lowerIsBetter(table)
	sort.SliceStable(unqualified, func(i, j int) bool {
		vi, vj := Value(&unqualified[i], table), Value(&unqualified[j], table)
		if vi == vj {
			return unqualified[i].PlayerID < unqualified[j].PlayerID
		}
		if asc {
			return vi < vj
		}
		return vi > vj
	})

	view := &View{Table: table, Year: year}
	if view.Qualified, err = s.withNames(ctx, qualified); err != nil {
		return nil, err
	}
	if view.Unqualified, err = s.withNames(ctx, unqualified); err != nil {
		return nil, err
	}
	return view, nil
}

// PlayerRecords returns every yearly record of one player, oldest first.
func (s *Service) PlayerRecords(ctx context.Context, playerID int) ([]models.PlayerRecord, error) {
	return s.store.ListPlayerRecordsForPlayer(ctx, playerID)
}

func (s *Service) withNames(ctx context.Context, recs []models.PlayerRecord) ([]Row, error) {
	names := make(map[int]string)
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		name, ok := names[r.PlayerID]
		if !ok {
			p, err := s.store.GetPlayer(ctx, r.PlayerID)
			if err != nil {
				return nil, err
			}
			name = p.DisplayName()
			names[r.PlayerID] = name
		}
		rows = append(rows, Row{PlayerRecord: r, Name: name})
	}
	return rows, nil
}
