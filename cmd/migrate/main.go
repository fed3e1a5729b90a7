// cmd/migrate/main.go
// Copies players, game days and outcomes from the legacy MySQL footy database
// into PostgreSQL, then rebuilds the yearly records.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/footy?parseTime=true" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/config"
	bundb "github.com/padraicbc/footy/db"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/standings"
	"github.com/padraicbc/footy/store/bunstore"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/footy?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"players", func() (int, error) { return migratePlayers(ctx, myDB, pgDB) }},
		{"game_days", func() (int, error) { return migrateGameDays(ctx, myDB, pgDB) }},
		{"outcomes", func() (int, error) { return migrateOutcomes(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-10s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)

	if err := rebuildRecords(ctx, cfg, pgDB); err != nil {
		log.Fatalf("rebuild records: %v", err)
	}
	log.Println("migration complete")
}

// --- helpers ---

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullStr(n sql.NullString) *string {
	if !n.Valid || n.String == "" {
		return nil
	}
	return &n.String
}

func nullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func nullTeam(n sql.NullString) *models.Team {
	if !n.Valid {
		return nil
	}
	t := models.Team(n.String)
	if !t.Valid() {
		return nil
	}
	return &t
}

func nullResponse(n sql.NullString) *models.Response {
	if !n.Valid {
		return nil
	}
	r := models.Response(n.String)
	if !r.Valid() {
		return nil
	}
	return &r
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// copyRows scans every row of query with scan and inserts them in batches.
func copyRows[T any](ctx context.Context, myDB *sql.DB, pgDB *bun.DB, query string, scan func(*sql.Rows) (T, error)) (int, error) {
	rows, err := myDB.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []T
	total := 0
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// --- per-table migrations ---

func migratePlayers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		`SELECT id, name, anonymous, joined, finished, born, comment, introduced_by FROM players`,
		func(rows *sql.Rows) (models.Player, error) {
			var (
				p            models.Player
				name         sql.NullString
				finished     sql.NullTime
				born         sql.NullInt64
				comment      sql.NullString
				introducedBy sql.NullInt64
			)
			err := rows.Scan(&p.ID, &name, &p.Anonymous, &p.Joined, &finished, &born, &comment, &introducedBy)
			p.Name = nullStr(name)
			p.Finished = nullTime(finished)
			p.Born = nullInt(born)
			p.Comment = nullStr(comment)
			p.IntroducedBy = nullInt(introducedBy)
			return p, err
		})
}

func migrateGameDays(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		`SELECT id, date, game, cost, invitation_sent, comment, bibs, picker_games FROM game_days`,
		func(rows *sql.Rows) (models.GameDay, error) {
			var (
				gd      models.GameDay
				sent    sql.NullTime
				comment sql.NullString
				bibs    sql.NullString
			)
			err := rows.Scan(&gd.ID, &gd.Date, &gd.Game, &gd.Cost, &sent, &comment, &bibs, &gd.PickerGames)
			gd.InvitationSent = nullTime(sent)
			gd.Comment = nullStr(comment)
			gd.Bibs = nullTeam(bibs)
			return gd, err
		})
}

func migrateOutcomes(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		`SELECT id, game_day_id, player_id, response, response_interval, points, team, goalie, comment, pub
		 FROM outcomes`,
		func(rows *sql.Rows) (models.Outcome, error) {
			var (
				o        models.Outcome
				response sql.NullString
				interval sql.NullInt64
				points   sql.NullInt64
				team     sql.NullString
				comment  sql.NullString
				pub      sql.NullInt64
			)
			err := rows.Scan(&o.ID, &o.GameDayID, &o.PlayerID, &response, &interval, &points, &team, &o.Goalie, &comment, &pub)
			o.Response = nullResponse(response)
			o.ResponseInterval = nullInt(interval)
			o.Points = nullInt(points)
			o.Team = nullTeam(team)
			o.Comment = nullStr(comment)
			o.Pub = nullInt(pub)
			o.UpdatedAt = time.Now()
			return o, err
		})
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	for _, table := range []string{"players", "game_days", "outcomes"} {
		q := fmt.Sprintf(
			"SELECT setval('%s_id_seq', COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", table, err)
		}
	}
	log.Println("sequences reset")
}

// rebuildRecords recomputes every year that has a game day.
func rebuildRecords(ctx context.Context, cfg *config.Config, pgDB *bun.DB) error {
	var years []int
	err := pgDB.NewSelect().
		Model((*models.GameDay)(nil)).
		ColumnExpr("DISTINCT EXTRACT(YEAR FROM date)::int AS year").
		OrderExpr("year").
		Scan(ctx, &years)
	if err != nil {
		return err
	}

	svc := standings.New(bunstore.New(pgDB), standings.Thresholds{
		MinGamesForAverages:   cfg.MinGamesForAverages,
		MinResponsesForSpeedy: cfg.MinResponsesSpeedy,
	}, cfg.Location, zap.NewNop(), nil)
	for _, y := range years {
		if err := svc.Recompute(ctx, y); err != nil {
			return fmt.Errorf("year %d: %w", y, err)
		}
		log.Printf("records %d rebuilt", y)
	}
	return nil
}
