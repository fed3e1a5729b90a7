package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/footy/config"
	"github.com/padraicbc/footy/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	db := Open(cfg.PostgresDSN(), cfg.Debug)
	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	return db
}

// Open returns a bun handle for dsn without checking the connection.
func Open(dsn string, debug bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []any{
		(*models.Player)(nil),
		(*models.User)(nil),
		(*models.PlayerEmail)(nil),
		(*models.Club)(nil),
		(*models.Country)(nil),
		(*models.ClubSupporter)(nil),
		(*models.CountrySupporter)(nil),
		(*models.GameDay)(nil),
		(*models.Outcome)(nil),
		(*models.PlayerRecord)(nil),
		(*models.VerificationToken)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'outcomes_no_dupes') THEN ALTER TABLE outcomes ADD CONSTRAINT outcomes_no_dupes UNIQUE (game_day_id, player_id); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'player_records_no_dupes') THEN ALTER TABLE player_records ADD CONSTRAINT player_records_no_dupes UNIQUE (year, player_id); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'player_emails_no_dupes') THEN ALTER TABLE player_emails ADD CONSTRAINT player_emails_no_dupes UNIQUE (player_id, email); END IF; END $$`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower ON users (lower(email))`,
		`CREATE INDEX IF NOT EXISTS verification_tokens_player ON verification_tokens (player_id)`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
