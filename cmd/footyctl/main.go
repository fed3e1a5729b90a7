// cmd/footyctl/main.go
// Runs scheduled and administrative jobs against the database.
//
// Usage:
//
//	go run ./cmd/footyctl invitations send
//	go run ./cmd/footyctl records recompute --year 2024
//	go run ./cmd/footyctl gamedays add 2026-03-03 2026-03-10
package main

import (
	"context"
	"os"

	"github.com/padraicbc/footy/app"
	"github.com/padraicbc/footy/cli"
	"github.com/padraicbc/footy/config"
	"github.com/padraicbc/footy/db"
	applog "github.com/padraicbc/footy/logger"
	"github.com/padraicbc/footy/store/bunstore"
)

func open(ctx context.Context) (*app.App, func(), error) {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, "footyctl")
	if err != nil {
		return nil, nil, err
	}
	bdb := db.Setup(cfg)
	if err := db.CreateTables(ctx, bdb); err != nil {
		bdb.Close()
		return nil, nil, err
	}
	a, err := app.New(cfg, bunstore.New(bdb), logger, nil)
	if err != nil {
		bdb.Close()
		return nil, nil, err
	}
	return a, func() {
		_ = logger.Sync()
		_ = bdb.Close()
	}, nil
}

func main() {
	if err := cli.NewRootCmd(open).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
