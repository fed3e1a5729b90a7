// Package app wires the services shared by the API server and footyctl.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/config"
	"github.com/padraicbc/footy/gamedays"
	"github.com/padraicbc/footy/mailer"
	"github.com/padraicbc/footy/metrics"
	"github.com/padraicbc/footy/players"
	"github.com/padraicbc/footy/responses"
	"github.com/padraicbc/footy/standings"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/tokens"
)

type App struct {
	Cfg       *config.Config
	Store     store.Store
	Metrics   *metrics.Metrics
	Mailer    mailer.Mailer
	Auth      *auth.Service
	Players   *players.Service
	GameDays  *gamedays.Service
	Responses *responses.Service
	Standings *standings.Service
}

// New builds every service on st. m may be nil when nothing scrapes metrics.
func New(cfg *config.Config, st store.Store, logger *zap.Logger, m *metrics.Metrics) (*App, error) {
	clk := clock.New()

	mail, err := mailer.New(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}

	tok := tokens.New(st, cfg.TokenKey(), clk)
	authSvc := auth.New(st, tok, mail, auth.Options{
		JWTKey:   cfg.JWTKey(),
		BaseURL:  cfg.BaseURL,
		ResetTTL: cfg.ResetTTL,
	}, clk, logger)

	stand := standings.New(st, standings.Thresholds{
		MinGamesForAverages:   cfg.MinGamesForAverages,
		MinResponsesForSpeedy: cfg.MinResponsesSpeedy,
	}, cfg.Location, logger, m)

	playerSvc := players.New(st, tok, authSvc, mail, players.Options{
		BaseURL:   cfg.BaseURL,
		InviteTTL: cfg.InviteTTL,
		VerifyTTL: cfg.VerifyTTL,
		Location:  cfg.Location,
	}, clk, logger)

	gameSvc := gamedays.New(st, tok, stand, playerSvc, mail, gamedays.Options{
		Location:    cfg.Location,
		GameCost:    cfg.GameCost,
		PickerGames: cfg.PickerGames,
		BaseURL:     cfg.BaseURL,
	}, clk, logger, m)

	return &App{
		Cfg:       cfg,
		Store:     st,
		Metrics:   m,
		Mailer:    mail,
		Auth:      authSvc,
		Players:   playerSvc,
		GameDays:  gameSvc,
		Responses: responses.New(st, tok, stand, clk, logger, m),
		Standings: stand,
	}, nil
}
