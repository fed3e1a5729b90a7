package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/time/rate"

	"github.com/padraicbc/footy/app"
	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/blob"
	"github.com/padraicbc/footy/config"
	"github.com/padraicbc/footy/db"
	"github.com/padraicbc/footy/handlers"
	applog "github.com/padraicbc/footy/logger"
	"github.com/padraicbc/footy/metrics"
	mw "github.com/padraicbc/footy/middleware"
	"github.com/padraicbc/footy/store/bunstore"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, "api")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	blobs, err := blob.New(cfg.RedisURL)
	if err != nil {
		logger.Fatal("connect redis failed", zap.Error(err))
	}
	defer blobs.Close()

	m := metrics.New()
	a, err := app.New(cfg, bunstore.New(bdb), logger, m)
	if err != nil {
		logger.Fatal("build services failed", zap.Error(err))
	}

	h := handlers.New(handlers.Deps{
		Auth:      a.Auth,
		Players:   a.Players,
		GameDays:  a.GameDays,
		Responses: a.Responses,
		Standings: a.Standings,
		Blobs:     blobs,
		Reporter:  apperr.NewReporter(logger),
		Logger:    logger,
		Location:  cfg.Location,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogRequestID: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.String("request_id", v.RequestID),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.BaseURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, mw.CronSecretHeader},
		AllowCredentials: true,
	}))

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	h.Register(e, handlers.Guards{
		RateLimit:  mw.RateLimit(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		CronSecret: cfg.CronSecret,
	})

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
