// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
//
// The Config is built once in main and passed to every component that needs it.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// Secrets. JWTSecret signs sessions, TokenSecret keys the hash of emailed
	// tokens and CronSecret guards the scheduled endpoints.
	JWTSecret   string
	TokenSecret string
	CronSecret  string

	// BaseURL prefixes the links put in emails.
	BaseURL string

	// Mail
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	MailFrom   string
	MailDryRun bool

	// Redis backs blob storage for mugshots, badges and flags.
	RedisURL string

	// Club rules
	Location            *time.Location
	MinGamesForAverages int
	MinResponsesSpeedy  int
	GameCost            int
	PickerGames         int

	// Token lifetimes
	InviteTTL time.Duration
	VerifyTTL time.Duration
	ResetTTL  time.Duration

	// Token route rate limiting, per client IP.
	RateLimitRPS   float64
	RateLimitBurst int

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// MySQL – used only by cmd/migrate.
	MySQLDSN string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("DB_USER", "footy")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "footy")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("BASE_URL", "http://localhost:9000")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "footy@localhost")
	v.SetDefault("MAIL_DRY_RUN", false)
	v.SetDefault("REDIS_URL", "redis://localhost:6379")
	v.SetDefault("TIMEZONE", "Europe/London")
	v.SetDefault("MIN_GAMES_AVERAGES", 10)
	v.SetDefault("MIN_RESPONSES_SPEEDY", 5)
	v.SetDefault("GAME_COST", 500)
	v.SetDefault("PICKER_GAMES", 10)
	v.SetDefault("INVITE_TTL", "720h")
	v.SetDefault("VERIFY_TTL", "168h")
	v.SetDefault("RESET_TTL", "1h")
	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "footy.example.com")
	v.SetDefault("DEBUG", false)

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		log.Fatalf("config: invalid TIMEZONE %q: %v", v.GetString("TIMEZONE"), err)
	}

	cfg := &Config{
		DatabaseURL:         v.GetString("DATABASE_URL"),
		DBUser:              v.GetString("DB_USER"),
		DBPass:              v.GetString("DB_PASS"),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetString("DB_PORT"),
		DBName:              v.GetString("DB_NAME"),
		DBSSLMode:           v.GetString("DB_SSLMODE"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenSecret:         v.GetString("TOKEN_SECRET"),
		CronSecret:          v.GetString("CRON_SECRET"),
		BaseURL:             strings.TrimRight(v.GetString("BASE_URL"), "/"),
		SMTPHost:            v.GetString("SMTP_HOST"),
		SMTPPort:            v.GetInt("SMTP_PORT"),
		SMTPUser:            v.GetString("SMTP_USER"),
		SMTPPass:            v.GetString("SMTP_PASS"),
		MailFrom:            v.GetString("MAIL_FROM"),
		MailDryRun:          v.GetBool("MAIL_DRY_RUN"),
		RedisURL:            v.GetString("REDIS_URL"),
		Location:            loc,
		MinGamesForAverages: v.GetInt("MIN_GAMES_AVERAGES"),
		MinResponsesSpeedy:  v.GetInt("MIN_RESPONSES_SPEEDY"),
		GameCost:            v.GetInt("GAME_COST"),
		PickerGames:         v.GetInt("PICKER_GAMES"),
		InviteTTL:           v.GetDuration("INVITE_TTL"),
		VerifyTTL:           v.GetDuration("VERIFY_TTL"),
		ResetTTL:            v.GetDuration("RESET_TTL"),
		RateLimitRPS:        v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:      v.GetInt("RATE_LIMIT_BURST"),
		Debug:               v.GetBool("DEBUG"),
		Port:                v.GetString("PORT"),
		TLSDomains:          splitTrimmed(v.GetString("TLS_DOMAINS")),
		MySQLDSN:            v.GetString("MYSQL_DSN"),
	}

	cfg.validate()
	return cfg
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// TokenKey returns the key used to hash emailed tokens.
func (c *Config) TokenKey() []byte {
	return []byte(c.TokenSecret)
}

func (c *Config) validate() {
	if c.DatabaseURL == "" && c.DBPass == "" {
		log.Fatal("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
	if c.TokenSecret == "" {
		log.Fatal("config: TOKEN_SECRET must be set")
	}
	if c.CronSecret == "" {
		log.Fatal("config: CRON_SECRET must be set")
	}
	if c.SMTPHost == "" && !c.MailDryRun {
		log.Fatal("config: SMTP_HOST must be set unless MAIL_DRY_RUN=true")
	}
	if c.PickerGames != 5 && c.PickerGames != 10 {
		log.Fatal("config: PICKER_GAMES must be 5 or 10")
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
