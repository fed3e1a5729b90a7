// Package auth owns login accounts: password sign-in, JWT sessions, the
// current-user lookup used for authorisation, and password resets.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/mailer"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/tokens"
)

const (
	sessionTTL        = 30 * 24 * time.Hour
	minPasswordLength = 8
)

var errBadCredentials = apperr.Auth("incorrect email or password")

// Claims extends jwt.RegisteredClaims with the session fields.
type Claims struct {
	UserID   int         `json:"uid"`
	PlayerID *int        `json:"pid,omitempty"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller of a request.
type Session struct {
	UserID   int
	PlayerID *int
	Role     models.Role
}

type sessionKey struct{}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}

// RoleOf returns the caller's role, RoleNone when signed out.
func RoleOf(ctx context.Context) models.Role {
	if sess, ok := SessionFrom(ctx); ok {
		return sess.Role
	}
	return models.RoleNone
}

// HashPassword validates password and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return "", apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// NormaliseEmail trims and lower-cases an address and checks its shape.
func NormaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return "", apperr.Validation("invalid email address", nil)
	}
	return email, nil
}

type Service struct {
	store    store.Store
	tokens   *tokens.Service
	mailer   mailer.Mailer
	key      []byte
	baseURL  string
	resetTTL time.Duration
	clock    clock.Clock
	logger   *zap.Logger
}

// Options groups the settings the service needs from config.
type Options struct {
	JWTKey   []byte
	BaseURL  string
	ResetTTL time.Duration
}

func New(st store.Store, tok *tokens.Service, m mailer.Mailer, opts Options, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{
		store:    st,
		tokens:   tok,
		mailer:   m,
		key:      opts.JWTKey,
		baseURL:  opts.BaseURL,
		resetTTL: opts.ResetTTL,
		clock:    clk,
		logger:   logger.Named("auth"),
	}
}

// CreateUser adds an account. playerID links it to a claimed player.
func (s *Service) CreateUser(ctx context.Context, email, password string, role models.Role, playerID *int) (*models.User, error) {
	email, err := NormaliseEmail(email)
	if err != nil {
		return nil, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.Validation("role must be user or admin", nil)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:     email,
		Password:  hash,
		Role:      role,
		PlayerID:  playerID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}

// Signin checks the password and returns a signed session token valid for
// 30 days.
func (s *Service) Signin(ctx context.Context, email, password string) (string, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", errBadCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", errBadCredentials
	}
	return s.issue(u)
}

func (s *Service) issue(u *models.User) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		UserID:   u.ID,
		PlayerID: u.PlayerID,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// ParseToken validates a session token and returns its session.
func (s *Service) ParseToken(raw string) (*Session, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !tkn.Valid {
		return nil, apperr.Auth("invalid or expired session")
	}
	return &Session{UserID: claims.UserID, PlayerID: claims.PlayerID, Role: claims.Role}, nil
}

// CurrentUser loads the account behind the request's session.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	sess, ok := SessionFrom(ctx)
	if !ok {
		return nil, apperr.Auth("sign in required")
	}
	u, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, apperr.Auth("sign in required")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int("user_id", id))
	return nil
}

// UpdateUser writes the named columns of u. Email and password are
// normalised and hashed here.
func (s *Service) UpdateUser(ctx context.Context, u *models.User, columns ...string) error {
	for _, c := range columns {
		switch c {
		case "email":
			email, err := NormaliseEmail(u.Email)
			if err != nil {
				return err
			}
			u.Email = email
		case "password":
			hash, err := HashPassword(u.Password)
			if err != nil {
				return err
			}
			u.Password = hash
		}
	}
	return s.store.UpdateUser(ctx, u, columns...)
}

// RequestPasswordReset mails a reset link when email belongs to an account.
// The caller sees the same result either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return err
	}
	raw, _, err := s.tokens.Issue(ctx, models.PurposePasswordReset, tokens.Target{UserID: &u.ID}, s.resetTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/password/reset/%s", s.baseURL, raw)
	err = s.mailer.Send(ctx, mailer.Message{
		To:      []string{u.Email},
		Subject: "Reset your footy password",
		HTML:    fmt.Sprintf(`<p>Use <a href="%s">this link</a> to choose a new password. It expires in %s.</p>`, link, s.resetTTL),
	})
	if err != nil {
		// Not surfaced: the reply must not depend on whether the account exists.
		s.logger.Warn("password reset mail failed", zap.Int("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, raw, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	tok, err := s.tokens.Consume(ctx, models.PurposePasswordReset, raw)
	if err != nil {
		return err
	}
	if tok.UserID == nil {
		return tokens.ErrInvalid
	}
	u := &models.User{ID: *tok.UserID, Password: hash}
	if err := s.store.UpdateUser(ctx, u, "password"); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.Int("user_id", u.ID))
	return nil
}
