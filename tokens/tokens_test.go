package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store/memstore"
)

type TokensSuite struct {
	suite.Suite
	store *memstore.Store
	clock *clock.Mock
	svc   *Service
}

func TestTokensSuite(t *testing.T) {
	suite.Run(t, new(TokensSuite))
}

func (s *TokensSuite) SetupTest() {
	s.store = memstore.New()
	s.clock = clock.NewMock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	s.svc = New(s.store, []byte("test-key"), s.clock)
}

func (s *TokensSuite) TestRawTokenIsNeverStored() {
	ctx := context.Background()
	pid := 4
	raw, tok, err := s.svc.Issue(ctx, models.PurposePlayerInvite, Target{PlayerID: &pid}, time.Hour)
	s.Require().NoError(err)
	s.NotEmpty(raw)

	for _, stored := range s.store.Tokens() {
		s.NotEqual(raw, stored.TokenHash)
		s.Equal(Hash(raw, []byte("test-key")), stored.TokenHash)
	}
	s.Equal(s.clock.Now().Add(time.Hour), tok.ExpiresAt)
}

func (s *TokensSuite) TestConsumeIsSingleUse() {
	ctx := context.Background()
	raw, _, err := s.svc.Issue(ctx, models.PurposeEmailVerify, Target{}, time.Hour)
	s.Require().NoError(err)

	tok, err := s.svc.Consume(ctx, models.PurposeEmailVerify, raw)
	s.Require().NoError(err)
	s.NotNil(tok.UsedAt)

	_, err = s.svc.Consume(ctx, models.PurposeEmailVerify, raw)
	s.ErrorIs(err, ErrInvalid)
	s.Equal(apperr.KindAuth, apperr.KindOf(err))
}

func (s *TokensSuite) TestExpiredTokenIsRejected() {
	ctx := context.Background()
	raw, _, err := s.svc.Issue(ctx, models.PurposePasswordReset, Target{}, time.Hour)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	_, err = s.svc.Consume(ctx, models.PurposePasswordReset, raw)
	s.ErrorIs(err, ErrInvalid)
}

func (s *TokensSuite) TestPurposeMustMatch() {
	ctx := context.Background()
	raw, _, err := s.svc.Issue(ctx, models.PurposeGameResponse, Target{}, time.Hour)
	s.Require().NoError(err)

	_, err = s.svc.Consume(ctx, models.PurposePasswordReset, raw)
	s.ErrorIs(err, ErrInvalid)
}

func (s *TokensSuite) TestLookupIsReusable() {
	ctx := context.Background()
	gd := 9
	raw, _, err := s.svc.Issue(ctx, models.PurposeGameResponse, Target{GameDayID: &gd}, time.Hour)
	s.Require().NoError(err)

	for range 3 {
		tok, err := s.svc.Lookup(ctx, models.PurposeGameResponse, raw)
		s.Require().NoError(err)
		s.Equal(9, *tok.GameDayID)
	}
}

func TestUnknownTokenIsInvalid(t *testing.T) {
	svc := New(memstore.New(), []byte("k"), clock.New())
	_, err := svc.Lookup(context.Background(), models.PurposeGameResponse, "nope")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Lookup(context.Background(), models.PurposeGameResponse, "  ")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGenerateIsURLSafeAndUnique(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
