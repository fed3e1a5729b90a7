package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/config"
)

func TestFakeRecordsMessages(t *testing.T) {
	f := NewFake(zap.NewNop())
	require.NoError(t, f.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "hi"}))
	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hi", sent[0].Subject)
}

func TestFakeRejectsEmptyRecipients(t *testing.T) {
	err := NewFake(nil).Send(context.Background(), Message{Subject: "x"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestFakeFailsForOneRecipient(t *testing.T) {
	f := NewFake(nil)
	f.Err = ErrRefused
	f.FailFor = "bad@example.com"

	err := f.Send(context.Background(), Message{To: []string{"bad@example.com"}})
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrRefused)

	require.NoError(t, f.Send(context.Background(), Message{To: []string{"ok@example.com"}}))
	assert.Len(t, f.Sent(), 1)
}

func TestNewDryRunReturnsFake(t *testing.T) {
	m, err := New(&config.Config{MailDryRun: true}, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.IsType(t, &Fake{}, m)
}

func TestNewBuildsSMTPClient(t *testing.T) {
	m, err := New(&config.Config{SMTPHost: "localhost", SMTPPort: 2525, MailFrom: "club@example.com"}, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, m)
}
