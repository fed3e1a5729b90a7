package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New()
	m.MailSent()
	m.MailSent()
	m.MailFailed()
	m.InvitationsDispatched(4)
	m.RecordsFailed()
	m.OutcomeWritten("token")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mailsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mailsFailed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.invitations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomeWrites.WithLabelValues("token")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MailSent()
		m.MailFailed()
		m.InvitationsDispatched(1)
		m.RecordsFailed()
		m.OutcomeWritten("admin")
	})
}

func TestHandlerServesCounters(t *testing.T) {
	m := New()
	m.MailSent()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "footy_mails_sent_total 1")
}
