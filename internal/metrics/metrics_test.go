package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerSubmitted(t *testing.T) {
	m := New()
	m.AnswerSubmitted("fractions", "medium", true, 23, 0)
	m.AnswerSubmitted("fractions", "medium", false, 0, 8)
	m.AnswerSubmitted("fractions", "medium", true, 20, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues("fractions", "medium", "correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("fractions", "medium", "wrong")))
	assert.Equal(t, 43.0, testutil.ToFloat64(m.pointsEarned.WithLabelValues("fractions")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.pointsLost.WithLabelValues("fractions")))
}

func TestActiveSessions(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()
	m.SessionsExpired(1)
	m.SessionsExpired(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSession))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("expired")))
}

func TestJobRun(t *testing.T) {
	m := New()
	m.JobRun("expire_goals", nil)
	m.JobRun("expire_goals", errors.New("db down"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_goals", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_goals", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/health", "GET", 200, time.Millisecond)
		m.AnswerSubmitted("operations", "easy", true, 10, 0)
		m.ExerciseGenerated("operations", "easy")
		m.SessionStarted()
		m.SessionEnded()
		m.SessionsExpired(3)
		m.GoalCompleted()
		m.JobRun("x", nil)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/student/stats", "GET", 200, 20*time.Millisecond)
	m.GoalCompleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mathmaster_http_requests_total{method="GET",route="/api/student/stats",status="200"} 1`)
	assert.Contains(t, string(body), "mathmaster_goals_completed_total 1")
}
