// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	answers       *prometheus.CounterVec
	pointsEarned  *prometheus.CounterVec
	pointsLost    *prometheus.CounterVec
	exercises     *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	activeSession prometheus.Gauge
	goalsDone     prometheus.Counter
	jobRuns       *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mathmaster_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		answers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_answers_total",
			Help: "Submitted answers by topic, difficulty and result.",
		}, []string{"topic", "difficulty", "result"}),
		pointsEarned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_points_earned_total",
			Help: "Points awarded for correct answers by topic.",
		}, []string{"topic"}),
		pointsLost: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_points_lost_total",
			Help: "Points deducted for wrong answers by topic.",
		}, []string{"topic"}),
		exercises: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_exercises_generated_total",
			Help: "Generated exercises by topic and difficulty.",
		}, []string{"topic", "difficulty"}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_sessions_total",
			Help: "Game session transitions (started, ended, expired).",
		}, []string{"event"}),
		activeSession: f.NewGauge(prometheus.GaugeOpts{
			Name: "mathmaster_sessions_active",
			Help: "Sessions started minus sessions ended since process start.",
		}),
		goalsDone: f.NewCounter(prometheus.CounterOpts{
			Name: "mathmaster_goals_completed_total",
			Help: "Student goals completed.",
		}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mathmaster_scheduler_runs_total",
			Help: "Maintenance job runs by job and outcome.",
		}, []string{"job", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ExerciseGenerated(topic, difficulty string) {
	if m == nil {
		return
	}
	m.exercises.WithLabelValues(topic, difficulty).Inc()
}

func (m *Metrics) AnswerSubmitted(topic, difficulty string, correct bool, earned, lost int) {
	if m == nil {
		return
	}
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.answers.WithLabelValues(topic, difficulty, result).Inc()
	m.pointsEarned.WithLabelValues(topic).Add(float64(earned))
	m.pointsLost.WithLabelValues(topic).Add(float64(lost))
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("started").Inc()
	m.activeSession.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("ended").Inc()
	m.activeSession.Dec()
}

// SessionsExpired records sessions closed by the idle sweeper.
func (m *Metrics) SessionsExpired(n int) {
	if m == nil || n == 0 {
		return
	}
	m.sessions.WithLabelValues("expired").Add(float64(n))
	m.activeSession.Sub(float64(n))
}

func (m *Metrics) GoalCompleted() {
	if m == nil {
		return
	}
	m.goalsDone.Inc()
}

func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}
