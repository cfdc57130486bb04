package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/mathmaster/internal/goals"
	"github.com/mathmaster/mathmaster/internal/metrics"
	"github.com/mathmaster/mathmaster/internal/store"
)

type fakeMaintenance struct {
	mu      sync.Mutex
	expired int
	closed  int
	before  time.Time
	err     error
}

func (f *fakeMaintenance) ExpireGoals(context.Context, time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired++
	return 0, f.err
}

func (f *fakeMaintenance) CloseIdleSessions(_ context.Context, before, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	f.before = before
	return 2, f.err
}

func (f *fakeMaintenance) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired, f.closed
}

func TestStart_RunsJobsImmediately(t *testing.T) {
	fake := &fakeMaintenance{}
	s := New(fake, DefaultConfig(), nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		e, c := fake.counts()
		return e > 0 && c > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseIdleSessions_UsesTimeout(t *testing.T) {
	fake := &fakeMaintenance{}
	m := metrics.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New(fake, Config{IdleTimeout: 2 * time.Hour}, m, nil)
	s.now = func() time.Time { return now }

	n, err := s.CloseIdleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, now.Add(-2*time.Hour), fake.before)
}

func TestRun_RecordsFailures(t *testing.T) {
	fake := &fakeMaintenance{err: errors.New("database is locked")}
	m := metrics.New()
	s := New(fake, DefaultConfig(), m, nil)

	s.run(JobExpireGoals, s.ExpireGoals)

	assert.Equal(t, 1.0, counterValue(t, m, "mathmaster_scheduler_runs_total", "outcome", "error"))
}

// counterValue sums the samples of a counter family carrying label=value.
func counterValue(t *testing.T, m *metrics.Metrics, family, label, value string) float64 {
	t.Helper()
	out, err := m.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range out {
		if mf.GetName() != family {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func TestJobsAgainstStore(t *testing.T) {
	st, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	stale := &store.GameSession{
		StudentID:      "stu-1",
		IsActive:       true,
		StartedAt:      now.Add(-5 * time.Hour),
		LastActivityAt: now.Add(-3 * time.Hour),
	}
	fresh := &store.GameSession{
		StudentID: "stu-2",
		IsActive:  true,
		StartedAt: now.Add(-10 * time.Minute),
	}
	require.NoError(t, st.CreateSession(ctx, stale))
	require.NoError(t, st.CreateSession(ctx, fresh))

	g := &goals.Goal{
		TeacherID:   "teacher-1",
		Title:       "Meta pasada",
		Type:        goals.TypeExercises,
		TargetValue: 10,
		StartDate:   now.Add(-48 * time.Hour),
		EndDate:     now.Add(-24 * time.Hour),
		IsActive:    true,
	}
	require.NoError(t, st.CreateGoal(ctx, g))
	require.NoError(t, st.AssignGoal(ctx, &goals.StudentGoal{GoalID: g.ID, StudentID: "stu-1"}))

	m := metrics.New()
	s := New(st, DefaultConfig(), m, nil)

	closed, err := s.CloseIdleSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	expired, err := s.ExpireGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := st.GetSession(ctx, stale.ID, "stu-1", false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.NotNil(t, got.EndedAt)

	got, err = st.GetSession(ctx, fresh.ID, "stu-2", false)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	assigned, err := st.StudentGoals(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, goals.StatusExpired, assigned[0].Student.Status)

	assert.Equal(t, 1.0, counterValue(t, m, "mathmaster_sessions_total", "event", "expired"))
}
