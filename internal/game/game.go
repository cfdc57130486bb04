// Package game runs exercise sessions: it picks and generates exercises,
// grades answers and keeps scores, topic progress and goals in step.
package game

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/mathmaster/mathmaster/internal/adaptive"
	"github.com/mathmaster/mathmaster/internal/events"
	"github.com/mathmaster/mathmaster/internal/exercise"
	"github.com/mathmaster/mathmaster/internal/leaderboard"
	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/metrics"
	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/tutor"
)

var (
	ErrSessionNotFound  = errors.New("session not found or already ended")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrNotAnswered      = errors.New("exercise has not been answered yet")
	ErrNotEnrolled      = errors.New("student is not enrolled in any paralelo")
	ErrParaleloNotFound = errors.New("paralelo not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// Store is the persistence the service needs.
type Store interface {
	store.Repository
	InTx(ctx context.Context, fn func(store.Repository) error) error
}

// Deps holds the collaborators of a Service. Only Store is required.
type Deps struct {
	Store     Store
	Generator *exercise.Generator
	Selector  adaptive.Selector
	Board     leaderboard.Board
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Tutor     *tutor.Service
	Logger    *logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service is safe for concurrent use.
type Service struct {
	store    Store
	gen      *exercise.Generator
	selector adaptive.Selector
	board    leaderboard.Board
	events   events.Publisher
	metrics  *metrics.Metrics
	tutor    *tutor.Service
	log      *logger.Logger
	now      func() time.Time
}

// New fills unset dependencies with store-backed or no-op defaults.
func New(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		gen:      d.Generator,
		selector: d.Selector,
		board:    d.Board,
		events:   d.Events,
		metrics:  d.Metrics,
		tutor:    d.Tutor,
		log:      d.Logger,
		now:      d.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.gen == nil {
		s.gen = exercise.NewGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	if s.selector == nil {
		s.selector = adaptive.NewSelector(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	if s.board == nil {
		s.board = leaderboard.NewStoreBoard(d.Store)
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.tutor == nil {
		s.tutor = tutor.NewService(nil, tutor.DefaultConfig(), s.log)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// publish sends e and logs failures. Events never fail the action that
// produced them.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("publish event failed", "event", e.Type, "student_id", e.StudentID, "error", err)
	}
}

// percent returns part/whole as a percentage rounded to one decimal.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
