package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/mathmaster/mathmaster/internal/goals"
	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// UserRepo manages user accounts. Authentication lives upstream.
type UserRepo interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
}

// ClassRepo manages paralelos and enrollments.
type ClassRepo interface {
	CreateParalelo(ctx context.Context, p *Paralelo) error
	GetParalelo(ctx context.Context, id string) (*Paralelo, error)
	Enroll(ctx context.Context, e *Enrollment) error

	// ActiveEnrollment returns the student's first active enrollment.
	ActiveEnrollment(ctx context.Context, studentID string) (*Enrollment, error)

	// ParaleloStudents returns the active enrollees of a paralelo.
	ParaleloStudents(ctx context.Context, paraleloID string) ([]User, error)
}

// SessionRepo manages game sessions.
type SessionRepo interface {
	CreateSession(ctx context.Context, gs *GameSession) error

	// GetSession loads a session owned by studentID. With forUpdate the row
	// is locked until the surrounding transaction ends (Postgres only).
	GetSession(ctx context.Context, id, studentID string, forUpdate bool) (*GameSession, error)
	UpdateSession(ctx context.Context, gs *GameSession) error
	StudentSessions(ctx context.Context, studentID string) ([]GameSession, error)
	SessionTotals(ctx context.Context, studentIDs []string) (map[string]SessionTotals, error)

	// CloseIdleSessions ends active sessions with no activity since before.
	CloseIdleSessions(ctx context.Context, before, now time.Time) (int, error)
}

// ExerciseRepo stores generated exercises.
type ExerciseRepo interface {
	CreateExercise(ctx context.Context, ex *ExerciseRecord) error
	GetExercise(ctx context.Context, id string) (*ExerciseRecord, error)
}

// AttemptRepo records answers.
type AttemptRepo interface {
	CreateAttempt(ctx context.Context, a *Attempt) error

	// AttemptTotals sums a student's attempts across all sessions.
	AttemptTotals(ctx context.Context, studentID string) (AttemptTotals, error)

	// RecentResults returns correctness of the latest attempts, newest first.
	RecentResults(ctx context.Context, studentID string, limit int) ([]bool, error)

	// LatestAttempt returns the student's most recent attempt at an
	// exercise, or ErrNotFound.
	LatestAttempt(ctx context.Context, studentID, exerciseID string) (*Attempt, error)
}

// ProgressRepo reads and updates per-topic progress.
type ProgressRepo interface {
	StudentProgress(ctx context.Context, studentID string) ([]mastery.TopicProgress, error)
	ProgressForStudents(ctx context.Context, studentIDs []string) ([]mastery.TopicProgress, error)

	// RecordAnswer applies one answer to the (student, topic) progress row,
	// creating it on first attempt, and returns the stored result.
	RecordAnswer(ctx context.Context, studentID string, t topic.Topic, correct bool, now time.Time) (mastery.TopicProgress, error)

	ResetProgress(ctx context.Context, studentID string) error
}

// GoalRepo manages goals and their per-student progress.
type GoalRepo interface {
	CreateGoal(ctx context.Context, g *goals.Goal) error
	AssignGoal(ctx context.Context, sg *goals.StudentGoal) error

	// StudentGoals returns every goal assigned to a student with its state.
	StudentGoals(ctx context.Context, studentID string) ([]GoalAssignment, error)
	UpdateStudentGoal(ctx context.Context, sg goals.StudentGoal, now time.Time) error

	// ExpireGoals marks active student goals whose goal ended before now.
	ExpireGoals(ctx context.Context, now time.Time) (int, error)
}

// LLMRequestRepo records tutor LLM calls for inspection.
type LLMRequestRepo interface {
	AppendLLMRequest(ctx context.Context, r LLMRequest) error
	ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequest, error)
	GetLLMRequest(ctx context.Context, id string) (*LLMRequest, error)
}

// Repository groups every repository. It is implemented by *Store and by
// the transaction handle passed to InTx.
type Repository interface {
	UserRepo
	ClassRepo
	SessionRepo
	ExerciseRepo
	AttemptRepo
	ProgressRepo
	GoalRepo
	LLMRequestRepo
}

// QueryOpts configures list queries.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // created_at >= From
	To    time.Time // created_at <= To
}

// conn is satisfied by *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Repository on top of a connection or transaction.
type queries struct {
	conn    conn
	dialect string
	inTx    bool
}

func (q *queries) builder() *entsql.DialectBuilder {
	return entsql.Dialect(q.dialect)
}

type querier interface {
	Query() (string, []any)
}

func (q *queries) exec(ctx context.Context, b querier) (sql.Result, error) {
	query, args := b.Query()
	return q.conn.ExecContext(ctx, query, args...)
}

func (q *queries) query(ctx context.Context, b querier) (*sql.Rows, error) {
	query, args := b.Query()
	return q.conn.QueryContext(ctx, query, args...)
}

func (q *queries) queryRow(ctx context.Context, b querier) *sql.Row {
	query, args := b.Query()
	return q.conn.QueryRowContext(ctx, query, args...)
}

var _ Repository = (*queries)(nil)
