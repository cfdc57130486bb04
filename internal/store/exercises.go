package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/mathmaster/mathmaster/internal/topic"
)

var exerciseColumns = []string{
	"id", "title", "question", "topic", "difficulty", "correct_answer",
	"options", "explanation", "points", "is_practice", "created_at",
}

// CreateExercise inserts ex. Options are stored as a JSON array string.
func (q *queries) CreateExercise(ctx context.Context, ex *ExerciseRecord) error {
	if ex.ID == "" {
		ex.ID = newID()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	ex.CreatedAt = ts(ex.CreatedAt)

	opts := ex.Options
	if opts == nil {
		opts = []string{}
	}
	encoded, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	b := q.builder().Insert(exercisesTable.Name).
		Columns(exerciseColumns...).
		Values(ex.ID, ex.Title, ex.Question, string(ex.Topic), string(ex.Difficulty), ex.CorrectAnswer,
			string(encoded), ex.Explanation, ex.Points, ex.IsPractice, ex.CreatedAt)
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("create exercise: %w", err)
	}
	return nil
}

// GetExercise returns the exercise with the given ID.
func (q *queries) GetExercise(ctx context.Context, id string) (*ExerciseRecord, error) {
	b := q.builder()
	sel := b.Select(exerciseColumns...).From(b.Table(exercisesTable.Name)).Where(entsql.EQ("id", id))

	var (
		ex          ExerciseRecord
		t, d, rawOp string
	)
	err := q.queryRow(ctx, sel).Scan(&ex.ID, &ex.Title, &ex.Question, &t, &d, &ex.CorrectAnswer,
		&rawOp, &ex.Explanation, &ex.Points, &ex.IsPractice, &ex.CreatedAt)
	if err != nil {
		return nil, notFound(err, "exercise")
	}
	ex.Topic = topic.Topic(t)
	ex.Difficulty = topic.Difficulty(d)
	ex.CreatedAt = ex.CreatedAt.UTC()
	if err := json.Unmarshal([]byte(rawOp), &ex.Options); err != nil {
		return nil, fmt.Errorf("decode options for exercise %s: %w", ex.ID, err)
	}
	return &ex, nil
}

var attemptColumns = []string{
	"id", "exercise_id", "student_id", "game_session_id", "student_answer",
	"is_correct", "time_taken", "points_earned", "points_lost", "attempted_at",
}

// CreateAttempt inserts a, assigning an ID and time when unset.
func (q *queries) CreateAttempt(ctx context.Context, a *Attempt) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}
	a.AttemptedAt = ts(a.AttemptedAt)

	b := q.builder().Insert(attemptsTable.Name).
		Columns(attemptColumns...).
		Values(a.ID, a.ExerciseID, a.StudentID, nullString(a.GameSessionID), a.StudentAnswer,
			a.IsCorrect, a.TimeTaken, a.PointsEarned, a.PointsLost, a.AttemptedAt)
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// LatestAttempt returns the newest attempt of studentID at exerciseID.
func (q *queries) LatestAttempt(ctx context.Context, studentID, exerciseID string) (*Attempt, error) {
	b := q.builder()
	sel := b.Select(attemptColumns...).
		From(b.Table(attemptsTable.Name)).
		Where(entsql.And(
			entsql.EQ("student_id", studentID),
			entsql.EQ("exercise_id", exerciseID),
		)).
		OrderBy(entsql.Desc("attempted_at"), entsql.Desc("id")).
		Limit(1)

	var (
		a         Attempt
		sessionID sql.NullString
	)
	err := q.queryRow(ctx, sel).Scan(&a.ID, &a.ExerciseID, &a.StudentID, &sessionID, &a.StudentAnswer,
		&a.IsCorrect, &a.TimeTaken, &a.PointsEarned, &a.PointsLost, &a.AttemptedAt)
	if err != nil {
		return nil, notFound(err, "attempt")
	}
	a.GameSessionID = sessionID.String
	a.AttemptedAt = a.AttemptedAt.UTC()
	return &a, nil
}

// AttemptTotals sums every attempt of a student.
func (q *queries) AttemptTotals(ctx context.Context, studentID string) (AttemptTotals, error) {
	b := q.builder()
	sel := b.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(points_earned), 0)",
	).
		From(b.Table(attemptsTable.Name)).
		Where(entsql.EQ("student_id", studentID))

	var t AttemptTotals
	if err := q.queryRow(ctx, sel).Scan(&t.Total, &t.Correct, &t.Points); err != nil {
		return AttemptTotals{}, fmt.Errorf("attempt totals: %w", err)
	}
	return t, nil
}

// RecentResults returns up to limit correctness flags, newest first.
func (q *queries) RecentResults(ctx context.Context, studentID string, limit int) ([]bool, error) {
	b := q.builder()
	sel := b.Select("is_correct").
		From(b.Table(attemptsTable.Name)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("attempted_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	defer rows.Close()

	var out []bool
	for rows.Next() {
		var ok bool
		if err := rows.Scan(&ok); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, ok)
	}
	return out, rows.Err()
}
