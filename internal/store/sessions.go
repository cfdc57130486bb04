package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{
	"id", "student_id", "paralelo_id", "total_score", "exercises_completed",
	"correct_answers", "wrong_answers", "is_active", "started_at",
	"last_activity_at", "ended_at",
}

func scanSession(sc interface{ Scan(...any) error }) (GameSession, error) {
	var (
		gs       GameSession
		paralelo sql.NullString
		ended    sql.NullTime
	)
	err := sc.Scan(&gs.ID, &gs.StudentID, &paralelo, &gs.TotalScore, &gs.ExercisesCompleted,
		&gs.CorrectAnswers, &gs.WrongAnswers, &gs.IsActive, &gs.StartedAt,
		&gs.LastActivityAt, &ended)
	gs.ParaleloID = paralelo.String
	gs.StartedAt = gs.StartedAt.UTC()
	gs.LastActivityAt = gs.LastActivityAt.UTC()
	gs.EndedAt = timePtr(ended)
	return gs, err
}

// CreateSession inserts gs, assigning an ID and start time when unset.
func (q *queries) CreateSession(ctx context.Context, gs *GameSession) error {
	if gs.ID == "" {
		gs.ID = newID()
	}
	if gs.StartedAt.IsZero() {
		gs.StartedAt = time.Now()
	}
	gs.StartedAt = ts(gs.StartedAt)
	if gs.LastActivityAt.IsZero() {
		gs.LastActivityAt = gs.StartedAt
	}
	gs.LastActivityAt = ts(gs.LastActivityAt)

	b := q.builder().Insert(gameSessionsTable.Name).
		Columns(sessionColumns...).
		Values(gs.ID, gs.StudentID, nullString(gs.ParaleloID), gs.TotalScore, gs.ExercisesCompleted,
			gs.CorrectAnswers, gs.WrongAnswers, gs.IsActive, gs.StartedAt,
			gs.LastActivityAt, nullTime(gs.EndedAt))
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns the session id owned by studentID. A session owned by
// someone else is reported as not found.
func (q *queries) GetSession(ctx context.Context, id, studentID string, forUpdate bool) (*GameSession, error) {
	b := q.builder()
	sel := b.Select(sessionColumns...).
		From(b.Table(gameSessionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("student_id", studentID),
		))
	// SQLite serializes writers on its single connection.
	if forUpdate && q.inTx && q.dialect == dialectPostgres {
		sel.ForUpdate()
	}

	gs, err := scanSession(q.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &gs, nil
}

// UpdateSession writes the mutable session fields.
func (q *queries) UpdateSession(ctx context.Context, gs *GameSession) error {
	gs.LastActivityAt = ts(gs.LastActivityAt)
	b := q.builder().Update(gameSessionsTable.Name).
		Set("total_score", gs.TotalScore).
		Set("exercises_completed", gs.ExercisesCompleted).
		Set("correct_answers", gs.CorrectAnswers).
		Set("wrong_answers", gs.WrongAnswers).
		Set("is_active", gs.IsActive).
		Set("last_activity_at", gs.LastActivityAt).
		Set("ended_at", nullTime(gs.EndedAt)).
		Where(entsql.EQ("id", gs.ID))

	res, err := q.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update session: %w", ErrNotFound)
	}
	return nil
}

// StudentSessions returns a student's sessions, newest first.
func (q *queries) StudentSessions(ctx context.Context, studentID string) ([]GameSession, error) {
	b := q.builder()
	sel := b.Select(sessionColumns...).
		From(b.Table(gameSessionsTable.Name)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []GameSession
	for rows.Next() {
		gs, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, gs)
	}
	return out, rows.Err()
}

// CloseIdleSessions ends every active session whose last activity is older
// than before and returns how many were closed.
func (q *queries) CloseIdleSessions(ctx context.Context, before, now time.Time) (int, error) {
	b := q.builder().Update(gameSessionsTable.Name).
		Set("is_active", false).
		Set("ended_at", ts(now)).
		Where(entsql.And(
			entsql.EQ("is_active", true),
			entsql.LT("last_activity_at", ts(before)),
		))

	res, err := q.exec(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("close idle sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close idle sessions: %w", err)
	}
	return int(n), nil
}

// SessionTotals aggregates the sessions of each given student. Students
// without sessions are absent from the result.
func (q *queries) SessionTotals(ctx context.Context, studentIDs []string) (map[string]SessionTotals, error) {
	out := make(map[string]SessionTotals, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(studentIDs))
	for i, id := range studentIDs {
		args[i] = id
	}

	b := q.builder()
	sel := b.Select(
		"student_id",
		"COUNT(*)",
		"COALESCE(SUM(total_score), 0)",
		"COALESCE(MAX(total_score), 0)",
		"COALESCE(SUM(exercises_completed), 0)",
		"COALESCE(SUM(correct_answers), 0)",
		"MAX(last_activity_at)",
	).
		From(b.Table(gameSessionsTable.Name)).
		Where(entsql.In("student_id", args...)).
		GroupBy("student_id")

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("session totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			t    SessionTotals
			last any
		)
		if err := rows.Scan(&id, &t.Sessions, &t.TotalScore, &t.BestScore,
			&t.ExercisesCompleted, &t.CorrectAnswers, &last); err != nil {
			return nil, fmt.Errorf("scan session totals: %w", err)
		}
		t.LastActivity = parseAggregateTime(last)
		out[id] = t
	}
	return out, rows.Err()
}

// parseAggregateTime converts the result of MAX() over a time column.
// SQLite loses the column type on aggregates and returns text.
func parseAggregateTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case string:
		for _, layout := range aggregateTimeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				u := parsed.UTC()
				return &u
			}
		}
	case []byte:
		return parseAggregateTime(string(t))
	}
	return nil
}

var aggregateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}
