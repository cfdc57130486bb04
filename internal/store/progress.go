package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

var progressSelectColumns = []string{
	"student_id", "topic", "total_attempts", "correct_attempts", "wrong_attempts",
	"mastery_level", "needs_improvement", "last_practiced",
}

// progressRow is a TopicProgress tagged with its owner.
type progressRow struct {
	studentID string
	mastery.TopicProgress
}

func scanProgress(sc interface{ Scan(...any) error }) (progressRow, error) {
	var (
		r    progressRow
		t    string
		last sql.NullTime
	)
	err := sc.Scan(&r.studentID, &t, &r.TotalAttempts, &r.CorrectAttempts, &r.WrongAttempts,
		&r.MasteryLevel, &r.NeedsImprovement, &last)
	r.Topic = topic.Topic(t)
	r.LastPracticed = timePtr(last)
	return r, err
}

func (q *queries) listProgress(ctx context.Context, pred *entsql.Predicate) ([]progressRow, error) {
	b := q.builder()
	sel := b.Select(progressSelectColumns...).
		From(b.Table(progressTable.Name)).
		Where(pred).
		OrderBy("student_id", "topic")

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []progressRow
	for rows.Next() {
		r, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StudentProgress returns every topic the student has attempted.
func (q *queries) StudentProgress(ctx context.Context, studentID string) ([]mastery.TopicProgress, error) {
	rows, err := q.listProgress(ctx, entsql.EQ("student_id", studentID))
	if err != nil {
		return nil, err
	}
	return sortByTopic(rows), nil
}

// ProgressForStudents returns the progress rows of all given students.
func (q *queries) ProgressForStudents(ctx context.Context, studentIDs []string) ([]mastery.TopicProgress, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(studentIDs))
	for i, id := range studentIDs {
		args[i] = id
	}
	rows, err := q.listProgress(ctx, entsql.In("student_id", args...))
	if err != nil {
		return nil, err
	}
	out := make([]mastery.TopicProgress, len(rows))
	for i, r := range rows {
		out[i] = r.TopicProgress
	}
	return out, nil
}

// sortByTopic orders rows by the topic enumeration, unknown topics last.
func sortByTopic(rows []progressRow) []mastery.TopicProgress {
	rank := make(map[topic.Topic]int)
	for i, t := range topic.All() {
		rank[t] = i
	}
	out := make([]mastery.TopicProgress, 0, len(rows))
	for _, t := range topic.All() {
		for _, r := range rows {
			if r.Topic == t {
				out = append(out, r.TopicProgress)
			}
		}
	}
	for _, r := range rows {
		if _, ok := rank[r.Topic]; !ok {
			out = append(out, r.TopicProgress)
		}
	}
	return out
}

func (q *queries) getProgress(ctx context.Context, studentID string, t topic.Topic) (*mastery.TopicProgress, error) {
	b := q.builder()
	sel := b.Select(progressSelectColumns...).
		From(b.Table(progressTable.Name)).
		Where(entsql.And(
			entsql.EQ("student_id", studentID),
			entsql.EQ("topic", string(t)),
		))
	if q.inTx && q.dialect == dialectPostgres {
		sel.ForUpdate()
	}
	r, err := scanProgress(q.queryRow(ctx, sel))
	if err != nil {
		return nil, err
	}
	return &r.TopicProgress, nil
}

// ensureProgress creates the zero row of (student, topic) unless one
// already exists. Concurrent first answers both succeed; the later insert
// is a no-op.
func (q *queries) ensureProgress(ctx context.Context, studentID string, t topic.Topic, now time.Time) error {
	b := q.builder().Insert(progressTable.Name).
		Columns("id", "student_id", "topic", "total_attempts", "correct_attempts", "wrong_attempts",
			"mastery_level", "needs_improvement", "last_practiced", "updated_at").
		Values(newID(), studentID, string(t), 0, 0, 0, 0, false, nullTime(nil), now).
		OnConflict(
			entsql.ConflictColumns("student_id", "topic"),
			entsql.DoNothing(),
		)
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

// RecordAnswer applies one answer to the student's topic progress. Inside
// a Postgres transaction the row stays locked until commit.
func (q *queries) RecordAnswer(ctx context.Context, studentID string, t topic.Topic, correct bool, now time.Time) (mastery.TopicProgress, error) {
	now = ts(now)

	if err := q.ensureProgress(ctx, studentID, t, now); err != nil {
		return mastery.TopicProgress{}, err
	}
	cur, err := q.getProgress(ctx, studentID, t)
	if err != nil {
		return mastery.TopicProgress{}, fmt.Errorf("get progress: %w", err)
	}

	p := mastery.Update(*cur, correct, now)
	b := q.builder().Update(progressTable.Name).
		Set("total_attempts", p.TotalAttempts).
		Set("correct_attempts", p.CorrectAttempts).
		Set("wrong_attempts", p.WrongAttempts).
		Set("mastery_level", p.MasteryLevel).
		Set("needs_improvement", p.NeedsImprovement).
		Set("last_practiced", now).
		Set("updated_at", now).
		Where(entsql.And(
			entsql.EQ("student_id", studentID),
			entsql.EQ("topic", string(t)),
		))
	if _, err := q.exec(ctx, b); err != nil {
		return mastery.TopicProgress{}, fmt.Errorf("update progress: %w", err)
	}
	return p, nil
}

// ResetProgress deletes all topic progress of a student.
func (q *queries) ResetProgress(ctx context.Context, studentID string) error {
	b := q.builder().Delete(progressTable.Name).Where(entsql.EQ("student_id", studentID))
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}
