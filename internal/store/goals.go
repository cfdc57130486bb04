package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/mathmaster/mathmaster/internal/goals"
	"github.com/mathmaster/mathmaster/internal/topic"
)

var goalColumns = []string{
	"id", "teacher_id", "paralelo_id", "title", "description", "goal_type",
	"target_value", "topic", "reward_points", "start_date", "end_date",
	"is_active", "created_at",
}

// CreateGoal inserts g, assigning an ID when unset.
func (q *queries) CreateGoal(ctx context.Context, g *goals.Goal) error {
	if g.ID == "" {
		g.ID = newID()
	}
	g.StartDate = ts(g.StartDate)
	g.EndDate = ts(g.EndDate)

	b := q.builder().Insert(goalsTable.Name).
		Columns(goalColumns...).
		Values(g.ID, g.TeacherID, nullString(g.ParaleloID), g.Title, nullString(g.Description), string(g.Type),
			g.TargetValue, nullString(string(g.Topic)), g.RewardPoints, g.StartDate, g.EndDate,
			g.IsActive, ts(time.Now()))
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// AssignGoal inserts a student's progress row for a goal.
func (q *queries) AssignGoal(ctx context.Context, sg *goals.StudentGoal) error {
	if sg.ID == "" {
		sg.ID = newID()
	}
	if sg.Status == "" {
		sg.Status = goals.StatusActive
	}

	b := q.builder().Insert(studentGoalsTable.Name).
		Columns("id", "goal_id", "student_id", "current_value", "status", "completed_at", "points_earned", "updated_at").
		Values(sg.ID, sg.GoalID, sg.StudentID, sg.CurrentValue, string(sg.Status), nullTime(sg.CompletedAt),
			sg.PointsEarned, ts(time.Now()))
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("assign goal: %w", err)
	}
	return nil
}

// StudentGoals returns the goals assigned to a student, oldest goal first.
func (q *queries) StudentGoals(ctx context.Context, studentID string) ([]GoalAssignment, error) {
	b := q.builder()
	g := b.Table(goalsTable.Name).As("g")
	sg := b.Table(studentGoalsTable.Name).As("sg")

	cols := make([]string, 0, len(goalColumns)+7)
	for _, c := range goalColumns {
		cols = append(cols, g.C(c))
	}
	for _, c := range []string{"id", "goal_id", "student_id", "current_value", "status", "completed_at", "points_earned"} {
		cols = append(cols, sg.C(c))
	}

	sel := b.Select(cols...).
		From(sg).
		Join(g).On(sg.C("goal_id"), g.C("id")).
		Where(entsql.EQ(sg.C("student_id"), studentID)).
		OrderBy(g.C("start_date"), g.C("id"))
	if q.inTx && q.dialect == dialectPostgres {
		sel.ForUpdate()
	}

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list student goals: %w", err)
	}
	defer rows.Close()

	var out []GoalAssignment
	for rows.Next() {
		var (
			a                         GoalAssignment
			paralelo, desc, goalTopic sql.NullString
			goalType, status          string
			createdAt                 time.Time
			completed                 sql.NullTime
		)
		err := rows.Scan(
			&a.Goal.ID, &a.Goal.TeacherID, &paralelo, &a.Goal.Title, &desc, &goalType,
			&a.Goal.TargetValue, &goalTopic, &a.Goal.RewardPoints, &a.Goal.StartDate, &a.Goal.EndDate,
			&a.Goal.IsActive, &createdAt,
			&a.Student.ID, &a.Student.GoalID, &a.Student.StudentID, &a.Student.CurrentValue,
			&status, &completed, &a.Student.PointsEarned,
		)
		if err != nil {
			return nil, fmt.Errorf("scan student goal: %w", err)
		}
		a.Goal.ParaleloID = paralelo.String
		a.Goal.Description = desc.String
		a.Goal.Type = goals.Type(goalType)
		a.Goal.Topic = topic.Topic(goalTopic.String)
		a.Goal.StartDate = a.Goal.StartDate.UTC()
		a.Goal.EndDate = a.Goal.EndDate.UTC()
		a.Student.Status = goals.Status(status)
		a.Student.CompletedAt = timePtr(completed)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStudentGoal writes the progress fields of sg.
func (q *queries) UpdateStudentGoal(ctx context.Context, sg goals.StudentGoal, now time.Time) error {
	b := q.builder().Update(studentGoalsTable.Name).
		Set("current_value", sg.CurrentValue).
		Set("status", string(sg.Status)).
		Set("completed_at", nullTime(sg.CompletedAt)).
		Set("points_earned", sg.PointsEarned).
		Set("updated_at", ts(now)).
		Where(entsql.EQ("id", sg.ID))
	res, err := q.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("update student goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update student goal: %w", ErrNotFound)
	}
	return nil
}

// ExpireGoals moves active student goals whose goal has ended to expired.
func (q *queries) ExpireGoals(ctx context.Context, now time.Time) (int, error) {
	b := q.builder()
	ended := b.Select("id").
		From(b.Table(goalsTable.Name)).
		Where(entsql.LT("end_date", ts(now)))

	upd := b.Update(studentGoalsTable.Name).
		Set("status", string(goals.StatusExpired)).
		Set("updated_at", ts(now)).
		Where(entsql.And(
			entsql.EQ("status", string(goals.StatusActive)),
			entsql.In("goal_id", ended),
		))
	res, err := q.exec(ctx, upd)
	if err != nil {
		return 0, fmt.Errorf("expire goals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire goals: %w", err)
	}
	return int(n), nil
}
