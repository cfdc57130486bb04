package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const textSize = 2147483647

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeString, Size: 36}
}

func refColumn(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 36, Nullable: nullable}
}

var (
	usersColumns = []*schema.Column{
		idColumn(),
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "first_name", Type: field.TypeString},
		{Name: "last_name", Type: field.TypeString},
		{Name: "role", Type: field.TypeString, Default: "student"},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	paralelosColumns = []*schema.Column{
		idColumn(),
		{Name: "name", Type: field.TypeString},
		{Name: "level", Type: field.TypeString},
		refColumn("teacher_id", true),
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	paralelosTable = &schema.Table{
		Name:       "paralelos",
		Columns:    paralelosColumns,
		PrimaryKey: []*schema.Column{paralelosColumns[0]},
	}

	enrollmentsColumns = []*schema.Column{
		idColumn(),
		refColumn("student_id", false),
		refColumn("paralelo_id", false),
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "enrolled_at", Type: field.TypeTime},
	}
	enrollmentsTable = &schema.Table{
		Name:       "enrollments",
		Columns:    enrollmentsColumns,
		PrimaryKey: []*schema.Column{enrollmentsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "enrollment_student_id", Columns: []*schema.Column{enrollmentsColumns[1]}},
			{Name: "enrollment_paralelo_id", Columns: []*schema.Column{enrollmentsColumns[2]}},
		},
	}

	gameSessionsColumns = []*schema.Column{
		idColumn(),
		refColumn("student_id", false),
		refColumn("paralelo_id", true),
		{Name: "total_score", Type: field.TypeInt, Default: 0},
		{Name: "exercises_completed", Type: field.TypeInt, Default: 0},
		{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		{Name: "wrong_answers", Type: field.TypeInt, Default: 0},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "last_activity_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
	}
	gameSessionsTable = &schema.Table{
		Name:       "game_sessions",
		Columns:    gameSessionsColumns,
		PrimaryKey: []*schema.Column{gameSessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "gamesession_student_id", Columns: []*schema.Column{gameSessionsColumns[1]}},
			{Name: "gamesession_is_active_last_activity_at", Columns: []*schema.Column{gameSessionsColumns[7], gameSessionsColumns[9]}},
		},
	}

	exercisesColumns = []*schema.Column{
		idColumn(),
		{Name: "title", Type: field.TypeString},
		{Name: "question", Type: field.TypeString, Size: textSize},
		{Name: "topic", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "correct_answer", Type: field.TypeString, Size: textSize},
		{Name: "options", Type: field.TypeString, Size: textSize},
		{Name: "explanation", Type: field.TypeString, Size: textSize},
		{Name: "points", Type: field.TypeInt, Default: 10},
		{Name: "is_practice", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	exercisesTable = &schema.Table{
		Name:       "exercises",
		Columns:    exercisesColumns,
		PrimaryKey: []*schema.Column{exercisesColumns[0]},
	}

	attemptsColumns = []*schema.Column{
		idColumn(),
		refColumn("exercise_id", false),
		refColumn("student_id", false),
		refColumn("game_session_id", true),
		{Name: "student_answer", Type: field.TypeString, Size: textSize},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "time_taken", Type: field.TypeInt, Default: 0},
		{Name: "points_earned", Type: field.TypeInt, Default: 0},
		{Name: "points_lost", Type: field.TypeInt, Default: 0},
		{Name: "attempted_at", Type: field.TypeTime},
	}
	attemptsTable = &schema.Table{
		Name:       "exercise_attempts",
		Columns:    attemptsColumns,
		PrimaryKey: []*schema.Column{attemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "exerciseattempt_student_id_attempted_at", Columns: []*schema.Column{attemptsColumns[2], attemptsColumns[9]}},
		},
	}

	progressColumns = []*schema.Column{
		idColumn(),
		refColumn("student_id", false),
		{Name: "topic", Type: field.TypeString},
		{Name: "total_attempts", Type: field.TypeInt, Default: 0},
		{Name: "correct_attempts", Type: field.TypeInt, Default: 0},
		{Name: "wrong_attempts", Type: field.TypeInt, Default: 0},
		{Name: "mastery_level", Type: field.TypeInt, Default: 0},
		{Name: "needs_improvement", Type: field.TypeBool, Default: false},
		{Name: "last_practiced", Type: field.TypeTime, Nullable: true},
		{Name: "updated_at", Type: field.TypeTime},
	}
	progressTable = &schema.Table{
		Name:       "student_topic_progress",
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
		Indexes: []*schema.Index{
			{Name: "studenttopicprogress_student_id_topic", Unique: true, Columns: []*schema.Column{progressColumns[1], progressColumns[2]}},
		},
	}

	goalsColumns = []*schema.Column{
		idColumn(),
		refColumn("teacher_id", false),
		refColumn("paralelo_id", true),
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "goal_type", Type: field.TypeString},
		{Name: "target_value", Type: field.TypeInt},
		{Name: "topic", Type: field.TypeString, Nullable: true},
		{Name: "reward_points", Type: field.TypeInt, Default: 100},
		{Name: "start_date", Type: field.TypeTime},
		{Name: "end_date", Type: field.TypeTime},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	goalsTable = &schema.Table{
		Name:       "goals",
		Columns:    goalsColumns,
		PrimaryKey: []*schema.Column{goalsColumns[0]},
	}

	studentGoalsColumns = []*schema.Column{
		idColumn(),
		refColumn("goal_id", false),
		refColumn("student_id", false),
		{Name: "current_value", Type: field.TypeInt, Default: 0},
		{Name: "status", Type: field.TypeString, Default: "active"},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "points_earned", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	studentGoalsTable = &schema.Table{
		Name:       "student_goals",
		Columns:    studentGoalsColumns,
		PrimaryKey: []*schema.Column{studentGoalsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "studentgoal_goal_id_student_id", Unique: true, Columns: []*schema.Column{studentGoalsColumns[1], studentGoalsColumns[2]}},
		},
	}

	llmRequestsColumns = []*schema.Column{
		idColumn(),
		{Name: "purpose", Type: field.TypeString},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	llmRequestsTable = &schema.Table{
		Name:       "llm_requests",
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
	}

	// tables lists every table the application owns.
	tables = []*schema.Table{
		usersTable,
		paralelosTable,
		enrollmentsTable,
		gameSessionsTable,
		exercisesTable,
		attemptsTable,
		progressTable,
		goalsTable,
		studentGoalsTable,
		llmRequestsTable,
	}
)

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
