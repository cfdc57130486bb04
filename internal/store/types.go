package store

import (
	"time"

	"github.com/mathmaster/mathmaster/internal/goals"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// Roles a user can hold.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is a student, teacher or administrator.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Paralelo is a class section.
type Paralelo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Level     string    `json:"level"`
	TeacherID string    `json:"teacher_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment links a student to a paralelo.
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	ParaleloID string    `json:"paralelo_id"`
	IsActive   bool      `json:"is_active"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// GameSession is one run of exercises for a student.
type GameSession struct {
	ID                 string     `json:"id"`
	StudentID          string     `json:"student_id"`
	ParaleloID         string     `json:"paralelo_id,omitempty"`
	TotalScore         int        `json:"total_score"`
	ExercisesCompleted int        `json:"exercises_completed"`
	CorrectAnswers     int        `json:"correct_answers"`
	WrongAnswers       int        `json:"wrong_answers"`
	IsActive           bool       `json:"is_active"`
	StartedAt          time.Time  `json:"started_at"`
	LastActivityAt     time.Time  `json:"last_activity_at"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
}

// ExerciseRecord is a persisted exercise. Options keeps its order.
type ExerciseRecord struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Question      string           `json:"question"`
	Topic         topic.Topic      `json:"topic"`
	Difficulty    topic.Difficulty `json:"difficulty"`
	CorrectAnswer string           `json:"correct_answer"`
	Options       []string         `json:"options"`
	Explanation   string           `json:"explanation"`
	Points        int              `json:"points"`
	IsPractice    bool             `json:"is_practice"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Attempt is one submitted answer.
type Attempt struct {
	ID            string    `json:"id"`
	ExerciseID    string    `json:"exercise_id"`
	StudentID     string    `json:"student_id"`
	GameSessionID string    `json:"game_session_id,omitempty"`
	StudentAnswer string    `json:"student_answer"`
	IsCorrect     bool      `json:"is_correct"`
	TimeTaken     int       `json:"time_taken"`
	PointsEarned  int       `json:"points_earned"`
	PointsLost    int       `json:"points_lost"`
	AttemptedAt   time.Time `json:"attempted_at"`
}

// AttemptTotals aggregates a student's attempts.
type AttemptTotals struct {
	Total   int
	Correct int

	// Points sums points_earned across all attempts.
	Points int
}

// SessionTotals aggregates a student's game sessions.
type SessionTotals struct {
	Sessions           int
	TotalScore         int
	BestScore          int
	ExercisesCompleted int
	CorrectAnswers     int
	LastActivity       *time.Time
}

// GoalAssignment pairs a goal with one student's progress on it.
type GoalAssignment struct {
	Goal    goals.Goal        `json:"goal"`
	Student goals.StudentGoal `json:"progress"`
}

// LLMRequest is one recorded LLM call.
type LLMRequest struct {
	ID           string    `json:"id"`
	Purpose      string    `json:"purpose"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	LatencyMs    int64     `json:"latency_ms"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RequestBody  string    `json:"request_body,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
