// Package goals evaluates teacher-assigned goals against a student's
// progress after each answer.
package goals

import (
	"time"

	"github.com/mathmaster/mathmaster/internal/topic"
)

// Type selects how a goal's progress is measured.
type Type string

const (
	TypeExercises    Type = "exercises"
	TypeAccuracy     Type = "accuracy"
	TypePoints       Type = "points"
	TypeStreak       Type = "streak"
	TypeTopicMastery Type = "topic_mastery"
)

// ParseType converts a wire value into a goal Type.
func ParseType(s string) (Type, bool) {
	switch t := Type(s); t {
	case TypeExercises, TypeAccuracy, TypePoints, TypeStreak, TypeTopicMastery:
		return t, true
	default:
		return "", false
	}
}

// Status is the lifecycle state of a student's goal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// StreakWindow bounds how many recent attempts are scanned for a streak.
const StreakWindow = 100

// Goal is a target set by a teacher for a class.
type Goal struct {
	ID           string      `json:"id"`
	TeacherID    string      `json:"teacher_id"`
	ParaleloID   string      `json:"paralelo_id,omitempty"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Type         Type        `json:"goal_type"`
	TargetValue  int         `json:"target_value"`
	Topic        topic.Topic `json:"topic,omitempty"`
	RewardPoints int         `json:"reward_points"`
	StartDate    time.Time   `json:"start_date"`
	EndDate      time.Time   `json:"end_date"`
	IsActive     bool        `json:"is_active"`
}

// InWindow reports whether the goal is enabled and now is within its dates.
func (g Goal) InWindow(now time.Time) bool {
	return g.IsActive && !now.Before(g.StartDate) && !now.After(g.EndDate)
}

// StudentGoal is one student's progress toward a Goal.
type StudentGoal struct {
	ID           string     `json:"id"`
	GoalID       string     `json:"goal_id"`
	StudentID    string     `json:"student_id"`
	CurrentValue int        `json:"current_value"`
	Status       Status     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	PointsEarned int        `json:"points_earned"`
}

// Snapshot is the student's state right after an answer was recorded.
type Snapshot struct {
	Topic   topic.Topic
	Correct bool

	TotalAttempts   int
	CorrectAttempts int
	TotalPoints     int
	Streak          int

	// TopicMastery is the answered topic's mastery level.
	TopicMastery int
}

// Apply advances sg after one answer and reports whether it changed.
// Goals outside their window or no longer active are left alone.
func Apply(g Goal, sg StudentGoal, snap Snapshot, now time.Time) (StudentGoal, bool) {
	if sg.Status != StatusActive || !g.InWindow(now) {
		return sg, false
	}

	updated := false
	switch g.Type {
	case TypeExercises:
		sg.CurrentValue++
		updated = true
	case TypeAccuracy:
		if snap.TotalAttempts > 0 {
			sg.CurrentValue = int(float64(snap.CorrectAttempts) / float64(snap.TotalAttempts) * 100)
			updated = true
		}
	case TypePoints:
		sg.CurrentValue = snap.TotalPoints
		updated = true
	case TypeStreak:
		if snap.Correct && snap.Streak > sg.CurrentValue {
			sg.CurrentValue = snap.Streak
			updated = true
		}
	case TypeTopicMastery:
		if g.Topic == snap.Topic {
			sg.CurrentValue = snap.TopicMastery
			updated = true
		}
	}

	if updated && sg.CurrentValue >= g.TargetValue {
		sg.Status = StatusCompleted
		sg.CompletedAt = &now
		sg.PointsEarned = g.RewardPoints
	}
	return sg, updated
}

// Streak counts consecutive correct answers from the most recent one.
// recent is ordered newest first.
func Streak(recent []bool) int {
	n := 0
	for _, ok := range recent {
		if !ok {
			break
		}
		n++
	}
	return n
}

// Expired reports whether an active student goal has outlived its goal.
func Expired(g Goal, sg StudentGoal, now time.Time) bool {
	return sg.Status == StatusActive && now.After(g.EndDate)
}
