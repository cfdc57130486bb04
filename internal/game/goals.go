package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mathmaster/mathmaster/internal/goals"
	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// GoalInput describes a goal a teacher sets for a paralelo.
type GoalInput struct {
	ParaleloID   string    `json:"paralelo_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"goal_type"`
	TargetValue  int       `json:"target_value"`
	Topic        string    `json:"topic"`
	RewardPoints *int      `json:"reward_points"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// DefaultRewardPoints applies when a goal sets no reward.
const DefaultRewardPoints = 100

func (in GoalInput) validate() (goals.Goal, error) {
	g := goals.Goal{
		ParaleloID:   in.ParaleloID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		TargetValue:  in.TargetValue,
		RewardPoints: DefaultRewardPoints,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		IsActive:     true,
	}
	if in.RewardPoints != nil {
		g.RewardPoints = *in.RewardPoints
	}

	t, ok := goals.ParseType(in.Type)
	if !ok {
		return g, fmt.Errorf("%w: unknown goal type %q", ErrInvalidInput, in.Type)
	}
	g.Type = t

	switch {
	case g.ParaleloID == "":
		return g, fmt.Errorf("%w: paralelo_id is required", ErrInvalidInput)
	case g.Title == "":
		return g, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case g.TargetValue <= 0:
		return g, fmt.Errorf("%w: target_value must be positive", ErrInvalidInput)
	case g.RewardPoints < 0:
		return g, fmt.Errorf("%w: reward_points must not be negative", ErrInvalidInput)
	case g.StartDate.IsZero() || g.EndDate.IsZero():
		return g, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidInput)
	case g.EndDate.Before(g.StartDate):
		return g, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}

	if in.Topic != "" {
		tp, err := topic.Parse(in.Topic)
		if err != nil {
			return g, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		g.Topic = tp
	}
	if g.Type == goals.TypeTopicMastery && g.Topic == "" {
		return g, fmt.Errorf("%w: topic_mastery goals need a topic", ErrInvalidInput)
	}
	return g, nil
}

// CreatedGoal is a stored goal and the number of students it was assigned to.
type CreatedGoal struct {
	Goal     goals.Goal `json:"goal"`
	Assigned int        `json:"assigned_students"`
}

// CreateGoal stores a goal and assigns it to every active enrollee of its
// paralelo.
func (s *Service) CreateGoal(ctx context.Context, teacherID string, in GoalInput) (*CreatedGoal, error) {
	g, err := in.validate()
	if err != nil {
		return nil, err
	}
	g.TeacherID = teacherID
	if _, err := s.paralelo(ctx, g.ParaleloID); err != nil {
		return nil, err
	}

	assigned := 0
	err = s.store.InTx(ctx, func(repo store.Repository) error {
		if err := repo.CreateGoal(ctx, &g); err != nil {
			return err
		}
		students, err := repo.ParaleloStudents(ctx, g.ParaleloID)
		if err != nil {
			return err
		}
		for _, u := range students {
			if err := repo.AssignGoal(ctx, &goals.StudentGoal{GoalID: g.ID, StudentID: u.ID}); err != nil {
				return err
			}
		}
		assigned = len(students)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("goal created", "goal_id", g.ID, "paralelo_id", g.ParaleloID, "assigned", assigned)
	return &CreatedGoal{Goal: g, Assigned: assigned}, nil
}

// StudentGoals lists every goal assigned to the student.
func (s *Service) StudentGoals(ctx context.Context, studentID string) ([]store.GoalAssignment, error) {
	return s.store.StudentGoals(ctx, studentID)
}
