package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/tutor"
)

// Explain returns a step-by-step explanation of an exercise the student
// has already answered. studentAnswer defaults to the student's latest
// answer. Exercises the student has not attempted yield ErrNotAnswered,
// or ErrExerciseNotFound when they do not exist at all.
func (s *Service) Explain(ctx context.Context, studentID, exerciseID, studentAnswer string) (*tutor.Explanation, error) {
	ex, err := s.store.GetExercise(ctx, exerciseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}

	attempt, err := s.store.LatestAttempt(ctx, studentID, exerciseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAnswered
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if studentAnswer == "" {
		studentAnswer = attempt.StudentAnswer
	}

	out := s.tutor.Explain(ctx, tutor.Input{
		Topic:         ex.Topic,
		Difficulty:    ex.Difficulty,
		Question:      ex.Question,
		CorrectAnswer: ex.CorrectAnswer,
		StudentAnswer: studentAnswer,
		Fallback:      ex.Explanation,
	})
	return &out, nil
}
