package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mathmaster/mathmaster/internal/events"
	"github.com/mathmaster/mathmaster/internal/exercise"
	"github.com/mathmaster/mathmaster/internal/goals"
	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// StartResult is returned when a session begins.
type StartResult struct {
	SessionID  string    `json:"session_id"`
	Score      int       `json:"score"`
	ParaleloID string    `json:"paralelo_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Start opens a session linked to the student's first active enrollment.
// Students without an enrollment can still play.
func (s *Service) Start(ctx context.Context, studentID string) (*StartResult, error) {
	gs := &store.GameSession{
		StudentID: studentID,
		IsActive:  true,
		StartedAt: s.now(),
	}

	enr, err := s.store.ActiveEnrollment(ctx, studentID)
	switch {
	case err == nil:
		gs.ParaleloID = enr.ParaleloID
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("find enrollment: %w", err)
	}

	if err := s.store.CreateSession(ctx, gs); err != nil {
		return nil, err
	}

	s.metrics.SessionStarted()
	s.publish(ctx, events.Event{
		Type:       events.SessionStarted,
		StudentID:  studentID,
		ParaleloID: gs.ParaleloID,
		SessionID:  gs.ID,
		OccurredAt: gs.StartedAt,
	})
	s.log.Info("session started", "session_id", gs.ID, "student_id", studentID)

	return &StartResult{
		SessionID:  gs.ID,
		Score:      gs.TotalScore,
		ParaleloID: gs.ParaleloID,
		StartedAt:  gs.StartedAt,
	}, nil
}

// NextExercise is the exercise served to a student. The answer is withheld.
type NextExercise struct {
	ExerciseID         string           `json:"exercise_id"`
	Title              string           `json:"title"`
	Question           string           `json:"question"`
	Options            []string         `json:"options"`
	Topic              topic.Topic      `json:"topic"`
	Difficulty         topic.Difficulty `json:"difficulty"`
	PossiblePoints     int              `json:"possible_points"`
	CurrentScore       int              `json:"current_score"`
	ExercisesCompleted int              `json:"exercises_completed"`
}

// activeSession loads a session that is still open.
func activeSession(ctx context.Context, repo store.SessionRepo, sessionID, studentID string, forUpdate bool) (*store.GameSession, error) {
	gs, err := repo.GetSession(ctx, sessionID, studentID, forUpdate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !gs.IsActive {
		return nil, ErrSessionNotFound
	}
	return gs, nil
}

// NextExercise picks a topic and difficulty from the student's progress
// and stores a new exercise. The content is generated at the score-adjusted
// difficulty while the exercise keeps, and is scored at, the difficulty
// the selector asked for.
func (s *Service) NextExercise(ctx context.Context, studentID, sessionID string) (*NextExercise, error) {
	gs, err := activeSession(ctx, s.store, sessionID, studentID, false)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.StudentProgress(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	t, requested := s.selector.SelectNext(progress, gs.TotalScore)
	ex := s.gen.Generate(t, requested, gs.TotalScore)

	rec := &store.ExerciseRecord{
		Title:         ex.Title,
		Question:      ex.Question,
		Topic:         ex.Topic,
		Difficulty:    requested,
		CorrectAnswer: ex.CorrectAnswer,
		Options:       ex.Options,
		Explanation:   ex.Explanation,
		Points:        exercise.PossiblePoints(requested, gs.TotalScore),
		IsPractice:    true,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateExercise(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.ExerciseGenerated(string(rec.Topic), string(rec.Difficulty))

	return &NextExercise{
		ExerciseID:         rec.ID,
		Title:              rec.Title,
		Question:           rec.Question,
		Options:            rec.Options,
		Topic:              rec.Topic,
		Difficulty:         rec.Difficulty,
		PossiblePoints:     rec.Points,
		CurrentScore:       gs.TotalScore,
		ExercisesCompleted: gs.ExercisesCompleted,
	}, nil
}

// Answer is a submitted answer. TimeTaken is in seconds.
type Answer struct {
	SessionID  string `json:"session_id"`
	ExerciseID string `json:"exercise_id"`
	Answer     string `json:"answer"`
	TimeTaken  int    `json:"time_taken"`
}

// AnswerResult reports the grading of an Answer.
type AnswerResult struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	PointsEarned  int    `json:"points_earned"`
	PointsLost    int    `json:"points_lost"`
	NewScore      int    `json:"new_score"`
	Explanation   string `json:"explanation"`
	TotalCorrect  int    `json:"total_correct"`
	TotalWrong    int    `json:"total_wrong"`

	Mastery        int                 `json:"mastery_level"`
	GoalsCompleted []goals.StudentGoal `json:"goals_completed,omitempty"`
}

// SubmitAnswer grades an answer and records its effects in one
// transaction: the attempt, the session counters, the topic progress and
// the student's goals.
func (s *Service) SubmitAnswer(ctx context.Context, studentID string, in Answer) (*AnswerResult, error) {
	if in.TimeTaken < 0 {
		return nil, fmt.Errorf("%w: time_taken must not be negative", ErrInvalidInput)
	}

	now := s.now()
	var (
		res        AnswerResult
		gs         *store.GameSession
		ex         *store.ExerciseRecord
		scoreDelta int
		completed  []goals.StudentGoal
	)

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		var err error
		gs, err = activeSession(ctx, repo, in.SessionID, studentID, true)
		if err != nil {
			return err
		}
		ex, err = repo.GetExercise(ctx, in.ExerciseID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrExerciseNotFound
		}
		if err != nil {
			return err
		}

		correct := exercise.CheckAnswer(in.Answer, ex.CorrectAnswer)
		delta := exercise.CalculatePoints(ex.Difficulty, correct, in.TimeTaken, gs.TotalScore)

		before := gs.TotalScore
		gs.ExercisesCompleted++
		if correct {
			gs.CorrectAnswers++
			gs.TotalScore += delta.Earned
		} else {
			gs.WrongAnswers++
			gs.TotalScore = max(0, gs.TotalScore-delta.Lost)
		}
		scoreDelta = gs.TotalScore - before
		gs.LastActivityAt = now
		if err := repo.UpdateSession(ctx, gs); err != nil {
			return err
		}

		if err := repo.CreateAttempt(ctx, &store.Attempt{
			ExerciseID:    ex.ID,
			StudentID:     studentID,
			GameSessionID: gs.ID,
			StudentAnswer: in.Answer,
			IsCorrect:     correct,
			TimeTaken:     in.TimeTaken,
			PointsEarned:  delta.Earned,
			PointsLost:    delta.Lost,
			AttemptedAt:   now,
		}); err != nil {
			return err
		}

		progress, err := repo.RecordAnswer(ctx, studentID, ex.Topic, correct, now)
		if err != nil {
			return err
		}

		completed, err = advanceGoals(ctx, repo, studentID, progress, correct, now)
		if err != nil {
			return err
		}

		verdict := "Incorrecto."
		if correct {
			verdict = "¡Correcto!"
		}
		res = AnswerResult{
			IsCorrect:      correct,
			CorrectAnswer:  ex.CorrectAnswer,
			PointsEarned:   delta.Earned,
			PointsLost:     delta.Lost,
			NewScore:       gs.TotalScore,
			Explanation:    fmt.Sprintf("%s La respuesta es %s", verdict, ex.CorrectAnswer),
			TotalCorrect:   gs.CorrectAnswers,
			TotalWrong:     gs.WrongAnswers,
			Mastery:        progress.MasteryLevel,
			GoalsCompleted: completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterAnswer(ctx, studentID, gs, ex, &res, scoreDelta)
	return &res, nil
}

// afterAnswer runs the side effects of a committed answer.
func (s *Service) afterAnswer(ctx context.Context, studentID string, gs *store.GameSession, ex *store.ExerciseRecord, res *AnswerResult, scoreDelta int) {
	if gs.ParaleloID != "" && scoreDelta != 0 {
		if err := s.board.Add(ctx, gs.ParaleloID, studentID, scoreDelta); err != nil {
			s.log.Warn("leaderboard update failed", "paralelo_id", gs.ParaleloID, "error", err)
		}
	}

	s.metrics.AnswerSubmitted(string(ex.Topic), string(ex.Difficulty), res.IsCorrect, res.PointsEarned, res.PointsLost)
	s.publish(ctx, events.Event{
		Type:       events.AnswerSubmitted,
		StudentID:  studentID,
		ParaleloID: gs.ParaleloID,
		SessionID:  gs.ID,
		OccurredAt: gs.LastActivityAt,
		Data: map[string]any{
			"exercise_id":   ex.ID,
			"topic":         ex.Topic,
			"difficulty":    ex.Difficulty,
			"is_correct":    res.IsCorrect,
			"points_earned": res.PointsEarned,
			"points_lost":   res.PointsLost,
			"new_score":     res.NewScore,
			"mastery_level": res.Mastery,
		},
	})

	for _, sg := range res.GoalsCompleted {
		s.metrics.GoalCompleted()
		s.publish(ctx, events.Event{
			Type:       events.GoalCompleted,
			StudentID:  studentID,
			ParaleloID: gs.ParaleloID,
			SessionID:  gs.ID,
			Data: map[string]any{
				"goal_id":       sg.GoalID,
				"points_earned": sg.PointsEarned,
			},
		})
	}
}

// advanceGoals applies one answer to every goal assigned to the student
// and returns the goals it completed.
func advanceGoals(ctx context.Context, repo store.Repository, studentID string, progress mastery.TopicProgress, correct bool, now time.Time) ([]goals.StudentGoal, error) {
	assigned, err := repo.StudentGoals(ctx, studentID)
	if err != nil {
		return nil, err
	}
	open := assigned[:0]
	for _, a := range assigned {
		if a.Student.Status == goals.StatusActive && a.Goal.InWindow(now) {
			open = append(open, a)
		}
	}
	if len(open) == 0 {
		return nil, nil
	}

	snap, err := snapshot(ctx, repo, studentID, progress, correct)
	if err != nil {
		return nil, err
	}

	var completed []goals.StudentGoal
	for _, a := range open {
		next, changed := goals.Apply(a.Goal, a.Student, snap, now)
		if !changed {
			continue
		}
		if err := repo.UpdateStudentGoal(ctx, next, now); err != nil {
			return nil, err
		}
		if next.Status == goals.StatusCompleted {
			completed = append(completed, next)
		}
	}
	return completed, nil
}

func snapshot(ctx context.Context, repo store.Repository, studentID string, progress mastery.TopicProgress, correct bool) (goals.Snapshot, error) {
	attempts, err := repo.AttemptTotals(ctx, studentID)
	if err != nil {
		return goals.Snapshot{}, err
	}
	sessions, err := repo.SessionTotals(ctx, []string{studentID})
	if err != nil {
		return goals.Snapshot{}, err
	}
	recent, err := repo.RecentResults(ctx, studentID, goals.StreakWindow)
	if err != nil {
		return goals.Snapshot{}, err
	}
	return goals.Snapshot{
		Topic:           progress.Topic,
		Correct:         correct,
		TotalAttempts:   attempts.Total,
		CorrectAttempts: attempts.Correct,
		TotalPoints:     sessions[studentID].TotalScore,
		Streak:          goals.Streak(recent),
		TopicMastery:    progress.MasteryLevel,
	}, nil
}

// EndResult summarizes a finished session.
type EndResult struct {
	FinalScore         int     `json:"final_score"`
	ExercisesCompleted int     `json:"exercises_completed"`
	CorrectAnswers     int     `json:"correct_answers"`
	WrongAnswers       int     `json:"wrong_answers"`
	Accuracy           float64 `json:"accuracy"`
	DurationMinutes    int     `json:"duration_minutes"`
}

// End closes a session. Ending an already closed session returns its
// summary unchanged.
func (s *Service) End(ctx context.Context, studentID, sessionID string) (*EndResult, error) {
	gs, err := s.store.GetSession(ctx, sessionID, studentID, false)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if gs.IsActive {
		now := s.now()
		gs.IsActive = false
		gs.EndedAt = &now
		if err := s.store.UpdateSession(ctx, gs); err != nil {
			return nil, err
		}
		s.metrics.SessionEnded()
		s.publish(ctx, events.Event{
			Type:       events.SessionEnded,
			StudentID:  studentID,
			ParaleloID: gs.ParaleloID,
			SessionID:  gs.ID,
			OccurredAt: now,
			Data: map[string]any{
				"final_score":         gs.TotalScore,
				"exercises_completed": gs.ExercisesCompleted,
			},
		})
	}

	ended := s.now()
	if gs.EndedAt != nil {
		ended = *gs.EndedAt
	}
	return &EndResult{
		FinalScore:         gs.TotalScore,
		ExercisesCompleted: gs.ExercisesCompleted,
		CorrectAnswers:     gs.CorrectAnswers,
		WrongAnswers:       gs.WrongAnswers,
		Accuracy:           percent(gs.CorrectAnswers, gs.ExercisesCompleted),
		DurationMinutes:    int(ended.Sub(gs.StartedAt).Minutes()),
	}, nil
}
