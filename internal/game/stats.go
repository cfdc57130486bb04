package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mathmaster/mathmaster/internal/leaderboard"
	"github.com/mathmaster/mathmaster/internal/recommend"
	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// GeneralStats aggregates every attempt and session of a student.
type GeneralStats struct {
	TotalAttempts   int     `json:"total_attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
	Accuracy        float64 `json:"accuracy"`
	TotalPoints     int     `json:"total_points"`
	TotalSessions   int     `json:"total_sessions"`
	TotalScore      int     `json:"total_score"`
	BestScore       int     `json:"best_score"`
}

// TopicStats is one row of a student's per-topic progress.
type TopicStats struct {
	Topic            topic.Topic `json:"topic"`
	Name             string      `json:"name"`
	MasteryLevel     int         `json:"mastery_level"`
	Accuracy         float64     `json:"accuracy"`
	TotalAttempts    int         `json:"total_attempts"`
	NeedsImprovement bool        `json:"needs_improvement"`
}

type Stats struct {
	General GeneralStats `json:"general"`
	Topics  []TopicStats `json:"topics"`
}

func (s *Service) Stats(ctx context.Context, studentID string) (*Stats, error) {
	attempts, err := s.store.AttemptTotals(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionTotals(ctx, []string{studentID})
	if err != nil {
		return nil, err
	}
	progress, err := s.store.StudentProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}

	st := sessions[studentID]
	out := &Stats{
		General: GeneralStats{
			TotalAttempts:   attempts.Total,
			CorrectAttempts: attempts.Correct,
			Accuracy:        percent(attempts.Correct, attempts.Total),
			TotalPoints:     attempts.Points,
			TotalSessions:   st.Sessions,
			TotalScore:      st.TotalScore,
			BestScore:       st.BestScore,
		},
		Topics: make([]TopicStats, 0, len(progress)),
	}
	for _, p := range progress {
		out.Topics = append(out.Topics, TopicStats{
			Topic:            p.Topic,
			Name:             p.Topic.DisplayName(),
			MasteryLevel:     p.MasteryLevel,
			Accuracy:         percent(p.CorrectAttempts, p.TotalAttempts),
			TotalAttempts:    p.TotalAttempts,
			NeedsImprovement: p.NeedsImprovement,
		})
	}
	return out, nil
}

// ParaleloInfo identifies the class a ranking belongs to.
type ParaleloInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

type RankingEntry struct {
	StudentID          string `json:"student_id"`
	Name               string `json:"name"`
	TotalScore         int    `json:"total_score"`
	ExercisesCompleted int    `json:"exercises_completed"`
	CorrectAnswers     int    `json:"correct_answers"`
	IsCurrentUser      bool   `json:"is_current_user"`
	Rank               int    `json:"rank"`
}

type Ranking struct {
	Paralelo ParaleloInfo   `json:"paralelo"`
	Ranking  []RankingEntry `json:"ranking"`
}

// Ranking orders the active enrollees of a paralelo by total score. With
// an empty paraleloID the student's own paralelo is used.
func (s *Service) Ranking(ctx context.Context, studentID, paraleloID string) (*Ranking, error) {
	if paraleloID == "" {
		enr, err := s.store.ActiveEnrollment(ctx, studentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		if err != nil {
			return nil, fmt.Errorf("find enrollment: %w", err)
		}
		paraleloID = enr.ParaleloID
	}

	par, err := s.paralelo(ctx, paraleloID)
	if err != nil {
		return nil, err
	}
	students, err := s.store.ParaleloStudents(ctx, paraleloID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(students))
	byID := make(map[string]store.User, len(students))
	for i, u := range students {
		ids[i] = u.ID
		byID[u.ID] = u
	}

	scores, err := s.board.Scores(ctx, paraleloID, ids)
	if err != nil {
		return nil, fmt.Errorf("leaderboard scores: %w", err)
	}
	totals, err := s.store.SessionTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &Ranking{
		Paralelo: ParaleloInfo{ID: par.ID, Name: par.Name, Level: par.Level},
		Ranking:  make([]RankingEntry, 0, len(ids)),
	}
	for _, e := range leaderboard.Rank(ids, scores) {
		u := byID[e.StudentID]
		t := totals[e.StudentID]
		out.Ranking = append(out.Ranking, RankingEntry{
			StudentID:          u.ID,
			Name:               u.FullName(),
			TotalScore:         e.Score,
			ExercisesCompleted: t.ExercisesCompleted,
			CorrectAnswers:     t.CorrectAnswers,
			IsCurrentUser:      u.ID == studentID,
			Rank:               e.Rank,
		})
	}
	return out, nil
}

func (s *Service) paralelo(ctx context.Context, id string) (*store.Paralelo, error) {
	par, err := s.store.GetParalelo(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrParaleloNotFound
	}
	return par, err
}

// Recommendations computes the student's recommendations from stored
// progress.
func (s *Service) Recommendations(ctx context.Context, studentID string) ([]recommend.Recommendation, error) {
	progress, err := s.store.StudentProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return recommend.ForStudent(progress), nil
}

// ClassReport aggregates the progress of a paralelo's active enrollees.
func (s *Service) ClassReport(ctx context.Context, paraleloID string) (*recommend.ClassReport, error) {
	if _, err := s.paralelo(ctx, paraleloID); err != nil {
		return nil, err
	}
	students, err := s.store.ParaleloStudents(ctx, paraleloID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}
	rows, err := s.store.ProgressForStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	report := recommend.ForClass(len(ids), rows)
	return &report, nil
}

// StudentSummary is a teacher's view of one enrolled student.
type StudentSummary struct {
	ID                 string        `json:"id"`
	FirstName          string        `json:"first_name"`
	LastName           string        `json:"last_name"`
	Email              string        `json:"email"`
	Sessions           int           `json:"sessions"`
	TotalScore         int           `json:"total_score"`
	ExercisesCompleted int           `json:"exercises_completed"`
	CorrectAnswers     int           `json:"correct_answers"`
	Accuracy           float64       `json:"accuracy"`
	AverageMastery     float64       `json:"average_mastery"`
	WeakTopics         []topic.Topic `json:"weak_topics"`
	LastActivity       *time.Time    `json:"last_activity,omitempty"`
}

// ClassStudents lists a paralelo's active enrollees with their aggregates,
// ordered by last name.
func (s *Service) ClassStudents(ctx context.Context, paraleloID string) ([]StudentSummary, error) {
	if _, err := s.paralelo(ctx, paraleloID); err != nil {
		return nil, err
	}
	students, err := s.store.ParaleloStudents(ctx, paraleloID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}
	totals, err := s.store.SessionTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]StudentSummary, 0, len(students))
	for _, u := range students {
		progress, err := s.store.StudentProgress(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		t := totals[u.ID]
		sum := StudentSummary{
			ID:                 u.ID,
			FirstName:          u.FirstName,
			LastName:           u.LastName,
			Email:              u.Email,
			Sessions:           t.Sessions,
			TotalScore:         t.TotalScore,
			ExercisesCompleted: t.ExercisesCompleted,
			CorrectAnswers:     t.CorrectAnswers,
			Accuracy:           percent(t.CorrectAnswers, t.ExercisesCompleted),
			WeakTopics:         []topic.Topic{},
			LastActivity:       t.LastActivity,
		}
		if len(progress) > 0 {
			total := 0
			for _, p := range progress {
				total += p.MasteryLevel
				if p.NeedsImprovement {
					sum.WeakTopics = append(sum.WeakTopics, p.Topic)
				}
			}
			sum.AverageMastery = round1(float64(total) / float64(len(progress)))
		}
		out = append(out, sum)
	}
	return out, nil
}

// ClassOverview gathers everything exported about a paralelo.
type ClassOverview struct {
	Paralelo store.Paralelo         `json:"paralelo"`
	Students []StudentSummary       `json:"students"`
	Topics   []recommend.TopicStats `json:"topics"`
	Report   recommend.ClassReport  `json:"report"`
}

func (s *Service) ClassOverview(ctx context.Context, paraleloID string) (*ClassOverview, error) {
	par, err := s.paralelo(ctx, paraleloID)
	if err != nil {
		return nil, err
	}
	students, err := s.ClassStudents(ctx, paraleloID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	rows, err := s.store.ProgressForStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &ClassOverview{
		Paralelo: *par,
		Students: students,
		Topics:   recommend.AggregateByTopic(rows),
		Report:   recommend.ForClass(len(ids), rows),
	}, nil
}
