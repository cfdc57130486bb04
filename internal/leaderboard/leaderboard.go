// Package leaderboard ranks the students of a paralelo by total score.
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/mathmaster/mathmaster/internal/store"
)

// Board keeps per-paralelo score totals.
type Board interface {
	// Add applies the score change of one answer.
	Add(ctx context.Context, paraleloID, studentID string, delta int) error

	// Scores returns the total score of each student. Students without
	// sessions score 0.
	Scores(ctx context.Context, paraleloID string, studentIDs []string) (map[string]int, error)
}

// StoreBoard derives scores from the sessions table on every read.
type StoreBoard struct {
	repo store.SessionRepo
}

func NewStoreBoard(repo store.SessionRepo) *StoreBoard {
	return &StoreBoard{repo: repo}
}

// Add is a no-op; session rows already carry the score.
func (b *StoreBoard) Add(context.Context, string, string, int) error { return nil }

func (b *StoreBoard) Scores(ctx context.Context, _ string, studentIDs []string) (map[string]int, error) {
	totals, err := b.repo.SessionTotals(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("session totals: %w", err)
	}
	out := make(map[string]int, len(studentIDs))
	for _, id := range studentIDs {
		out[id] = totals[id].TotalScore
	}
	return out, nil
}

// Entry is one ranked student.
type Entry struct {
	StudentID string
	Score     int
	Rank      int
}

// Rank orders students by score descending with 1-based ranks. Equal
// scores keep the order of studentIDs.
func Rank(studentIDs []string, scores map[string]int) []Entry {
	out := make([]Entry, len(studentIDs))
	for i, id := range studentIDs {
		out[i] = Entry{StudentID: id, Score: scores[id]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
