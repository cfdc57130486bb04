package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/mathmaster/internal/exercise"
	"github.com/mathmaster/mathmaster/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExerciseJSON(t *testing.T) {
	out, err := execute(t, "exercise", "--topic", "fractions", "--difficulty", "medium",
		"--score", "150", "--count", "2", "--seed", "7", "--json")
	require.NoError(t, err)

	var batch []exercise.Exercise
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	require.Len(t, batch, 2)
	for _, ex := range batch {
		assert.Len(t, ex.Options, 4)
		assert.Contains(t, ex.Options, ex.CorrectAnswer)
	}
}

func TestExerciseRejectsUnknownTopic(t *testing.T) {
	_, err := execute(t, "exercise", "--topic", "calculus", "--json")
	assert.Error(t, err)
}

func TestResetProgress(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mm.db")
	s, err := store.Open(store.DriverSQLite, dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	student := &store.User{Email: "ana@example.com", FirstName: "Ana", LastName: "Paz", Role: store.RoleStudent}
	require.NoError(t, s.CreateUser(ctx, student))
	_, err = s.RecordAnswer(ctx, student.ID, "fractions", true, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := execute(t, "reset", "--db", dbPath, "--db-driver", "sqlite", "--student", student.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Progress reset")

	s, err = store.Open(store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer s.Close()
	progress, err := s.StudentProgress(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, progress)
}

func TestAggregateUsage(t *testing.T) {
	reqs := []store.LLMRequest{
		{Purpose: "explanation", Model: "a", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Purpose: "explanation", Model: "a", InputTokens: 20, OutputTokens: 5, LatencyMs: 300, Success: false},
		{Purpose: "other", Model: "b", InputTokens: 1, OutputTokens: 1, LatencyMs: 50, Success: true},
	}

	got := aggregateUsage(reqs, func(r store.LLMRequest) string { return r.Purpose })
	require.Len(t, got, 2)
	assert.Equal(t, "explanation", got[0].Key)
	assert.Equal(t, 2, got[0].Calls)
	assert.Equal(t, 1, got[0].Failures)
	assert.Equal(t, 30, got[0].InputTokens)
	assert.Equal(t, int64(200), got[0].AvgLatencyMs())
	assert.Equal(t, "other", got[1].Key)
}

func TestPrintLLMList(t *testing.T) {
	var buf bytes.Buffer
	printLLMList(&buf, nil, "")
	assert.Contains(t, buf.String(), "No LLM requests found.")

	buf.Reset()
	printLLMList(&buf, []store.LLMRequest{
		{ID: "r1", Purpose: "explanation", Model: "m", Success: true, CreatedAt: time.Now()},
		{ID: "r2", Purpose: "other", Model: "m", Success: false, CreatedAt: time.Now()},
	}, "explanation")
	assert.Contains(t, buf.String(), "r1")
	assert.NotContains(t, buf.String(), "r2")
}
