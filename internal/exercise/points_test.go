package exercise

import (
	"testing"

	"github.com/mathmaster/mathmaster/internal/topic"
)

func TestAdjustDifficulty(t *testing.T) {
	tests := []struct {
		requested topic.Difficulty
		score     int
		want      topic.Difficulty
	}{
		{topic.Hard, 0, topic.Easy},
		{topic.Medium, 99, topic.Easy},
		{topic.Easy, 100, topic.Easy},
		{topic.Hard, 299, topic.Hard},
		{topic.Easy, 300, topic.Medium},
		{topic.Medium, 450, topic.Medium},
		{topic.Hard, 599, topic.Hard},
		{topic.Easy, 600, topic.Hard},
		{topic.Medium, 10_000, topic.Hard},
	}
	for _, tt := range tests {
		if got := AdjustDifficulty(tt.requested, tt.score); got != tt.want {
			t.Errorf("AdjustDifficulty(%s, %d) = %s, want %s", tt.requested, tt.score, got, tt.want)
		}
	}
}

func TestAdjustDifficulty_NonDecreasingInScore(t *testing.T) {
	for _, requested := range topic.AllDifficulties() {
		prev := AdjustDifficulty(requested, 0)
		for score := 1; score <= 800; score++ {
			got := AdjustDifficulty(requested, score)
			if got.Rank() < prev.Rank() {
				t.Fatalf("requested %s: difficulty dropped from %s to %s at score %d", requested, prev, got, score)
			}
			prev = got
		}
	}
}

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name    string
		d       topic.Difficulty
		correct bool
		time    int
		score   int
		want    ScoreDelta
	}{
		{"easy fast", topic.Easy, true, 10, 0, ScoreDelta{Earned: 15}},
		{"easy slow", topic.Easy, true, 30, 0, ScoreDelta{Earned: 10}},
		{"medium fast mid score", topic.Medium, true, 5, 250, ScoreDelta{Earned: 28}},
		{"hard fast high score", topic.Hard, true, 5, 600, ScoreDelta{Earned: 52}},
		{"hard slow at 500 boundary", topic.Hard, true, 45, 500, ScoreDelta{Earned: 40}},
		{"easy wrong", topic.Easy, false, 5, 0, ScoreDelta{Lost: 4}},
		{"medium wrong mid score", topic.Medium, false, 5, 300, ScoreDelta{Lost: 9}},
		{"hard wrong high score", topic.Hard, false, 5, 501, ScoreDelta{Lost: 21}},
		{"hard wrong low score", topic.Hard, false, 5, 200, ScoreDelta{Lost: 14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePoints(tt.d, tt.correct, tt.time, tt.score)
			if got != tt.want {
				t.Errorf("CalculatePoints() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculatePoints_Exclusive(t *testing.T) {
	for _, d := range topic.AllDifficulties() {
		for _, correct := range []bool{true, false} {
			for _, score := range []int{0, 150, 201, 450, 501, 900} {
				for _, secs := range []int{0, 29, 30, 120} {
					got := CalculatePoints(d, correct, secs, score)
					if got.Earned != 0 && got.Lost != 0 {
						t.Fatalf("both nonzero: %+v", got)
					}
					if correct && (got.Earned <= 0 || got.Lost != 0) {
						t.Fatalf("correct answer scored %+v", got)
					}
					if !correct && (got.Earned != 0 || got.Lost <= 0) {
						t.Fatalf("wrong answer scored %+v", got)
					}
				}
			}
		}
	}
}

func TestPossiblePoints(t *testing.T) {
	if got := PossiblePoints(topic.Easy, 0); got != 10 {
		t.Errorf("PossiblePoints(easy, 0) = %d, want 10", got)
	}
	if got := PossiblePoints(topic.Hard, 501); got != 45 {
		t.Errorf("PossiblePoints(hard, 501) = %d, want 45", got)
	}
	if got := PossiblePoints(topic.Easy, 201); got != 11 {
		t.Errorf("PossiblePoints(easy, 201) = %d, want 11", got)
	}
}
