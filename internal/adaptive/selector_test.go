package adaptive

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

func newTestSelector(seed uint64) *DefaultSelector {
	return NewSelector(rand.New(rand.NewPCG(seed, 99)))
}

func TestSelectNext_ColdStart(t *testing.T) {
	s := newTestSelector(1)
	for _, score := range []int{0, 250, 1000} {
		tp, d := s.SelectNext(nil, score)
		assert.Equal(t, topic.Operations, tp)
		assert.Equal(t, topic.Easy, d)
	}
}

func TestSelectNext_WeakTopicBias(t *testing.T) {
	progress := []mastery.TopicProgress{
		{Topic: topic.Fractions, MasteryLevel: 40, NeedsImprovement: true},
		{Topic: topic.Percentages, MasteryLevel: 20, NeedsImprovement: true},
		{Topic: topic.Operations, MasteryLevel: 80},
	}
	s := newTestSelector(2)

	const n = 10_000
	weak := 0
	for range n {
		tp, d := s.SelectNext(progress, 0)
		if tp == topic.Percentages && d == topic.Easy {
			weak++
		}
	}
	// 70% focus plus 1/8 of the random 30% landing on the same topic at easy.
	want := 0.7 + 0.3/8
	ratio := float64(weak) / n
	assert.InDelta(t, want, ratio, 0.03)
}

func TestSelectNext_MediumForModeratelyWeak(t *testing.T) {
	progress := []mastery.TopicProgress{
		{Topic: topic.LinearEquations, MasteryLevel: 35, NeedsImprovement: true},
	}
	s := newTestSelector(3)
	sawMedium := false
	for range 200 {
		tp, d := s.SelectNext(progress, 0)
		if tp == topic.LinearEquations && d == topic.Medium {
			sawMedium = true
		}
	}
	assert.True(t, sawMedium)
}

func TestSelectNext_NoWeakTopicsUsesScore(t *testing.T) {
	progress := []mastery.TopicProgress{
		{Topic: topic.Fractions, MasteryLevel: 45, NeedsImprovement: false},
		{Topic: topic.Operations, MasteryLevel: 90},
	}
	s := newTestSelector(4)
	seen := map[topic.Topic]bool{}
	for range 2000 {
		tp, d := s.SelectNext(progress, 350)
		assert.Equal(t, topic.Hard, d)
		seen[tp] = true
	}
	assert.Len(t, seen, len(topic.All()))
}

func TestWeakestTopic_TieKeepsFirst(t *testing.T) {
	progress := []mastery.TopicProgress{
		{Topic: topic.Fractions, MasteryLevel: 10, NeedsImprovement: true},
		{Topic: topic.Algebra, MasteryLevel: 10, NeedsImprovement: true},
	}
	got, ok := weakestTopic(progress)
	assert.True(t, ok)
	assert.Equal(t, topic.Fractions, got.Topic)
}

func TestDifficultyForScore(t *testing.T) {
	assert.Equal(t, topic.Easy, DifficultyForScore(99))
	assert.Equal(t, topic.Medium, DifficultyForScore(100))
	assert.Equal(t, topic.Medium, DifficultyForScore(299))
	assert.Equal(t, topic.Hard, DifficultyForScore(300))
}
