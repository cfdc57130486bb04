package adaptive

import (
	"math/rand/v2"
	"sync"

	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

const (
	// WeakFocusProbability is how often a weak topic is drilled when one exists.
	WeakFocusProbability = 0.7

	weakMastery     = 50
	beginnerMastery = 30
)

// Selector picks the topic and difficulty of the next exercise.
type Selector interface {
	SelectNext(progress []mastery.TopicProgress, score int) (topic.Topic, topic.Difficulty)
}

// DefaultSelector favors the weakest flagged topic 70% of the time and
// otherwise samples any topic uniformly. It is safe for concurrent use.
type DefaultSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a DefaultSelector drawing from rng.
func NewSelector(rng *rand.Rand) *DefaultSelector {
	return &DefaultSelector{rng: rng}
}

// SelectNext returns (operations, easy) for a student with no history.
func (s *DefaultSelector) SelectNext(progress []mastery.TopicProgress, score int) (topic.Topic, topic.Difficulty) {
	if len(progress) == 0 {
		return topic.Operations, topic.Easy
	}

	weakest, ok := weakestTopic(progress)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok && s.rng.Float64() < WeakFocusProbability {
		if weakest.MasteryLevel < beginnerMastery {
			return weakest.Topic, topic.Easy
		}
		return weakest.Topic, topic.Medium
	}

	all := topic.All()
	return all[s.rng.IntN(len(all))], DifficultyForScore(score)
}

// weakestTopic returns the lowest-mastery topic among those below 50 and
// flagged for improvement. Ties go to the earliest entry.
func weakestTopic(progress []mastery.TopicProgress) (mastery.TopicProgress, bool) {
	var weakest mastery.TopicProgress
	found := false
	for _, p := range progress {
		if p.MasteryLevel >= weakMastery || !p.NeedsImprovement {
			continue
		}
		if !found || p.MasteryLevel < weakest.MasteryLevel {
			weakest = p
			found = true
		}
	}
	return weakest, found
}

// DifficultyForScore maps a session score to a difficulty tier.
func DifficultyForScore(score int) topic.Difficulty {
	switch {
	case score < 100:
		return topic.Easy
	case score < 300:
		return topic.Medium
	default:
		return topic.Hard
	}
}
