package mastery

import (
	"time"

	"github.com/mathmaster/mathmaster/internal/topic"
)

const (
	// FullPracticeAttempts is the attempt count at which practice volume no
	// longer limits mastery.
	FullPracticeAttempts = 20

	// ImprovementMastery and ImprovementAccuracy flag a topic for improvement
	// when either value falls below it.
	ImprovementMastery  = 50
	ImprovementAccuracy = 60
)

// TopicProgress holds a student's running totals for one topic.
// MasteryLevel is always derived from the attempt counters.
type TopicProgress struct {
	Topic            topic.Topic `json:"topic"`
	TotalAttempts    int         `json:"total_attempts"`
	CorrectAttempts  int         `json:"correct_attempts"`
	WrongAttempts    int         `json:"wrong_attempts"`
	MasteryLevel     int         `json:"mastery_level"`
	NeedsImprovement bool        `json:"needs_improvement"`
	LastPracticed    *time.Time  `json:"last_practiced,omitempty"`
}

// New returns the zero progress record created on a first attempt.
func New(t topic.Topic) TopicProgress {
	return TopicProgress{Topic: t}
}

// Accuracy returns correct/total in [0, 1], or 0 with no attempts.
func (p TopicProgress) Accuracy() float64 {
	if p.TotalAttempts == 0 {
		return 0
	}
	return float64(p.CorrectAttempts) / float64(p.TotalAttempts)
}

// Update records one answer and returns the new progress. p is not modified.
func Update(p TopicProgress, correct bool, now time.Time) TopicProgress {
	p.TotalAttempts++
	if correct {
		p.CorrectAttempts++
	} else {
		p.WrongAttempts++
	}
	p.LastPracticed = &now

	accuracy := p.Accuracy()
	p.MasteryLevel = Level(p.TotalAttempts, p.CorrectAttempts)
	p.NeedsImprovement = p.MasteryLevel < ImprovementMastery || accuracy*100 < ImprovementAccuracy
	return p
}

// Level computes the 0-100 mastery score. It blends accuracy with practice
// volume, so fewer than FullPracticeAttempts attempts can never reach 100.
func Level(total, correct int) int {
	if total <= 0 {
		return 0
	}
	accuracyPct := float64(correct) / float64(total) * 100
	practice := min(float64(total)/FullPracticeAttempts, 1.0)
	return int(practice * (accuracyPct / 100) * 100)
}
