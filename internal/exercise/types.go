package exercise

import "github.com/mathmaster/mathmaster/internal/topic"

// Exercise is a freshly generated multiple-choice problem. It is never reused.
type Exercise struct {
	Title    string `json:"title"`
	Question string `json:"question"`

	// CorrectAnswer appears in Options at least once.
	CorrectAnswer string `json:"correct_answer"`

	// Options holds exactly 4 shuffled choices. Distractors are not
	// deduplicated and may collide with each other or the answer.
	Options []string `json:"options"`

	Explanation string           `json:"explanation"`
	Topic       topic.Topic      `json:"topic"`
	Difficulty  topic.Difficulty `json:"difficulty"`
}

// ScoreDelta is the outcome of scoring one answer. Exactly one field is
// nonzero, except for a zero penalty.
type ScoreDelta struct {
	Earned int `json:"points_earned"`
	Lost   int `json:"points_lost"`
}
