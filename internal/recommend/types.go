package recommend

import "github.com/mathmaster/mathmaster/internal/topic"

// Kind is the visual category of a recommendation.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindSuccess Kind = "success"
)

// Priority orders recommendations for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is a human-readable suggestion computed on demand.
type Recommendation struct {
	Type           Kind           `json:"type"`
	Priority       Priority       `json:"priority"`
	Title          string         `json:"title,omitempty"`
	Message        string         `json:"message"`
	SuggestedTopic topic.Topic    `json:"suggested_topic,omitempty"`
	Action         string         `json:"action"`
	Details        map[string]any `json:"details,omitempty"`
}

// Health summarizes a class's average mastery.
type Health string

const (
	HealthUnknown        Health = "unknown"
	HealthNeedsAttention Health = "needs_attention"
	HealthGood           Health = "good"
	HealthExcellent      Health = "excellent"
)

// TopicSummary is a weak or strong topic in a class report.
type TopicSummary struct {
	Topic    topic.Topic `json:"topic"`
	Name     string      `json:"name"`
	Mastery  float64     `json:"mastery"`
	Accuracy float64     `json:"accuracy"`
}

// ClassReport is the teacher-facing view of a class's progress.
type ClassReport struct {
	OverallHealth   Health           `json:"overall_health"`
	Recommendations []Recommendation `json:"recommendations"`
	WeakTopics      []TopicSummary   `json:"weak_topics"`
	StrongTopics    []TopicSummary   `json:"strong_topics"`
	AverageMastery  float64          `json:"average_mastery"`
}

// TopicStats aggregates every enrolled student's progress on one topic.
type TopicStats struct {
	Topic              topic.Topic `json:"topic"`
	AverageMastery     float64     `json:"average_mastery"`
	Accuracy           float64     `json:"accuracy"` // percentage
	StudentsPracticing int         `json:"students_practicing"`
	TotalAttempts      int         `json:"total_attempts"`
}
