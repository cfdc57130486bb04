// Package events publishes game domain events to a message broker.
package events

import (
	"context"
	"time"
)

// Routing keys.
const (
	SessionStarted  = "session.started"
	SessionEnded    = "session.ended"
	AnswerSubmitted = "answer.submitted"
	GoalCompleted   = "goal.completed"
)

// Event is the JSON envelope sent for every routing key.
type Event struct {
	Type       string    `json:"event_type"`
	StudentID  string    `json:"student_id"`
	ParaleloID string    `json:"paralelo_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// Publisher delivers events. Publish failures never undo the game action
// that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the routing keys recorded so far, in order.
func (r *Recorder) Types() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
