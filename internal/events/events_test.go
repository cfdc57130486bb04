package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventEnvelope(t *testing.T) {
	e := Event{
		Type:       AnswerSubmitted,
		StudentID:  "stu",
		SessionID:  "ses",
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Data:       map[string]any{"is_correct": true, "points_earned": 13},
	}
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event_type": "answer.submitted",
		"student_id": "stu",
		"session_id": "ses",
		"occurred_at": "2026-03-01T10:00:00Z",
		"data": {"is_correct": true, "points_earned": 13}
	}`, string(raw))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var p Publisher = r
	require.NoError(t, p.Publish(context.Background(), Event{Type: SessionStarted}))
	require.NoError(t, p.Publish(context.Background(), Event{Type: SessionEnded}))
	assert.Equal(t, []string{SessionStarted, SessionEnded}, r.Types())
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}

// Runs against a real broker when MATHMASTER_TEST_AMQP_URL is set.
func TestAMQPPublisherRoundTrip(t *testing.T) {
	uri := os.Getenv("MATHMASTER_TEST_AMQP_URL")
	if uri == "" {
		t.Skip("MATHMASTER_TEST_AMQP_URL not set")
	}
	p, err := NewAMQPPublisher(uri)
	require.NoError(t, err)
	defer p.Close()

	conn, err := amqp091.Dial(uri)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "goal.*", Exchange, false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), Event{Type: GoalCompleted, StudentID: "stu", OccurredAt: time.Now()}))

	select {
	case m := <-msgs:
		assert.Equal(t, GoalCompleted, m.RoutingKey)
		var got Event
		require.NoError(t, json.Unmarshal(m.Body, &got))
		assert.Equal(t, "stu", got.StudentID)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
