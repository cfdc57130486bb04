package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

func progress(t topic.Topic, total, correct, level int) mastery.TopicProgress {
	return mastery.TopicProgress{
		Topic:           t,
		TotalAttempts:   total,
		CorrectAttempts: correct,
		WrongAttempts:   total - correct,
		MasteryLevel:    level,
	}
}

func TestForStudent_Empty(t *testing.T) {
	recs := ForStudent(nil)
	require.Len(t, recs, 1)
	assert.Equal(t, KindInfo, recs[0].Type)
	assert.Equal(t, PriorityHigh, recs[0].Priority)
	assert.Equal(t, topic.Operations, recs[0].SuggestedTopic)
	assert.Equal(t, "practice", recs[0].Action)
}

func TestForStudent_WeakTopic(t *testing.T) {
	recs := ForStudent([]mastery.TopicProgress{
		progress(topic.Fractions, 10, 3, 15),
		progress(topic.Percentages, 10, 2, 10),
	})
	require.NotEmpty(t, recs)

	first := recs[0]
	assert.Equal(t, KindWarning, first.Type)
	assert.Equal(t, "Refuerza Porcentajes", first.Title)
	assert.Equal(t, topic.Percentages, first.SuggestedTopic)
	assert.Contains(t, first.Message, "(10%)")
	assert.Equal(t, 20.0, first.Details["current_accuracy"])
	assert.Equal(t, 10, first.Details["mastery_level"])
	assert.Equal(t, 10, first.Details["recommended_exercises"])

	// Overall accuracy 25% triggers the tips message last.
	last := recs[len(recs)-1]
	assert.Equal(t, "tips", last.Action)
	assert.Equal(t, "Tu tasa de acierto general es 25.0%. Tómate tu tiempo para leer bien cada ejercicio antes de responder.", last.Message)
}

func TestForStudent_OrderAndReadyForMore(t *testing.T) {
	recs := ForStudent([]mastery.TopicProgress{
		progress(topic.Operations, 30, 27, 90),
		progress(topic.Fractions, 25, 20, 80),
		progress(topic.LinearEquations, 3, 3, 15),
	})

	var titles []string
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{
		"Refuerza Ecuaciones Lineales",
		"Practica más Ecuaciones Lineales",
		"¡Excelente en Operaciones Básicas!",
		"¡Estás listo para más desafíos!",
		"¡Rendimiento excepcional!",
	}, titles)

	assert.Equal(t, topic.QuadraticEquations, recs[3].SuggestedTopic)
	assert.Equal(t, "Has dominado Operaciones Básicas con un 90% de nivel. Sigue así y ayuda a tus compañeros.", recs[2].Message)
	assert.Equal(t, "Tu tasa de acierto es 86.2%. ¡Sigue así! Estás entre los mejores estudiantes.", recs[4].Message)
}

func TestForStudent_MiddleAccuracyNoFeedback(t *testing.T) {
	recs := ForStudent([]mastery.TopicProgress{
		progress(topic.Operations, 20, 13, 65),
	})
	assert.Empty(t, recs)
}

func TestForStudent_TwoWeakBlocksChallenge(t *testing.T) {
	recs := ForStudent([]mastery.TopicProgress{
		progress(topic.Operations, 40, 38, 95),
		progress(topic.Fractions, 40, 36, 90),
		progress(topic.Algebra, 40, 8, 20),
		progress(topic.Geometry, 40, 10, 25),
	})
	for _, r := range recs {
		assert.NotEqual(t, "¡Estás listo para más desafíos!", r.Title)
	}
}

func TestForStudent_UnknownTopicName(t *testing.T) {
	recs := ForStudent([]mastery.TopicProgress{
		progress(topic.Topic("statistics"), 2, 0, 0),
	})
	require.NotEmpty(t, recs)
	assert.Equal(t, "Refuerza statistics", recs[0].Title)
}

func TestRound1_HalfToEven(t *testing.T) {
	assert.Equal(t, 12.2, round1(12.25))
	assert.Equal(t, 12.8, round1(12.75))
	assert.Equal(t, 33.3, round1(100.0/3))
}
