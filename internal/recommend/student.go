package recommend

import (
	"fmt"
	"math"

	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

const (
	weakMastery        = 30
	strongMastery      = 70
	minPracticeCount   = 5
	suggestedExercises = 10

	lowAccuracy  = 50
	highAccuracy = 80
)

type scored struct {
	topic    topic.Topic
	accuracy float64
	mastery  int
}

// ForStudent builds the ordered recommendation list for one student.
// A student with no progress gets a single onboarding recommendation.
func ForStudent(progress []mastery.TopicProgress) []Recommendation {
	if len(progress) == 0 {
		return []Recommendation{{
			Type:           KindInfo,
			Priority:       PriorityHigh,
			Title:          "¡Comienza tu práctica!",
			Message:        "No tienes ejercicios completados aún. Te recomendamos comenzar con Operaciones Básicas para familiarizarte con el sistema.",
			SuggestedTopic: topic.Operations,
			Action:         "practice",
		}}
	}

	var weak, strong []scored
	var needsPractice []topic.Topic
	for _, p := range progress {
		s := scored{topic: p.Topic, accuracy: p.Accuracy() * 100, mastery: p.MasteryLevel}
		switch {
		case p.MasteryLevel < weakMastery:
			weak = append(weak, s)
		case p.MasteryLevel > strongMastery:
			strong = append(strong, s)
		}
		if p.TotalAttempts < minPracticeCount {
			needsPractice = append(needsPractice, p.Topic)
		}
	}

	var recs []Recommendation

	if len(weak) > 0 {
		w := extreme(weak, func(a, b int) bool { return a < b })
		name := w.topic.DisplayName()
		recs = append(recs, Recommendation{
			Type:           KindWarning,
			Priority:       PriorityHigh,
			Title:          fmt.Sprintf("Refuerza %s", name),
			Message:        fmt.Sprintf("Tu nivel de dominio en %s es bajo (%d%%). Te recomendamos dedicar más tiempo a practicar este tema.", name, w.mastery),
			SuggestedTopic: w.topic,
			Action:         "practice",
			Details: map[string]any{
				"current_accuracy":      round1(w.accuracy),
				"mastery_level":         w.mastery,
				"recommended_exercises": suggestedExercises,
			},
		})
	}

	if len(needsPractice) > 0 {
		t := needsPractice[0]
		name := t.DisplayName()
		recs = append(recs, Recommendation{
			Type:           KindInfo,
			Priority:       PriorityMedium,
			Title:          fmt.Sprintf("Practica más %s", name),
			Message:        fmt.Sprintf("Has hecho pocos ejercicios de %s. Realiza al menos 5 ejercicios más para mejorar tu dominio.", name),
			SuggestedTopic: t,
			Action:         "practice",
		})
	}

	if len(strong) > 0 {
		s := extreme(strong, func(a, b int) bool { return a > b })
		name := s.topic.DisplayName()
		recs = append(recs, Recommendation{
			Type:           KindSuccess,
			Priority:       PriorityLow,
			Title:          fmt.Sprintf("¡Excelente en %s!", name),
			Message:        fmt.Sprintf("Has dominado %s con un %d%% de nivel. Sigue así y ayuda a tus compañeros.", name, s.mastery),
			SuggestedTopic: s.topic,
			Action:         "challenge",
		})
	}

	// The next-step suggestion is fixed, not derived from the profile.
	if len(strong) >= 2 && len(weak) < 2 {
		recs = append(recs, Recommendation{
			Type:           KindSuccess,
			Priority:       PriorityMedium,
			Title:          "¡Estás listo para más desafíos!",
			Message:        "Has dominado varios temas. Te recomendamos intentar ejercicios de Ecuaciones Cuadráticas o Álgebra avanzada.",
			SuggestedTopic: topic.QuadraticEquations,
			Action:         "challenge",
		})
	}

	overall := overallAccuracy(progress)
	switch {
	case overall < lowAccuracy:
		recs = append(recs, Recommendation{
			Type:     KindWarning,
			Priority: PriorityHigh,
			Title:    "Mejora tu precisión",
			Message:  fmt.Sprintf("Tu tasa de acierto general es %.1f%%. Tómate tu tiempo para leer bien cada ejercicio antes de responder.", overall),
			Action:   "tips",
			Details: map[string]any{
				"tip":  "Lee el ejercicio dos veces antes de responder",
				"tip2": "Verifica tu respuesta antes de enviar",
				"tip3": "Practica con ejercicios fáciles primero",
			},
		})
	case overall > highAccuracy:
		recs = append(recs, Recommendation{
			Type:     KindSuccess,
			Priority: PriorityLow,
			Title:    "¡Rendimiento excepcional!",
			Message:  fmt.Sprintf("Tu tasa de acierto es %.1f%%. ¡Sigue así! Estás entre los mejores estudiantes.", overall),
			Action:   "celebrate",
		})
	}

	return recs
}

// extreme returns the first entry whose mastery wins under better.
func extreme(items []scored, better func(a, b int) bool) scored {
	best := items[0]
	for _, s := range items[1:] {
		if better(s.mastery, best.mastery) {
			best = s
		}
	}
	return best
}

// overallAccuracy is the percentage of correct answers across all topics.
func overallAccuracy(progress []mastery.TopicProgress) float64 {
	var total, correct int
	for _, p := range progress {
		total += p.TotalAttempts
		correct += p.CorrectAttempts
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
