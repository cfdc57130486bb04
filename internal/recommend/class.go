package recommend

import (
	"fmt"
	"strings"

	"github.com/mathmaster/mathmaster/internal/mastery"
	"github.com/mathmaster/mathmaster/internal/topic"
)

const (
	classWeakMastery   = 40
	classStrongMastery = 70
	classGoodMastery   = 60
	maxNamedTopics     = 3
)

// AggregateByTopic groups progress rows from many students by topic, in
// topic declaration order. Topics nobody practiced are omitted.
func AggregateByTopic(rows []mastery.TopicProgress) []TopicStats {
	byTopic := make(map[topic.Topic][]mastery.TopicProgress)
	for _, r := range rows {
		byTopic[r.Topic] = append(byTopic[r.Topic], r)
	}

	var out []TopicStats
	for _, t := range orderedTopics(rows, byTopic) {
		list := byTopic[t]
		var masterySum, attempts, correct int
		for _, p := range list {
			masterySum += p.MasteryLevel
			attempts += p.TotalAttempts
			correct += p.CorrectAttempts
		}
		var accuracy float64
		if attempts > 0 {
			accuracy = float64(correct) / float64(attempts) * 100
		}
		out = append(out, TopicStats{
			Topic:              t,
			AverageMastery:     float64(masterySum) / float64(len(list)),
			Accuracy:           accuracy,
			StudentsPracticing: len(list),
			TotalAttempts:      attempts,
		})
	}
	return out
}

// orderedTopics lists the known topics first, then any unknown values in
// first-seen order.
func orderedTopics(rows []mastery.TopicProgress, byTopic map[topic.Topic][]mastery.TopicProgress) []topic.Topic {
	var out []topic.Topic
	for _, t := range topic.All() {
		if _, ok := byTopic[t]; ok {
			out = append(out, t)
		}
	}
	seen := make(map[topic.Topic]bool)
	for _, r := range rows {
		if !r.Topic.Valid() && !seen[r.Topic] {
			seen[r.Topic] = true
			out = append(out, r.Topic)
		}
	}
	return out
}

// ForClass builds the class report from every enrolled student's progress.
// With no enrolled students the health is unknown and all lists are empty.
func ForClass(enrolledStudents int, rows []mastery.TopicProgress) ClassReport {
	report := ClassReport{
		OverallHealth:   HealthUnknown,
		Recommendations: []Recommendation{},
		WeakTopics:      []TopicSummary{},
		StrongTopics:    []TopicSummary{},
	}
	if enrolledStudents == 0 {
		return report
	}

	stats := AggregateByTopic(rows)
	for _, s := range stats {
		summary := TopicSummary{
			Topic:    s.Topic,
			Name:     s.Topic.DisplayName(),
			Mastery:  round1(s.AverageMastery),
			Accuracy: round1(s.Accuracy),
		}
		switch {
		case s.AverageMastery < classWeakMastery:
			report.WeakTopics = append(report.WeakTopics, summary)
		case s.AverageMastery > classStrongMastery:
			report.StrongTopics = append(report.StrongTopics, summary)
		}
	}

	if len(report.WeakTopics) > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:     KindWarning,
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("La clase necesita refuerzo en: %s.", joinNames(report.WeakTopics)),
			Action:   "Considera dedicar más tiempo de clase a estos temas",
		})
	}
	if len(report.StrongTopics) > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:     KindSuccess,
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("La clase domina: %s.", joinNames(report.StrongTopics)),
			Action:   "Estos estudiantes podrían ayudar a sus compañeros",
		})
	}

	if len(stats) == 0 {
		return report
	}

	var sum float64
	for _, s := range stats {
		sum += s.AverageMastery
	}
	avg := sum / float64(len(stats))
	report.AverageMastery = round1(avg)

	switch {
	case avg < classWeakMastery:
		report.OverallHealth = HealthNeedsAttention
	case avg < classGoodMastery:
		report.OverallHealth = HealthGood
	default:
		report.OverallHealth = HealthExcellent
	}
	return report
}

func joinNames(topics []TopicSummary) string {
	n := min(len(topics), maxNamedTopics)
	names := make([]string, n)
	for i := range n {
		names[i] = topics[i].Name
	}
	return strings.Join(names, ", ")
}
