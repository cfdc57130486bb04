package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/recommend"
	"github.com/mathmaster/mathmaster/internal/store"
	"github.com/mathmaster/mathmaster/internal/topic"
)

func sampleOverview() *game.ClassOverview {
	last := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)
	return &game.ClassOverview{
		Paralelo: store.Paralelo{ID: "p1", Name: "10mo A", Level: "Décimo"},
		Students: []game.StudentSummary{
			{
				ID: "s1", FirstName: "Luis", LastName: "Mora", Email: "luis@example.com",
				Sessions: 2, TotalScore: 120, ExercisesCompleted: 10, CorrectAnswers: 7,
				Accuracy: 70, AverageMastery: 35,
				WeakTopics:   []topic.Topic{topic.Fractions, topic.Percentages},
				LastActivity: &last,
			},
			{ID: "s2", FirstName: "Ana", LastName: "Paz", Email: "ana@example.com", WeakTopics: []topic.Topic{}},
		},
		Topics: []recommend.TopicStats{
			{Topic: topic.Fractions, AverageMastery: 35.25, Accuracy: 66.666, StudentsPracticing: 1, TotalAttempts: 6},
		},
		Report: recommend.ClassReport{
			OverallHealth:  recommend.HealthNeedsAttention,
			AverageMastery: 35,
			Recommendations: []recommend.Recommendation{
				{Type: recommend.KindWarning, Priority: recommend.PriorityHigh, Message: "La clase necesita refuerzo en: Fracciones.", Action: "Repasar"},
			},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, Write(&buf, sampleOverview(), generated))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStudents, SheetTopics, SheetRecommendations}, f.GetSheetList())

	rows, err := f.GetRows(SheetStudents)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Estudiantes - 10mo A (Décimo) - 2026-04-03", rows[0][0])
	assert.Equal(t, "Apellido", rows[2][0])
	assert.Equal(t, []string{
		"Mora", "Luis", "luis@example.com", "2", "120", "10", "7", "70", "35",
		"Fracciones, Porcentajes", "2026-04-02 15:30",
	}, rows[3])
	assert.Equal(t, "Paz", rows[4][0])

	topics, err := f.GetRows(SheetTopics)
	require.NoError(t, err)
	require.Len(t, topics, 4)
	assert.Equal(t, []string{"Fracciones", "35.2", "66.7", "1", "6"}, topics[3])

	recs, err := f.GetRows(SheetRecommendations)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "needs_attention", recs[3][1])
	assert.Equal(t, "La clase necesita refuerzo en: Fracciones.", recs[4][2])
}

func TestFilename(t *testing.T) {
	ov := sampleOverview()
	ov.Paralelo.Name = "  10mo A / Matutino "
	assert.Equal(t, "reporte-10mo-a-matutino-20260403.xlsx", Filename(ov, time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)))

	ov.Paralelo.Name = "Décimo"
	assert.Equal(t, "reporte-d-cimo-20260403.xlsx", Filename(ov, time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)))
}
