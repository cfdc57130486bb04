// Package report exports class progress as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// Sheet names.
const (
	SheetStudents        = "Estudiantes"
	SheetTopics          = "Temas"
	SheetRecommendations = "Recomendaciones"
)

var (
	studentHeader = []any{
		"Apellido", "Nombre", "Correo", "Sesiones", "Puntaje total", "Ejercicios",
		"Correctas", "Precisión (%)", "Dominio promedio", "Temas a reforzar", "Última actividad",
	}
	topicHeader = []any{
		"Tema", "Dominio promedio", "Precisión (%)", "Estudiantes practicando", "Intentos",
	}
	recommendationHeader = []any{"Prioridad", "Tipo", "Mensaje", "Acción"}
)

// Workbook builds the class workbook. The caller closes the file.
func Workbook(ov *game.ClassOverview, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#305496"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	studentRows := make([][]any, 0, len(ov.Students))
	for _, s := range ov.Students {
		last := ""
		if s.LastActivity != nil {
			last = s.LastActivity.UTC().Format("2006-01-02 15:04")
		}
		studentRows = append(studentRows, []any{
			s.LastName, s.FirstName, s.Email, s.Sessions, s.TotalScore, s.ExercisesCompleted,
			s.CorrectAnswers, s.Accuracy, s.AverageMastery, topicNames(s.WeakTopics), last,
		})
	}

	topicRows := make([][]any, 0, len(ov.Topics))
	for _, t := range ov.Topics {
		topicRows = append(topicRows, []any{
			t.Topic.DisplayName(), round1(t.AverageMastery), round1(t.Accuracy), t.StudentsPracticing, t.TotalAttempts,
		})
	}

	recRows := make([][]any, 0, len(ov.Report.Recommendations)+2)
	recRows = append(recRows,
		[]any{"Estado general", string(ov.Report.OverallHealth), fmt.Sprintf("Dominio promedio: %.1f", ov.Report.AverageMastery), ""},
	)
	for _, r := range ov.Report.Recommendations {
		recRows = append(recRows, []any{string(r.Priority), string(r.Type), r.Message, r.Action})
	}

	sheets := []struct {
		name   string
		title  string
		header []any
		rows   [][]any
		widths []float64
	}{
		{SheetStudents, "Estudiantes", studentHeader, studentRows, []float64{18, 18, 28, 10, 14, 12, 12, 14, 16, 40, 18}},
		{SheetTopics, "Progreso por tema", topicHeader, topicRows, []float64{28, 16, 14, 22, 10}},
		{SheetRecommendations, "Recomendaciones", recommendationHeader, recRows, []float64{16, 12, 70, 50}},
	}

	first := -1
	for _, sh := range sheets {
		idx, err := f.NewSheet(sh.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if first < 0 {
			first = idx
		}
		if err := writeSheet(f, sh.name, sh.title, ov, generatedAt, sh.header, sh.rows, header, sh.widths); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(first)
	f.DeleteSheet(defaultSheet)
	return f, nil
}

// writeSheet lays out a title row, a blank row, the header and the data.
func writeSheet(f *excelize.File, sheet, title string, ov *game.ClassOverview, generatedAt time.Time,
	header []any, rows [][]any, headerStyle int, widths []float64) error {
	heading := fmt.Sprintf("%s - %s (%s) - %s", title, ov.Paralelo.Name, ov.Paralelo.Level, generatedAt.UTC().Format("2006-01-02"))
	if err := f.SetCellValue(sheet, "A1", heading); err != nil {
		return fmt.Errorf("write %s title: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 3)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A3", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("size %s column %s: %w", sheet, col, err)
		}
	}
	return nil
}

// Write streams the class workbook to w.
func Write(w io.Writer, ov *game.ClassOverview, generatedAt time.Time) error {
	f, err := Workbook(ov, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename suggests a download name for a paralelo's report.
func Filename(ov *game.ClassOverview, generatedAt time.Time) string {
	return fmt.Sprintf("reporte-%s-%s.xlsx", slug(ov.Paralelo.Name), generatedAt.UTC().Format("20060102"))
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
			dash = false
		default:
			if !dash && len(out) > 0 {
				out = append(out, '-')
				dash = true
			}
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "paralelo"
	}
	return string(out)
}

func topicNames(ts []topic.Topic) string {
	var out string
	for i, t := range ts {
		if i > 0 {
			out += ", "
		}
		out += t.DisplayName()
	}
	return out
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
