package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mathmaster/mathmaster/internal/exercise"
	"github.com/mathmaster/mathmaster/internal/ui/theme"
)

// ExerciseCard renders a generated exercise with lettered options.
type ExerciseCard struct {
	Number     int
	Exercise   exercise.Exercise
	Points     int
	ShowAnswer bool
}

func (e ExerciseCard) View() string {
	ex := e.Exercise
	var b strings.Builder

	header := fmt.Sprintf("#%d %s", e.Number, ex.Title)
	b.WriteString(theme.Title.Render(header))
	b.WriteString("  ")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("%s · %s · %d pts", ex.Topic.DisplayName(), ex.Difficulty, e.Points)))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(ex.Question))
	b.WriteString("\n")

	for i, opt := range ex.Options {
		letter := string(rune('A' + i))
		line := fmt.Sprintf("  %s) %s", letter, opt)
		if e.ShowAnswer && opt == ex.CorrectAnswer {
			line = theme.Correct.Render(line + "  ✓")
		} else {
			line = theme.Body.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}

	if e.ShowAnswer && ex.Explanation != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render(ex.Explanation))
	}

	return theme.Card.Render(b.String())
}

// Width reports the rendered width of the card.
func (e ExerciseCard) Width() int {
	return lipgloss.Width(e.View())
}
