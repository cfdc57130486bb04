package components

import (
	"fmt"
	"strings"

	"github.com/mathmaster/mathmaster/internal/recommend"
	"github.com/mathmaster/mathmaster/internal/ui/theme"
)

// RecommendationList renders recommendations one per block.
func RecommendationList(recs []recommend.Recommendation) string {
	if len(recs) == 0 {
		return theme.Hint.Render("Sin recomendaciones.")
	}
	blocks := make([]string, 0, len(recs))
	for _, r := range recs {
		var b strings.Builder
		b.WriteString(theme.Priority(string(r.Priority)).Render(fmt.Sprintf("[%s]", r.Priority)))
		if r.Title != "" {
			b.WriteString(" ")
			b.WriteString(theme.Label.Render(r.Title))
		}
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(r.Message))
		if r.Action != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("→ " + r.Action))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
