package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/ui/components"
	"github.com/mathmaster/mathmaster/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics for a student",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, _ := cmd.Flags().GetString("student")
		if studentID == "" {
			return fmt.Errorf("--student is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		svc := game.New(game.Deps{Store: s})
		st, err := svc.Stats(cmd.Context(), studentID)
		if err != nil {
			return fmt.Errorf("compute stats: %w", err)
		}

		out := cmd.OutOrStdout()
		g := st.General
		fmt.Fprintln(out, theme.Title.Render("Estadísticas"))
		fmt.Fprintln(out, theme.Card.Render(fmt.Sprintf(
			"Ejercicios: %d (%d correctos, %.1f%%)\nPuntos: %d\nSesiones: %d · puntaje total %d · mejor %d",
			g.TotalAttempts, g.CorrectAttempts, g.Accuracy, g.TotalPoints,
			g.TotalSessions, g.TotalScore, g.BestScore)))

		if len(st.Topics) == 0 {
			fmt.Fprintln(out, theme.Hint.Render("Todavía no hay práctica registrada."))
			return nil
		}
		fmt.Fprintln(out)
		for _, t := range st.Topics {
			bar := components.NewProgressBar(fmt.Sprintf("%-24s", t.Name), float64(t.MasteryLevel)/100, true, 60)
			line := bar.View()
			if t.NeedsImprovement {
				line += "  " + theme.Incorrect.Render("!")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringP("student", "s", "", "Student ID")
}
