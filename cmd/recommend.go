package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/ui/components"
	"github.com/mathmaster/mathmaster/internal/ui/theme"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show study recommendations for a student",
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
		recs, err := svc.Recommendations(cmd.Context(), studentID)
		if err != nil {
			return fmt.Errorf("compute recommendations: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, theme.Title.Render("Recomendaciones"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, components.RecommendationList(recs))
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringP("student", "s", "", "Student ID")
}
