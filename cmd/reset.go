package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a student's topic progress",
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

		if _, err := s.GetUser(cmd.Context(), studentID); err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		if err := s.ResetProgress(cmd.Context(), studentID); err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress reset for student %s.\n", studentID)
		return nil
	},
}

func init() {
	resetCmd.Flags().StringP("student", "s", "", "Student ID")
}
