package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/game"
	"github.com/mathmaster/mathmaster/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a class report as an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		paraleloID, _ := cmd.Flags().GetString("paralelo")
		outPath, _ := cmd.Flags().GetString("out")
		if paraleloID == "" {
			return fmt.Errorf("--paralelo is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		svc := game.New(game.Deps{Store: s})
		ov, err := svc.ClassOverview(cmd.Context(), paraleloID)
		if err != nil {
			return fmt.Errorf("build class overview: %w", err)
		}

		now := time.Now()
		if outPath == "" {
			outPath = report.Filename(ov, now)
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		if err := report.Write(f, ov, now); err != nil {
			f.Close()
			return fmt.Errorf("write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", outPath, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Report for %s written to %s (%d students).\n",
			ov.Paralelo.Name, outPath, len(ov.Students))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringP("paralelo", "p", "", "Paralelo ID")
	reportCmd.Flags().StringP("out", "o", "", "Output file (default reporte-<paralelo>-<date>.xlsx)")
}
