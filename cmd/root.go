package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mathmaster",
	Short: "Adaptive math exercise engine",
	Long: "MathMaster serves adaptive math practice sessions to students and class " +
		"reports to teachers. Run `mathmaster serve` to start the HTTP API.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides MATHMASTER_DB env var)")
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite or postgres (overrides MATHMASTER_DB_DRIVER env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDB returns the driver and DSN using the flags (highest priority),
// then the environment, then the default SQLite path.
func resolveDB(cmd *cobra.Command) (driver, dsn string, err error) {
	driver, _ = cmd.Flags().GetString("db-driver")
	if driver == "" {
		driver = os.Getenv("MATHMASTER_DB_DRIVER")
	}
	if driver == "" {
		driver = store.DriverSQLite
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if driver == store.DriverSQLite {
			return driver, p, store.EnsureDir(p)
		}
		return driver, p, nil
	}
	if driver == store.DriverPostgres {
		return driver, os.Getenv("DATABASE_URL"), nil
	}
	p, err := store.DefaultDBPath()
	return driver, p, err
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	driver, dsn, err := resolveDB(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(driver, dsn)
}
