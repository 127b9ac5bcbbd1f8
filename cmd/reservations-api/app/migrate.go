package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pickarooms/reservations-server/database"
	"github.com/pickarooms/reservations-server/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the bookings database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigration(cmd, "apply pending migrations", database.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations",
	Long: `Revert the last --num-steps migrations, or every migration when it is 0.
Reverting everything drops all bookings, codes and events.`,
	Example: `  reservations-api migrate down --config config.yaml -n 1 --yes`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, err := cmd.Flags().GetUint("num-steps")
		if err != nil {
			return err
		}
		action := fmt.Sprintf("revert %d migration(s)", steps)
		if steps == 0 {
			action = "revert every migration and drop all bookings"
		}
		return runMigration(cmd, action, func(dsn string) error {
			return database.MigrateDown(dsn, steps)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, dsn, err := databaseFromFlags(cmd)
		if err != nil {
			return err
		}
		return printSchemaVersion(cmd.OutOrStdout(), dsn)
	},
}

func init() {
	flags := migrateCmd.PersistentFlags()
	flags.String("config", "", "Path to configuration file (YAML format, required)")
	flags.BoolP("yes", "y", false, "Do not ask for confirmation")
	flags.UintP("num-steps", "n", 0, "Number of migrations to revert (0 = all)")
	if err := migrateCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

// runMigration asks for confirmation, runs apply against the configured
// database and reports the resulting schema version
func runMigration(cmd *cobra.Command, action string, apply func(dsn string) error) error {
	dbCfg, dsn, err := databaseFromFlags(cmd)
	if err != nil {
		return err
	}

	target := fmt.Sprintf("%s@%s:%d/%s", dbCfg.User, dbCfg.Host, dbCfg.Port, dbCfg.Database)
	ok, err := confirm(cmd, fmt.Sprintf("About to %s on %s.", action, target))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration aborted", "database", target)
		return nil
	}

	if err := apply(dsn); err != nil {
		return err
	}
	slog.Info("Migration finished", "database", target, "action", action)
	return printSchemaVersion(cmd.OutOrStdout(), dsn)
}

func printSchemaVersion(w io.Writer, dsn string) error {
	version, dirty, err := database.GetVersion(dsn)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	state := "clean"
	if dirty {
		state = "dirty, fix the failed migration before retrying"
	}
	_, err = fmt.Fprintf(w, "schema version %d (%s)\n", version, state)
	return err
}

// databaseFromFlags loads --config and returns its database section and DSN
func databaseFromFlags(cmd *cobra.Command) (*config.DatabaseConfig, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database == nil {
		return nil, "", fmt.Errorf("%s has no database section", path)
	}
	dsn, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, "", err
	}
	return cfg.Database, dsn, nil
}

// confirm prompts on stdout and accepts "y" or "yes" from stdin. --yes skips
// the prompt.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Continue? [y/N] ", prompt)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
