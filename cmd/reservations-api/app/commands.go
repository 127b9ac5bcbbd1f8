// Package app wires the reservations-api command tree.
package app

import (
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pickarooms/reservations-server/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "reservations-api",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Short:             "Reservations reconciliation server",
	Long: `Reservations reconciliation server keeps one canonical set of bookings from
channel calendar feeds, operator spreadsheet exports and the confirmation
archive, and issues door codes to guests.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// NewRootCmd assembles the command tree. --debug lowers level to debug
// before any subcommand runs; a nil level leaves logging untouched.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Cannot bind --debug", "error", err)
	}
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if level != nil && viper.GetBool("debug") {
			level.Set(slog.LevelDebug)
		}
	}

	rootCmd.AddCommand(serveCmd, versionCmd, migrateCmd, uploadCmd, bookingsCmd)
	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		if err := validateOutput(format); err != nil {
			return err
		}
		return renderVersion(cmd.OutOrStdout(), format, versions.GetVersionInfo())
	},
}

func init() {
	versionCmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")
}

func renderVersion(w io.Writer, format string, info versions.VersionInfo) error {
	if format == outputJSON {
		return writeJSON(w, info)
	}
	t := newTable(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("reservations-server")
	t.AppendRows([]table.Row{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Built", info.BuildDate},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	})
	t.Render()
	return nil
}
