package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pickarooms/reservations-server/internal/app/storage"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/spreadsheet"
	"github.com/pickarooms/reservations-server/internal/store"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Reconcile a reservation export against the store",
	Long: `Reconcile an operator reservation export (.xlsx or .csv) against the canonical
store and print what changed. Requires database storage, since an in-memory
store does not outlive the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	uploadCmd.Flags().String("uploaded-by", "cli", "Operator recorded as the uploader")
	uploadCmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")

	if err := uploadCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		return err
	}
	uploadedBy, _ := cmd.Flags().GetString("uploaded-by")

	cfg, s, cleanup, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := uploadFile(ctx, cfg, s, args[0], uploadedBy)
	if err != nil {
		return err
	}
	return renderReport(cmd.OutOrStdout(), output, report)
}

// uploadFile parses the export at path and reconciles it
func uploadFile(ctx context.Context, cfg *config.Config, s store.Store, path, uploadedBy string) (*spreadsheet.Report, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	sheet, err := spreadsheet.Parse(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	reconciler := spreadsheet.NewReconciler(s, cfg.UnitTypes(), spreadsheet.WithLocation(loc))
	report, err := reconciler.Reconcile(ctx, sheet, uploadedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile export: %w", err)
	}
	slog.Info("Export reconciled", "file", path, "mutations", report.Mutations())
	return report, nil
}

// openStore loads the configuration named by --config and opens its store
func openStore(ctx context.Context, cmd *cobra.Command) (*config.Config, store.Store, func(), error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GetStorageType() == config.StorageTypeMemory {
		slog.Warn("Configured storage is in memory, results are discarded when the command exits")
	}

	factory, err := storage.NewStorageFactory(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create storage factory: %w", err)
	}
	s, err := factory.CreateStore(ctx)
	if err != nil {
		factory.Cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create store: %w", err)
	}
	return cfg, s, factory.Cleanup, nil
}
