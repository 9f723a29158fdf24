package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/noisegate/internal/audit"
	"github.com/tkingovr/noisegate/internal/dashboard"
	"github.com/tkingovr/noisegate/internal/filter"
)

var (
	adminAddr   string
	adminLogDir string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Start the admin server only (no proxy)",
	Long: `Start the admin server for browsing suppressed requests recorded by an
earlier run. Existing audit log files are loaded on startup; the dry-run
classify endpoint uses the configured mode and response policy.`,
	Example: `  noisegate admin -l 127.0.0.1:9090 -a ~/.noisegate/logs
  noisegate admin -c noisegate.yaml`,
	RunE: runAdmin,
}

func init() {
	adminCmd.Flags().StringVarP(&adminAddr, "listen", "l", "", "admin listen address (overrides config)")
	adminCmd.Flags().StringVarP(&adminLogDir, "audit-dir", "a", "", "audit log directory (overrides config)")
	rootCmd.AddCommand(adminCmd)
}

func runAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if adminAddr != "" {
		cfg.AdminAddr = adminAddr
	}
	if adminLogDir != "" {
		cfg.LogDir = adminLogDir
	}

	store, err := audit.NewJSONLStore(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating audit store: %w", err)
	}
	defer store.Close()

	n, err := store.Replay()
	if err != nil {
		return fmt.Errorf("loading audit logs: %w", err)
	}
	logger.Info("loaded audit records", "dir", cfg.LogDir, "records", n)

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	dryRun, err := filter.NewDryRunner(filter.ChainConfig{
		Mode:    cfg.Mode,
		Engine:  engine,
		Logger:  logger,
		Exclude: cfg.ExcludePatterns(),
	})
	if err != nil {
		return fmt.Errorf("building dry-run chains: %w", err)
	}

	ctx, cancel := signalContext("admin server")
	defer cancel()

	admin := dashboard.NewServer(cfg, store, dryRun, nil, logger)
	return admin.ListenAndServe(ctx)
}
