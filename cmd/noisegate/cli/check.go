package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/filter"
)

var (
	checkPath       string
	checkHost       string
	checkEntrypoint string
	checkMode       string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run the classification of a path",
	Long: `Check how a request path would be classified and answered without
running the proxy. Nothing is recorded in metrics or the audit log.`,
	Example: `  noisegate check --mode development --path /_next/webpack-hmr
  noisegate check -c noisegate.yaml --path '/api/__nextjs_original-stack-frame?file=x' --entrypoint api
  noisegate check --mode development --path /settings/favicon.ico --host localhost:3000`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkPath, "path", "", "request path to classify")
	checkCmd.Flags().StringVar(&checkHost, "host", "localhost:3000", "request host, used for redirects")
	checkCmd.Flags().StringVar(&checkEntrypoint, "entrypoint", string(api.EntrypointInterceptor), "entrypoint: interceptor or api")
	checkCmd.Flags().StringVar(&checkMode, "mode", "", "mode override: development or production")
	_ = checkCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = api.ParseMode(checkMode)
	}

	entrypoint, ok := api.ParseEntrypoint(checkEntrypoint)
	if !ok {
		return fmt.Errorf("unknown entrypoint %q (expected interceptor or api)", checkEntrypoint)
	}

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

	resp, err := dryRun.Classify(cmd.Context(), api.ClassifyRequest{
		Path:       checkPath,
		Host:       checkHost,
		Entrypoint: entrypoint,
	})
	if err != nil {
		return fmt.Errorf("classifying: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
