package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tkingovr/noisegate/internal/dashboard"
	"github.com/tkingovr/noisegate/internal/filter"
	httpproxy "github.com/tkingovr/noisegate/internal/proxy/http"
)

var (
	serveTarget  string
	serveListen  string
	serveAdmin   string
	serveNoAdmin bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the noise filter proxy and the admin server",
	Long: `Start the reverse proxy in front of the development server together
with the admin server (dashboard, stats API and Prometheus metrics).
This is the recommended way to run noisegate.`,
	Example: `  noisegate serve -c noisegate.yaml
  NOISEGATE_MODE=development noisegate serve --target http://localhost:3001 --listen :3000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTarget, "target", "", "upstream dev server URL (overrides config)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "proxy listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveAdmin, "admin-addr", "", "admin server address (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoAdmin, "no-admin", false, "do not start the admin server")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveTarget != "" {
		cfg.Target = serveTarget
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if serveAdmin != "" {
		cfg.AdminAddr = serveAdmin
	}
	if cfg.Target == "" {
		return fmt.Errorf("no upstream target: set target in the config or pass --target")
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	chainCfg := rt.chainConfig()
	interceptorChain, err := filter.BuildInterceptorChain(chainCfg)
	if err != nil {
		return fmt.Errorf("building interceptor chain: %w", err)
	}
	apiChain := filter.BuildAPIChain(chainCfg)

	proxy, err := httpproxy.NewProxy(cfg.Target,
		httpproxy.NewInterceptor(interceptorChain, logger),
		httpproxy.NewAPIFallback(apiChain, rt.metrics, logger),
		httpproxy.Routes{APIPrefix: cfg.APIPrefix, APIPassthrough: cfg.APIPassthrough},
		logger,
	)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext("noisegate")
	defer cancel()

	rt.startWatcher(ctx)

	if !serveNoAdmin {
		dryRun, err := filter.NewDryRunner(chainCfg)
		if err != nil {
			return fmt.Errorf("building dry-run chains: %w", err)
		}
		admin := dashboard.NewServer(cfg, rt.store, dryRun, rt.metrics, logger)
		go func() {
			if err := admin.ListenAndServe(ctx); err != nil {
				logger.Error("admin server error", "error", err)
			}
		}()
	}

	logger.Info("starting serve mode",
		slog.String("mode", string(cfg.Mode)),
		slog.String("target", cfg.Target),
		slog.Bool("audit", cfg.AuditEnabled),
		slog.String("response_policy", cfg.ResponsePolicy),
	)

	// Start proxy (blocks)
	return proxy.ListenAndServe(ctx, cfg.Listen)
}
