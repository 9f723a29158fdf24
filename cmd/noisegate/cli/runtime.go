package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tkingovr/noisegate/internal/audit"
	"github.com/tkingovr/noisegate/internal/config"
	"github.com/tkingovr/noisegate/internal/filter"
	"github.com/tkingovr/noisegate/internal/metrics"
	"github.com/tkingovr/noisegate/internal/policy"
)

// runtime holds the components shared by the serving commands.
type runtime struct {
	cfg     *config.Config
	engine  policy.Engine
	watcher *policy.Watcher
	store   audit.Store
	metrics *metrics.Metrics
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newEngine returns the Rego engine when a response policy is configured
// and the built-in table otherwise.
func newEngine(cfg *config.Config) (policy.Engine, error) {
	if cfg.ResponsePolicy == "" {
		return policy.NewBuiltinEngine(), nil
	}
	engine, err := policy.NewOPAEngine(cfg.ResponsePolicy)
	if err != nil {
		return nil, fmt.Errorf("creating response policy engine: %w", err)
	}
	return engine, nil
}

func buildRuntime(cfg *config.Config) (*runtime, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics.New(),
	}

	if cfg.AuditEnabled {
		store, err := audit.NewJSONLStore(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("creating audit store: %w", err)
		}
		rt.store = store
	}

	if cfg.ResponsePolicy != "" {
		w, err := policy.NewWatcher(cfg.ResponsePolicy, engine, logger)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("watching response policy: %w", err)
		}
		w.OnReload(rt.metrics.RecordPolicyReload)
		rt.watcher = w
	}
	return rt, nil
}

func (rt *runtime) chainConfig() filter.ChainConfig {
	return filter.ChainConfig{
		Mode:       rt.cfg.Mode,
		Engine:     rt.engine,
		Logger:     logger,
		Exclude:    rt.cfg.ExcludePatterns(),
		Metrics:    rt.metrics,
		AuditStore: rt.store,
	}
}

// startWatcher runs the policy file watcher in the background until ctx
// is done.
func (rt *runtime) startWatcher(ctx context.Context) {
	if rt.watcher == nil {
		return
	}
	go func() {
		if err := rt.watcher.Run(ctx); err != nil {
			logger.Error("policy watcher error", "error", err)
		}
	}()
}

func (rt *runtime) close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			logger.Error("closing audit store", "error", err)
		}
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(what string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("shutting down " + what)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
