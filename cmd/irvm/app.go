package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/irvm/pkg/cli"
	"mercator-hq/irvm/pkg/config"
	"mercator-hq/irvm/pkg/ir/validator"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/engine/source"
	"mercator-hq/irvm/pkg/policy/manager"
	"mercator-hq/irvm/pkg/telemetry/logging"
	"mercator-hq/irvm/pkg/telemetry/metrics"
	"mercator-hq/irvm/pkg/telemetry/tracing"
)

// app carries the configuration and telemetry shared by the commands.
type app struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer

	closers []func() error
}

// newApp loads the configuration and builds the logger, metrics collector
// and tracer for one command run. Logs go to the command's stderr.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	logCfg.Writer = cmd.ErrOrStderr()
	switch {
	case logLevel != "":
		logCfg.Level = logLevel
	case verbose:
		logCfg.Level = "debug"
	case cfgFile == "" && os.Getenv("IRVM_TELEMETRY_LOGGING_LEVEL") == "":
		// Engine lifecycle messages stay quiet unless configured.
		logCfg.Level = "warn"
	}
	if logFormat != "" {
		logCfg.Format = logFormat
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("log", err.Error())
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &app{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		tracer:  tracer,
	}, nil
}

// context returns a context cancelled on SIGINT or SIGTERM. It continues
// the trace described by TRACEPARENT when the variable is set.
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return cli.SetupSignalHandler(tracing.ContextFromEnv(parent))
}

// Close releases engines and managers opened by the command and flushes
// pending spans.
func (a *app) Close(ctx context.Context) error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", "error", err)
		}
	}
	a.closers = nil
	return a.tracer.Shutdown(ctx)
}

// engineConfig maps the engine section of the configuration to the VM
// configuration.
func engineConfig(cfg config.EngineConfig) *engine.Config {
	return engine.DefaultConfig().
		WithMaxCallDepth(cfg.MaxCallDepth).
		WithMaxInstructions(cfg.MaxInstructions).
		WithEvalTimeout(cfg.EvalTimeout).
		WithValidateOnLoad(cfg.ValidateOnLoad).
		WithTrace(cfg.EnableTrace).
		WithStrictBuiltins(cfg.StrictBuiltins)
}

// openEngine creates a VM for the policy at path. A file is served by a
// caching file source; a directory is loaded through a policy manager and
// name selects one of its policies. An empty path uses policy.path from the
// configuration.
func (a *app) openEngine(path, name string) (*engine.VM, error) {
	if path == "" {
		path = a.config.Policy.Path
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, cli.NewConfigError("policy", err.Error())
	}

	var src engine.PolicySource
	if info.IsDir() {
		policyCfg := a.config.Policy
		policyCfg.Path = path
		policyCfg.Watch = false
		policyCfg.ReloadSchedule = ""

		mgr, err := manager.NewPolicyManager(&policyCfg,
			validator.NewSemanticValidator(engine.BuiltinNames()), a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mgr.Close)
		src = source.NewManagerSource(mgr, name)
	} else {
		fileSrc, err := source.NewFileSource(path, a.logger,
			source.WithMaxFileSize(a.config.Policy.MaxFileSize),
			source.WithCacheSize(a.config.Policy.CacheSize),
			source.WithCacheObserver(a.metrics),
		)
		if err != nil {
			return nil, err
		}
		src = fileSrc
	}

	vm, err := engine.NewVM(engineConfig(a.config.Engine), src, a.logger,
		engine.WithObserver(a.metrics),
		engine.WithTracer(a.tracer.Tracer()),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, vm.Close)
	return vm, nil
}

// withApp wraps a command body with app setup and teardown.
func withApp(name string, run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(context.Background()); err != nil {
				a.logger.Warn("failed to shut down tracer", "error", err)
			}
		}()

		if err := run(cmd, args, a); err != nil {
			var cmdErr *cli.CommandError
			var cfgErr *cli.ConfigError
			if errors.As(err, &cmdErr) || errors.As(err, &cfgErr) {
				return err
			}
			return cli.NewCommandError(name, err)
		}
		return nil
	}
}
