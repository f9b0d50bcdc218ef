package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/specialists/internal/adapters/fs"
	"github.com/bft-labs/specialists/internal/cliconfig"
	"github.com/bft-labs/specialists/pkg/log"
	"github.com/bft-labs/specialists/pkg/specialists"
	"github.com/bft-labs/specialists/plugins/checkpoint"
	"github.com/bft-labs/specialists/plugins/loadgate"
	"github.com/bft-labs/specialists/plugins/spoolwatcher"
)

const helpDescription = `
Run a pool of short-lived specialist workers.

Highlights:
  - Spawns one worker per request and dissolves it when done or idle.
  - Caps concurrency globally and per category.
  - Keeps what each worker learned and persists it across restarts.
  - Accepts spawn requests as JSON files dropped into a spool directory.
`

var exampleUsage = strings.TrimSpace(`
  specialists --spool-dir /var/spool/specialists --audit-log /var/log/specialists/audit.jsonl
  specialists --config $HOME/.specialists/config.toml --max-concurrent 40
  specialists catalog --catalog ./catalog.yaml
  specialists knowledge --category technical --format json
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return specialists.Version + "-dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "specialists",
		Short:   "Run a pool of short-lived specialist workers",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfgPath, &cfg); err != nil {
				return err
			}
			return run(cfg)
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.specialists/config.toml)")
	pf.StringVar(&cfg.KnowledgeDir, "knowledge-dir", cfg.KnowledgeDir, "directory holding knowledge.json (default: $HOME/.specialists/knowledge)")
	pf.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML file listing categories and subtypes (default: built-in catalog)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace, debug, info, warn or error")

	f := root.Flags()
	f.IntVar(&cfg.MaxConcurrent, "max-concurrent", cfg.MaxConcurrent, "maximum live workers")
	f.IntVar(&cfg.MaxPerCategory, "max-per-category", cfg.MaxPerCategory, "maximum live workers per category")
	f.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "dissolve workers idle for this long")
	f.BoolVar(&cfg.KnowledgeTransferEnabled, "knowledge-transfer", cfg.KnowledgeTransferEnabled, "hand knowledge back to the owner on dissolve")
	f.IntVar(&cfg.KnowledgeCap, "knowledge-cap", cfg.KnowledgeCap, "snapshots kept per category/subtype")
	f.DurationVar(&cfg.MaxTaskDuration, "max-task-duration", cfg.MaxTaskDuration, "advisory task duration limit")
	f.StringVar(&cfg.SpoolDir, "spool-dir", cfg.SpoolDir, "serve spawn requests dropped into this directory")
	f.StringVar(&cfg.AuditLog, "audit-log", cfg.AuditLog, "append lifecycle events to this JSONL file")
	f.StringVar(&cfg.AuditWebhookURL, "audit-webhook", cfg.AuditWebhookURL, "POST lifecycle events to this base URL")
	f.StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the audit webhook")
	f.Float64Var(&cfg.LoadThreshold, "load-threshold", cfg.LoadThreshold, "decline spawns above this goroutines-per-CPU ratio (0 disables)")
	f.DurationVar(&cfg.CheckpointInterval, "checkpoint-interval", cfg.CheckpointInterval, "save knowledge this often (0 disables)")
	f.StringSliceVar(&cfg.Deny, "deny", cfg.Deny, "refuse spawns for category or category/subtype (repeatable)")

	root.AddCommand(catalogCmd(&cfg, &cfgPath), knowledgeCmd(&cfg, &cfgPath))

	if err := root.Execute(); err != nil {
		l := cliconfig.Logger(cfg.LogLevel)
		l.Error().Err(err).Msg("specialists")
		os.Exit(1)
	}
}

// loadConfig layers the config file, SPECIALISTS_* variables and explicitly
// set flags, in increasing precedence, then validates.
func loadConfig(cmd *cobra.Command, cfgPath string, cfg *cliconfig.Config) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	return cfg.Validate()
}

func run(cfg cliconfig.Config) error {
	zl := cliconfig.Logger(cfg.LogLevel)

	logCfg := cfg
	if len(logCfg.AuthKey) > 0 {
		logCfg.AuthKey = "*****"
	}
	zl.Info().Interface("config", logCfg).Msg("configuration")

	opts, err := buildOptions(cfg, zl)
	if err != nil {
		return err
	}

	s, err := specialists.New(libConfig(cfg), opts...)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}

	crashed := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.Status() == specialists.StateCrashed {
					close(crashed)
					return
				}
			}
		}
	}()

	select {
	case <-ctx.Done():
		zl.Info().Msg("received signal, stopping...")
	case <-crashed:
		zl.Error().Msg("coordinator crashed")
		return fmt.Errorf("coordinator crashed")
	}

	if err := s.Stop(); err != nil {
		return fmt.Errorf("stop coordinator: %w", err)
	}
	m := s.Metrics()
	zl.Info().
		Int("spawned", m.TotalSpawned).
		Int("dissolved", m.TotalDissolved).
		Msg("stopped")
	return nil
}

func libConfig(cfg cliconfig.Config) specialists.Config {
	return specialists.Config{
		MaxConcurrent:            cfg.MaxConcurrent,
		MaxPerCategory:           cfg.MaxPerCategory,
		IdleTimeout:              cfg.IdleTimeout,
		KnowledgeTransferEnabled: cfg.KnowledgeTransferEnabled,
		KnowledgeCap:             cfg.KnowledgeCap,
		MaxTaskDuration:          cfg.MaxTaskDuration,
		KnowledgeDir:             cfg.KnowledgeDir,
		AuditLog:                 cfg.AuditLog,
		AuditWebhookURL:          cfg.AuditWebhookURL,
		AuthKey:                  cfg.AuthKey,
		Deny:                     cfg.Deny,
	}
}

func buildOptions(cfg cliconfig.Config, zl zerolog.Logger) ([]specialists.Option, error) {
	opts := []specialists.Option{
		specialists.WithLogger(log.NewZerologAdapterWithLogger(zl)),
	}

	if cfg.CatalogPath != "" {
		catalog, err := fs.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, specialists.WithCatalog(catalog))
	}
	if cfg.LoadThreshold > 0 {
		opts = append(opts, loadgate.WithLoadGate(loadgate.Config{Threshold: cfg.LoadThreshold}))
	}
	if cfg.SpoolDir != "" {
		sw := spoolwatcher.DefaultConfig()
		sw.Dir = cfg.SpoolDir
		opts = append(opts, spoolwatcher.WithSpoolWatcher(sw))
	}
	if cfg.CheckpointInterval > 0 {
		opts = append(opts, checkpoint.WithCheckpoint(checkpoint.Config{Interval: cfg.CheckpointInterval}))
	}
	return opts, nil
}
