package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/carlosatFroom/learning-system/internal/catalog"
	"github.com/carlosatFroom/learning-system/internal/config"
	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/filestore/minio"
	"github.com/carlosatFroom/learning-system/internal/logger"
	"github.com/carlosatFroom/learning-system/internal/mirror"
	"github.com/carlosatFroom/learning-system/internal/state"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "mirror",
		Short:         "Mirror the local learning store into a remote database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Override the log format (json, console)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newSyncCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newSchemaCmd(flags))

	return cmd
}

// app is everything a subcommand needs, built from config.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	syncer *mirror.Syncer
	close  func()
}

func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	return cfg, nil
}

func (f *rootFlags) setup(ctx context.Context) (*app, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(&cfg.Log)
	logger.SetGlobal(log)

	store, closeStore, err := openStateStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	local, err := cfg.Local.Resolve()
	if err != nil {
		closeStore()
		return nil, err
	}

	opts := mirror.Options{
		Local:        local,
		Schema:       catalog.MustSchema(),
		Prefix:       cfg.Sync.Prefix,
		State:        store,
		Cooldown:     cfg.Sync.Cooldown,
		ProbeTimeout: cfg.Sync.ProbeTimeout,
		Parallelism:  cfg.Sync.Parallelism,
		Logger:       log,
	}
	if cfg.Remote.Configured() {
		if opts.Remote, err = cfg.Remote.Resolve(); err != nil {
			closeStore()
			return nil, err
		}
	}

	syncer, err := mirror.New(opts)
	if err != nil {
		closeStore()
		return nil, err
	}

	log.With().
		Str("state", store.Describe()).
		Bool("remote_configured", syncer.RemoteConfigured()).
		Logger().Debug("mirror configured")

	return &app{cfg: cfg, log: log, syncer: syncer, close: closeStore}, nil
}

// openStateStore returns the configured state backend and a func releasing
// whatever it holds open.
func openStateStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (state.Store, func(), error) {
	switch cfg.State.Backend {
	case config.StateBackendFile:
		return state.NewFileStore(cfg.State.File, log), func() {}, nil
	case config.StateBackendObject:
		fs, err := minio.New(ctx, &cfg.ObjectStore)
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := fs.Close(); err != nil {
				log.WarnWith("failed to close object store", err, nil)
			}
		}
		return state.NewObjectStore(fs, cfg.ObjectStore.Bucket, cfg.State.Key, log), release, nil
	default:
		return nil, nil, errs.Newf(errs.ErrKindConfig, "unknown state backend %q", cfg.State.Backend)
	}
}
