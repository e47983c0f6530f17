package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/api"
	"github.com/quantsweep/quantsweep/internal/archive"
	"github.com/quantsweep/quantsweep/internal/config"
	"github.com/quantsweep/quantsweep/internal/job"
	"github.com/quantsweep/quantsweep/internal/logger"
	"github.com/quantsweep/quantsweep/internal/metrics"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
	"github.com/quantsweep/quantsweep/internal/strategy/emacross"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sweep API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting sweep server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Engine.Backend),
	)

	registry := strategy.NewRegistry()
	registry.Register(emacross.New(log))

	backend := sim.NewBackend(cfg.Engine.Backend, cfg.Engine.Workers, cfg.Engine.BlockSize)
	defer backend.Close()

	store := job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	arch, err := newArchive(cfg.Storage.Archive)
	if err != nil {
		return fmt.Errorf("creating archive storage: %w", err)
	}

	runner := job.NewRunner(job.RunnerConfig{
		Store:    store,
		Registry: registry,
		Backend:  backend,
		Logger:   log,
		Metrics:  reg,
		Archive:  arch,
	})

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, api.Deps{
		Logger:          log,
		Store:           store,
		Runner:          runner,
		Registry:        registry,
		Backend:         backend,
		Metrics:         reg,
		InitialCapital:  cfg.Engine.InitialCapital,
		MaxDetailTrades: cfg.Engine.MaxDetailTrades,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down sweep server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newArchive(cfg config.ArchiveConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}
