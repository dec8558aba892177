package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/infra/buildinfo"
	"github.com/yndnr/rostervault/internal/infra/confloader"
	"github.com/yndnr/rostervault/internal/infra/shutdown"
	"github.com/yndnr/rostervault/internal/server/bootstrap"
	"github.com/yndnr/rostervault/internal/server/config"
	"github.com/yndnr/rostervault/internal/server/httpserver"
	"github.com/yndnr/rostervault/internal/storage/memory"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
	"github.com/yndnr/rostervault/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("rostervault-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting rostervault-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()
	state := memory.New()
	metrics.Registerer().MustRegister(metric.NewStateCollector(state.Counts))

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg.Store, metrics.Registerer(), logger.ToSlog(log))
	if err != nil {
		return err
	}

	codec, err := bootstrap.NewCodec(cfg.Backup)
	if err != nil {
		store.Close()
		return fmt.Errorf("init codec: %w", err)
	}
	log.Info("object store ready",
		"backend", store.Backend,
		"prefix", cfg.Backup.Prefix,
		"compression_level", codec.Level(),
		"encrypted", codec.Encrypted())

	catalog := backup.NewCatalog(store, cfg.Backup.Prefix, codec)
	scheduler := backup.NewScheduler(bootstrap.SchedulerConfig(cfg.Backup), state, codec, store,
		backup.WithLogger(log),
		backup.WithMetrics(metrics))

	var restored atomic.Pointer[backup.RestoreReport]

	// Cancelled when the ops listener dies.
	runCtx, fail := context.WithCancel(ctx)
	defer fail()

	shutdownHandler := shutdown.NewHandler(cfg.Ops.ShutdownTimeout)

	// Hooks run in reverse registration order.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing object store")
		codec.Close()
		return store.Close()
	})

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping backup scheduler")
		return scheduler.Stop(ctx)
	})

	if cfg.Ops.Enabled {
		opsServer := initOps(cfg, catalog, scheduler, restored.Load, metrics, log)
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down ops server")
			return opsServer.Shutdown(ctx)
		})

		go func() {
			log.Info("ops server listening", "addr", cfg.Ops.Addr)
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ops server error", "error", err)
				fail()
			}
		}()
	}

	// Restore must finish before the first backup can overwrite the newest
	// snapshot with an empty one. The ops listener answers on-demand
	// backups with 503 until the report is stored.
	report := restore(ctx, cfg, state, catalog, metrics, log)
	restored.Store(report)
	scheduler.Start()

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started", "interval", cfg.Backup.Interval.String())
	if err := shutdownHandler.WaitContext(runCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger builds the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func restore(ctx context.Context, cfg *config.ServerConfig, state *memory.State, catalog *backup.Catalog, metrics *metric.Registry, log logger.Logger) *backup.RestoreReport {
	if !cfg.Restore.Enabled {
		log.Info("restore on boot disabled")
		metrics.RecordRestore(string(backup.RestoreDisabled))
		return &backup.RestoreReport{Outcome: backup.RestoreDisabled}
	}

	rctx, cancel := context.WithTimeout(ctx, 4*cfg.Store.Timeout)
	defer cancel()
	return backup.NewRestorer(state, catalog, log, metrics).Restore(rctx)
}

func initOps(cfg *config.ServerConfig, catalog *backup.Catalog, scheduler *backup.Scheduler, status func() *backup.RestoreReport, metrics *metric.Registry, log logger.Logger) *httpserver.Server {
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Catalog:        catalog,
		Runner:         scheduler,
		Status:         status,
		Metrics:        metrics,
		Logger:         log,
		AdminAllowList: cfg.Ops.AdminAllowList,
	})
	return httpserver.New(httpserver.Config{
		Addr:         cfg.Ops.Addr,
		ReadTimeout:  cfg.Ops.ReadTimeout,
		WriteTimeout: cfg.Ops.WriteTimeout,
	}, router)
}

// watchConfig reloads the file on change and applies the settings that
// can change at runtime. Everything else needs a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(path, func(string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("config reloaded", "log_level", cfg.Log.Level)
	}, confloader.WithWatcherLogger(logger.ToSlog(log)))
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}
