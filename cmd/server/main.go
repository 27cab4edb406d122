package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/softjail/internal/blob"
	"github.com/JonMunkholm/softjail/internal/blob/s3"
	"github.com/JonMunkholm/softjail/internal/config"
	"github.com/JonMunkholm/softjail/internal/core"
	"github.com/JonMunkholm/softjail/internal/logging"
	"github.com/JonMunkholm/softjail/internal/metrics"
	"github.com/JonMunkholm/softjail/internal/store"
	"github.com/JonMunkholm/softjail/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"store_driver", cfg.Store.Driver,
		"archive_driver", cfg.Archive.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to record store", "driver", cfg.Store.Driver)

	archive, err := blob.Open(ctx, archiveConfig(cfg))
	if err != nil {
		return err
	}

	service := core.NewService(db, archive, metrics.New(prometheus.DefaultRegisterer), cfg)
	slog.Info("import kinds registered", "count", core.KindCount())

	server := web.NewServer(service, cfg, web.Options{Health: db})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		service.StartRetentionScheduler(gctx, core.RetentionConfig{
			Retention:     cfg.Archive.Retention(),
			CheckInterval: cfg.Archive.CheckInterval,
		})
		return nil
	})

	g.Go(func() error {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ImportLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func storeConfig(cfg *config.Config) store.Config {
	return store.Config{
		Driver:          cfg.Store.Driver,
		URL:             cfg.Store.URL,
		SQLitePath:      cfg.Store.SQLitePath,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
	}
}

func archiveConfig(cfg *config.Config) blob.Config {
	return blob.Config{
		Driver: cfg.Archive.Driver,
		FSRoot: cfg.Archive.FSRoot,
		S3: s3.Config{
			Region:          cfg.Archive.S3Region,
			Bucket:          cfg.Archive.S3Bucket,
			Endpoint:        cfg.Archive.S3Endpoint,
			AccessKeyID:     cfg.Archive.S3AccessKeyID,
			SecretAccessKey: cfg.Archive.S3SecretAccessKey,
			PathStyle:       cfg.Archive.S3PathStyle,
		},
	}
}
