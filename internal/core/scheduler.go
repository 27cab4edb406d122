package core

// scheduler.go provides background retention for the import archive.
//
// The retention job deletes archived payloads and reports older than the
// configured window. It runs once on start, then every CheckInterval, and
// stops when its context is cancelled. Failures are logged and retried on
// the next tick; they never stop the application.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	Retention     time.Duration // Age after which archived runs are removed (default: 90 days)
	CheckInterval time.Duration // How often to run (default: 24h)
}

const (
	defaultRetention     = 90 * 24 * time.Hour
	defaultCheckInterval = 24 * time.Hour
)

// StartRetentionScheduler removes expired archive objects until ctx is
// cancelled. It returns immediately when archiving is disabled.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if s.archive == nil {
		return
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}

	slog.Info("retention scheduler started",
		"retention", cfg.Retention.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	// Run immediately on startup
	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	purged, err := s.PurgeArchive(ctx, s.now().Add(-cfg.Retention))
	if err != nil {
		slog.Error("archive purge failed", "error", err, "purged", purged)
		return
	}
	slog.Info("archive purge complete",
		"purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PurgeArchive deletes archived import objects last modified before cutoff
// and returns how many were removed.
func (s *Service) PurgeArchive(ctx context.Context, cutoff time.Time) (int, error) {
	if s.archive == nil {
		return 0, ErrArchiveDisabled
	}
	infos, err := s.archive.List(ctx, archivePrefix)
	if err != nil {
		return 0, fmt.Errorf("list archive: %w", err)
	}

	purged := 0
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			s.metrics.AddPurged(purged)
			return purged, err
		}
		if !strings.HasPrefix(info.Key, archivePrefix) || !info.LastModified.Before(cutoff) {
			continue
		}
		deleted, err := s.archive.Delete(ctx, info.Key)
		if err != nil {
			s.metrics.AddPurged(purged)
			return purged, fmt.Errorf("delete %s: %w", info.Key, err)
		}
		if deleted {
			purged++
		}
	}
	s.metrics.AddPurged(purged)
	return purged, nil
}
