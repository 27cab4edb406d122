package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	blobcore "github.com/JonMunkholm/softjail/internal/blob/core"
	"github.com/JonMunkholm/softjail/internal/config"
	"github.com/JonMunkholm/softjail/internal/logging"
	"github.com/JonMunkholm/softjail/internal/metrics"
)

// DefaultImportTimeout is the maximum duration for one import when no
// configuration is given.
const DefaultImportTimeout = 2 * time.Minute

// DefaultMaxPayloadSize is the payload limit when no configuration is given.
const DefaultMaxPayloadSize = 10 << 20

// Service runs imports and exports against a record store. Each call gets
// its own store session.
type Service struct {
	sessions SessionFactory
	archive  blobcore.Store // nil when archiving is disabled
	metrics  *metrics.Metrics

	limiter    *ImportLimiter
	timeout    time.Duration
	maxPayload int64
	now        func() time.Time
}

// NewService creates a Service. archive and m may be nil; cfg may be nil to
// use defaults.
func NewService(sessions SessionFactory, archive blobcore.Store, m *metrics.Metrics, cfg *config.Config) *Service {
	var ic config.ImportConfig
	if cfg != nil {
		ic = cfg.Import
	}
	if ic.Timeout <= 0 {
		ic.Timeout = DefaultImportTimeout
	}
	if ic.MaxPayloadSize <= 0 {
		ic.MaxPayloadSize = DefaultMaxPayloadSize
	}

	return &Service{
		sessions:   sessions,
		archive:    archive,
		metrics:    m,
		limiter:    NewImportLimiter(ic.MaxConcurrent, ic.MaxWaitTime),
		timeout:    ic.Timeout,
		maxPayload: ic.MaxPayloadSize,
		now:        time.Now,
	}
}

// ListKinds returns all registered import kinds in import order.
func (s *Service) ListKinds() []ImportKind {
	return All()
}

// MaxPayloadSize returns the largest accepted payload in bytes.
func (s *Service) MaxPayloadSize() int64 {
	return s.maxPayload
}

// Import runs one import of the given kind and archives its payload and
// report. A malformed payload or a failed commit returns an error and no
// result; rejected records are reported, not returned as errors.
func (s *Service) Import(ctx context.Context, kindKey, payload string) (*ImportResult, error) {
	kind, ok := Get(kindKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kindKey)
	}
	payload = strings.TrimPrefix(payload, utf8BOM)
	if int64(len(payload)) > s.maxPayload {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), s.maxPayload)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	s.metrics.SetActiveImports(s.limiter.ActiveCount())
	defer func() {
		s.limiter.Release()
		s.metrics.SetActiveImports(s.limiter.ActiveCount())
	}()

	runID := uuid.NewString()
	ctx = logging.WithAttrs(ctx, "run_id", runID, "kind", kind.Key)
	start := s.now()

	importCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.InfoContext(ctx, "import started", "bytes", len(payload))

	report, err := kind.Import(importCtx, s.sessions.Session(), payload)
	if err != nil {
		s.metrics.IncImportFailure(kind.Key)
		slog.WarnContext(ctx, "import failed", "error", err)
		return nil, err
	}

	result := &ImportResult{
		RunID:    runID,
		Kind:     kind.Key,
		Report:   report.String(),
		Accepted: report.Accepted,
		Rejected: report.Rejected,
		Duration: time.Since(start),
	}

	// The import is committed; archiving is best effort.
	if err := s.archiveRun(ctx, kind, runID, payload, result.Report); err != nil {
		slog.WarnContext(ctx, "archive import run", "error", err)
	}

	s.metrics.ObserveImport(kind.Key, report.Accepted, report.Rejected, start)
	slog.InfoContext(ctx, "import finished",
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// ExportByIDs renders the prisoners-by-cells JSON export for ids.
func (s *Service) ExportByIDs(ctx context.Context, ids []int64) (string, error) {
	out, err := ExportPrisonersByCells(ctx, s.sessions.Session(), ids)
	if err != nil {
		return "", err
	}
	s.metrics.IncExport("json")
	return out, nil
}

// ExportByIDsXLSX renders the prisoners-by-cells export as a workbook.
func (s *Service) ExportByIDsXLSX(ctx context.Context, ids []int64) ([]byte, error) {
	out, err := ExportPrisonersByCellsXLSX(ctx, s.sessions.Session(), ids)
	if err != nil {
		return nil, err
	}
	s.metrics.IncExport("xlsx")
	return out, nil
}

// ExportInbox renders the prisoners-inbox XML export for a comma-separated
// list of full names.
func (s *Service) ExportInbox(ctx context.Context, names string) (string, error) {
	out, err := ExportPrisonersInbox(ctx, s.sessions.Session(), names)
	if err != nil {
		return "", err
	}
	s.metrics.IncExport("xml")
	return out, nil
}

// ImportLimiterStatus returns the current import concurrency state.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

const archivePrefix = "imports/"

// Archive object names inside a run directory.
const (
	payloadObject = "payload"
	reportObject  = "report.txt"
)

func runPrefix(kind string) string {
	return archivePrefix + kind + "/"
}

func runKey(kind, runID, object string) string {
	return runPrefix(kind) + runID + "/" + object
}

func (s *Service) archiveRun(ctx context.Context, kind ImportKind, runID, payload, report string) error {
	if s.archive == nil {
		return nil
	}
	contentType := "application/json"
	if kind.Format == FormatXML {
		contentType = "application/xml"
	}
	meta := map[string]string{"run-id": runID, "kind": kind.Key}

	if _, err := s.archive.Put(ctx, runKey(kind.Key, runID, payloadObject), strings.NewReader(payload),
		blobcore.PutOptions{ContentType: contentType, Metadata: meta}); err != nil {
		return fmt.Errorf("put payload: %w", err)
	}
	if _, err := s.archive.Put(ctx, runKey(kind.Key, runID, reportObject), strings.NewReader(report),
		blobcore.PutOptions{ContentType: "text/plain; charset=utf-8", Metadata: meta}); err != nil {
		return fmt.Errorf("put report: %w", err)
	}
	return nil
}
