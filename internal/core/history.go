package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	blobcore "github.com/JonMunkholm/softjail/internal/blob/core"
)

// ImportHistory lists archived runs of one kind, newest first.
func (s *Service) ImportHistory(ctx context.Context, kindKey string) ([]ImportRun, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if _, ok := Get(kindKey); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kindKey)
	}

	prefix := runPrefix(kindKey)
	infos, err := s.archive.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}

	runs := make([]ImportRun, 0, len(infos)/2)
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, prefix)
		runID, object, ok := strings.Cut(rest, "/")
		if !ok || object != reportObject {
			continue
		}
		runs = append(runs, ImportRun{
			RunID:      runID,
			Kind:       kindKey,
			ReportKey:  info.Key,
			ReportSize: info.Size,
			CreatedAt:  info.LastModified,
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, nil
}

// ArchivedReport returns the stored report text of one run.
func (s *Service) ArchivedReport(ctx context.Context, kindKey, runID string) (string, error) {
	return s.readRunObject(ctx, kindKey, runID, reportObject)
}

// ArchivedPayload returns the stored payload of one run.
func (s *Service) ArchivedPayload(ctx context.Context, kindKey, runID string) (string, error) {
	return s.readRunObject(ctx, kindKey, runID, payloadObject)
}

func (s *Service) readRunObject(ctx context.Context, kindKey, runID, object string) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	if _, ok := Get(kindKey); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kindKey)
	}
	// Run ids are always UUIDs; anything else cannot name an archived run.
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	_, rc, err := s.archive.Get(ctx, runKey(kindKey, runID, object))
	if err != nil {
		if errors.Is(err, blobcore.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return "", fmt.Errorf("get %s: %w", object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", object, err)
	}
	return string(data), nil
}
