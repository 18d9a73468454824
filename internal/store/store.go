package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
)

// DiskStore persists audio artifacts on local disk, served back by the
// HTTP server under /audio/. The path is derived from (userID,
// episodeID), so storing the same episode twice overwrites in place.
type DiskStore struct {
	root         string
	baseURL      string
	maxUserBytes int64
}

// New returns a disk store rooted at root. maxUserBytes caps the total
// audio bytes per user; zero disables the quota.
func New(root, baseURL string, maxUserBytes int64) *DiskStore {
	return &DiskStore{root: root, baseURL: baseURL, maxUserBytes: maxUserBytes}
}

func (s *DiskStore) Store(ctx context.Context, artifact *models.AudioArtifact, userID, episodeID string) (models.StoredAudio, error) {
	if err := ctx.Err(); err != nil {
		return models.StoredAudio{}, err
	}

	filename := episodeID + ".mp3"
	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.StoredAudio{}, pipeline.Failf(pipeline.ErrStorageUnavailable, "failed to create audio dir: %v", err)
	}

	if s.maxUserBytes > 0 {
		used, err := dirSize(dir, filename)
		if err != nil {
			return models.StoredAudio{}, pipeline.Failf(pipeline.ErrStorageUnavailable, "failed to measure audio dir: %v", err)
		}
		if used+int64(len(artifact.Bytes)) > s.maxUserBytes {
			return models.StoredAudio{}, pipeline.Failf(pipeline.ErrStorageQuotaExceeded,
				"user %s would exceed the %d byte quota", userID, s.maxUserBytes)
		}
	}

	// Write-then-rename so a crashed write never leaves a half-episode
	// behind the public URL.
	target := filepath.Join(dir, filename)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, artifact.Bytes, 0o644); err != nil {
		os.Remove(tmp)
		if errors.Is(err, syscall.ENOSPC) {
			return models.StoredAudio{}, pipeline.Failf(pipeline.ErrStorageQuotaExceeded, "disk full writing %s: %v", target, err)
		}
		return models.StoredAudio{}, pipeline.Failf(pipeline.ErrStorageUnavailable, "failed to write audio file: %v", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return models.StoredAudio{}, pipeline.Failf(pipeline.ErrStorageUnavailable, "failed to publish audio file: %v", err)
	}

	relPath := userID + "/" + filename
	return models.StoredAudio{
		Path:      relPath,
		URL:       fmt.Sprintf("%s/audio/%s", s.baseURL, relPath),
		SizeBytes: int64(len(artifact.Bytes)),
	}, nil
}

// dirSize sums file sizes in dir, excluding the file about to be
// overwritten so idempotent re-stores don't double-count.
func dirSize(dir, exclude string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == exclude {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
