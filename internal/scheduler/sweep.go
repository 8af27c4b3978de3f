package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/upload"
)

// PlaceholderFile is the default poster and is never swept.
const PlaceholderFile = "default-placeholder.jpg"

// PosterLister reports the poster references currently stored under a prefix.
type PosterLister interface {
	PosterReferences(ctx context.Context, prefix string) ([]string, error)
}

// SweepJob deletes files in the local upload directory that no catalog
// entry references.  Files younger than Grace are kept so that an upload
// whose entry is still being written is not lost.
type SweepJob struct {
	Dir   string
	Grace time.Duration
	Refs  PosterLister
	Log   *zap.Logger
	Now   func() time.Time
}

func (j *SweepJob) Name() string { return "poster_sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	entries, err := os.ReadDir(j.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read upload dir: %w", err)
	}

	refs, err := j.Refs.PosterReferences(ctx, upload.LocalPrefix)
	if err != nil {
		return fmt.Errorf("list poster references: %w", err)
	}
	keep := make(map[string]struct{}, len(refs)+1)
	keep[PlaceholderFile] = struct{}{}
	for _, r := range refs {
		keep[path.Base(r)] = struct{}{}
	}

	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	cutoff := now().Add(-j.Grace)

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}
		if _, ok := keep[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.Dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			j.logger().Warn("sweep: remove failed", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	j.logger().Info("sweep: orphaned posters removed", zap.Int("removed", removed), zap.Int("referenced", len(refs)))
	return nil
}

func (j *SweepJob) logger() *zap.Logger {
	if j.Log == nil {
		return zap.NewNop()
	}
	return j.Log
}
