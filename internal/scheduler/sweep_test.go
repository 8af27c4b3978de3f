package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRefs struct {
	refs []string
	err  error
}

func (s staticRefs) PosterReferences(context.Context, string) ([]string, error) { return s.refs, s.err }

func touch(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(p, mod, mod))
}

func TestSweepRemovesOnlyOldOrphans(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)

	touch(t, dir, "referenced.jpg", old)
	touch(t, dir, "orphan.jpg", old)
	touch(t, dir, "fresh.jpg", now.Add(-time.Hour))
	touch(t, dir, PlaceholderFile, old)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	job := &SweepJob{
		Dir:   dir,
		Grace: 24 * time.Hour,
		Refs:  staticRefs{refs: []string{"/uploads/referenced.jpg"}},
		Now:   func() time.Time { return now },
	}
	require.NoError(t, job.Run(context.Background()))

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range left {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"referenced.jpg", "fresh.jpg", PlaceholderFile, "nested"}, names)
}

func TestSweepMissingDir(t *testing.T) {
	job := &SweepJob{Dir: filepath.Join(t.TempDir(), "absent"), Refs: staticRefs{}}
	assert.NoError(t, job.Run(context.Background()))
}

func TestSweepKeepsFilesWhenReferencesFail(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg", time.Now().Add(-72*time.Hour))
	job := &SweepJob{Dir: dir, Refs: staticRefs{err: errors.New("db down")}}

	assert.Error(t, job.Run(context.Background()))
	_, err := os.Stat(filepath.Join(dir, "a.jpg"))
	assert.NoError(t, err)
}
