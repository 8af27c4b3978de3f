package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
)

// LocalStore writes posters into a directory served read-only at /uploads.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir upload dir: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Save(_ context.Context, fh *multipart.FileHeader) (Result, error) {
	src, err := fh.Open()
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	ct, err := sniff(src)
	if err != nil {
		return Result{}, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return Result{}, err
	}

	name := objectName(ct)
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("create poster file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return Result{}, fmt.Errorf("write poster file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return Result{}, err
	}
	return LocalResult(name), nil
}

func (s *LocalStore) Remove(_ context.Context, r Result) error {
	if r.Kind != Local || r.Name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(r.Name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
