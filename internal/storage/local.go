package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const partialDir = ".partial"

type LocalStorage struct {
	root   string
	logger *logger_i.Logger
}

func NewLocal(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = config.LocalStorageDir
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, partialDir), 0750); err != nil {
		return nil, fmt.Errorf("storage error: %w", err)
	}
	return &LocalStorage{root: root, logger: logger_i.NewLogger("LocalStorage")}, nil
}

// Upload writes into .partial first and renames, so readers never see half a file.
func (l *LocalStorage) Upload(ctx context.Context, r io.Reader, name string, ownerId string) (string, int64, error) {
	key := objectKey(name, ownerId)
	target, err := l.resolve(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", 0, fmt.Errorf("storage error: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Join(l.root, partialDir), "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("storage error: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("write error: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", 0, fmt.Errorf("storage error: %w", err)
	}
	l.logger.Debug("stored upload", "key", key, "size", size)
	return key, size, nil
}

func (l *LocalStorage) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, commonModels.NewValidationError(commonModels.ErrFileMissing, path)
	}
	return f, err
}

func (l *LocalStorage) Delete(ctx context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveStale deletes partial uploads left behind by crashed writes.
func (l *LocalStorage) RemoveStale(ctx context.Context, olderThan time.Duration) (int, error) {
	dir := filepath.Join(l.root, partialDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (l *LocalStorage) resolve(key string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(key))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", key)
	}
	return full, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
