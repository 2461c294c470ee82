package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
)

func TestLocal_UploadReadDelete(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	ctx := context.Background()

	key, size, err := s.Upload(ctx, strings.NewReader("hello world"), "../../Annual Report.pdf", "owner 1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if size != 11 {
		t.Errorf("size = %d", size)
	}
	if !strings.HasPrefix(key, "owner_1/") || !strings.HasSuffix(key, "Annual_Report.pdf") {
		t.Errorf("unexpected key %s", key)
	}

	rc, err := s.ReadStream(ctx, key)
	if err != nil {
		t.Fatalf("ReadStream failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello world" {
		t.Errorf("read %q", data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.ReadStream(ctx, key); !errors.Is(err, commonModels.ErrFileMissing) {
		t.Errorf("got %v, want ErrFileMissing", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("deleting a missing file should be a no-op: %v", err)
	}
}

func TestLocal_RejectsEscapingPaths(t *testing.T) {
	s, _ := NewLocal(t.TempDir())
	if _, err := s.ReadStream(context.Background(), "../../etc/passwd"); err == nil {
		t.Error("expected an error for a path outside the root")
	}
}

func TestLocal_CancelledUpload(t *testing.T) {
	s, _ := NewLocal(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.Upload(ctx, strings.NewReader("data"), "a.txt", "o"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestLocal_RemoveStale(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewLocal(dir)

	old := filepath.Join(s.root, partialDir, "upload-old")
	fresh := filepath.Join(s.root, partialDir, "upload-fresh")
	_ = os.WriteFile(old, []byte("x"), 0600)
	_ = os.WriteFile(fresh, []byte("x"), 0600)
	past := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(old, past, past)

	n, err := s.RemoveStale(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("RemoveStale failed: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d, want 1", n)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh partial file was removed")
	}
}
