package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStorage keeps uploaded originals. Paths returned by Upload are opaque keys.
type FileStorage interface {
	Upload(ctx context.Context, r io.Reader, name string, ownerId string) (string, int64, error)
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// Janitor is implemented by backends that leave scratch data behind.
type Janitor interface {
	RemoveStale(ctx context.Context, olderThan time.Duration) (int, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectKey keeps the extension so extraction can still detect the type from the key.
func objectKey(name string, ownerId string) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	owner := unsafeChars.ReplaceAllString(ownerId, "_")
	if owner == "" {
		owner = "anonymous"
	}
	return fmt.Sprintf("%s/%d-%s-%s", owner, time.Now().UnixNano(), uuid.NewString()[:8], strings.TrimLeft(base, "."))
}
