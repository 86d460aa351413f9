// ABOUTME: Blob storage collaborator for product images
// ABOUTME: Disk-backed implementation producing public URLs under a fixed base

package blob

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Store is the blob collaborator contract: write bytes at a namespaced path,
// get back a public URL.
type Store interface {
	Upload(ctx context.Context, objectPath string, data []byte) (string, error)
}

// LocalStore implements Store on the local filesystem. Objects are served by
// the gateway itself under the configured public base URL.
type LocalStore struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

// NewLocalStore creates a disk-backed blob store rooted at dir.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default().With("component", "blob"),
	}, nil
}

// Dir returns the root directory objects are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload writes data at objectPath and returns its public URL.
// Paths are cleaned and confined to the store's root.
func (s *LocalStore) Upload(ctx context.Context, objectPath string, data []byte) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" {
		return "", fmt.Errorf("empty object path")
	}

	target := filepath.Join(s.dir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}

	url := s.baseURL + clean
	s.logger.Debug("uploaded object", "path", clean, "bytes", len(data))
	return url, nil
}

// ObjectName builds the collision-safe path for an upload: namespaced by the
// owning subject id and prefixed with a timestamp.
func ObjectName(subjectID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", subjectID, now.Unix(), SanitizeFilename(filename))
}

// SanitizeFilename strips path separators and traversal sequences from an
// untrusted upload filename.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base("/" + name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
