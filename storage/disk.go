// Package storage adapts the external blob store contract to the local
// filesystem. The engine only ever handles opaque paths; bytes at rest
// are this adapter's concern.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type BlobStore interface {
	Store(data []byte, pathHint string) (path string, contentType string, err error)
	Fetch(path string) ([]byte, error)
}

type DiskStore struct {
	root string
}

func NewDiskStore(root string) DiskStore {
	return DiskStore{root: root}
}

// Store writes the bytes under a fresh directory derived from the hint
// and returns the relative path plus the sniffed content type.
func (d DiskStore) Store(data []byte, pathHint string) (string, string, error) {
	name := filepath.Base(filepath.Clean(pathHint))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "blob"
	}
	rel := filepath.Join(uuid.New().String(), name)
	full := filepath.Join(d.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", "", err
	}
	return rel, mimetype.Detect(data).String(), nil
}

// Fetch reads a previously stored blob. Paths escaping the root are
// rejected.
func (d DiskStore) Fetch(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid blob path %q", path)
	}
	return os.ReadFile(filepath.Join(d.root, clean))
}
