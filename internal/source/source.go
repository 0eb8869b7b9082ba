// Package source provides the storage backends candidate paths are probed
// against and loaded from: the local filesystem and S3-compatible storage.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Source answers existence and read queries for candidate paths.
type Source interface {
	// Exists reports whether path names a loadable file. A missing file is
	// not an error.
	Exists(ctx context.Context, path string) (bool, error)
	// Read returns the contents of path.
	Read(ctx context.Context, path string) ([]byte, error)
}

// Local reads candidates from the local filesystem.
type Local struct{}

// NewLocal returns a Source backed by the local filesystem.
func NewLocal() *Local {
	return &Local{}
}

// Exists stats path. Directories never count as a hit.
func (Local) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	return !info.IsDir(), nil
}

// Read returns the file contents.
func (Local) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
