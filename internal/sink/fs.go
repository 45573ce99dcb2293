package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type Filesystem struct {
	dir string
}

func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Filesystem{dir: dir}, nil
}

func (f *Filesystem) Driver() Driver { return DriverFilesystem }

// Put writes to a temp file in dir and renames it into place. Existing files
// are replaced.
func (f *Filesystem) Put(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(f.dir, filepath.Base(name))
	tmp, err := os.CreateTemp(f.dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}
