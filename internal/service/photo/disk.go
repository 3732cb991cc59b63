package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PublicPath is the URL prefix under which DiskStorage files are served.
const PublicPath = "/uploads"

var errInvalidName = errors.New("invalid photo name")

// DiskStorage keeps photos in a local directory that is served statically
// under PublicPath.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates dir if needed and stores photos there.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

// Dir returns the directory photos are written to.
func (d *DiskStorage) Dir() string {
	return d.dir
}

// Put writes body to a temporary file and renames it into place so readers
// never observe a partial photo.
func (d *DiskStorage) Put(ctx context.Context, name string, body io.Reader, _ int64, _ string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing photo: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storing photo: %w", err)
	}
	return nil
}

// Delete removes name. A missing file is not an error.
func (d *DiskStorage) Delete(_ context.Context, name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing photo: %w", err)
	}
	return nil
}

func (d *DiskStorage) URL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + PublicPath + "/" + name
}

func (d *DiskStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errInvalidName
	}
	return filepath.Join(d.dir, name), nil
}

// Compile-time interface check
var _ Storage = (*DiskStorage)(nil)
