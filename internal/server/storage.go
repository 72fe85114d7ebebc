// storage.go - Blob storage backends for uploaded files.
//
// The default backend writes to a local directory, created on first use.
// A MinIO-backed implementation lives in minio.go and is selected with
// IMD_STORAGE=minio.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore persists uploaded file contents under a caller-chosen name.
type BlobStore interface {
	// Save writes the blob. Names are generated server-side, so an
	// existing blob with the same name is never silently overwritten
	// in practice; backends may still truncate on collision.
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	// Ping reports whether the backend is able to accept writes.
	Ping(ctx context.Context) error
}

// DiskStore stores blobs as plain files in Dir.
type DiskStore struct {
	Dir string
}

// NewDiskStore returns a store rooted at dir. The directory is not created
// here; Save and Ping create it on first use.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{Dir: dir}
}

func (d *DiskStore) ensureDir() error {
	return os.MkdirAll(d.Dir, 0o755)
}

// Save writes the blob to Dir/name, creating Dir if it does not exist yet.
func (d *DiskStore) Save(_ context.Context, name, _ string, r io.Reader, _ int64) error {
	if err := d.ensureDir(); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(d.Dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Ping verifies the directory exists (creating it if needed) and is
// writable, using a throwaway probe file.
func (d *DiskStore) Ping(_ context.Context) error {
	if err := d.ensureDir(); err != nil {
		return err
	}
	probe, err := os.CreateTemp(d.Dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
