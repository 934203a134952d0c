// Package assetstore persists emote blobs on local disk and, optionally, in a
// shared mirror.
//
// Local writes are atomic: data lands in a temporary file in the target
// directory and is renamed into place, so a concurrent Exists never observes
// a partial file under the final name.
package assetstore

import (
	"context"
	"os"
	"path/filepath"
)

// Store is the local blob store.
type Store interface {
	// Exists reports whether a complete blob is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Write stores data at path, creating parent directories as needed.
	Write(ctx context.Context, path string, data []byte) error
	// Read returns the blob at path.
	Read(ctx context.Context, path string) ([]byte, error)
}

// FSStore is a Store on the local filesystem.
type FSStore struct {
	// DirPerm and FilePerm default to 0o755 and 0o644.
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

// NewFSStore creates a filesystem store with default permissions.
func NewFSStore() *FSStore {
	return &FSStore{DirPerm: 0o755, FilePerm: 0o644}
}

// Exists reports whether a regular file is present at path.
func (s *FSStore) Exists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrap("stat", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Write atomically replaces the file at path with data.
func (s *FSStore) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm()); err != nil {
		return wrap("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return wrap("write", path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return wrap("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return wrap("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		return wrap("write", path, err)
	}
	if err := os.Chmod(tmpPath, s.filePerm()); err != nil {
		return wrap("chmod", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return wrap("rename", path, err)
	}
	committed = true
	return nil
}

// Read returns the file contents at path.
func (s *FSStore) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap("read", path, err)
	}
	return data, nil
}

func (s *FSStore) dirPerm() os.FileMode {
	if s.DirPerm == 0 {
		return 0o755
	}
	return s.DirPerm
}

func (s *FSStore) filePerm() os.FileMode {
	if s.FilePerm == 0 {
		return 0o644
	}
	return s.FilePerm
}

// Verify FSStore implements Store.
var _ Store = (*FSStore)(nil)
