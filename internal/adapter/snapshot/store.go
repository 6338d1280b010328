// Package snapshot persists snapshot documents.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
)

// Writer persists one snapshot document. It implements pipeline.SnapshotWriter.
type Writer interface {
	WriteSnapshot(ctx context.Context, name string, document any) error
}

// FileStore writes each snapshot to <dir>/<name>.json, replacing the
// previous file atomically.
type FileStore struct {
	dir string
}

// NewFileStore creates the store directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file path of a snapshot.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// WriteSnapshot encodes document as indented JSON and renames it into place
// so readers never observe a partial file.
func (s *FileStore) WriteSnapshot(ctx context.Context, name string, document any) error {
	if err := ctx.Err(); err != nil {
		return &domain.WriteError{Name: name, Err: err}
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return &domain.WriteError{Name: name, Err: fmt.Errorf("encode: %w", err)}
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return &domain.WriteError{Name: name, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &domain.WriteError{Name: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &domain.WriteError{Name: name, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return &domain.WriteError{Name: name, Err: err}
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		_ = os.Remove(tmpName)
		return &domain.WriteError{Name: name, Err: err}
	}
	return nil
}

// Tee writes every snapshot to each writer in order. The first failure
// stops the write and is returned.
type Tee []Writer

func (t Tee) WriteSnapshot(ctx context.Context, name string, document any) error {
	for _, w := range t {
		if err := w.WriteSnapshot(ctx, name, document); err != nil {
			var werr *domain.WriteError
			if errors.As(err, &werr) {
				return err
			}
			return &domain.WriteError{Name: name, Err: err}
		}
	}
	return nil
}
