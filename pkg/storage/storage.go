// Package storage archives the files of each extraction run on the local filesystem.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown runs or files
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Archive defines the operations on run archives
type Archive interface {
	// Put stores a file under a run and returns its metadata
	Put(ctx context.Context, runID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error)

	// Open retrieves a file of a run
	Open(ctx context.Context, runID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns all files of a run
	List(ctx context.Context, runID uuid.UUID) ([]*FileInfo, error)

	// PurgeOlderThan deletes every run whose newest file predates cutoff
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
