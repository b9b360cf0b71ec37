package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Read when no object exists under the key.
var ErrNotFound = errors.New("storage: object not found")

// Storage holds message attachments by key.
type Storage interface {
	// Write stores content from r under key. size is -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read opens the content under key. The caller closes the reader.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content under key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
