// Package storage stores advertisement photos behind a backend interface so
// deployments can keep files on local disk or in S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// FileInfo is metadata about a stored object.
type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Backend is the object storage interface. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Exists checks if an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Reader returns the object content and metadata. The caller closes the
	// reader. Returns ErrNotFound if the object does not exist.
	Reader(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error)

	// Write stores content at the given key with the given MIME type.
	Write(ctx context.Context, key string, content io.Reader, contentType string) (*FileInfo, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Error wraps a backend failure with the operation and key involved.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return e.Op + " " + e.Key + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

type errNotFound struct{}

func (errNotFound) Error() string { return "object not found" }

type errInvalidKey struct{}

func (errInvalidKey) Error() string { return "invalid key" }

// Sentinel errors.
var (
	ErrNotFound   = &Error{Op: "storage", Err: errNotFound{}}
	ErrInvalidKey = &Error{Op: "storage", Err: errInvalidKey{}}
)

// IsNotFound reports whether err indicates a missing object.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		_, ok := e.Err.(errNotFound)
		return ok
	}
	return false
}
