package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend stores objects under a directory on the local filesystem.
// Content types are kept in a sidecar file next to each object since the
// filesystem has nowhere else to put them.
type LocalBackend struct {
	basePath string
}

// NewLocal creates a local backend rooted at basePath, creating the
// directory if needed.
func NewLocal(basePath string) (*LocalBackend, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, &Error{Op: "NewLocal", Err: fmt.Errorf("invalid path: %w", err)}
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, &Error{Op: "NewLocal", Err: fmt.Errorf("create directory: %w", err)}
	}
	return &LocalBackend{basePath: absPath}, nil
}

// validateKey rejects keys that could escape the base directory.
func (b *LocalBackend) validateKey(key string) error {
	if key == "" || strings.ContainsRune(key, 0) ||
		strings.Contains(key, "..") || filepath.IsAbs(key) {
		return &Error{Op: "validateKey", Key: key, Err: errInvalidKey{}}
	}
	if strings.HasPrefix(filepath.Clean(key), "..") {
		return &Error{Op: "validateKey", Key: key, Err: errInvalidKey{}}
	}
	return nil
}

func (b *LocalBackend) fullPath(key string) string {
	return filepath.Join(b.basePath, filepath.FromSlash(key))
}

func (b *LocalBackend) typePath(key string) string {
	return b.fullPath(key) + ".type"
}

// Exists checks if an object exists at the given key.
func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	if err := b.validateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(b.fullPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &Error{Op: "Exists", Key: key, Err: err}
}

// Reader returns the object content and metadata.
func (b *LocalBackend) Reader(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error) {
	if err := b.validateKey(key); err != nil {
		return nil, nil, err
	}
	path := b.fullPath(key)
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &Error{Op: "Reader", Key: key, Err: errNotFound{}}
		}
		return nil, nil, &Error{Op: "Reader", Key: key, Err: err}
	}

	contentType := ""
	if raw, err := os.ReadFile(b.typePath(key)); err == nil {
		contentType = strings.TrimSpace(string(raw))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &Error{Op: "Reader", Key: key, Err: err}
	}
	return f, &FileInfo{Key: key, Size: stat.Size(), ContentType: contentType}, nil
}

// Write stores content at the given key.
func (b *LocalBackend) Write(ctx context.Context, key string, content io.Reader, contentType string) (*FileInfo, error) {
	if err := b.validateKey(key); err != nil {
		return nil, err
	}
	path := b.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Op: "Write", Key: key, Err: err}
	}

	// Write to a temp file first so a crash never leaves a truncated object.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, &Error{Op: "Write", Key: key, Err: err}
	}
	size, err := io.Copy(tmp, content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, &Error{Op: "Write", Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, &Error{Op: "Write", Key: key, Err: err}
	}
	if contentType != "" {
		if err := os.WriteFile(b.typePath(key), []byte(contentType), 0o644); err != nil {
			return nil, &Error{Op: "Write", Key: key, Err: err}
		}
	}
	return &FileInfo{Key: key, Size: size, ContentType: contentType}, nil
}

// Delete removes an object and its sidecar, idempotently.
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := b.validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(b.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "Delete", Key: key, Err: err}
	}
	if err := os.Remove(b.typePath(key)); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "Delete", Key: key, Err: err}
	}
	return nil
}

// Close is a no-op for the local backend.
func (b *LocalBackend) Close() error { return nil }
