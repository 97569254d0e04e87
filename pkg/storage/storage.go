// Package storage is the file backend behind order persistence.
// Finalized order receipts are the payload: the local store holds the
// durable copy, and an S3-compatible store can mirror it for archival
// or receive exports.
package storage

import (
	"context"
	"fmt"
	"io"
)

// FileStore reads and writes named files on some backend. Paths are
// forward-slash separated, relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file; the caller closes it. An absent file
	// yields an error wrapping os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file, truncating any previous content and
	// creating parent directories. The caller must Close to flush.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Deleting an absent file succeeds.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file is present.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the stored paths under prefix, sorted. An empty
	// prefix lists everything.
	List(ctx context.Context, prefix string) ([]string, error)
}

// AtomicWriter is implemented by stores whose plain Write is not already
// all-or-nothing. WriteAtomic stages the content and publishes it under
// the final path only once fully written.
type AtomicWriter interface {
	WriteAtomic(ctx context.Context, path string, data []byte) error
}

// WriteFile writes data to path in one shot. Stores implementing
// AtomicWriter commit atomically; object stores are already atomic at the
// object level, so the plain Write path is used for them.
func WriteFile(ctx context.Context, fs FileStore, path string, data []byte) error {
	if aw, ok := fs.(AtomicWriter); ok {
		return aw.WriteAtomic(ctx, path, data)
	}
	w, err := fs.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ReadFile reads the whole named file.
func ReadFile(ctx context.Context, fs FileStore, path string) ([]byte, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}
