// Package storage is a small key/value file abstraction with a local
// filesystem and an S3 implementation.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// ErrInvalidPath is returned for paths that would escape the storage root.
var ErrInvalidPath = errors.New("invalid path")

type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	// List returns the paths of the objects directly under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
