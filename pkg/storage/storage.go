// Package storage defines the byte-level persistence used by catalogs and backup copies.
package storage

import (
	"context"
	"io"
)

// Storage persists a stream under a file name.
type Storage interface {
	SaveFile(ctx context.Context, src io.Reader, dstFilename string, fileSize int64) error
}
