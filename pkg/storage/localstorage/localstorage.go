// Package localstorage provides local file system storage implementation.
package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sgaunet/gdsync/pkg/constants"
)

// ErrShortWrite is returned when the written size differs from the announced one.
var ErrShortWrite = errors.New("short write")

// LocalStorage implements storage interface for local file system.
type LocalStorage struct {
	dirpath string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(dirpath string) *LocalStorage {
	return &LocalStorage{
		dirpath: dirpath,
	}
}

// Dir returns the directory files are saved into.
func (s *LocalStorage) Dir() string {
	return s.dirpath
}

// SaveFile copies src into dstFilename with context cancellation support.
// The content is written to a temporary file then renamed, so readers never
// observe a partial file. A negative fileSize skips the size check.
func (s *LocalStorage) SaveFile(ctx context.Context, src io.Reader, dstFilename string, fileSize int64) error {
	if ctx.Err() != nil {
		return fmt.Errorf("operation cancelled before starting: %w", ctx.Err())
	}

	dstPath := filepath.Join(s.dirpath, dstFilename)
	tmp, err := os.CreateTemp(s.dirpath, "."+dstFilename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstPath, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	written, err := copyWithContext(ctx, tmp, src)
	if err != nil {
		cleanup()
		return err
	}
	if fileSize >= 0 && written != fileSize {
		cleanup()
		return fmt.Errorf("%w: wrote %d bytes, expected %d", ErrShortWrite, written, fileSize)
	}
	if err := tmp.Chmod(constants.DefaultFilePermission); err != nil {
		cleanup()
		return fmt.Errorf("failed to set mode on %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place %s: %w", dstPath, err)
	}
	return nil
}

// copyWithContext copies src to dst, checking for cancellation between chunks.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, constants.CopyBufferSize)
	var total int64
	for {
		if ctx.Err() != nil {
			return total, fmt.Errorf("copy cancelled: %w", ctx.Err())
		}

		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			total += int64(nw)
			if ew != nil {
				return total, fmt.Errorf("failed to write to destination: %w", ew)
			}
			if nr != nw {
				return total, fmt.Errorf("%w: wrote %d bytes, expected %d", ErrShortWrite, nw, nr)
			}
		}
		if er != nil {
			if errors.Is(er, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("failed to read from source: %w", er)
		}
	}
}
