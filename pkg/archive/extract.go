package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sgaunet/gdsync/pkg/constants"
)

var errNotVerified = errors.New("archive has not been verified")

// Extract writes a verified archive into destDir, preserving the structure
// under the archive root (destDir/<root>/...).
//
// Directories are created first, then regular files and hard links, then
// symbolic links, so no file is ever written through a link coming from the
// archive. Permission bits and modification times are restored at the end.
// Write failures are returned wrapped in ErrIO and are not retried.
func Extract(ctx context.Context, v *Verified, destDir string) error {
	if v == nil {
		return errNotVerified
	}
	if err := os.MkdirAll(destDir, constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("%w: failed to create destination %s: %w", ErrIO, destDir, err)
	}

	x := extractor{destDir: filepath.Clean(destDir)}
	passes := []func(entry) error{x.dir, x.file, x.symlink}
	for _, pass := range passes {
		for _, e := range v.entries {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("extraction cancelled: %w", err)
			}
			if err := pass(e); err != nil {
				return err
			}
		}
	}

	// Directory modes last: a read-only directory must still receive its children.
	for i := len(v.entries) - 1; i >= 0; i-- {
		if err := x.finalize(v.entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Unpack verifies data against expectedRoot and extracts it into destDir.
// Nothing is written when verification fails.
func Unpack(ctx context.Context, data []byte, expectedRoot, destDir string) (*Verified, error) {
	v, err := Verify(data, expectedRoot)
	if err != nil {
		return nil, err
	}
	if err := Extract(ctx, v, destDir); err != nil {
		return nil, err
	}
	return v, nil
}

type extractor struct {
	destDir string
}

// target returns the extraction path for a member name.
func (x extractor) target(name string) (string, error) {
	targetPath := filepath.Join(x.destDir, filepath.FromSlash(name))

	// Names were verified already; this guards the join itself.
	if !strings.HasPrefix(targetPath, x.destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrIllegalMember, name)
	}
	return targetPath, nil
}

func (x extractor) dir(e entry) error {
	if e.hdr.Typeflag != tar.TypeDir {
		return nil
	}
	targetPath, err := x.target(e.name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(targetPath, constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %w", ErrIO, targetPath, err)
	}
	return nil
}

func (x extractor) file(e entry) error {
	switch e.hdr.Typeflag {
	case tar.TypeReg:
	case tar.TypeLink:
		return x.hardlink(e)
	default:
		return nil
	}

	targetPath, err := x.target(e.name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("%w: failed to create parent directory for %s: %w", ErrIO, targetPath, err)
	}

	perm := e.hdr.FileInfo().Mode().Perm()
	if perm == 0 {
		perm = constants.DefaultFilePermission
	}
	//nolint:gosec // G304: target path is verified against the archive root
	f, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("%w: failed to create file %s: %w", ErrIO, targetPath, err)
	}
	if _, err := f.Write(e.data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: failed to write file %s: %w", ErrIO, targetPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close file %s: %w", ErrIO, targetPath, err)
	}
	return nil
}

func (x extractor) hardlink(e entry) error {
	targetPath, err := x.target(e.name)
	if err != nil {
		return err
	}
	sourcePath, err := x.target(strings.TrimRight(e.hdr.Linkname, "/"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("%w: failed to create parent directory for %s: %w", ErrIO, targetPath, err)
	}
	if err := os.Link(sourcePath, targetPath); err != nil {
		return fmt.Errorf("%w: failed to link %s: %w", ErrIO, targetPath, err)
	}
	return nil
}

func (x extractor) symlink(e entry) error {
	if e.hdr.Typeflag != tar.TypeSymlink {
		return nil
	}
	targetPath, err := x.target(e.name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("%w: failed to create parent directory for %s: %w", ErrIO, targetPath, err)
	}
	if err := os.Symlink(e.hdr.Linkname, targetPath); err != nil {
		return fmt.Errorf("%w: failed to create symlink %s: %w", ErrIO, targetPath, err)
	}
	return nil
}

// finalize restores permission bits and modification times.
func (x extractor) finalize(e entry) error {
	if e.hdr.Typeflag != tar.TypeDir && e.hdr.Typeflag != tar.TypeReg {
		return nil
	}
	targetPath, err := x.target(e.name)
	if err != nil {
		return err
	}
	// Headers without permission bits keep the default directory mode.
	if perm := e.hdr.FileInfo().Mode().Perm(); e.hdr.Typeflag == tar.TypeDir && perm != 0 {
		if err := os.Chmod(targetPath, perm); err != nil {
			return fmt.Errorf("%w: failed to set mode on %s: %w", ErrIO, targetPath, err)
		}
	}
	if !e.hdr.ModTime.IsZero() {
		if err := os.Chtimes(targetPath, e.hdr.ModTime, e.hdr.ModTime); err != nil {
			return fmt.Errorf("%w: failed to set times on %s: %w", ErrIO, targetPath, err)
		}
	}
	return nil
}
