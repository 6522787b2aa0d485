package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Clock abstracts time retrieval so archive names are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual local time.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time { return time.Now() }

// Options tunes archive creation. The zero value is usable.
type Options struct {
	// Clock stamps the archive name. Defaults to RealClock.
	Clock Clock
	// Exclude lists doublestar patterns of paths (relative to the source root)
	// left out of the archive.
	Exclude []string
	// Logger receives per-entry debug output. Defaults to a discarding logger.
	Logger *slog.Logger
}

func (o Options) clock() Clock {
	if o.Clock == nil {
		return RealClock{}
	}
	return o.Clock
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Create archives sourcePath in memory under a single root entry named after
// the base name of sourcePath.
//
// The whole archive is buffered: memory usage is proportional to the
// compressed project size. Nothing is written to disk.
func Create(ctx context.Context, sourcePath string, opts Options) (*Archive, error) {
	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", sourcePath, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", sourcePath, err)
	}

	projectName := filepath.Base(absPath)
	if projectName == string(filepath.Separator) || projectName == "." {
		//nolint:err113 // dynamic error includes the offending path
		return nil, fmt.Errorf("cannot derive a project name from %s", sourcePath)
	}

	// A symlinked project directory is archived through its target, under the link's name.
	walkRoot, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", sourcePath, err)
	}

	w := &treeWriter{
		root:    projectName,
		exclude: NewExcludeMatcher(opts.Exclude),
		log:     opts.logger(),
	}
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	w.tw = tar.NewWriter(gzw)

	if err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("archive creation cancelled: %w", err)
		}
		return w.add(walkRoot, path, d)
	}); err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", sourcePath, err)
	}

	if err := w.tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gzip stream: %w", err)
	}

	return &Archive{
		Name:    FormatName(projectName, opts.clock().Now()),
		Root:    projectName,
		Members: w.members,
		Data:    buf.Bytes(),
	}, nil
}

// treeWriter writes a walked directory tree into a tar stream.
type treeWriter struct {
	tw      *tar.Writer
	root    string
	exclude *ExcludeMatcher
	log     *slog.Logger
	members []string
}

// add writes a single walked entry.
func (w *treeWriter) add(walkRoot, path string, d fs.DirEntry) error {
	rel, err := filepath.Rel(walkRoot, path)
	if err != nil {
		return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
	}

	name := w.root
	if rel != "." {
		if w.exclude.Match(rel) {
			w.log.Debug("excluded from archive", "path", rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name = w.root + "/" + filepath.ToSlash(rel)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var link string
	switch mode := info.Mode(); {
	case mode.IsDir(), mode.IsRegular():
	case mode&fs.ModeSymlink != 0:
		if link, err = os.Readlink(path); err != nil {
			return fmt.Errorf("failed to read link %s: %w", path, err)
		}
	default:
		w.log.Debug("skipping unsupported file type", "path", rel, "mode", mode.String())
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", path, err)
	}
	// FileInfoHeader appends "/" to directories; members are stored without it.
	hdr.Name = name
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	w.members = append(w.members, name)

	if !info.Mode().IsRegular() {
		return nil
	}
	return w.copyFile(path)
}

func (w *treeWriter) copyFile(path string) error {
	//nolint:gosec // G304: path comes from walking the project directory
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w.tw, f); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", path, err)
	}
	return nil
}
