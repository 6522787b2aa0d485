// Package project resolves the identity of a synchronized project.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sgaunet/gdsync/pkg/config"
)

var (
	// ErrInvalidName is returned for names that cannot be a single directory entry.
	ErrInvalidName = errors.New("invalid project name")
	// ErrNotDirectory is returned when a pushed path exists but is not a directory.
	ErrNotDirectory = errors.New("project path is not a directory")
)

// Project is a local directory synchronized as a unit.
type Project struct {
	// Name is both the archive root entry and the remote lookup substring.
	Name string
	// LocalPath is the absolute directory path. Empty when the project does
	// not exist locally.
	LocalPath string
	// RemoteFolder is the remote namespace holding the archives.
	RemoteFolder string
	// BackupDir receives a copy of every pushed archive when set.
	BackupDir string
}

// ShouldBackup reports whether pushed archives are also kept locally.
func (p *Project) ShouldBackup() bool {
	return p.BackupDir != ""
}

// FromPath resolves a project from a local directory path. The name is the
// base name of the cleaned absolute path. A missing directory yields a
// project without LocalPath.
func FromPath(path string, cfg *config.Config) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	name := filepath.Base(absPath)
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	p := newProject(name, cfg)
	info, err := os.Stat(absPath)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, path)
	case err == nil:
		p.LocalPath = absPath
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return p, nil
}

// FromName resolves a project known only by name, as on pull.
func FromName(name string, cfg *config.Config) (*Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return newProject(name, cfg), nil
}

func newProject(name string, cfg *config.Config) *Project {
	return &Project{
		Name:         name,
		RemoteFolder: cfg.Folder,
		BackupDir:    cfg.Backups.Dir,
	}
}

// ValidateName rejects empty names, "." and "..", and names containing a path separator.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
