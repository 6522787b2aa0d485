// Package archive builds, verifies and extracts gdsync project archives.
//
// A project archive is a gzip-compressed tar held entirely in memory. It has a
// single top-level directory entry named after the project and every other
// member lives beneath it. Extraction only accepts a *Verified value, which can
// only be obtained from Verify, so an archive is always checked in full before
// anything is written to disk.
package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sgaunet/gdsync/pkg/constants"
)

var (
	// ErrSourceNotFound is returned when the directory to archive does not exist.
	ErrSourceNotFound = errors.New("source path not found")
	// ErrCorruptArchive is returned when the archive cannot be read or its root entry is missing or malformed.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrIllegalMember is returned when an archive member escapes the declared root.
	ErrIllegalMember = errors.New("illegal archive member")
	// ErrIO is returned when extraction cannot write to the destination.
	ErrIO = errors.New("archive i/o error")
	// ErrInvalidName is returned when an archive name does not follow the naming convention.
	ErrInvalidName = errors.New("invalid archive name")
)

// Archive is an in-memory project archive produced by Create.
type Archive struct {
	// Name is the remote file name: <project>-<YYYYMMDD-HHMMSS>.tar.gz.
	Name string
	// Root is the top-level entry name, equal to the project name.
	Root string
	// Members lists entry paths in the order they were written.
	Members []string
	// Data is the gzip-compressed tar stream.
	Data []byte
}

// Size returns the compressed archive size in bytes.
func (a *Archive) Size() int64 {
	return int64(len(a.Data))
}

// FormatName returns the archive name for a project created at t.
// The timestamp uses t's location; callers pass local time.
func FormatName(project string, t time.Time) string {
	return project + constants.ArchiveNameSeparator + t.Format(constants.ArchiveTimestampLayout) + constants.ArchiveExtension
}

// ParseName splits an archive name into its project name and creation time.
// The time is interpreted in the local time zone.
func ParseName(name string) (string, time.Time, error) {
	base, ok := strings.CutSuffix(name, constants.ArchiveExtension)
	layoutLen := len(constants.ArchiveTimestampLayout)
	if !ok || len(base) < layoutLen+2 {
		return "", time.Time{}, fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	sep := len(base) - layoutLen - 1
	if base[sep:sep+1] != constants.ArchiveNameSeparator {
		return "", time.Time{}, fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	ts, err := time.ParseInLocation(constants.ArchiveTimestampLayout, base[sep+1:], time.Local)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %s: %w", ErrInvalidName, name, err)
	}
	return base[:sep], ts, nil
}
