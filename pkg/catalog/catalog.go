// Package catalog defines the remote object store capabilities gdsync relies on.
package catalog

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/sgaunet/gdsync/pkg/constants"
)

//go:generate go tool github.com/matryer/moq -out mocks/catalog.go -pkg mocks . Catalog

// Catalog is a remote object store with folder semantics.
//
// Implementations own their transport concerns (authentication, retries,
// throttling). Errors are returned as-is and wrapped by callers.
type Catalog interface {
	// FindOrCreateFolder returns the id of the folder called name, creating it when missing.
	FindOrCreateFolder(ctx context.Context, name string) (string, error)

	// Upload stores size bytes read from r as fileName inside folderID and returns the new file id.
	Upload(ctx context.Context, folderID, fileName string, r io.Reader, size int64) (string, error)

	// FindLatest returns the archive in folderID whose name contains nameSubstring
	// and sorts last by name, i.e. the most recent one. It returns nil and no
	// error when nothing matches.
	FindLatest(ctx context.Context, folderID, nameSubstring string) (*Ref, error)

	// Download returns the full content of fileID.
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Ref identifies a remote archive.
type Ref struct {
	// ID is the backend-specific file identifier passed to Download.
	ID string
	// Name is the archive file name, <project>-<YYYYMMDD-HHMMSS>.tar.gz.
	Name string
}

// IsArchiveName reports whether name looks like a gdsync archive.
func IsArchiveName(name string) bool {
	return strings.HasSuffix(name, constants.ArchiveExtension)
}

// Latest selects the reference FindLatest must return among candidates:
// archives whose name contains nameSubstring, ordered by name descending,
// first one wins. Ties on name keep the earliest candidate.
func Latest(candidates []Ref, nameSubstring string) *Ref {
	matches := make([]Ref, 0, len(candidates))
	for _, c := range candidates {
		if IsArchiveName(c.Name) && strings.Contains(c.Name, nameSubstring) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Name > matches[j].Name
	})
	return &matches[0]
}
