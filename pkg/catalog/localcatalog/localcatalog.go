// Package localcatalog implements catalog.Catalog on a local directory.
// Each remote folder is a subdirectory and file ids are slash-separated
// paths relative to the root. It suits mounted network shares and tests.
package localcatalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sgaunet/gdsync/pkg/catalog"
	"github.com/sgaunet/gdsync/pkg/constants"
	"github.com/sgaunet/gdsync/pkg/storage/localstorage"
)

// ErrInvalidID is returned for folder names or file ids that would leave the root.
var ErrInvalidID = errors.New("invalid local catalog identifier")

// Catalog stores archives below a root directory.
type Catalog struct {
	root string
}

var _ catalog.Catalog = (*Catalog)(nil)

// New returns a catalog rooted at root. The directory is created on first use.
func New(root string) *Catalog {
	return &Catalog{root: root}
}

// FindOrCreateFolder creates root/name when missing and returns name as the folder id.
func (c *Catalog) FindOrCreateFolder(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("operation cancelled: %w", err)
	}
	if !validSegment(name) {
		return "", fmt.Errorf("%w: folder %q", ErrInvalidID, name)
	}
	dir := filepath.Join(c.root, name)
	if err := os.MkdirAll(dir, constants.DefaultDirPermission); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", dir, err)
	}
	return name, nil
}

// Upload saves r as folderID/fileName.
func (c *Catalog) Upload(ctx context.Context, folderID, fileName string, r io.Reader, size int64) (string, error) {
	if !validSegment(folderID) || !validSegment(fileName) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidID, folderID, fileName)
	}
	store := localstorage.NewLocalStorage(filepath.Join(c.root, folderID))
	if err := store.SaveFile(ctx, r, fileName, size); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileName, err)
	}
	return path.Join(folderID, fileName), nil
}

// FindLatest lists folderID and returns the most recent matching archive.
func (c *Catalog) FindLatest(ctx context.Context, folderID, nameSubstring string) (*catalog.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("operation cancelled: %w", err)
	}
	if !validSegment(folderID) {
		return nil, fmt.Errorf("%w: folder %q", ErrInvalidID, folderID)
	}
	entries, err := os.ReadDir(filepath.Join(c.root, folderID))
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}

	refs := make([]catalog.Ref, 0, len(entries))
	for _, e := range entries {
		// Skip in-flight temporary files and anything that is not a plain file.
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		refs = append(refs, catalog.Ref{ID: path.Join(folderID, e.Name()), Name: e.Name()})
	}
	return catalog.Latest(refs, nameSubstring), nil
}

// Download reads the file identified by fileID.
func (c *Catalog) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("operation cancelled: %w", err)
	}
	folderID, fileName, ok := strings.Cut(fileID, "/")
	if !ok || !validSegment(folderID) || !validSegment(fileName) {
		return nil, fmt.Errorf("%w: file %q", ErrInvalidID, fileID)
	}
	//nolint:gosec // G304: fileID is checked to stay below the catalog root
	data, err := os.ReadFile(filepath.Join(c.root, folderID, fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	return data, nil
}

// validSegment reports whether s is a single path element.
func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
