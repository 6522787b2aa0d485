// Package drivecatalog implements catalog.Catalog on Google Drive (API v3).
package drivecatalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sgaunet/gdsync/pkg/catalog"
	"github.com/sgaunet/gdsync/pkg/constants"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ErrRateLimit is returned when waiting for the request limiter fails.
var ErrRateLimit = errors.New("rate limit wait failed")

// Catalog stores archives in the user's Google Drive.
type Catalog struct {
	srv     *drive.Service
	limiter *rate.Limiter
}

var _ catalog.Catalog = (*Catalog)(nil)

// New creates a Drive catalog using an authorized HTTP client.
// Extra client options, such as option.WithEndpoint, are applied last.
func New(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Catalog, error) {
	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Catalog{
		srv: srv,
		limiter: rate.NewLimiter(
			rate.Every(time.Second/constants.DriveRateLimitPerSecond),
			constants.DriveRateLimitBurst,
		),
	}, nil
}

func (c *Catalog) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRateLimit, err)
	}
	return nil
}

// FindOrCreateFolder returns the id of the first non-trashed folder called name,
// creating one at the Drive root when none exists.
func (c *Catalog) FindOrCreateFolder(ctx context.Context, name string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false",
		constants.DriveFolderMimeType, escapeQuery(name))
	list, err := c.srv.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search folder %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	if err := c.wait(ctx); err != nil {
		return "", err
	}
	folder, err := c.srv.Files.Create(&drive.File{
		Name:     name,
		MimeType: constants.DriveFolderMimeType,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return folder.Id, nil
}

// Upload creates fileName inside folderID with the content of r.
// Drive handles sizing itself, size is only informative here.
func (c *Catalog) Upload(ctx context.Context, folderID, fileName string, r io.Reader, _ int64) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	f, err := c.srv.Files.Create(&drive.File{
		Name:     fileName,
		MimeType: constants.ArchiveMimeType,
		Parents:  []string{folderID},
	}).Media(r).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileName, err)
	}
	return f.Id, nil
}

// FindLatest searches folderID for archives whose name contains nameSubstring,
// ordered by name descending, and returns the first one.
func (c *Catalog) FindLatest(ctx context.Context, folderID, nameSubstring string) (*catalog.Ref, error) {
	q := fmt.Sprintf("mimeType='%s' and name contains '%s' and '%s' in parents and trashed=false",
		constants.ArchiveMimeType, escapeQuery(nameSubstring), escapeQuery(folderID))

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var refs []catalog.Ref
	call := c.srv.Files.List().
		Q(q).
		OrderBy("name desc").
		Corpora("user").
		PageSize(constants.DriveListPageSize).
		Fields("nextPageToken, files(id, name)")
	err := call.Pages(ctx, func(page *drive.FileList) error {
		// Throttle the request for the next page.
		if page.NextPageToken != "" {
			if err := c.wait(ctx); err != nil {
				return err
			}
		}
		for _, f := range page.Files {
			refs = append(refs, catalog.Ref{ID: f.Id, Name: f.Name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list archives of %s: %w", nameSubstring, err)
	}
	return catalog.Latest(refs, nameSubstring), nil
}

// Download fetches the content of fileID.
func (c *Catalog) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileID, err)
	}
	return data, nil
}

// escapeQuery escapes a value embedded in a single-quoted Drive query literal.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
