package catalog

import (
	"context"
	"io"
	"sync"
)

// Connector builds a Catalog, typically by authenticating against a remote.
type Connector func(ctx context.Context) (Catalog, error)

// Lazy returns a Catalog that calls connect on first use only.
// A failed connection is not cached: the next call tries again.
func Lazy(connect Connector) Catalog {
	return &lazyCatalog{connect: connect}
}

type lazyCatalog struct {
	mu      sync.Mutex
	connect Connector
	c       Catalog
}

func (l *lazyCatalog) get(ctx context.Context) (Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c != nil {
		return l.c, nil
	}
	c, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}
	l.c = c
	return c, nil
}

func (l *lazyCatalog) FindOrCreateFolder(ctx context.Context, name string) (string, error) {
	c, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return c.FindOrCreateFolder(ctx, name)
}

func (l *lazyCatalog) Upload(ctx context.Context, folderID, fileName string, r io.Reader, size int64) (string, error) {
	c, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return c.Upload(ctx, folderID, fileName, r, size)
}

func (l *lazyCatalog) FindLatest(ctx context.Context, folderID, nameSubstring string) (*Ref, error) {
	c, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.FindLatest(ctx, folderID, nameSubstring)
}

func (l *lazyCatalog) Download(ctx context.Context, fileID string) ([]byte, error) {
	c, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, fileID)
}
