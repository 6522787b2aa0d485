package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sgaunet/gdsync/pkg/catalog"
	"github.com/sgaunet/gdsync/pkg/catalog/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy(t *testing.T) {
	newMock := func() *mocks.CatalogMock {
		return &mocks.CatalogMock{
			FindOrCreateFolderFunc: func(_ context.Context, name string) (string, error) {
				return "id-" + name, nil
			},
			UploadFunc: func(_ context.Context, folderID, fileName string, _ io.Reader, _ int64) (string, error) {
				return folderID + "/" + fileName, nil
			},
			FindLatestFunc: func(_ context.Context, _, _ string) (*catalog.Ref, error) {
				return &catalog.Ref{ID: "f1", Name: "proj-20240101-000000.tar.gz"}, nil
			},
			DownloadFunc: func(_ context.Context, _ string) ([]byte, error) {
				return []byte("data"), nil
			},
		}
	}

	t.Run("UnusedNeverConnects", func(t *testing.T) {
		calls := 0
		_ = catalog.Lazy(func(context.Context) (catalog.Catalog, error) {
			calls++
			return newMock(), nil
		})
		assert.Zero(t, calls)
	})

	t.Run("ConnectsOnce", func(t *testing.T) {
		ctx := context.Background()
		calls := 0
		m := newMock()
		c := catalog.Lazy(func(context.Context) (catalog.Catalog, error) {
			calls++
			return m, nil
		})

		folderID, err := c.FindOrCreateFolder(ctx, "projects")
		require.NoError(t, err)
		assert.Equal(t, "id-projects", folderID)

		fileID, err := c.Upload(ctx, folderID, "a.tar.gz", bytes.NewReader(nil), 0)
		require.NoError(t, err)
		assert.Equal(t, "id-projects/a.tar.gz", fileID)

		ref, err := c.FindLatest(ctx, folderID, "proj")
		require.NoError(t, err)
		require.NotNil(t, ref)

		data, err := c.Download(ctx, ref.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), data)

		assert.Equal(t, 1, calls)
		assert.Len(t, m.FindOrCreateFolderCalls(), 1)
		assert.Len(t, m.DownloadCalls(), 1)
	})

	t.Run("RetriesAfterConnectError", func(t *testing.T) {
		ctx := context.Background()
		errConnect := errors.New("no credentials")
		calls := 0
		c := catalog.Lazy(func(context.Context) (catalog.Catalog, error) {
			calls++
			if calls == 1 {
				return nil, errConnect
			}
			return newMock(), nil
		})

		_, err := c.FindOrCreateFolder(ctx, "projects")
		require.ErrorIs(t, err, errConnect)

		_, err = c.FindLatest(ctx, "id-projects", "proj")
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}
