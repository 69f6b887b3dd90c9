package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tvansteenburgh/charm-tools/pkg/storeapi"
)

func charmArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestCharmstoreFetcher(t *testing.T) {
	archive := charmArchive(t, map[string]string{
		"metadata.yaml": "name: foo\nsummary: test charm\n",
		"hooks/install": "#!/bin/sh\n",
		"README.md":     "# foo\n",
	})

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path != "/v5/~bob/trusty/foo/archive" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	}))
	defer srv.Close()

	f := &CharmstoreFetcher{
		Entity: "~bob/trusty/foo",
		Store:  storeapi.New(srv.URL+"/v5", srv.Client()),
		Log:    zaptest.NewLogger(t),
	}
	assert.Equal(t, "foo", f.Name())

	dir := t.TempDir()
	got, err := f.Fetch(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "/v5/~bob/trusty/foo/archive", gotPath)
	assert.Equal(t, filepath.Join(dir, "foo"), got)
	assert.FileExists(t, filepath.Join(got, "metadata.yaml"))
	assert.FileExists(t, filepath.Join(got, "hooks", "install"))
}

func TestCharmstoreFetcherNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := &CharmstoreFetcher{
		Entity: "missing",
		Store:  storeapi.New(srv.URL, srv.Client()),
		Log:    zaptest.NewLogger(t),
	}

	dir := t.TempDir()
	_, err := f.Fetch(context.Background(), dir)
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(statErr))
}
