package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.Equal(t, "settings.yaml", serve.Flags().Lookup("config").DefValue)
	assert.NotNil(t, serve.Flags().Lookup("reload"))

	testui, _, err := root.Find([]string{"testui"})
	require.NoError(t, err)
	assert.Equal(t, ":8001", testui.Flags().Lookup("listen").DefValue)
}

func TestServeFailsOnMissingSettings(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	root.SetOut(&discard{})
	root.SetErr(&discard{})

	err := root.Execute()
	assert.ErrorContains(t, err, "failed to open settings")
}

func TestTestUIServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>portal</h1>"), 0o644))

	e, err := newTestUIServer(dir)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portal")

	_, err = newTestUIServer(filepath.Join(dir, "index.html"))
	assert.Error(t, err)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
