package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/gitignore"
	"github.com/jenian/envsync/internal/reconcile"
	"github.com/jenian/envsync/internal/store"
)

func newTestRouter(m *store.Memory) http.Handler {
	return NewRouter(&Handler{
		Store:     m,
		Oracle:    gitignore.StaticOracle{},
		Logger:    zap.NewNop(),
		Namespace: "central",
	})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(store.NewMemory()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestScanEndpoint(t *testing.T) {
	tmpDir := t.TempDir()
	repo := filepath.Join(tmpDir, "repoA")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".env"), []byte("FOO=bar\n"), 0644))

	body, _ := json.Marshal(map[string]any{"path": tmpDir})
	rec := httptest.NewRecorder()
	newTestRouter(store.NewMemory()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var report reconcile.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Results, 1)
	assert.Equal(t, reconcile.StatusNew, report.Results[0].Status)
	assert.Equal(t, "repoA", report.Results[0].Repo)
}

func TestScanEndpointValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(store.NewMemory()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(store.NewMemory()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader([]byte(`not json`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEndpoint(t *testing.T) {
	m := store.NewMemory()
	m.Seed("central", "my-repo_prod_A",
		map[string]string{store.LabelFolder: "my-repo", store.LabelEnvironment: "prod"}, []byte("1"))
	m.Seed("central", "my-repo_B",
		map[string]string{store.LabelFolder: "my-repo"}, []byte("2"))

	rec := httptest.NewRecorder()
	newTestRouter(m).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/list", bytes.NewReader([]byte(`{}`))))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Folders []folderListing `json:"folders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Folders, 1)
	assert.Equal(t, "my-repo", resp.Folders[0].Folder)
	assert.Equal(t, []string{"prod"}, resp.Folders[0].Environments)
	assert.Equal(t, 2, resp.Folders[0].Secrets)
}
