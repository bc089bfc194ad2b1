package enhancehandler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawcollab/internal/enhance"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	svc, err := enhance.NewService(filepath.Join(dir, "img"), filepath.Join(dir, "enhanced"), "", "")
	require.NoError(t, err)

	r := gin.New()
	New(svc).Register(r)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSaveImageEndpoint(t *testing.T) {
	r := newTestRouter(t)

	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))
	w := postJSON(t, r, "/api/save-image", SaveImageRequest{ImageData: data})

	require.Equal(t, http.StatusOK, w.Code)
	var resp SaveImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Path, "/img/")
}

func TestSaveImageMissingData(t *testing.T) {
	r := newTestRouter(t)
	w := postJSON(t, r, "/api/save-image", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnhanceImageUnknownFile(t *testing.T) {
	r := newTestRouter(t)
	w := postJSON(t, r, "/api/enhance-image", EnhanceImageRequest{Filename: "ghost.png"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnhancementStatusUnknownID(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/enhancement-status/req_ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
