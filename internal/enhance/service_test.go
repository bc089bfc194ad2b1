package enhance

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, apiURL string) *Service {
	t.Helper()
	dir := t.TempDir()
	svc, err := NewService(filepath.Join(dir, "img"), filepath.Join(dir, "enhanced"), apiURL, "test-key")
	require.NoError(t, err)
	return svc
}

func TestSaveImageDecodesDataURL(t *testing.T) {
	svc := newTestService(t, "")

	payload := []byte("not really a png")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	filename, err := svc.SaveImage(dataURL)
	require.NoError(t, err)
	assert.Contains(t, filename, "canvas-drawing-")

	written, err := os.ReadFile(filepath.Join(svc.imageDir, filename))
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestSaveImageRejectsEmpty(t *testing.T) {
	svc := newTestService(t, "")
	_, err := svc.SaveImage("")
	assert.ErrorIs(t, err, ErrNoImageData)
}

func TestEnhanceMissingFile(t *testing.T) {
	svc := newTestService(t, "http://unused")
	_, err := svc.Enhance("ghost.png", "")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func waitForDone(t *testing.T, svc *Service, requestID string) StatusEntry {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entry, ok := svc.Status(requestID)
		require.True(t, ok)
		if entry.Status != StatusProcessing {
			return entry
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("enhancement never finished")
	return StatusEntry{}
}

func TestEnhanceRoundTrip(t *testing.T) {
	enhanced := base64.StdEncoding.EncodeToString([]byte("enhanced png"))
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.ImageData)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(generationResponse{ImageData: enhanced})
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)
	filename, err := svc.SaveImage("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("sketch")))
	require.NoError(t, err)

	requestID, err := svc.Enhance(filename, "make it pop")
	require.NoError(t, err)

	entry := waitForDone(t, svc, requestID)
	require.Equal(t, StatusComplete, entry.Status)
	require.NotNil(t, entry.Result)
	assert.Equal(t, enhanced, entry.Result.Base64Data)
	assert.Equal(t, "make it pop", entry.Result.Prompt)

	_, err = os.Stat(filepath.Join(svc.enhancedDir, entry.Result.Filename))
	assert.NoError(t, err, "enhanced image written to disk")
}

func TestEnhanceUpstreamFailureSetsError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)
	filename, err := svc.SaveImage("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("sketch")))
	require.NoError(t, err)

	requestID, err := svc.Enhance(filename, "")
	require.NoError(t, err)

	entry := waitForDone(t, svc, requestID)
	assert.Equal(t, StatusError, entry.Status)
	assert.NotEmpty(t, entry.Message)
}

func TestEnhanceRejectsConcurrentRequests(t *testing.T) {
	blocked := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
		_ = json.NewEncoder(w).Encode(generationResponse{ImageData: base64.StdEncoding.EncodeToString([]byte("x"))})
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)
	filename, err := svc.SaveImage("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("sketch")))
	require.NoError(t, err)

	requestID, err := svc.Enhance(filename, "")
	require.NoError(t, err)

	_, err = svc.Enhance(filename, "")
	assert.ErrorIs(t, err, ErrBusy)

	close(blocked)
	waitForDone(t, svc, requestID)

	// Busy flag clears once the first request finishes.
	_, err = svc.Enhance(filename, "")
	assert.NoError(t, err)
}

func TestStatusUnknownRequest(t *testing.T) {
	svc := newTestService(t, "")
	_, ok := svc.Status("req_ghost")
	assert.False(t, ok)
}

func TestEnhanceNotConfigured(t *testing.T) {
	svc := newTestService(t, "")
	filename, err := svc.SaveImage("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("sketch")))
	require.NoError(t, err)

	requestID, err := svc.Enhance(filename, "")
	require.NoError(t, err)

	entry := waitForDone(t, svc, requestID)
	assert.Equal(t, StatusError, entry.Status)
	assert.Equal(t, ErrNotConfigured.Error(), entry.Message)
}
