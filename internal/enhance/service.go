package enhance

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

var (
	ErrBusy          = errors.New("another enhancement is already in progress")
	ErrNotConfigured = errors.New("enhance API is not configured")
	ErrImageNotFound = errors.New("image file not found")
	ErrNoImageData   = errors.New("no image data provided")
)

// Result describes a finished enhancement, mirroring what the browser
// expects from the polling endpoint.
type Result struct {
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	Base64Data string `json:"base64Data"`
	Prompt     string `json:"prompt"`
}

type StatusEntry struct {
	Status  Status  `json:"status"`
	Message string  `json:"message,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// Service saves canvas snapshots and forwards them to a third-party image
// generation API, tracking each request in an in-memory status map the
// client polls. One enhancement runs at a time.
type Service struct {
	imageDir    string
	enhancedDir string
	apiURL      string
	apiKey      string
	client      *http.Client

	mu     sync.Mutex
	status map[string]StatusEntry
	busy   bool
}

func NewService(imageDir, enhancedDir, apiURL, apiKey string) (*Service, error) {
	for _, dir := range []string{imageDir, enhancedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return &Service{
		imageDir:    imageDir,
		enhancedDir: enhancedDir,
		apiURL:      apiURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 90 * time.Second},
		status:      make(map[string]StatusEntry),
	}, nil
}

// SaveImage decodes a base64 data URL and writes it under the image dir,
// returning the generated filename.
func (s *Service) SaveImage(dataURL string) (string, error) {
	if dataURL == "" {
		return "", ErrNoImageData
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/png;base64,"))
	if err != nil {
		return "", fmt.Errorf("decode image data: %w", err)
	}

	filename := fmt.Sprintf("canvas-drawing-%s.png", time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(s.imageDir, filename), raw, 0o644); err != nil {
		return "", err
	}
	zap.L().Info("image_saved", zap.String("filename", filename))
	return filename, nil
}

// Enhance starts a background enhancement of a previously saved image and
// returns a request id for status polling. Rejects while another request
// is in flight.
func (s *Service) Enhance(filename, prompt string) (string, error) {
	path := filepath.Join(s.imageDir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return "", ErrImageNotFound
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.busy = true
	requestID := fmt.Sprintf("req_%d", time.Now().UnixNano())
	s.status[requestID] = StatusEntry{Status: StatusProcessing}
	s.mu.Unlock()

	go s.process(requestID, path, prompt)
	return requestID, nil
}

func (s *Service) Status(requestID string) (StatusEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.status[requestID]
	return entry, ok
}

func (s *Service) setStatus(requestID string, entry StatusEntry) {
	s.mu.Lock()
	s.status[requestID] = entry
	s.busy = false
	s.mu.Unlock()
}

type generationRequest struct {
	Prompt    string `json:"prompt"`
	ImageData string `json:"imageData"`
}

type generationResponse struct {
	ImageData string `json:"imageData"`
	Message   string `json:"message,omitempty"`
}

func (s *Service) process(requestID, path, prompt string) {
	if prompt == "" {
		prompt = "Enhance this sketch into an image with more detail."
	}

	result, err := s.callUpstream(path, prompt)
	if err != nil {
		zap.L().Warn("enhance_failed", zap.String("request_id", requestID), zap.Error(err))
		s.setStatus(requestID, StatusEntry{Status: StatusError, Message: err.Error()})
		return
	}
	zap.L().Info("enhance_complete",
		zap.String("request_id", requestID),
		zap.String("filename", result.Filename))
	s.setStatus(requestID, StatusEntry{Status: StatusComplete, Result: result})
}

func (s *Service) callUpstream(path, prompt string) (*Result, error) {
	if s.apiURL == "" {
		return nil, ErrNotConfigured
	}

	img, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(generationRequest{
		Prompt:    prompt,
		ImageData: base64.StdEncoding.EncodeToString(img),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API returned %s", resp.Status)
	}

	var gen generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, err
	}
	if gen.ImageData == "" {
		return nil, fmt.Errorf("no enhanced image in response: %s", gen.Message)
	}
	enhanced, err := base64.StdEncoding.DecodeString(gen.ImageData)
	if err != nil {
		return nil, fmt.Errorf("decode enhanced image: %w", err)
	}

	filename := fmt.Sprintf("enhanced_%s.png", time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(s.enhancedDir, filename), enhanced, 0o644); err != nil {
		return nil, err
	}

	return &Result{
		Filename:   filename,
		Path:       "/enhanced_drawings/" + filename,
		Base64Data: gen.ImageData,
		Prompt:     prompt,
	}, nil
}
