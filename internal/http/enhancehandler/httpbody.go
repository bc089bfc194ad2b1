package enhancehandler

type SaveImageRequest struct {
	ImageData string `json:"imageData" binding:"required"`
}

type SaveImageResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type EnhanceImageRequest struct {
	Filename string `json:"filename" binding:"required"`
	Prompt   string `json:"prompt"`
}

type EnhanceImageResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
