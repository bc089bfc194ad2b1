package enhancehandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"drawcollab/internal/enhance"
)

type Handler struct {
	svc *enhance.Service
}

func New(svc *enhance.Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/api/save-image", h.saveImage)
	r.POST("/api/enhance-image", h.enhanceImage)
	r.GET("/api/enhancement-status/:id", h.enhancementStatus)
}

func (h *Handler) saveImage(c *gin.Context) {
	var req SaveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no image data provided"})
		return
	}

	filename, err := h.svc.SaveImage(req.ImageData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SaveImageResponse{
		Success:  true,
		Filename: filename,
		Path:     "/img/" + filename,
	})
}

func (h *Handler) enhanceImage(c *gin.Context) {
	var req EnhanceImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no filename provided"})
		return
	}

	requestID, err := h.svc.Enhance(req.Filename, req.Prompt)
	switch {
	case errors.Is(err, enhance.ErrBusy):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, enhance.ErrImageNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, EnhanceImageResponse{
		Success:   true,
		RequestID: requestID,
		Message:   "Enhancement started",
	})
}

func (h *Handler) enhancementStatus(c *gin.Context) {
	entry, ok := h.svc.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "request id not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
