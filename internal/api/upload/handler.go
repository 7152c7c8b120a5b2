package upload

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/domain"
	"github.com/liliang-cn/chatrelay/internal/metrics"
	"github.com/liliang-cn/chatrelay/internal/service"
)

// Handler handles image upload requests
type Handler struct {
	imageService *service.ImageService
	logger       *zap.Logger
}

// NewHandler creates a new upload handler
func NewHandler(imageService *service.ImageService, logger *zap.Logger) *Handler {
	return &Handler{
		imageService: imageService,
		logger:       logger,
	}
}

// RegisterRoutes registers upload routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload-image", h.UploadImage)
}

// UploadImage analyzes one uploaded image. Analysis failures are reported in
// the body with status 200; only a request without a file is a 400.
func (h *Handler) UploadImage(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", uuid.New().String()))

	file, err := c.FormFile("file")
	if err != nil {
		log.Debug("Upload without file", zap.Error(err))
		metrics.ImageAnalysesTotal.WithLabelValues(metrics.ResultInputError).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.MsgNoFile})
		return
	}

	var message *string
	if m, ok := c.GetPostForm("message"); ok {
		message = &m
	}

	log.Info("Image upload received",
		zap.String("file_name", file.Filename),
		zap.Int64("size", file.Size),
		zap.String("content_type", file.Header.Get("Content-Type")),
	)

	result, err := h.imageService.AnalyzeUpload(c.Request.Context(), file, message)
	if err != nil {
		if domain.IsInput(err) {
			metrics.ImageAnalysesTotal.WithLabelValues(metrics.ResultInputError).Inc()
		} else {
			log.Error("Image analysis failed", zap.Error(err))
			metrics.ImageAnalysesTotal.WithLabelValues(metrics.ResultUpstreamError).Inc()
		}
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
