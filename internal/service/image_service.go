package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/config"
	"github.com/liliang-cn/chatrelay/internal/domain"
	"github.com/liliang-cn/chatrelay/internal/llm"
	"github.com/liliang-cn/chatrelay/internal/metrics"
	"github.com/liliang-cn/chatrelay/internal/sentiment"
)

const (
	defaultImagePrompt = "Please analyze the image and provide a detailed description of its content."
	userImageDirective = " \n\n please analyze the image and respond to the user's request."
)

// ImageService runs one-shot image analysis
type ImageService struct {
	completer   llm.Completer
	sentiment   sentiment.Analyzer
	maxFileSize int64
	logger      *zap.Logger
}

// NewImageService creates a new image service
func NewImageService(
	cfg *config.Config,
	completer llm.Completer,
	analyzer sentiment.Analyzer,
	logger *zap.Logger,
) *ImageService {
	return &ImageService{
		completer:   completer,
		sentiment:   analyzer,
		maxFileSize: cfg.Upload.MaxFileSize,
		logger:      logger,
	}
}

// AnalyzeUpload reads an uploaded multipart file and analyzes it
func (s *ImageService) AnalyzeUpload(ctx context.Context, file *multipart.FileHeader, message *string) (*domain.ImageAnalysis, error) {
	start := time.Now()

	if file.Size > s.maxFileSize {
		return nil, &domain.InputError{Reason: domain.MsgFileTooLarge}
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, &domain.InputError{Reason: domain.MsgFileTooLarge}
	}

	return s.Analyze(ctx, &domain.ImageUpload{
		Data:        data,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Message:     message,
		ReceivedAt:  start,
	})
}

// Analyze sends the image and prompt to the model and annotates the reply.
// Unsupported content types are rejected before any model call.
func (s *ImageService) Analyze(ctx context.Context, upload *domain.ImageUpload) (*domain.ImageAnalysis, error) {
	start := upload.ReceivedAt
	if start.IsZero() {
		start = time.Now()
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(upload.Data).String()
		s.logger.Debug("Detected content type", zap.String("content_type", contentType))
	}
	if !domain.SupportedImageTypes[contentType] {
		return nil, domain.ErrUnsupportedFileType
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(upload.Data))

	analysis, err := s.completer.Complete(ctx, &llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: imagePrompt(upload.Message),
			Images:  []string{dataURL},
		}},
	})
	if err != nil {
		return nil, &domain.UpstreamError{Op: "image analysis", Err: err}
	}

	label := s.sentiment.Analyze(ctx, analysis)
	metrics.ImageAnalysesTotal.WithLabelValues(metrics.ResultCompleted).Inc()

	return &domain.ImageAnalysis{
		Success:     true,
		Analysis:    analysis,
		FileName:    upload.FileName,
		ContentType: contentType,
		UserMessage: upload.Message,
		Metrics:     domain.NewMetrics(analysis, time.Since(start), label),
	}, nil
}

func imagePrompt(message *string) string {
	if message != nil {
		if m := strings.TrimSpace(*message); m != "" {
			return m + userImageDirective
		}
	}
	return defaultImagePrompt
}
