package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/liliang-cn/chatrelay/internal/api"
	"github.com/liliang-cn/chatrelay/internal/api/upload"
	"github.com/liliang-cn/chatrelay/internal/api/ws"
	"github.com/liliang-cn/chatrelay/internal/config"
	"github.com/liliang-cn/chatrelay/internal/llm"
	"github.com/liliang-cn/chatrelay/internal/metrics"
	"github.com/liliang-cn/chatrelay/internal/sentiment"
	"github.com/liliang-cn/chatrelay/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	// Upstream model client shared by every handler
	completer := llm.NewCompleter(cfg.LLM, logger.Named("llm"))
	annotator := sentiment.NewAnnotator(completer, logger.Named("sentiment"))

	// Initialize services
	chatService := service.NewChatService(cfg, completer, annotator, logger.Named("chat"))
	imageService := service.NewImageService(cfg, completer, annotator, logger.Named("image"))

	// Setup router
	router := api.SetupRouter(
		ws.NewHandler(chatService, cfg.WS, cfg.Server.AllowOrigins, logger.Named("ws")),
		upload.NewHandler(imageService, logger.Named("upload")),
		logger.Named("http"),
		api.RouterConfig{AllowOrigins: cfg.Server.AllowOrigins},
	)

	// No WriteTimeout: streamed replies outlive any fixed deadline
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("Starting chat relay",
			zap.String("address", cfg.Address()),
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
