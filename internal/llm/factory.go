package llm

import (
	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/config"
)

// NewCompleter builds the Completer selected by cfg.Provider.
func NewCompleter(cfg config.LLMConfig, logger *zap.Logger) Completer {
	if cfg.Provider == config.ProviderMock {
		logger.Warn("Using mock LLM client")
		return NewMockClient()
	}

	logger.Info("Using OpenAI-compatible LLM client",
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL),
		zap.Int64("max_completion_tokens", cfg.MaxCompletionTokens),
		zap.String("reasoning_effort", cfg.ReasoningEffort),
	)
	return NewClient(cfg)
}
