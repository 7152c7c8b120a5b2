package sentiment

import (
	"context"

	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/domain"
	"github.com/liliang-cn/chatrelay/internal/llm"
	"github.com/liliang-cn/chatrelay/internal/metrics"
)

const instruction = `Analyze the sentiment of the following text. Consider:
1. Context and tone: the overall emotional context
2. Sarcasm and irony: when the literal meaning differs from the intent
3. Mixed emotions: conflicting sentiments in the same text
4. Cultural context: cultural differences in expression
5. Politeness vs. actual sentiment: polite language is not the same as a positive sentiment

Respond with ONLY one word: 'positive', 'negative', or 'neutral'.
Be conservative - if unsure, choose 'neutral'.`

// Analyzer labels text with a sentiment.
type Analyzer interface {
	Analyze(ctx context.Context, text string) domain.Sentiment
}

// Annotator asks the model for a sentiment label and falls back to the
// keyword heuristic when the call fails.
type Annotator struct {
	completer llm.Completer
	logger    *zap.Logger
}

// Ensure Annotator implements Analyzer.
var _ Analyzer = (*Annotator)(nil)

// NewAnnotator creates a new annotator
func NewAnnotator(completer llm.Completer, logger *zap.Logger) *Annotator {
	return &Annotator{
		completer: completer,
		logger:    logger,
	}
}

// Analyze never fails: any error from the model, whatever its cause, is
// answered by Fallback.
func (a *Annotator) Analyze(ctx context.Context, text string) domain.Sentiment {
	reply, err := a.completer.Complete(ctx, llm.UserText(instruction, text))
	if err != nil {
		label := Fallback(text)
		a.logger.Warn("Sentiment call failed, using keyword fallback",
			zap.Error(err),
			zap.String("sentiment", string(label)),
		)
		metrics.SentimentTotal.WithLabelValues(metrics.SourceFallback, string(label)).Inc()
		return label
	}

	label, ok := domain.ParseSentiment(reply)
	if !ok {
		a.logger.Debug("Unexpected sentiment reply", zap.String("reply", reply))
	}
	metrics.SentimentTotal.WithLabelValues(metrics.SourceRemote, string(label)).Inc()
	return label
}
