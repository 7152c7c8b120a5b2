package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Sentiment is the emotional tone label attached to a generated response
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment normalizes a raw label. The second return value is false
// when the input is not one of the three known labels.
func ParseSentiment(raw string) (Sentiment, bool) {
	switch s := Sentiment(strings.ToLower(strings.TrimSpace(raw))); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s, true
	default:
		return SentimentNeutral, false
	}
}

// IncomingMessage is the inbound WebSocket frame
type IncomingMessage struct {
	Message string `json:"message"`
	Stream  *bool  `json:"stream,omitempty"`
}

// UnmarshalJSON accepts any JSON object. A non-string message decodes as
// empty and a non-boolean stream is ignored; only malformed JSON or a
// non-object frame is an error.
func (m *IncomingMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message json.RawMessage `json:"message"`
		Stream  json.RawMessage `json:"stream"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = IncomingMessage{}
	if len(raw.Message) > 0 {
		var message string
		if json.Unmarshal(raw.Message, &message) == nil {
			m.Message = message
		}
	}
	if len(raw.Stream) > 0 {
		var stream *bool
		if json.Unmarshal(raw.Stream, &stream) == nil {
			m.Stream = stream
		}
	}
	return nil
}

// Streaming reports whether the client asked for a streamed reply (default true)
func (m *IncomingMessage) Streaming() bool {
	return m.Stream == nil || *m.Stream
}

// Metrics describes a completed response
type Metrics struct {
	ResponseTimeMs float64   `json:"response_time_ms"`
	ResponseLength int       `json:"response_length"`
	WordCount      int       `json:"word_count"`
	Sentiment      Sentiment `json:"sentiment"`
}

// NewMetrics computes response metrics for text produced in elapsed time
func NewMetrics(text string, elapsed time.Duration, sentiment Sentiment) Metrics {
	ms := float64(elapsed) / float64(time.Millisecond)
	return Metrics{
		ResponseTimeMs: math.Round(ms*100) / 100,
		ResponseLength: utf8.RuneCountInString(text),
		WordCount:      len(strings.Fields(text)),
		Sentiment:      sentiment,
	}
}
