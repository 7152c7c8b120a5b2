package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/config"
	"github.com/liliang-cn/chatrelay/internal/domain"
	"github.com/liliang-cn/chatrelay/internal/llm"
	"github.com/liliang-cn/chatrelay/internal/metrics"
	"github.com/liliang-cn/chatrelay/internal/sentiment"
)

// FrameWriter sends one JSON frame to the client
type FrameWriter interface {
	WriteJSON(v any) error
}

// ChatService relays chat messages to the model and streams the reply back
type ChatService struct {
	completer    llm.Completer
	sentiment    sentiment.Analyzer
	systemPrompt string
	chunkYield   time.Duration
	logger       *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	cfg *config.Config,
	completer llm.Completer,
	analyzer sentiment.Analyzer,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		completer:    completer,
		sentiment:    analyzer,
		systemPrompt: cfg.LLM.SystemPrompt,
		chunkYield:   cfg.WS.ChunkYield,
		logger:       logger,
	}
}

// Conversation binds the service to one client connection. Frames of a
// conversation are handled one at a time by the caller.
type Conversation struct {
	svc    *ChatService
	w      FrameWriter
	logger *zap.Logger
}

// NewConversation starts a conversation writing to w
func (s *ChatService) NewConversation(w FrameWriter, logger *zap.Logger) *Conversation {
	return &Conversation{svc: s, w: w, logger: logger}
}

// HandleFrame processes one inbound frame through to its last outbound
// frame. Only a *domain.TransportError is returned; input and upstream
// failures are reported to the client and yield nil.
func (c *Conversation) HandleFrame(ctx context.Context, data []byte) error {
	received := time.Now()

	var msg domain.IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("Rejecting malformed frame", zap.Error(err))
		return c.reject(domain.ErrInvalidJSON)
	}
	if msg.Message == "" {
		return c.reject(domain.ErrEmptyMessage)
	}

	c.logger.Info("Received message",
		zap.Int("length", len(msg.Message)),
		zap.Bool("stream", msg.Streaming()),
	)

	err := c.reply(ctx, &msg, received)
	metrics.ReplyDurationSeconds.Observe(time.Since(received).Seconds())
	return err
}

func (c *Conversation) reply(ctx context.Context, msg *domain.IncomingMessage, start time.Time) error {
	if err := c.send(domain.FrameStreamingStart, domain.StartFrame{
		Type:      domain.FrameStreamingStart,
		Timestamp: domain.Timestamp(time.Now()),
	}); err != nil {
		return c.transportFailed(err)
	}

	session := &streamSession{conv: c}
	req := c.svc.chatRequest(msg.Message)

	var err error
	if msg.Streaming() {
		err = c.svc.completer.Stream(ctx, req, session.push)
	} else {
		var text string
		text, err = c.svc.completer.Complete(ctx, req)
		if err == nil {
			err = session.push(text)
		}
	}

	if err != nil {
		if domain.IsTransport(err) {
			return c.transportFailed(err)
		}

		upstream := &domain.UpstreamError{Op: "chat completion", Err: err}
		c.logger.Error("Streaming reply failed",
			zap.Error(upstream),
			zap.Int("chunks_sent", session.chunks),
		)
		metrics.RepliesTotal.WithLabelValues(metrics.ResultUpstreamError).Inc()

		if err := c.send(domain.FrameStreamingError, domain.StreamErrorFrame{
			Type:  domain.FrameStreamingError,
			Error: upstream.Error(),
		}); err != nil {
			return c.transportFailed(err)
		}
		return nil
	}

	text := session.text.String()
	label := c.svc.sentiment.Analyze(ctx, text)

	if err := c.send(domain.FrameStreamingEnd, domain.EndFrame{
		Type:     domain.FrameStreamingEnd,
		Response: text,
		Metrics:  domain.NewMetrics(text, time.Since(start), label),
	}); err != nil {
		return c.transportFailed(err)
	}

	c.logger.Info("Reply completed",
		zap.Int("chunks", session.chunks),
		zap.Int("length", len(text)),
		zap.String("sentiment", string(label)),
	)
	metrics.RepliesTotal.WithLabelValues(metrics.ResultCompleted).Inc()
	return nil
}

func (c *Conversation) reject(inputErr *domain.InputError) error {
	metrics.RepliesTotal.WithLabelValues(metrics.ResultInputError).Inc()
	if err := c.send(domain.FrameError, domain.ErrorFrame{Error: inputErr.Reason}); err != nil {
		return c.transportFailed(err)
	}
	return nil
}

func (c *Conversation) send(frameType string, frame any) error {
	if err := c.w.WriteJSON(frame); err != nil {
		return &domain.TransportError{Err: err}
	}
	metrics.FramesSentTotal.WithLabelValues(frameType).Inc()
	return nil
}

func (c *Conversation) transportFailed(err error) error {
	c.logger.Info("Client connection lost during reply", zap.Error(err))
	metrics.RepliesTotal.WithLabelValues(metrics.ResultTransportError).Inc()
	return err
}

func (s *ChatService) chatRequest(message string) *llm.Request {
	return llm.UserText(s.systemPrompt, message)
}

// streamSession accumulates one reply and numbers its chunks from 1
type streamSession struct {
	conv   *Conversation
	text   strings.Builder
	chunks int
}

func (ss *streamSession) push(delta string) error {
	if delta == "" {
		return nil
	}

	ss.chunks++
	ss.text.WriteString(delta)

	if err := ss.conv.send(domain.FrameStreamingChunk, domain.ChunkFrame{
		Type:       domain.FrameStreamingChunk,
		Chunk:      delta,
		ChunkIndex: ss.chunks,
		Timestamp:  domain.Timestamp(time.Now()),
	}); err != nil {
		return err
	}

	if yield := ss.conv.svc.chunkYield; yield > 0 {
		time.Sleep(yield)
	}
	return nil
}
