package llm

import (
	"context"
	"fmt"
)

// MockClient is a deterministic Completer for local runs without an API key.
type MockClient struct {
	chunkSize int
}

// Ensure MockClient implements Completer.
var _ Completer = (*MockClient)(nil)

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{chunkSize: 10}
}

// Complete returns a canned reply echoing the last user turn.
func (m *MockClient) Complete(ctx context.Context, req *Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.reply(req), nil
}

// Stream delivers the canned reply in fixed-size rune chunks.
func (m *MockClient) Stream(ctx context.Context, req *Request, fn DeltaFunc) error {
	for _, chunk := range splitRunes(m.reply(req), m.chunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockClient) reply(req *Request) string {
	var last *Message
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = &req.Messages[i]
			break
		}
	}

	if last == nil {
		return "[MOCK] This is a mock response."
	}
	if len(last.Images) > 0 {
		return fmt.Sprintf("[MOCK] Received %d image(s) with prompt %q.", len(last.Images), truncate(last.Content, 100))
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(last.Content, 100))
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
