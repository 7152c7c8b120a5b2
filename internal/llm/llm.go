// Package llm provides the upstream chat completion capability used by the relay.
package llm

import "context"

// Message roles
const (
	RoleDeveloper = "developer"
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. Images holds data or http(s) URLs attached to a
// user turn.
type Message struct {
	Role    string
	Content string
	Images  []string
}

// Request is a chat completion request. Model tuning such as the token limit
// and reasoning effort is owned by the Completer implementation.
type Request struct {
	Messages []Message
}

// DeltaFunc receives each non-empty text delta of a streaming completion.
// Returning an error stops the stream and that error is returned as is.
type DeltaFunc func(delta string) error

// Completer performs chat completions against the model API.
type Completer interface {
	// Complete sends a non-streaming request and returns the reply text.
	Complete(ctx context.Context, req *Request) (string, error)

	// Stream sends a streaming request and calls fn for every text delta in
	// the order they arrive.
	Stream(ctx context.Context, req *Request, fn DeltaFunc) error
}

// UserText builds a request with an optional developer instruction followed
// by a single user turn.
func UserText(instruction, text string) *Request {
	req := &Request{}
	if instruction != "" {
		req.Messages = append(req.Messages, Message{Role: RoleDeveloper, Content: instruction})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: text})
	return req
}
