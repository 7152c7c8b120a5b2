package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/liliang-cn/chatrelay/internal/domain"
	"github.com/liliang-cn/chatrelay/internal/llm"
)

var errWriteClosed = errors.New("write: broken pipe")

// stubCompleter replays scripted deltas and replies
type stubCompleter struct {
	mu          sync.Mutex
	deltas      []string
	streamErr   error
	reply       string
	completeErr error

	streamCalls   int
	completeCalls int
	requests      []*llm.Request
}

func (s *stubCompleter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	s.mu.Lock()
	s.completeCalls++
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.reply, s.completeErr
}

func (s *stubCompleter) Stream(ctx context.Context, req *llm.Request, fn llm.DeltaFunc) error {
	s.mu.Lock()
	s.streamCalls++
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	for _, d := range s.deltas {
		if d == "" {
			continue
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return s.streamErr
}

// stubAnalyzer returns a fixed label and records its input
type stubAnalyzer struct {
	label domain.Sentiment
	texts []string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) domain.Sentiment {
	s.texts = append(s.texts, text)
	return s.label
}

// recordingWriter decodes every frame it is given. failAfter > 0 makes the
// write with that 1-based position and all later ones fail.
type recordingWriter struct {
	frames    []map[string]any
	failAfter int
	writes    int
}

func (w *recordingWriter) WriteJSON(v any) error {
	w.writes++
	if w.failAfter > 0 && w.writes >= w.failAfter {
		return errWriteClosed
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var frame map[string]any
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *recordingWriter) types() []string {
	out := make([]string, 0, len(w.frames))
	for _, f := range w.frames {
		t, _ := f["type"].(string)
		if t == "" {
			t = domain.FrameError
		}
		out = append(out, t)
	}
	return out
}
