package domain

import "time"

// Outbound frame types. FrameError frames carry no "type" field on the wire.
const (
	FrameError          = "error"
	FrameStreamingStart = "streaming_start"
	FrameStreamingChunk = "streaming_chunk"
	FrameStreamingEnd   = "streaming_end"
	FrameStreamingError = "streaming_error"
)

// ErrorFrame reports a client input problem
type ErrorFrame struct {
	Error string `json:"error"`
}

// StartFrame opens a reply
type StartFrame struct {
	Type      string  `json:"type"`
	Timestamp float64 `json:"timestamp"`
}

// ChunkFrame carries one incremental text delta
type ChunkFrame struct {
	Type       string  `json:"type"`
	Chunk      string  `json:"chunk"`
	ChunkIndex int     `json:"chunk_index"`
	Timestamp  float64 `json:"timestamp"`
}

// EndFrame closes a successful reply
type EndFrame struct {
	Type     string  `json:"type"`
	Response string  `json:"response"`
	Metrics  Metrics `json:"metrics"`
}

// StreamErrorFrame closes a failed reply
type StreamErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Timestamp converts t to fractional unix seconds
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
