package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liliang-cn/chatrelay/internal/config"
	"github.com/liliang-cn/chatrelay/internal/domain"
	"github.com/liliang-cn/chatrelay/internal/llm"
	"github.com/liliang-cn/chatrelay/internal/sentiment"
	"github.com/liliang-cn/chatrelay/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	return newTestServerWithConfig(t, config.WSConfig{ReadLimit: 64 * 1024, WriteTimeout: 5 * time.Second})
}

func newTestServerWithConfig(t *testing.T, wsCfg config.WSConfig) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	cfg := &config.Config{
		LLM: config.LLMConfig{SystemPrompt: "You are a helpful assistant"},
		WS:  wsCfg,
	}
	completer := llm.NewMockClient()
	chat := service.NewChatService(cfg, completer, sentiment.NewAnnotator(completer, logger), logger)

	r := gin.New()
	NewHandler(chat, cfg.WS, []string{"*"}, logger).RegisterRoutes(r.Group("/api/v1"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readReply collects frames up to and including streaming_end or streaming_error
func readReply(t *testing.T, conn *websocket.Conn) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for {
		f := readFrame(t, conn)
		frames = append(frames, f)
		if f["type"] == domain.FrameStreamingEnd || f["type"] == domain.FrameStreamingError {
			return frames
		}
	}
}

func TestServeStreamsReply(t *testing.T) {
	conn := dial(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(map[string]any{"message": "hi"}))
	frames := readReply(t, conn)

	require.GreaterOrEqual(t, len(frames), 3)
	assert.Equal(t, domain.FrameStreamingStart, frames[0]["type"])

	var joined strings.Builder
	chunks := frames[1 : len(frames)-1]
	for i, f := range chunks {
		assert.Equal(t, domain.FrameStreamingChunk, f["type"])
		assert.EqualValues(t, i+1, f["chunk_index"])
		joined.WriteString(f["chunk"].(string))
	}

	end := frames[len(frames)-1]
	require.Equal(t, domain.FrameStreamingEnd, end["type"])
	assert.Equal(t, joined.String(), end["response"])
	assert.Contains(t, end["response"], `"hi"`)

	m := end["metrics"].(map[string]any)
	assert.Equal(t, "neutral", m["sentiment"])
	assert.EqualValues(t, len([]rune(joined.String())), m["response_length"])
}

func TestServeMalformedFrameKeepsConnection(t *testing.T) {
	conn := dial(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame := readFrame(t, conn)
	assert.Equal(t, map[string]any{"error": "Invalid JSON format"}, frame)

	require.NoError(t, conn.WriteJSON(map[string]any{"message": ""}))
	frame = readFrame(t, conn)
	assert.Equal(t, map[string]any{"error": "No message provided"}, frame)

	require.NoError(t, conn.WriteJSON(map[string]any{"message": "still there?"}))
	frames := readReply(t, conn)
	assert.Equal(t, domain.FrameStreamingEnd, frames[len(frames)-1]["type"])
}

func TestServeNonStreaming(t *testing.T) {
	conn := dial(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(map[string]any{"message": "hi", "stream": false}))
	frames := readReply(t, conn)

	require.Len(t, frames, 3)
	assert.Equal(t, domain.FrameStreamingStart, frames[0]["type"])
	assert.Equal(t, domain.FrameStreamingChunk, frames[1]["type"])
	assert.EqualValues(t, 1, frames[1]["chunk_index"])
	assert.Equal(t, frames[1]["chunk"], frames[2]["response"])
}

func TestServeRestartsChunkIndexPerMessage(t *testing.T) {
	conn := dial(t, newTestServer(t))

	for range 2 {
		require.NoError(t, conn.WriteJSON(map[string]any{"message": "again"}))
		frames := readReply(t, conn)
		assert.EqualValues(t, 1, frames[1]["chunk_index"])
	}
}

func TestServeKeepAliveOnIdleConnection(t *testing.T) {
	tests := []struct {
		name         string
		writeTimeout time.Duration
	}{
		{"no write timeout", 0},
		{"with write timeout", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServerWithConfig(t, config.WSConfig{
				PingInterval: 50 * time.Millisecond,
				WriteTimeout: tt.writeTimeout,
			})
			conn := dial(t, srv)

			var pings atomic.Int32
			conn.SetPingHandler(func(data string) error {
				pings.Add(1)
				return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
			})

			time.Sleep(200 * time.Millisecond)

			require.NoError(t, conn.WriteJSON(map[string]any{"message": "hi"}))
			frames := readReply(t, conn)

			assert.Equal(t, domain.FrameStreamingEnd, frames[len(frames)-1]["type"])
			assert.Positive(t, pings.Load())
		})
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allow   []string
		origin  string
		allowed bool
	}{
		{"no origin header", []string{"http://a.example"}, "", true},
		{"wildcard", []string{"*"}, "http://any.example", true},
		{"listed", []string{"http://a.example", "http://b.example"}, "http://b.example", true},
		{"unlisted", []string{"http://a.example"}, "http://evil.example", false},
		{"empty list", nil, "http://a.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.allowed, checkOrigin(tt.allow)(req))
		})
	}
}
