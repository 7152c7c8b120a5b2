package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientStreamMatchesComplete(t *testing.T) {
	m := NewMockClient()
	req := UserText("ignored", "héllo wörld, how are you today?")

	full, err := m.Complete(context.Background(), req)
	require.NoError(t, err)

	var sb strings.Builder
	var n int
	err = m.Stream(context.Background(), req, func(delta string) error {
		n++
		assert.NotEmpty(t, delta)
		sb.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, full, sb.String())
	assert.Greater(t, n, 1)
}

func TestMockClientImageReply(t *testing.T) {
	m := NewMockClient()
	reply, err := m.Complete(context.Background(), &Request{Messages: []Message{{
		Role: RoleUser, Content: "what is this", Images: []string{"data:image/png;base64,AA"},
	}}})
	require.NoError(t, err)
	assert.Contains(t, reply, "1 image(s)")
}

func TestMockClientCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockClient().Complete(ctx, UserText("", "hi"))
	assert.ErrorIs(t, err, context.Canceled)
}
