package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := NewClient("sk-test")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "first"},
		{Type: "text", Text: ""},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", resp.Text())

	assert.Empty(t, (*MessageResponse)(nil).Text())
	assert.Empty(t, (&MessageResponse{}).Text())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	assert.InDelta(t, 0.80+2.00, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.InDelta(t, 3.00+7.50, usage.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Zero(t, usage.EstimateCost("some-unknown-model"))
}

type countingClient struct{ calls int }

func (c *countingClient) CreateMessage(context.Context, MessageRequest) (*MessageResponse, error) {
	c.calls++
	return &MessageResponse{}, nil
}

func TestWithRateLimit(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, Client(inner), WithRateLimit(inner, 0), "non-positive limit is a no-op")

	limited := WithRateLimit(inner, 60)
	_, err := limited.CreateMessage(context.Background(), MessageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRateLimit_CancelledContext(t *testing.T) {
	inner := &countingClient{}
	// Burst of 1: the second call must wait, and the cancelled context
	// aborts the wait.
	limited := WithRateLimit(inner, 1)

	_, err := limited.CreateMessage(context.Background(), MessageRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.CreateMessage(ctx, MessageRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
