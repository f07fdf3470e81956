package model

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/archon/core"
)

func TestResilientPassesThrough(t *testing.T) {
	mock := NewMock("m", "mock")
	mock.Enqueue(Result{Content: "hi"})

	r := NewResilient(mock)
	res, err := r.Chat(context.Background(), []core.Message{core.UserMessage("hello")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Content)
	assert.Equal(t, "m", r.Info().Name)
}

func TestResilientBreakerOpens(t *testing.T) {
	mock := NewMock("m", "mock")
	mock.FailWith(errors.New("backend down"))

	r := NewResilient(mock, func(o *ResilientOptions) {
		o.FailureThreshold = 3
	})

	ctx := context.Background()
	msgs := []core.Message{core.UserMessage("hello")}

	for i := 0; i < 3; i++ {
		_, err := r.Chat(ctx, msgs, Options{})
		require.Error(t, err)
	}

	// Breaker is open now; the underlying model is no longer called.
	before := mock.ChatCalls
	_, err := r.Chat(ctx, msgs, Options{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, mock.ChatCalls)
}

func TestResilientChatWithToolsRequiresFunctionCaller(t *testing.T) {
	type chatOnly struct{ Model }
	inner := chatOnly{NewMockWithoutTools("plain", "mock")}

	r := NewResilient(inner)
	_, err := r.ChatWithTools(context.Background(), nil, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support function calling")
}
