package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCompleter(t *testing.T) {
	t.Run("scripted responses in order", func(t *testing.T) {
		m := NewMockCompleter("first", "second")

		resp, err := m.Complete(context.Background(), []Message{UserMessage("hi")})
		require.NoError(t, err)
		assert.Equal(t, "first", resp)

		resp, err = m.Complete(context.Background(), []Message{UserMessage("hi")})
		require.NoError(t, err)
		assert.Equal(t, "second", resp)

		assert.Equal(t, 2, m.Calls())
	})

	t.Run("exhausted script echoes", func(t *testing.T) {
		m := NewMockCompleter()

		resp, err := m.Complete(context.Background(), []Message{UserMessage("ping")})
		require.NoError(t, err)
		assert.Contains(t, resp, "ping")
	})

	t.Run("records requests", func(t *testing.T) {
		m := NewMockCompleter("ok")

		_, err := m.Complete(context.Background(), []Message{SystemMessage("rules"), UserMessage("go")})
		require.NoError(t, err)

		recorded := m.Recorded()
		require.Len(t, recorded, 1)
		assert.Equal(t, RoleSystem, recorded[0][0].Role)
	})

	t.Run("failure mode", func(t *testing.T) {
		m := NewMockCompleter("never returned")
		m.FailWith(errors.New("quota exceeded"))

		_, err := m.Complete(context.Background(), []Message{UserMessage("hi")})
		assert.Error(t, err)
	})
}

func TestCompleterFunc(t *testing.T) {
	f := CompleterFunc(func(_ context.Context, _ []Message) (string, error) {
		return "done", nil
	})

	resp, err := f.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", resp)
}
