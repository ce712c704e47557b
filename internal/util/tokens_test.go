package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenCounter(t *testing.T) {
	t.Run("default encoding", func(t *testing.T) {
		tc, err := NewTokenCounter("")
		require.NoError(t, err)
		assert.Equal(t, DefaultEncoding, tc.Name())
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := NewTokenCounter("definitely-not-an-encoding")
		assert.Error(t, err)
	})

	t.Run("counts increase with text length", func(t *testing.T) {
		tc, err := NewTokenCounter(DefaultEncoding)
		require.NoError(t, err)

		short := tc.Count("hello")
		long := tc.Count("hello world, this is a longer piece of text")
		assert.Greater(t, long, short)
		assert.Greater(t, short, 0)
	})
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 3, EstimateTokens("hello, world")) // 12 chars / 4
}

func TestCountTokens(t *testing.T) {
	// Must never panic regardless of encoding availability.
	n := CountTokens("the quick brown fox jumps over the lazy dog")
	assert.Greater(t, n, 0)
}
