package util

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used when no encoding is requested. cl100k_base
// covers GPT-4 / GPT-3.5 and approximates other providers closely enough for
// pagination budgeting.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates token footprints of serialized pages. It wraps a
// tiktoken encoding and is safe for concurrent use.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
	mu       sync.RWMutex
}

var (
	// Cache encodings to avoid repeated initialization
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter creates a counter for the named encoding (e.g. cl100k_base,
// o200k_base). An empty name selects DefaultEncoding.
func NewTokenCounter(name string) (*TokenCounter, error) {
	if name == "" {
		name = DefaultEncoding
	}

	cacheMu.RLock()
	cached, exists := encodingCache[name]
	cacheMu.RUnlock()

	if exists {
		return &TokenCounter{encoding: cached, name: name}, nil
	}

	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %q: %w", name, err)
	}

	cacheMu.Lock()
	encodingCache[name] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, name: name}, nil
}

// Count returns the token count for text.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.encoding.Encode(text, nil, nil))
}

// Name returns the encoding name this counter is configured for.
func (tc *TokenCounter) Name() string { return tc.name }

var (
	defaultCounter     *TokenCounter
	defaultCounterOnce sync.Once
)

// CountTokens estimates the token footprint of text using the default
// encoding. Falls back to the rough 4-characters-per-token heuristic when
// the encoding cannot be initialized (e.g. offline environments where the
// BPE data is unavailable).
func CountTokens(text string) int {
	defaultCounterOnce.Do(func() {
		defaultCounter, _ = NewTokenCounter(DefaultEncoding)
	})
	if defaultCounter == nil {
		return EstimateTokens(text)
	}
	return defaultCounter.Count(text)
}

// EstimateTokens provides a rough token estimation (4 characters per token)
// for when no encoding is available.
func EstimateTokens(text string) int {
	return len(text) / 4
}
