package model

import (
	"context"
	"fmt"
	"sync"
)

// Message roles understood by all provider adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Completer is the single-shot completion interface the agent loop consumes.
// Implementations are expected to enforce their own timeouts; the loop's
// only timeout discipline is its iteration cap.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// MockCompleter is a lightweight in-memory Completer useful for tests and
// examples. Scripted responses are returned in order; when the script is
// exhausted a generic echo response is produced.
type MockCompleter struct {
	mu        sync.Mutex
	script    []string
	calls     int
	recorded  [][]Message
	completeE error
}

// NewMockCompleter constructs a MockCompleter with the given scripted
// responses.
func NewMockCompleter(script ...string) *MockCompleter {
	return &MockCompleter{script: script}
}

// AddResponse appends a scripted response.
func (m *MockCompleter) AddResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, response)
}

// FailWith makes every subsequent Complete call return err.
func (m *MockCompleter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completeE = err
}

// Complete implements Completer.
func (m *MockCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recorded = append(m.recorded, messages)

	if m.completeE != nil {
		return "", m.completeE
	}

	if m.calls < len(m.script) {
		resp := m.script[m.calls]
		m.calls++

		return resp, nil
	}

	m.calls++

	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}

	return fmt.Sprintf("Mock response to: %s", last), nil
}

// Calls returns how many completions were requested.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Recorded returns the message lists passed to Complete, in order.
func (m *MockCompleter) Recorded() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.recorded
}
