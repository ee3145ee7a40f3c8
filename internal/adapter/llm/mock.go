package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"lexrag/internal/port"
)

// MockLLM echoes prompts back and records every call. Respond, when set,
// replaces the echo.
type MockLLM struct {
	Respond func(prompt string) (string, error)

	mu            sync.Mutex
	Prompts       []string
	Conversations map[string]string
	Deleted       []string
	DeleteErr     error
}

func NewMockLLM() *MockLLM {
	return &MockLLM{Conversations: make(map[string]string)}
}

func (m *MockLLM) Generate(_ context.Context, req port.GenerateRequest) (port.Generation, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, req.Prompt)
	m.mu.Unlock()

	text := "mock answer: " + req.Prompt
	if m.Respond != nil {
		var err error
		text, err = m.Respond(req.Prompt)
		if err != nil {
			return port.Generation{}, err
		}
	}
	return port.Generation{Text: text, ConversationID: req.ConversationID}, nil
}

func (m *MockLLM) CreateConversation(_ context.Context, systemPrompt string) (string, error) {
	id := "conv_" + uuid.NewString()
	m.mu.Lock()
	m.Conversations[id] = systemPrompt
	m.mu.Unlock()
	return id, nil
}

func (m *MockLLM) DeleteConversation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, id)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Conversations[id]; !ok {
		return fmt.Errorf("unknown conversation: %s", id)
	}
	delete(m.Conversations, id)
	return nil
}

func (m *MockLLM) ModelName() string {
	return "mock"
}

// PromptCount returns how many prompts were generated so far.
func (m *MockLLM) PromptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
