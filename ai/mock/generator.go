package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/minirag/ai"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, question, context string) (string, error)

	mu           sync.Mutex
	callCount    int
	lastQuestion string
	lastContext  string
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns the first sentence of passage [1] followed by " [1]".
// An empty context yields the fallback answer.
func (m *MockGenerator) Generate(ctx context.Context, question, context string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastQuestion = question
	m.lastContext = context
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, question, context)
	}

	first, _, _ := strings.Cut(context, "\n\n")
	first = strings.TrimSpace(strings.TrimPrefix(first, "[1]"))
	if first == "" {
		return ai.FallbackAnswer, nil
	}
	sentence, _, _ := strings.Cut(first, ".")
	return sentence + " [1].", nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastContext returns the context passed to the most recent Generate call.
func (m *MockGenerator) LastContext() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastContext
}

// LastQuestion returns the question passed to the most recent Generate call.
func (m *MockGenerator) LastQuestion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuestion
}

// Reset clears recorded calls and custom functions.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastQuestion = ""
	m.lastContext = ""
	m.GenerateFunc = nil
}
