package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of Backend using testify/mock.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Submit(ctx context.Context, instruction string) (string, error) {
	args := m.Called(ctx, instruction)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Name() string {
	return "mock"
}

func (m *MockBackend) Model() string {
	return "mock-model"
}
