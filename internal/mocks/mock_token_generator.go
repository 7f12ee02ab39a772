package mocks

import (
	"fmt"
	"sync/atomic"

	"github.com/fardapack/fardapack-crm/domain"
)

// MockTokenGenerator implements domain.TokenGenerator interface for testing
type MockTokenGenerator struct {
	GenerateFunc func() (string, error)
	counter      atomic.Int64
}

// NewMockTokenGenerator creates a new MockTokenGenerator with default behaviors
func NewMockTokenGenerator() *MockTokenGenerator {
	return &MockTokenGenerator{}
}

// Generate returns a predictable unique token
func (m *MockTokenGenerator) Generate() (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return fmt.Sprintf("token_%d", m.counter.Add(1)), nil
}

// Compile-time interface compliance verification
var _ domain.TokenGenerator = (*MockTokenGenerator)(nil)
