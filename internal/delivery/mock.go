// internal/delivery/mock.go
package delivery

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// MockAutomator simulates the browser automation with a configurable
// success rate. Default matches the historical mock sender: 90%.
type MockAutomator struct {
	SuccessRate float64
	rng         *rand.Rand
	mu          sync.Mutex
}

func NewMockAutomator(rng *rand.Rand) *MockAutomator {
	return &MockAutomator{SuccessRate: 0.9, rng: rng}
}

func (m *MockAutomator) SendMessage(ctx context.Context, friendID, friendName, message string) error {
	m.mu.Lock()
	r := m.rng.Float64()
	m.mu.Unlock()
	if r < m.SuccessRate {
		return nil
	}
	return fmt.Errorf("mock sending failed")
}
