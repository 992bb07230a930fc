// internal/presence/presence.go
package presence

import (
	"context"
	"sync"
	"time"
)

// Detector answers "is a human actively using the messaging surface right
// now". The delivery agent defers instead of sending while this is true.
type Detector interface {
	HumanPresent(ctx context.Context) (bool, error)
}

// DefaultTTL is how long a heartbeat counts as "present". The UI heartbeats
// every few seconds while the user has the surface focused.
const DefaultTTL = 12 * time.Second

// MemoryDetector is a single-process Detector for tests and dev setups
// without Redis.
type MemoryDetector struct {
	ttl      time.Duration
	mu       sync.Mutex
	lastSeen time.Time
}

func NewMemoryDetector() *MemoryDetector {
	return &MemoryDetector{ttl: DefaultTTL}
}

// Heartbeat records that a human is on the surface right now.
func (d *MemoryDetector) Heartbeat() {
	d.mu.Lock()
	d.lastSeen = time.Now()
	d.mu.Unlock()
}

func (d *MemoryDetector) HumanPresent(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastSeen.IsZero() {
		return false, nil
	}
	return time.Since(d.lastSeen) <= d.ttl, nil
}
