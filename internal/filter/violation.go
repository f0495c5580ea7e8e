package filter

import "sync"

// DefaultViolationThreshold is the count at which the repeated-violations
// signal fires.
const DefaultViolationThreshold = 5

// ViolationCounter counts rejected inputs for the lifetime of the
// process. Crossing the threshold is a monitoring signal only — it never
// blocks further calls. Enforcement, if wanted, belongs to an external
// rate limiter.
type ViolationCounter struct {
	mu        sync.Mutex
	count     int
	threshold int
}

// NewViolationCounter creates a counter with the given threshold.
// A threshold <= 0 uses the default.
func NewViolationCounter(threshold int) *ViolationCounter {
	if threshold <= 0 {
		threshold = DefaultViolationThreshold
	}
	return &ViolationCounter{threshold: threshold}
}

// Record registers one rejection. crossed is true exactly when the count
// reaches the threshold — on that call and no other.
func (c *ViolationCounter) Record() (count int, crossed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count, c.count == c.threshold
}

// Count returns the current violation count.
func (c *ViolationCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Threshold returns the configured threshold.
func (c *ViolationCounter) Threshold() int {
	return c.threshold
}
