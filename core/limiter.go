package core

import (
	"fmt"
	"sync"
)

// CallLimiter caps the number of model invocations a single run may make,
// bounding follow-up loops. A budget of zero or less means unlimited.
type CallLimiter struct {
	budget int
	count  int
	mu     sync.Mutex
}

// NewCallLimiter creates a limiter with the given budget.
func NewCallLimiter(budget int) *CallLimiter {
	return &CallLimiter{budget: budget}
}

// Increment consumes one call and fails once the budget is exhausted.
func (cl *CallLimiter) Increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.budget > 0 && cl.count > cl.budget {
		return fmt.Errorf("exceeded model call budget: %d", cl.budget)
	}
	return nil
}

// Count returns the number of calls made so far.
func (cl *CallLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (cl *CallLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.budget <= 0 {
		return -1
	}
	return cl.budget - cl.count
}
