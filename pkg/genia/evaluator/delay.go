package evaluator

import (
	"sync"
	"sync/atomic"
)

// Delay is a memoized computation. It is realized at most once per success;
// a failed attempt leaves it unrealized so a later Force may retry.
type Delay struct {
	mu       sync.Mutex
	realized atomic.Bool
	value    Value
	produce  func() (Value, error)
}

// NewDelay wraps produce without running it.
func NewDelay(produce func() (Value, error)) *Delay {
	return &Delay{produce: produce}
}

// NewLiteralDelay is an already realized Delay.
func NewLiteralDelay(v Value) *Delay {
	d := &Delay{value: v}
	d.realized.Store(true)
	return d
}

// Force realizes the delay. Concurrent callers block while one of them runs
// the producer.
func (d *Delay) Force() (Value, error) {
	if d.realized.Load() {
		return d.value, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.realized.Load() {
		return d.value, nil
	}

	v, err := d.produce()
	if err != nil {
		return nil, err
	}
	d.value = v
	d.produce = nil
	d.realized.Store(true)
	return v, nil
}

// Peek returns the cached value without forcing.
func (d *Delay) Peek() (Value, bool) {
	if d.realized.Load() {
		return d.value, true
	}
	return nil, false
}

// Realized reports whether a Force has succeeded.
func (d *Delay) Realized() bool {
	return d.realized.Load()
}
