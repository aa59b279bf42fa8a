package editor

import "sync"

// Hook is one handler in a Chain. It receives the previous handler's result.
type Hook[T any] func(T) T

// Chain is an ordered list of hooks run in registration order. Extensions
// append to a chain instead of wrapping the previous callback.
type Chain[T any] struct {
	mu    sync.RWMutex
	hooks []Hook[T]
}

// Append adds h at the end of the chain
func (c *Chain[T]) Append(h Hook[T]) {
	if h == nil {
		return
	}
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
}

// Len returns the number of hooks
func (c *Chain[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks)
}

// Run invokes every hook with the result of the previous one and returns the
// final value. Hooks may append to the chain while it runs; those run next time.
func (c *Chain[T]) Run(v T) T {
	c.mu.RLock()
	hooks := make([]Hook[T], len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.RUnlock()

	for _, h := range hooks {
		v = h(v)
	}
	return v
}
