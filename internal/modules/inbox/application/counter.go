package application

import "sync"

// UnreadCounter is the session's unread badge value. It never goes below zero.
type UnreadCounter struct {
	mu        sync.Mutex
	value     int
	listeners []func(int)
}

func NewUnreadCounter() *UnreadCounter {
	return &UnreadCounter{}
}

func (c *UnreadCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *UnreadCounter) Increment() { c.add(1) }

func (c *UnreadCounter) Decrement() { c.add(-1) }

func (c *UnreadCounter) Set(n int) {
	c.mu.Lock()
	if n < 0 {
		n = 0
	}
	c.value = n
	c.publishLocked()
	c.mu.Unlock()
}

// Reset zeroes the counter at session end.
func (c *UnreadCounter) Reset() { c.Set(0) }

// OnChange registers fn to receive every new value.
func (c *UnreadCounter) OnChange(fn func(int)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *UnreadCounter) add(delta int) {
	c.mu.Lock()
	c.value += delta
	if c.value < 0 {
		c.value = 0
	}
	c.publishLocked()
	c.mu.Unlock()
}

func (c *UnreadCounter) publishLocked() {
	unreadGauge.Set(float64(c.value))
	for _, fn := range c.listeners {
		fn(c.value)
	}
}
