package common

import "sync"

// CountDownLatch releases every waiter once the counter reaches zero.
// Unlike sync.WaitGroup it can be counted down past zero.
type CountDownLatch struct {
	mu      sync.Mutex
	counter int
	done    chan struct{}
}

func NewCountDownLatch(count int) *CountDownLatch {
	c := &CountDownLatch{counter: count, done: make(chan struct{})}
	if count <= 0 {
		c.counter = 0
		close(c.done)
	}
	return c
}

func (c *CountDownLatch) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

func (c *CountDownLatch) CountDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counter == 0 {
		return
	}
	c.counter--
	if c.counter == 0 {
		close(c.done)
	}
}

func (c *CountDownLatch) Await() {
	<-c.done
}
