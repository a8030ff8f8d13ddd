package common

import "testing"

func TestCountDownLatch(t *testing.T) {
	c := NewCountDownLatch(3)
	for i := 0; i < 3; i++ {
		go c.CountDown()
	}
	c.Await()
	if c.Count() != 0 {
		t.Fatalf("Count() = %d after release", c.Count())
	}
	// counting down an open latch is a no-op
	c.CountDown()
	c.Await()
}
