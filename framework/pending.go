package framework

import "github.com/taskgraph/famo"

// pendingBatch is a batch kept for re-evaluation at a later update step,
// together with the reduced per task losses recorded when it was trained on.
type pendingBatch struct {
	step   uint64
	batch  *famo.Batch
	losses []float64
}

// pendingSlot is a bounded queue of one. The producer is the end of an update
// aligned step, the consumer the scheduled update UpdateFrequency steps later.
type pendingSlot struct {
	c chan *pendingBatch
}

func newPendingSlot() *pendingSlot {
	return &pendingSlot{c: make(chan *pendingBatch, 1)}
}

// put replaces whatever the slot holds.
func (p *pendingSlot) put(b *pendingBatch) {
	select {
	case <-p.c:
	default:
	}
	p.c <- b
}

func (p *pendingSlot) take() (*pendingBatch, bool) {
	select {
	case b := <-p.c:
		return b, true
	default:
		return nil, false
	}
}
