package framework

import "sync"

// replica is a rank's read only copy of w. It changes only through refresh,
// which the trainer calls with the result of a broadcast.
type replica struct {
	mu sync.RWMutex
	w  []float64
}

func newReplica(w []float64) *replica {
	return &replica{w: append([]float64(nil), w...)}
}

func (r *replica) get() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]float64(nil), r.w...)
}

func (r *replica) refresh(w []float64) {
	r.mu.Lock()
	r.w = append([]float64(nil), w...)
	r.mu.Unlock()
}
