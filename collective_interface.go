/*
Collective is the only channel of cross process communication during
training. Every call is a synchronization point: it returns only after all
Size() participants made the same call, in the same order. There is no
timeout. A peer that never shows up blocks everyone, and only cancelling the
context gets the caller out.
*/
package famo

import "golang.org/x/net/context"

type Collective interface {
	// Rank of this participant in [0, Size()).
	Rank() int
	Size() int

	// AllReduceSum returns the element wise sum of values over all ranks.
	AllReduceSum(ctx context.Context, values []float64) ([]float64, error)

	// Broadcast returns the values given by root. Non-root ranks may pass nil.
	Broadcast(ctx context.Context, root int, values []float64) ([]float64, error)

	Barrier(ctx context.Context) error
}

// MetricsSink receives named scalars per weight update. It is a side channel:
// an error here never changes training.
type MetricsSink interface {
	Log(step uint64, values map[string]float64) error
}
