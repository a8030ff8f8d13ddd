package synthetic

import (
	"log"
	"math/rand"

	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/dataset"
)

// WorkloadBuilder gives every rank its own replica of the same initial model.
type WorkloadBuilder struct {
	Data    dataset.Memory
	Dim     int
	LR      float64
	Seed    int64
	Metrics famo.MetricsSink
	Logger  *log.Logger
}

func (b *WorkloadBuilder) GetWorkload(rank int) (*famo.Workload, error) {
	rnd := rand.New(rand.NewSource(b.Seed))
	init := make([]float64, b.Dim)
	for i := range init {
		init[i] = 0.01 * rnd.NormFloat64()
	}
	model := NewModel(init)
	wl := &famo.Workload{
		Dataset:   b.Data,
		Model:     model,
		Reference: NewReference(model),
		Optimizer: NewSGD(model, b.LR),
	}
	// the trainer sets a per rank prefix
	if b.Logger != nil {
		wl.Logger = log.New(b.Logger.Writer(), "", b.Logger.Flags())
	}
	if rank == 0 {
		wl.Metrics = b.Metrics
	}
	return wl, nil
}
