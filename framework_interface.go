package famo

import (
	"log"

	"golang.org/x/net/context"
)

// This interface is used by the driver program to join a training job.
type Bootstrap interface {
	// The builder is asked for the rank local workload once the framework
	// knows which rank this process occupies.
	SetWorkloadBuilder(builder WorkloadBuilder)

	// Start blocks until the job is done or some synchronization fails.
	Start(ctx context.Context) error
}

// WorkloadBuilder is implemented by the application. It is called exactly once
// per process, after rank assignment.
type WorkloadBuilder interface {
	GetWorkload(rank int) (*Workload, error)
}

// Workload bundles the external collaborators a rank trains with.
// Reference is only needed when some task uses the reference divergence
// transform. Metrics may be nil on every rank but 0.
type Workload struct {
	Dataset   Dataset
	Model     Model
	Reference ReferenceModel
	Optimizer Optimizer
	Metrics   MetricsSink
	Logger    *log.Logger
}
