package famo

import "golang.org/x/net/context"

// Loss is the handle of a training forward pass. It keeps whatever graph the
// model needs until Backward is called.
type Loss interface {
	// Value is the batch reduced scalar loss.
	Value() float64

	// Backward propagates grad, the derivative of the final objective with
	// respect to Value, into the model parameters.
	Backward(grad float64) error
}

// Model is the shared model being trained.
type Model interface {
	// Forward runs the batch in training mode.
	Forward(ctx context.Context, batch *Batch) (Loss, error)

	// Evaluate runs the batch in inference mode. No gradient is kept.
	Evaluate(ctx context.Context, batch *Batch) (float64, error)
}

// ReferenceModel is a frozen copy of the model. It is never updated.
type ReferenceModel interface {
	Evaluate(ctx context.Context, batch *Batch) (float64, error)
}

// Optimizer updates the model parameters from accumulated gradients. It is
// unrelated to the optimizer of the task weights.
type Optimizer interface {
	Step(ctx context.Context) error
	ZeroGrad()
}
