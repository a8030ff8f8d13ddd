package framework

import (
	"github.com/taskgraph/famo"
	"golang.org/x/net/context"
)

// The key type is unexported to prevent collisions with context keys defined in
// other packages.
type contextKey int

// stepKey is the context key for the global step and collectiveKey the one
// for the rank's collective. Models and optimizers called by the trainer read
// them with StepFromContext and CollectiveFromContext.
const (
	stepKey contextKey = iota + 1
	collectiveKey
)

func withStep(ctx context.Context, step uint64, coll famo.Collective) context.Context {
	ctx = context.WithValue(ctx, stepKey, step)
	return context.WithValue(ctx, collectiveKey, coll)
}

func StepFromContext(ctx context.Context) (uint64, bool) {
	step, ok := ctx.Value(stepKey).(uint64)
	return step, ok
}

// CollectiveFromContext lets an optimizer average gradients over the ranks
// of the step it is called from.
func CollectiveFromContext(ctx context.Context) (famo.Collective, bool) {
	coll, ok := ctx.Value(collectiveKey).(famo.Collective)
	return coll, ok
}
