package synthetic

import (
	"github.com/pkg/errors"
	"github.com/taskgraph/famo/framework"
	"gonum.org/v1/gonum/floats"
	"golang.org/x/net/context"
)

// SGD averages the accumulated gradient over all ranks and takes a plain
// gradient descent step.
type SGD struct {
	model *Model
	lr    float64
}

func NewSGD(model *Model, lr float64) *SGD {
	return &SGD{model: model, lr: lr}
}

func (o *SGD) Step(ctx context.Context) error {
	o.model.mu.Lock()
	grad := append([]float64(nil), o.model.grad...)
	o.model.mu.Unlock()

	if coll, ok := framework.CollectiveFromContext(ctx); ok {
		sum, err := coll.AllReduceSum(ctx, grad)
		if err != nil {
			return errors.Wrap(err, "synthetic: average gradients")
		}
		grad = sum
		floats.Scale(1/float64(coll.Size()), grad)
	}

	o.model.mu.Lock()
	floats.AddScaled(o.model.params, -o.lr, grad)
	o.model.mu.Unlock()
	return nil
}

func (o *SGD) ZeroGrad() {
	o.model.mu.Lock()
	for i := range o.model.grad {
		o.model.grad[i] = 0
	}
	o.model.mu.Unlock()
}
