package synthetic

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/dataset"
	"gonum.org/v1/gonum/floats"
	"golang.org/x/net/context"
)

// Model is a linear model trained with mean squared error. Its parameters
// are replicated on every rank; Optimizer keeps the replicas equal.
type Model struct {
	mu     sync.Mutex
	params []float64
	grad   []float64
}

func NewModel(params []float64) *Model {
	return &Model{
		params: append([]float64(nil), params...),
		grad:   make([]float64, len(params)),
	}
}

func (m *Model) Params() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.params...)
}

// mseLoss keeps the batch until Backward.
type mseLoss struct {
	m     *Model
	batch []*dataset.Record
	value float64
}

func (l *mseLoss) Value() float64 { return l.value }

// Backward accumulates grad * d(mse)/d(params).
func (l *mseLoss) Backward(grad float64) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	scale := 2 * grad / float64(len(l.batch))
	for _, rec := range l.batch {
		residual := floats.Dot(l.m.params, rec.Features) - rec.Target
		floats.AddScaled(l.m.grad, scale*residual, rec.Features)
	}
	return nil
}

func (m *Model) Forward(ctx context.Context, batch *famo.Batch) (famo.Loss, error) {
	recs, err := records(batch, len(m.params))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	value := mse(m.params, recs)
	m.mu.Unlock()
	return &mseLoss{m: m, batch: recs, value: value}, nil
}

func (m *Model) Evaluate(ctx context.Context, batch *famo.Batch) (float64, error) {
	recs, err := records(batch, len(m.params))
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return mse(m.params, recs), nil
}

// Reference is a frozen snapshot of a model.
type Reference struct {
	params []float64
}

func NewReference(m *Model) *Reference {
	return &Reference{params: m.Params()}
}

func (r *Reference) Evaluate(ctx context.Context, batch *famo.Batch) (float64, error) {
	recs, err := records(batch, len(r.params))
	if err != nil {
		return 0, err
	}
	return mse(r.params, recs), nil
}

func records(batch *famo.Batch, dim int) ([]*dataset.Record, error) {
	recs := make([]*dataset.Record, len(batch.Examples))
	for i, ex := range batch.Examples {
		rec, ok := ex.(*dataset.Record)
		if !ok {
			return nil, errors.Errorf("synthetic: example %d is %T, not a record", batch.Indices[i], ex)
		}
		if len(rec.Features) != dim {
			return nil, errors.Errorf("synthetic: example %d has %d features, model has %d", batch.Indices[i], len(rec.Features), dim)
		}
		recs[i] = rec
	}
	return recs, nil
}

func mse(params []float64, recs []*dataset.Record) float64 {
	var sum float64
	for _, rec := range recs {
		r := floats.Dot(params, rec.Features) - rec.Target
		sum += r * r
	}
	return sum / float64(len(recs))
}
