package sampler

import (
	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
)

// Loader cuts the sampler's stream into batches. A short tail is dropped and
// the next epoch starts right away, so every batch has exactly batchSize
// examples of the sampler's task.
type Loader struct {
	sampler   *TaskSampler
	ds        famo.Dataset
	batchSize int

	indices []int
	pos     int
	started bool
}

func NewLoader(s *TaskSampler, ds famo.Dataset, batchSize int) (*Loader, error) {
	if batchSize < 1 {
		return nil, famo.NewConfigurationError("batch_size", "must be positive, got %d", batchSize)
	}
	if s.NumSamples() < batchSize {
		return nil, famo.NewConfigurationError("batch_size",
			"task %d yields %d examples per worker and epoch, fewer than batch size %d",
			s.TaskID(), s.NumSamples(), batchSize)
	}
	return &Loader{sampler: s, ds: ds, batchSize: batchSize}, nil
}

func (l *Loader) TaskID() int { return l.sampler.TaskID() }

// Next returns the next batch. It fails only when the dataset disagrees with
// the partition the sampler was built from.
func (l *Loader) Next() (*famo.Batch, error) {
	if !l.started {
		l.indices = l.sampler.Indices()
		l.started = true
	}
	if l.pos+l.batchSize > len(l.indices) {
		l.sampler.SetEpoch(l.sampler.Epoch() + 1)
		l.indices = l.sampler.Indices()
		l.pos = 0
	}

	idx := l.indices[l.pos : l.pos+l.batchSize]
	l.pos += l.batchSize

	b := &famo.Batch{
		TaskID:   l.sampler.TaskID(),
		Indices:  append([]int(nil), idx...),
		Examples: make([]famo.Example, len(idx)),
	}
	for i, gi := range idx {
		ex := l.ds.Example(gi)
		if ex.TaskID() != b.TaskID {
			return nil, errors.Errorf("sampler: example %d belongs to task %d, want task %d", gi, ex.TaskID(), b.TaskID)
		}
		b.Examples[i] = ex
	}
	return b, nil
}
