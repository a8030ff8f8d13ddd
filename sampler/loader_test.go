package sampler

import (
	"testing"

	"github.com/taskgraph/famo"
)

type taskID int

func (t taskID) TaskID() int { return int(t) }

type tagged []int

func (s tagged) Len() int                   { return len(s) }
func (s tagged) Example(i int) famo.Example { return taskID(s[i]) }

func TestLoaderBatchesAreHomogeneous(t *testing.T) {
	ds := tagged{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	ranges := []famo.Range{{Start: 0, End: 8}, {Start: 8, End: 18}}
	for rank := 0; rank < 4; rank++ {
		s, err := New(ranges, rank, 4, 5, false)
		if err != nil {
			t.Fatal(err)
		}
		l, err := NewLoader(s, ds, 2)
		if err != nil {
			t.Fatal(err)
		}
		for step := 0; step < 10; step++ {
			b, err := l.Next()
			if err != nil {
				t.Fatalf("rank %d step %d: Next failed: %v", rank, step, err)
			}
			if b.Len() != 2 {
				t.Errorf("rank %d step %d: batch of %d, want 2", rank, step, b.Len())
			}
			for _, ex := range b.Examples {
				if ex.TaskID() != b.TaskID || b.TaskID != rank/2 {
					t.Errorf("rank %d step %d: example of task %d in batch of task %d", rank, step, ex.TaskID(), b.TaskID)
				}
			}
		}
		if s.Epoch() == 0 {
			t.Errorf("rank %d: loader never advanced the epoch", rank)
		}
	}
}

func TestLoaderRejectsOversizedBatch(t *testing.T) {
	s, err := New([]famo.Range{{Start: 0, End: 3}}, 0, 1, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(s, tagged{0, 0, 0}, 4); !famo.IsConfigurationError(err) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestLoaderDetectsWrongPartition(t *testing.T) {
	s, err := New([]famo.Range{{Start: 0, End: 2}, {Start: 2, End: 4}}, 0, 2, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(s, tagged{1, 1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Next(); err == nil {
		t.Fatal("Next succeeded on a dataset that disagrees with the partition")
	}
}
