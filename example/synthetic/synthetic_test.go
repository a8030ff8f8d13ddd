package synthetic

import (
	"reflect"
	"sync"
	"testing"

	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/framework"
	"github.com/taskgraph/famo/metrics"
	"golang.org/x/net/context"
)

// keepingBuilder remembers the models it handed out.
type keepingBuilder struct {
	*WorkloadBuilder
	mu     sync.Mutex
	models map[int]*Model
}

func (b *keepingBuilder) GetWorkload(rank int) (*famo.Workload, error) {
	wl, err := b.WorkloadBuilder.GetWorkload(rank)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.models[rank] = wl.Model.(*Model)
	b.mu.Unlock()
	return wl, nil
}

func fullBatch(data famo.Dataset) *famo.Batch {
	b := &famo.Batch{}
	for i := 0; i < data.Len(); i++ {
		b.Indices = append(b.Indices, i)
		b.Examples = append(b.Examples, data.Example(i))
	}
	return b
}

func TestSyntheticTrainsReplicasInLockStep(t *testing.T) {
	tests := []struct {
		rejected []int
		lossType string
	}{
		{nil, famo.RejectedLossLog},
		{[]int{1}, famo.RejectedLossNPO},
	}
	for i, tt := range tests {
		conf := famo.DefaultConfig(2, 4)
		conf.UpdateFrequency = 2
		conf.InitSteps = 4
		conf.BatchSize = 4
		conf.MaxSteps = 40
		conf.RejectedIDs = tt.rejected
		conf.RejectedLossType = tt.lossType

		data := Generate(2, 32, 3, 7)
		rec := &metrics.Recorder{}
		b := &keepingBuilder{
			WorkloadBuilder: &WorkloadBuilder{Data: data, Dim: 3, LR: 0.05, Seed: 1, Metrics: rec},
			models:          make(map[int]*Model),
		}
		before, _ := NewModel(make([]float64, 3)).Evaluate(context.Background(), fullBatch(data[:32]))

		if _, err := framework.RunLocal(context.Background(), conf, b); err != nil {
			t.Fatalf("#%d: RunLocal failed: %v", i, err)
		}

		params := b.models[0].Params()
		for rank := 1; rank < conf.WorldSize; rank++ {
			if got := b.models[rank].Params(); !reflect.DeepEqual(got, params) {
				t.Errorf("#%d: rank %d params %v differ from rank 0 %v", i, rank, got, params)
			}
		}
		if n := len(rec.Records()); n != 19 {
			t.Errorf("#%d: %d metric records, want 19", i, n)
		}
		if tt.rejected != nil {
			continue
		}
		after, _ := b.models[0].Evaluate(context.Background(), fullBatch(data[:32]))
		if after >= before {
			t.Errorf("#%d: task 0 loss went from %v to %v", i, before, after)
		}
	}
}

func TestGenerateGroupsTasks(t *testing.T) {
	data := Generate(3, 5, 2, 1)
	if data.Len() != 15 {
		t.Fatalf("Len = %d, want 15", data.Len())
	}
	for i := 0; i < data.Len(); i++ {
		if want := i / 5; data.Example(i).TaskID() != want {
			t.Errorf("#%d: task = %d, want %d", i, data.Example(i).TaskID(), want)
		}
	}
}
