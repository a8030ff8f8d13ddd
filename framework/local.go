package framework

import (
	"sync"

	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/collective"
	"github.com/taskgraph/famo/pkg/common"
	"golang.org/x/net/context"
)

// RunLocal trains every rank of conf as a goroutine of this process, sharing
// an in-process collective group. The first failing rank cancels the others.
// It returns the trainers so callers can inspect their final state.
func RunLocal(ctx context.Context, conf *famo.Config, builder famo.WorkloadBuilder) ([]*Trainer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	group := collective.NewLocalGroup(conf.WorldSize)
	trainers := make([]*Trainer, conf.WorldSize)
	for rank, coll := range group {
		wl, err := builder.GetWorkload(rank)
		if err != nil {
			return nil, err
		}
		if trainers[rank], err = New(conf, coll, wl); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		once     sync.Once
		firstErr error
	)
	latch := common.NewCountDownLatch(conf.WorldSize)
	for _, t := range trainers {
		go func(t *Trainer) {
			defer latch.CountDown()
			if err := t.Run(ctx, conf.MaxSteps); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(t)
	}
	latch.Await()
	return trainers, firstErr
}
