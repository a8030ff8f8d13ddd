// Package sampler pins every worker to one task and hands out a disjoint
// shard of that task's examples each epoch.
package sampler

import (
	"math/rand"

	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/partition"
)

// TaskSampler follows the usual distributed shuffle discipline, restricted to
// one task partition:
//	groupSize = worldSize / nTasks
//	task      = rank / groupSize
//	local     = rank % groupSize
// Workers of one group see disjoint strides of the same per epoch
// permutation. Yielded indices are global.
type TaskSampler struct {
	task      int
	localRank int
	groupSize int
	partition famo.Range
	offset    int
	seed      int64
	dropLast  bool
	epoch     uint64
}

func New(ranges []famo.Range, rank, worldSize int, seed int64, dropLast bool) (*TaskSampler, error) {
	nTasks := len(ranges)
	if nTasks == 0 {
		return nil, famo.NewConfigurationError("n_tasks", "no task partitions")
	}
	if worldSize < 1 || worldSize%nTasks != 0 {
		return nil, famo.NewConfigurationError("world_size", "%d workers can not be split evenly over %d tasks", worldSize, nTasks)
	}
	if rank < 0 || rank >= worldSize {
		return nil, famo.NewConfigurationError("rank", "%d outside [0, %d)", rank, worldSize)
	}
	groupSize := worldSize / nTasks
	task := rank / groupSize
	return &TaskSampler{
		task:      task,
		localRank: rank % groupSize,
		groupSize: groupSize,
		partition: ranges[task],
		offset:    partition.Offset(ranges, task),
		seed:      seed,
		dropLast:  dropLast,
	}, nil
}

func (s *TaskSampler) TaskID() int { return s.task }

func (s *TaskSampler) LocalRank() int { return s.localRank }

func (s *TaskSampler) GroupSize() int { return s.groupSize }

func (s *TaskSampler) Partition() famo.Range { return s.partition }

func (s *TaskSampler) Epoch() uint64 { return s.epoch }

// SetEpoch changes the permutation. All workers of a group must use the same
// epoch, otherwise their shards overlap.
func (s *TaskSampler) SetEpoch(epoch uint64) { s.epoch = epoch }

// NumSamples is the number of indices one worker yields per epoch.
func (s *TaskSampler) NumSamples() int {
	n := s.partition.Len()
	if s.dropLast {
		return n / s.groupSize
	}
	return (n + s.groupSize - 1) / s.groupSize
}

// Indices returns this worker's global indices for the current epoch.
func (s *TaskSampler) Indices() []int {
	n := s.partition.Len()
	if n == 0 {
		return nil
	}
	total := s.NumSamples() * s.groupSize

	rnd := rand.New(rand.NewSource(s.seed + int64(s.epoch)))
	perm := rnd.Perm(n)
	if total > n {
		// pad by wrapping around so that every worker yields the same count
		padded := make([]int, 0, total)
		for len(padded) < total {
			need := total - len(padded)
			if need > n {
				need = n
			}
			padded = append(padded, perm[:need]...)
		}
		perm = padded
	} else {
		perm = perm[:total]
	}

	out := make([]int, 0, s.NumSamples())
	for i := s.localRank; i < total; i += s.groupSize {
		out = append(out, perm[i]+s.offset)
	}
	return out
}
