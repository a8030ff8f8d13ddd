// Package partition splits a concatenated multi-task dataset into one
// contiguous index range per task.
package partition

import (
	"github.com/taskgraph/famo"
)

// Split walks the dataset once. Examples must be grouped by task: every task
// in [0, nTasks) shows up in exactly one run, and runs may come in any order.
func Split(ds famo.Dataset, nTasks int) ([]famo.Range, error) {
	if nTasks < 1 {
		return nil, &famo.PartitionError{TaskID: -1, Reason: "need at least one task"}
	}
	ranges := make([]famo.Range, nTasks)
	started := make([]bool, nTasks)

	cur := -1
	for i := 0; i < ds.Len(); i++ {
		id := ds.Example(i).TaskID()
		if id < 0 || id >= nTasks {
			return nil, &famo.PartitionError{TaskID: id, Reason: "task id out of range"}
		}
		if id == cur {
			continue
		}
		if started[id] {
			return nil, &famo.PartitionError{TaskID: id, Reason: "examples are not grouped contiguously"}
		}
		if cur >= 0 {
			ranges[cur].End = i
		}
		started[id] = true
		ranges[id].Start = i
		cur = id
	}
	if cur >= 0 {
		ranges[cur].End = ds.Len()
	}

	for id := range ranges {
		if !started[id] {
			return nil, &famo.PartitionError{TaskID: id, Reason: "no examples"}
		}
	}
	return ranges, nil
}

// Offset is the global index of the first example of task.
func Offset(ranges []famo.Range, task int) int {
	return ranges[task].Start
}
