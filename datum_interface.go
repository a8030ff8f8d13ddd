package famo

import "fmt"

// Example is one record of the concatenated multi-task dataset.
type Example interface {
	TaskID() int
}

// Dataset gives indexed access to examples which are grouped contiguously
// by task.
type Dataset interface {
	Len() int
	Example(i int) Example
}

// Range is the half open interval [Start, End) of global dataset indices.
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// Batch is a task homogeneous set of examples. Indices are global.
type Batch struct {
	TaskID   int
	Indices  []int
	Examples []Example
}

func (b *Batch) Len() int { return len(b.Indices) }
