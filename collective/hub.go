// Package collective implements the blocking all-reduce, broadcast and
// barrier the training loop synchronizes on. A hub gathers one contribution
// per rank, combines them once every rank arrived and fans the result out.
// The same hub backs the in-process group and the gRPC server.
package collective

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/context"
)

type opKind int

const (
	opAllReduce opKind = iota
	opBroadcast
	opBarrier
)

func (op opKind) String() string {
	switch op {
	case opAllReduce:
		return "AllReduceSum"
	case opBroadcast:
		return "Broadcast"
	case opBarrier:
		return "Barrier"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// ErrMismatch is the cause of a round in which ranks disagreed on the call.
var ErrMismatch = errors.New("collective: ranks disagree on the collective call")

// round is one collective call of all ranks. It is done once every rank
// contributed; result and err are read only after done is closed.
type round struct {
	seq     uint64
	op      opKind
	root    int
	contrib [][]float64
	arrived []bool
	count   int
	err     error

	result []float64
	done   chan struct{}
}

type hub struct {
	size int

	mu  sync.Mutex
	seq uint64
	cur *round
}

func newHub(size int) *hub {
	return &hub{size: size}
}

// exchange blocks until every rank joined the current round. There is no
// timeout; only ctx gets a caller out, and the round then stays incomplete
// for everyone else.
func (h *hub) exchange(ctx context.Context, rank int, op opKind, root int, values []float64) ([]float64, error) {
	if rank < 0 || rank >= h.size {
		return nil, errors.Errorf("collective: rank %d outside [0, %d)", rank, h.size)
	}
	if op == opBroadcast && (root < 0 || root >= h.size) {
		return nil, errors.Errorf("collective: broadcast root %d outside [0, %d)", root, h.size)
	}

	h.mu.Lock()
	r := h.cur
	if r == nil {
		r = &round{
			seq:     h.seq,
			op:      op,
			root:    root,
			contrib: make([][]float64, h.size),
			arrived: make([]bool, h.size),
			done:    make(chan struct{}),
		}
		h.seq++
		h.cur = r
	}
	if r.arrived[rank] {
		h.mu.Unlock()
		return nil, errors.Errorf("collective: rank %d joined round %d twice", rank, r.seq)
	}
	if r.op != op || (op == opBroadcast && r.root != root) {
		r.err = errors.Wrapf(ErrMismatch, "round %d: %v(root %d) vs %v(root %d) from rank %d", r.seq, r.op, r.root, op, root, rank)
	}
	r.arrived[rank] = true
	r.contrib[rank] = values
	r.count++
	if r.count == h.size {
		if r.err == nil {
			r.result, r.err = combine(r)
		}
		h.cur = nil
		close(r.done)
	}
	h.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "collective: rank %d waiting in %v round %d", rank, op, r.seq)
	}
	if r.err != nil {
		return nil, r.err
	}
	return clone(r.result), nil
}

func combine(r *round) ([]float64, error) {
	switch r.op {
	case opAllReduce:
		n := len(r.contrib[0])
		sum := make([]float64, n)
		for rank, v := range r.contrib {
			if len(v) != n {
				return nil, errors.Wrapf(ErrMismatch, "round %d: rank %d reduces %d values, rank 0 reduces %d", r.seq, rank, len(v), n)
			}
			addTo(sum, v)
		}
		return sum, nil
	case opBroadcast:
		return clone(r.contrib[r.root]), nil
	}
	return nil, nil
}
