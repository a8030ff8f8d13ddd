// Package weighting owns the task weight vector w and the rule that moves it.
// softmax(w) is the multiplier of every task loss. Only rank 0 ever holds an
// Updater; other ranks see w through broadcast snapshots.
package weighting

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
	"gonum.org/v1/gonum/floats"
)

type Phase int

const (
	Warmup Phase = iota
	Active
)

func (p Phase) String() string {
	if p == Active {
		return "active"
	}
	return "warmup"
}

const (
	initialFloor = 1e-5
	logEps       = 1e-8
)

// Result describes one call to Update. Delta is nil for updaters that do not
// compute a progress signal.
type Result struct {
	Phase   Phase
	Delta   []float64
	Skipped bool
}

type Updater interface {
	// Update compares per task losses of the same batches before (prev) and
	// after (curr) some training steps and adjusts w.
	Update(step uint64, prev, curr []float64) (Result, error)

	// Weights returns a copy of the unnormalized w.
	Weights() []float64
}

// New returns the updater selected by conf.Weighting.
func New(conf *famo.Config) Updater {
	if conf.Weighting == famo.WeightingStatic {
		return NewStatic(conf.NTasks)
	}
	return NewController(conf)
}

// UniformWeights is log(1/n) everywhere.
func UniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = math.Log(1 / float64(n))
	}
	return w
}

// Controller is the adaptive updater. Its baseline goes through a one way
// state machine: no samples, accumulating an EMA while step < initSteps, and
// frozen as initial losses on the first update at or after initSteps.
type Controller struct {
	n          int
	w          []float64
	opt        *Adam
	alpha      float64
	initSteps  uint64
	normalizer string
	minLosses  []float64
	// Suppression tasks produce negative losses. shift[i] > 0 lifts task i
	// into the positive range: x = max(x, -shift) + shift.
	shift []float64

	ema     []float64
	initial []float64
}

func NewController(conf *famo.Config) *Controller {
	n := conf.NTasks
	c := &Controller{
		n:          n,
		w:          UniformWeights(n),
		opt:        NewAdam(n, conf.WLR, conf.Gamma),
		alpha:      conf.EMAAlpha,
		initSteps:  conf.InitSteps,
		normalizer: conf.Normalizer,
		minLosses:  make([]float64, n),
		shift:      make([]float64, n),
	}
	if conf.MinLosses != nil {
		copy(c.minLosses, conf.MinLosses)
	}
	for id := 0; id < n; id++ {
		if !conf.IsRejected(id) {
			continue
		}
		// a rejected task without a configured scale shifts by 1
		c.shift[id] = 1
		if s, ok := conf.LossScale[strconv.Itoa(id)]; ok {
			c.shift[id] = math.Max(1, 5*s)
		}
	}
	return c
}

func (c *Controller) Weights() []float64 { return append([]float64(nil), c.w...) }

func (c *Controller) Probabilities() []float64 { return Softmax(c.w) }

// InitialLosses is nil until the warm-up window closed.
func (c *Controller) InitialLosses() []float64 {
	if c.initial == nil {
		return nil
	}
	return append([]float64(nil), c.initial...)
}

// EMA is the running baseline, nil before the first observation.
func (c *Controller) EMA() []float64 {
	if c.ema == nil {
		return nil
	}
	return append([]float64(nil), c.ema...)
}

func (c *Controller) Phase() Phase {
	if c.initial != nil {
		return Active
	}
	return Warmup
}

func (c *Controller) Update(step uint64, prev, curr []float64) (Result, error) {
	if len(prev) != c.n || len(curr) != c.n {
		return Result{}, errors.Errorf("weighting: got %d and %d losses for %d tasks", len(prev), len(curr), c.n)
	}
	prevAdj := c.adjust(prev)
	currAdj := c.adjust(curr)

	// a non-finite observation must not poison the baseline
	if allFinite(currAdj) {
		c.observe(step, currAdj)
	}

	normPrev, normCurr := c.normalize(prevAdj, currAdj)
	delta := make([]float64, c.n)
	for i := range delta {
		delta[i] = math.Log(normPrev[i]-c.minLosses[i]+logEps) - math.Log(normCurr[i]-c.minLosses[i]+logEps)
	}
	res := Result{Phase: c.Phase(), Delta: delta}
	if !allFinite(delta) {
		res.Skipped = true
		return res, nil
	}

	c.opt.Step(c.w, SoftmaxVJP(c.w, delta))
	return res, nil
}

func (c *Controller) adjust(losses []float64) []float64 {
	out := append([]float64(nil), losses...)
	for i, s := range c.shift {
		if s > 0 {
			out[i] = math.Max(out[i], -s) + s
		}
	}
	return out
}

func (c *Controller) observe(step uint64, curr []float64) {
	if c.initial != nil {
		return
	}
	if step < c.initSteps {
		if c.ema == nil {
			c.ema = append([]float64(nil), curr...)
		}
		// ema = alpha*ema + (1-alpha)*curr
		floats.Scale(c.alpha, c.ema)
		floats.AddScaled(c.ema, 1-c.alpha, curr)
		return
	}
	if c.ema == nil {
		c.initial = append([]float64(nil), curr...)
		return
	}
	c.initial = append([]float64(nil), c.ema...)
}

func (c *Controller) normalize(prev, curr []float64) ([]float64, []float64) {
	switch {
	case c.normalizer == famo.NormalizerPairMax:
		m := math.Max(floats.Max(prev), floats.Max(curr)) + logEps
		floats.Scale(1/m, prev)
		floats.Scale(1/m, curr)
	case c.initial != nil:
		for i, base := range c.initial {
			base = math.Max(base, initialFloor)
			prev[i] /= base
			curr[i] /= base
		}
	}
	return prev, curr
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Static never moves w. It is the plain multi-task baseline where every task
// loss weighs 1/n.
type Static struct {
	w []float64
}

func NewStatic(n int) *Static { return &Static{w: UniformWeights(n)} }

func (s *Static) Update(step uint64, prev, curr []float64) (Result, error) {
	if len(prev) != len(s.w) || len(curr) != len(s.w) {
		return Result{}, errors.Errorf("weighting: got %d and %d losses for %d tasks", len(prev), len(curr), len(s.w))
	}
	return Result{Phase: Active}, nil
}

func (s *Static) Weights() []float64 { return append([]float64(nil), s.w...) }
