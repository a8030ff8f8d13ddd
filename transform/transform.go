// Package transform maps a task's raw batch loss to the value that takes
// part in task weighting. Suppression tasks turn "fit these examples" into
// "move away from these examples".
package transform

import (
	"fmt"
	"math"

	"github.com/taskgraph/famo"
)

type Kind int

const (
	Identity Kind = iota
	LogPenalty
	ReferenceDivergence
)

func (k Kind) String() string {
	switch k {
	case Identity:
		return "identity"
	case LogPenalty:
		return "log-penalty"
	case ReferenceDivergence:
		return "reference-divergence"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Losses fed into the reference divergence are floored here.
const lossFloor = 1e-8

// Transform is resolved once per task. Only the fields of its Kind are used.
type Transform struct {
	Kind  Kind
	Scale float64
	Beta  float64
	// Bounds of the reference divergence output.
	Min, Max float64
}

func NewIdentity() Transform { return Transform{Kind: Identity} }

func NewLogPenalty(scale float64) Transform {
	return Transform{Kind: LogPenalty, Scale: scale}
}

// NewReferenceDivergence bounds the output to [1e-8, max]. A max of zero
// leaves it unbounded above.
func NewReferenceDivergence(beta, scale, max float64) Transform {
	if max == 0 {
		max = math.Inf(1)
	}
	return Transform{Kind: ReferenceDivergence, Scale: scale, Beta: beta, Min: lossFloor, Max: max}
}

// NeedsReference tells whether Apply wants the frozen model's loss.
func (t Transform) NeedsReference() bool { return t.Kind == ReferenceDivergence }

// Apply returns the transformed loss and its derivative with respect to
// loss. ref is ignored unless the transform needs a reference.
func (t Transform) Apply(loss, ref float64) (value, grad float64) {
	switch t.Kind {
	case LogPenalty:
		return -t.Scale * math.Log1p(loss), -t.Scale / (1 + loss)
	case ReferenceDivergence:
		return t.divergence(loss, ref)
	}
	return loss, 1
}

//	ratio = max(cur, 1e-8) - max(ref, 1e-8)
//	out   = clamp(scale * -logsigmoid(beta*ratio) * 2/beta, min, max)
func (t Transform) divergence(cur, ref float64) (float64, float64) {
	curGrad := 1.0
	if cur < lossFloor {
		cur, curGrad = lossFloor, 0
	}
	if ref < lossFloor {
		ref = lossFloor
	}
	x := t.Beta * (cur - ref)
	raw := t.Scale * softplus(-x) * 2 / t.Beta
	switch {
	case raw < t.Min:
		return t.Min, 0
	case raw > t.Max:
		return t.Max, 0
	}
	// d/dx softplus(-x) = -sigmoid(-x)
	return raw, -2 * t.Scale * sigmoid(-x) * curGrad
}

// softplus(x) = log(1+exp(x)) = -logsigmoid(-x), stable for large |x|.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func (t Transform) String() string {
	switch t.Kind {
	case LogPenalty:
		return fmt.Sprintf("%v(scale=%g)", t.Kind, t.Scale)
	case ReferenceDivergence:
		return fmt.Sprintf("%v(beta=%g, scale=%g, range=[%g, %g])", t.Kind, t.Beta, t.Scale, t.Min, t.Max)
	}
	return t.Kind.String()
}

// Resolve picks the transform of every task from the configuration.
func Resolve(conf *famo.Config) ([]Transform, error) {
	ts := make([]Transform, conf.NTasks)
	for id := range ts {
		ts[id] = NewIdentity()
	}
	for _, id := range conf.RejectedIDs {
		if id < 0 || id >= conf.NTasks {
			return nil, famo.NewConfigurationError("rejected_ids", "task id %d outside [0, %d)", id, conf.NTasks)
		}
		switch conf.RejectedLossType {
		case famo.RejectedLossNPO:
			if conf.Beta <= 0 {
				return nil, famo.NewConfigurationError("beta", "must be positive, got %v", conf.Beta)
			}
			ts[id] = NewReferenceDivergence(conf.Beta, conf.Scale(id), conf.DivergenceClampMax)
		case famo.RejectedLossLog, "":
			ts[id] = NewLogPenalty(conf.Scale(id))
		default:
			return nil, famo.NewConfigurationError("rejected_loss_type", "unknown type %q", conf.RejectedLossType)
		}
	}
	return ts, nil
}
