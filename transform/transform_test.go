package transform

import (
	"math"
	"testing"

	"github.com/taskgraph/famo"
)

const tol = 1e-9

func TestIdentity(t *testing.T) {
	for _, loss := range []float64{0, 0.5, 3, 100} {
		v, g := NewIdentity().Apply(loss, 42)
		if v != loss || g != 1 {
			t.Errorf("identity(%v) = (%v, %v), want (%v, 1)", loss, v, g, loss)
		}
	}
}

func TestLogPenaltyAtZero(t *testing.T) {
	v, _ := NewLogPenalty(0.4).Apply(0, 0)
	if v != 0 {
		t.Fatalf("log penalty of 0 = %v, want 0", v)
	}
}

func TestLogPenaltyMonotone(t *testing.T) {
	tr := NewLogPenalty(2)
	prev := math.Inf(1)
	for loss := 0.0; loss < 1e6; loss = loss*3 + 0.1 {
		v, g := tr.Apply(loss, 0)
		if v > prev {
			t.Fatalf("log penalty increased at loss %v: %v > %v", loss, v, prev)
		}
		if g >= 0 {
			t.Fatalf("derivative at loss %v = %v, want negative", loss, g)
		}
		prev = v
	}
	big := 1e12
	v, _ := tr.Apply(big, 0)
	if want := -2 * math.Log(big); math.Abs(v-want) > 1e-6 {
		t.Errorf("log penalty(%v) = %v, want about %v", big, v, want)
	}
}

func TestLogPenaltyDerivative(t *testing.T) {
	tr := NewLogPenalty(0.7)
	for _, loss := range []float64{0, 0.3, 2, 9} {
		_, g := tr.Apply(loss, 0)
		h := 1e-6
		hi, _ := tr.Apply(loss+h, 0)
		lo, _ := tr.Apply(loss, 0)
		if num := (hi - lo) / h; math.Abs(num-g) > 1e-4 {
			t.Errorf("derivative at %v = %v, numeric %v", loss, g, num)
		}
	}
}

func TestReferenceDivergenceAtEqualLosses(t *testing.T) {
	for _, beta := range []float64{0.1, 0.5, 1, 2} {
		tr := NewReferenceDivergence(beta, 1, 0)
		v, _ := tr.Apply(1.25, 1.25)
		want := math.Ln2 * 2 / beta
		if math.Abs(v-want) > tol {
			t.Errorf("beta %v: divergence at ratio 0 = %v, want %v", beta, v, want)
		}
	}
}

func TestReferenceDivergenceClamp(t *testing.T) {
	tr := NewReferenceDivergence(0.1, 1e-3, 1e-3)
	// 2*ln2/0.1 * 1e-3 is above the bound
	v, g := tr.Apply(2, 2)
	if v != 1e-3 || g != 0 {
		t.Errorf("clamped divergence = (%v, %v), want (1e-3, 0)", v, g)
	}
	// far above the reference the loss vanishes but stays positive
	v, _ = NewReferenceDivergence(1, 1, 0).Apply(1e4, 0)
	if v != lossFloor {
		t.Errorf("divergence far above reference = %v, want floor %v", v, lossFloor)
	}
}

func TestReferenceDivergenceDerivative(t *testing.T) {
	tr := NewReferenceDivergence(0.5, 1, 0)
	for _, cur := range []float64{0.5, 1, 3} {
		_, g := tr.Apply(cur, 1)
		h := 1e-6
		hi, _ := tr.Apply(cur+h, 1)
		lo, _ := tr.Apply(cur, 1)
		if num := (hi - lo) / h; math.Abs(num-g) > 1e-4 {
			t.Errorf("derivative at %v = %v, numeric %v", cur, g, num)
		}
		if g >= 0 {
			t.Errorf("derivative at %v = %v, want negative", cur, g)
		}
	}
}

func TestResolve(t *testing.T) {
	conf := famo.DefaultConfig(4, 4)
	conf.RejectedIDs = []int{1, 3}
	conf.LossScale = map[string]float64{"1": 1, "3": 0.4}
	ts, err := Resolve(conf)
	if err != nil {
		t.Fatal(err)
	}
	want := []Transform{NewIdentity(), NewLogPenalty(1), NewIdentity(), NewLogPenalty(0.4)}
	for i := range want {
		if ts[i] != want[i] {
			t.Errorf("task %d: %v, want %v", i, ts[i], want[i])
		}
	}
	if ts[3].NeedsReference() {
		t.Error("log penalty tasks should not need a reference model")
	}

	conf.RejectedLossType = famo.RejectedLossNPO
	ts, err = Resolve(conf)
	if err != nil {
		t.Fatal(err)
	}
	if ts[3].Kind != ReferenceDivergence || ts[3].Scale != 0.4 || !math.IsInf(ts[3].Max, 1) {
		t.Errorf("task 3: %v, want unbounded reference divergence scaled by 0.4", ts[3])
	}
	if !ts[3].NeedsReference() || ts[2].NeedsReference() {
		t.Error("npo tasks need a reference model")
	}
}

func TestResolveBadTask(t *testing.T) {
	conf := famo.DefaultConfig(2, 2)
	conf.RejectedIDs = []int{2}
	if _, err := Resolve(conf); !famo.IsConfigurationError(err) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}
