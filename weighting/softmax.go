package weighting

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax returns exp(w) normalized to sum to one.
func Softmax(w []float64) []float64 {
	s := make([]float64, len(w))
	if len(w) == 0 {
		return s
	}
	lse := floats.LogSumExp(w)
	for i, x := range w {
		s[i] = math.Exp(x - lse)
	}
	return s
}

// SoftmaxVJP is the vector-Jacobian product of softmax at w with upstream
// gradient g:
//	d_j = s_j * (g_j - sum_i s_i g_i)
func SoftmaxVJP(w, g []float64) []float64 {
	s := Softmax(w)
	dot := floats.Dot(s, g)
	d := make([]float64, len(w))
	copy(d, g)
	floats.AddConst(-dot, d)
	floats.Mul(d, s)
	return d
}
