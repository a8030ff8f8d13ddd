package weighting

import "math"

// Adam optimizes one small dense vector. Weight decay is added to the
// gradient before the moments are updated (L2 style, not decoupled).
//
//	g     = grad + weightDecay * param
//	m     = beta1*m + (1-beta1)*g
//	v     = beta2*v + (1-beta2)*g^2
//	param = param - lr * (m/(1-beta1^t)) / (sqrt(v/(1-beta2^t)) + eps)
type Adam struct {
	lr          float64
	beta1       float64
	beta2       float64
	epsilon     float64
	weightDecay float64

	m []float64
	v []float64
	t int
}

func NewAdam(size int, lr, weightDecay float64) *Adam {
	return &Adam{
		lr:          lr,
		beta1:       0.9,
		beta2:       0.999,
		epsilon:     1e-8,
		weightDecay: weightDecay,
		m:           make([]float64, size),
		v:           make([]float64, size),
	}
}

// Step updates param in place.
func (opt *Adam) Step(param, grad []float64) {
	opt.t++
	bias1 := 1 - math.Pow(opt.beta1, float64(opt.t))
	bias2 := 1 - math.Pow(opt.beta2, float64(opt.t))

	for i := range param {
		g := grad[i] + opt.weightDecay*param[i]
		opt.m[i] = opt.beta1*opt.m[i] + (1-opt.beta1)*g
		opt.v[i] = opt.beta2*opt.v[i] + (1-opt.beta2)*g*g

		mHat := opt.m[i] / bias1
		vHat := opt.v[i] / bias2
		param[i] -= opt.lr * mHat / (math.Sqrt(vHat) + opt.epsilon)
	}
}

// Steps taken so far.
func (opt *Adam) Steps() int { return opt.t }
