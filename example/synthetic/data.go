// Package synthetic is a small multi-task linear regression problem that
// trains end to end on the framework. Each task draws its targets from its
// own ground truth, so one shared model can not fit all of them equally and
// the task weights have something to balance.
package synthetic

import (
	"math/rand"

	"github.com/taskgraph/famo/dataset"
	"gonum.org/v1/gonum/floats"
)

// Generate returns perTask records for each of nTasks tasks, grouped by task.
// Task i has ground truth theta_i and noise level 0.1*(i+1).
func Generate(nTasks, perTask, dim int, seed int64) dataset.Memory {
	rnd := rand.New(rand.NewSource(seed))
	m := make(dataset.Memory, 0, nTasks*perTask)
	for task := 0; task < nTasks; task++ {
		theta := make([]float64, dim)
		for j := range theta {
			theta[j] = rnd.NormFloat64()
		}
		noise := 0.1 * float64(task+1)
		for i := 0; i < perTask; i++ {
			x := make([]float64, dim)
			for j := range x {
				x[j] = rnd.NormFloat64()
			}
			m = append(m, &dataset.Record{
				Task:     task,
				Features: x,
				Target:   floats.Dot(theta, x) + noise*rnd.NormFloat64(),
			})
		}
	}
	return m
}
