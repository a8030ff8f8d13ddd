package framework

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/metrics"
	"github.com/taskgraph/famo/partition"
	"github.com/taskgraph/famo/sampler"
	"github.com/taskgraph/famo/transform"
	"github.com/taskgraph/famo/weighting"
	"golang.org/x/net/context"
)

// TaskSpec is the immutable description of the task a rank trains.
type TaskSpec struct {
	ID        int
	Range     famo.Range
	Transform transform.Transform
}

// Trainer runs the per step control loop of one rank. All ranks of a job
// call Step in lock step; every collective in it is a synchronization point.
type Trainer struct {
	conf *famo.Config
	coll famo.Collective
	log  *log.Logger

	task       TaskSpec
	loader     *sampler.Loader
	transforms []transform.Transform

	model     famo.Model
	reference famo.ReferenceModel
	optimizer famo.Optimizer
	metrics   famo.MetricsSink

	// only rank 0 has an updater
	updater weighting.Updater
	replica *replica
	pending *pendingSlot

	step    uint64
	skipped uint64
}

// StepReport tells what one step did. Update is set on rank 0 at scheduled
// update steps.
type StepReport struct {
	Step     uint64
	TaskID   int
	RawLoss  float64
	Loss     float64
	StepLoss float64
	// per task transformed losses summed over all ranks
	Losses []float64

	// softmax(w) the step trained with
	TrainWeights []float64

	Updated bool
	// step at which the re-evaluated batch was recorded
	PendingStep uint64
	Update      *weighting.Result
	Weights     []float64
}

// New wires a trainer for the rank of coll. Configuration problems come back
// as *famo.ConfigurationError or *famo.PartitionError before any step runs.
func New(conf *famo.Config, coll famo.Collective, wl *famo.Workload) (*Trainer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if coll.Size() != conf.WorldSize {
		return nil, famo.NewConfigurationError("world_size", "configured %d workers, collective has %d", conf.WorldSize, coll.Size())
	}
	if wl.Dataset == nil || wl.Model == nil || wl.Optimizer == nil {
		return nil, famo.NewConfigurationError("workload", "dataset, model and optimizer are required")
	}

	ranges, err := partition.Split(wl.Dataset, conf.NTasks)
	if err != nil {
		return nil, err
	}
	s, err := sampler.New(ranges, coll.Rank(), conf.WorldSize, conf.Seed, conf.DropLast)
	if err != nil {
		return nil, err
	}
	loader, err := sampler.NewLoader(s, wl.Dataset, conf.BatchSize)
	if err != nil {
		return nil, err
	}
	transforms, err := transform.Resolve(conf)
	if err != nil {
		return nil, err
	}
	task := TaskSpec{ID: s.TaskID(), Range: s.Partition(), Transform: transforms[s.TaskID()]}
	if task.Transform.NeedsReference() && wl.Reference == nil {
		return nil, famo.NewConfigurationError("workload", "task %d uses %v and needs a reference model", task.ID, task.Transform)
	}

	logger := wl.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "", log.Lshortfile|log.Ltime|log.Ldate)
	}
	logger.SetPrefix(fmt.Sprintf("rank %d: ", coll.Rank()))

	t := &Trainer{
		conf:       conf,
		coll:       coll,
		log:        logger,
		task:       task,
		loader:     loader,
		transforms: transforms,
		model:      wl.Model,
		reference:  wl.Reference,
		optimizer:  wl.Optimizer,
		metrics:    wl.Metrics,
		replica:    newReplica(weighting.UniformWeights(conf.NTasks)),
		pending:    newPendingSlot(),
	}
	if coll.Rank() == 0 {
		t.updater = weighting.New(conf)
	}
	return t, nil
}

func (t *Trainer) Task() TaskSpec { return t.task }

func (t *Trainer) Rank() int { return t.coll.Rank() }

// CurrentStep is the number of completed steps.
func (t *Trainer) CurrentStep() uint64 { return t.step }

// Weights returns softmax(w) of the latest broadcast.
func (t *Trainer) Weights() []float64 { return weighting.Softmax(t.replica.get()) }

// Run steps until steps steps completed or an error. A synchronization
// failure ends the run for good.
func (t *Trainer) Run(ctx context.Context, steps uint64) error {
	t.log.Printf("training task %d %v on %v with %d workers, %d steps",
		t.task.ID, t.task.Transform, t.task.Range, t.conf.GroupSize(), steps)
	for t.step < steps {
		if _, err := t.Step(ctx); err != nil {
			t.log.Printf("step %d failed: %v", t.step, err)
			return err
		}
	}
	return nil
}

func (t *Trainer) Step(ctx context.Context) (*StepReport, error) {
	ctx = withStep(ctx, t.step, t.coll)
	batch, err := t.loader.Next()
	if err != nil {
		return nil, errors.Wrapf(err, "step %d: load batch", t.step)
	}
	weights := weighting.Softmax(t.replica.get())

	raw, value, err := t.forwardBackward(ctx, batch, weights[batch.TaskID])
	if err != nil {
		return nil, err
	}
	rep := &StepReport{
		Step:         t.step,
		TaskID:       batch.TaskID,
		RawLoss:      raw,
		Loss:         value,
		StepLoss:     value * weights[batch.TaskID],
		TrainWeights: weights,
	}

	rep.Losses, err = t.reduce(ctx, "AllReduceSum", batch.TaskID, value)
	if err != nil {
		return nil, err
	}

	freq := t.conf.UpdateFrequency
	if t.step > 0 && t.step%freq == 0 {
		if err := t.update(ctx, rep); err != nil {
			return nil, err
		}
	}
	if t.step%freq == 0 {
		t.pending.put(&pendingBatch{step: t.step, batch: batch, losses: rep.Losses})
	}

	if err := t.optimizer.Step(ctx); err != nil {
		return nil, errors.Wrapf(err, "step %d: model optimizer", t.step)
	}
	t.optimizer.ZeroGrad()

	rep.Weights = t.Weights()
	t.step++
	return rep, nil
}

// forwardBackward backpropagates weight * transform(loss) and returns the raw
// and transformed loss.
func (t *Trainer) forwardBackward(ctx context.Context, batch *famo.Batch, weight float64) (float64, float64, error) {
	loss, err := t.model.Forward(ctx, batch)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "step %d: forward", t.step)
	}
	raw := loss.Value()
	tr := t.transforms[batch.TaskID]
	ref, err := t.referenceLoss(ctx, tr, batch)
	if err != nil {
		return 0, 0, err
	}
	value, grad := tr.Apply(raw, ref)
	if err := loss.Backward(grad * weight); err != nil {
		return 0, 0, errors.Wrapf(err, "step %d: backward", t.step)
	}
	return raw, value, nil
}

func (t *Trainer) referenceLoss(ctx context.Context, tr transform.Transform, batch *famo.Batch) (float64, error) {
	if !tr.NeedsReference() {
		return 0, nil
	}
	ref, err := t.reference.Evaluate(ctx, batch)
	if err != nil {
		return 0, errors.Wrapf(err, "step %d: reference model", t.step)
	}
	return ref, nil
}

// reduce places value at task in a dense vector and sums it over all ranks.
func (t *Trainer) reduce(ctx context.Context, op string, task int, value float64) ([]float64, error) {
	vec := make([]float64, t.conf.NTasks)
	vec[task] = value
	sum, err := t.coll.AllReduceSum(ctx, vec)
	if err != nil {
		return nil, t.syncFailure(op, err)
	}
	return sum, nil
}

// update re-evaluates the pending batch under the current model, lets rank 0
// move w and broadcasts the result.
func (t *Trainer) update(ctx context.Context, rep *StepReport) error {
	p, ok := t.pending.take()
	if !ok || p.step+t.conf.UpdateFrequency != t.step {
		return errors.Errorf("step %d: no pending batch recorded at step %d", t.step, t.step-t.conf.UpdateFrequency)
	}

	cur, err := t.model.Evaluate(ctx, p.batch)
	if err != nil {
		return errors.Wrapf(err, "step %d: re-evaluate batch of step %d", t.step, p.step)
	}
	tr := t.transforms[p.batch.TaskID]
	ref, err := t.referenceLoss(ctx, tr, p.batch)
	if err != nil {
		return err
	}
	value, _ := tr.Apply(cur, ref)
	curr, err := t.reduce(ctx, "AllReduceSum(re-evaluation)", p.batch.TaskID, value)
	if err != nil {
		return err
	}

	var w []float64
	if t.updater != nil {
		res, err := t.updater.Update(t.step, p.losses, curr)
		if err != nil {
			return errors.Wrapf(err, "step %d: weight update", t.step)
		}
		if res.Skipped {
			t.skipped++
			t.log.Printf("%v", &famo.NumericInstabilityWarning{Step: t.step, Delta: res.Delta})
		}
		rep.Update = &res
		w = t.updater.Weights()
		t.report(rep, res)
	}

	if err := t.coll.Barrier(ctx); err != nil {
		return t.syncFailure("Barrier", err)
	}
	w, err = t.coll.Broadcast(ctx, 0, w)
	if err != nil {
		return t.syncFailure("Broadcast", err)
	}
	if len(w) != t.conf.NTasks {
		return t.syncFailure("Broadcast", errors.Errorf("received %d weights for %d tasks", len(w), t.conf.NTasks))
	}
	t.replica.refresh(w)

	rep.Updated = true
	rep.PendingStep = p.step
	return nil
}

// report sends the update to the metrics sink. Weights are the ones this step
// trained with, not the result of the update. Failures are only logged.
func (t *Trainer) report(rep *StepReport, res weighting.Result) {
	if t.metrics == nil {
		return
	}
	values := make(map[string]float64, 3*t.conf.NTasks+1)
	for i, p := range rep.TrainWeights {
		values[metrics.TaskWeight(i)] = p
		values[metrics.TaskLoss(i)] = rep.Losses[i]
		if res.Delta != nil {
			values[metrics.TaskDelta(i)] = res.Delta[i]
		}
	}
	values[metrics.SkippedUpdates] = float64(t.skipped)
	if err := t.metrics.Log(t.step, values); err != nil {
		t.log.Printf("metrics sink failed at step %d: %v", t.step, err)
	}
}

func (t *Trainer) syncFailure(op string, err error) error {
	return &famo.SynchronizationFailure{Op: op, Step: t.step, Err: err}
}
