// Package metrics holds the sinks the weight updates are reported to.
package metrics

import (
	"bytes"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
)

const SkippedUpdates = "famo_skipped_updates"

func TaskWeight(task int) string { return fmt.Sprintf("task_%d_weight", task) }

func TaskLoss(task int) string { return fmt.Sprintf("task_%d_loss", task) }

func TaskDelta(task int) string { return fmt.Sprintf("task_%d_delta", task) }

// LoggerSink prints one line per update, keys sorted.
type LoggerSink struct {
	logger *log.Logger
}

func NewLoggerSink(logger *log.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

func (s *LoggerSink) Log(step uint64, values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "step %d:", step)
	for _, k := range keys {
		fmt.Fprintf(&buf, " %s=%.6g", k, values[k])
	}
	return s.logger.Output(2, buf.String())
}

type Record struct {
	Step   uint64
	Values map[string]float64
}

// Recorder keeps everything in memory.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *Recorder) Log(step uint64, values map[string]float64) error {
	cp := make(map[string]float64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	r.mu.Lock()
	r.records = append(r.records, Record{Step: step, Values: cp})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Multi logs to every sink even if some fail. The first error is returned.
type Multi []famo.MetricsSink

func (m Multi) Log(step uint64, values map[string]float64) error {
	var first error
	for i, s := range m {
		if err := s.Log(step, values); err != nil && first == nil {
			first = errors.Wrapf(err, "metrics sink %d", i)
		}
	}
	return first
}
