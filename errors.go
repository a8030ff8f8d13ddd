package famo

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError is returned before any training step when the job can
// not be set up as asked. It is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("famo: bad configuration %s: %s", e.Field, e.Reason)
}

// NewConfigurationError formats the reason like fmt.Sprintf.
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PartitionError reports a dataset which can not be split into per task
// ranges. TaskID is -1 when the error is not about a single task.
type PartitionError struct {
	TaskID int
	Reason string
}

func (e *PartitionError) Error() string {
	if e.TaskID < 0 {
		return "famo: partition: " + e.Reason
	}
	return fmt.Sprintf("famo: partition task %d: %s", e.TaskID, e.Reason)
}

// IsConfigurationError is true for both ConfigurationError and PartitionError,
// wrapped or not.
func IsConfigurationError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ConfigurationError, *PartitionError:
		return true
	}
	return false
}

// NumericInstabilityWarning describes a weight update that was skipped
// because the progress signal was not finite. Training carries on with the
// previous weights.
type NumericInstabilityWarning struct {
	Step  uint64
	Delta []float64
}

func (w *NumericInstabilityWarning) Error() string {
	return fmt.Sprintf("famo: non-finite delta at step %d, update skipped: %v", w.Step, w.Delta)
}

// SynchronizationFailure is fatal for the whole run.
type SynchronizationFailure struct {
	Op   string
	Step uint64
	Err  error
}

func (e *SynchronizationFailure) Error() string {
	return fmt.Sprintf("famo: %s failed at step %d: %v", e.Op, e.Step, e.Err)
}

func (e *SynchronizationFailure) Cause() error { return e.Err }

func (e *SynchronizationFailure) Unwrap() error { return e.Err }
