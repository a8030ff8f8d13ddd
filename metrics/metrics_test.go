package metrics

import (
	"bytes"
	"errors"
	"log"
	"testing"
)

type failing struct{}

func (failing) Log(uint64, map[string]float64) error { return errors.New("sink down") }

func TestLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLoggerSink(log.New(&buf, "", 0))
	if err := s.Log(20, map[string]float64{TaskWeight(1): 0.25, TaskWeight(0): 0.75}); err != nil {
		t.Fatal(err)
	}
	want := "step 20: task_0_weight=0.75 task_1_weight=0.25\n"
	if buf.String() != want {
		t.Errorf("logged %q, want %q", buf.String(), want)
	}
}

func TestMultiKeepsGoing(t *testing.T) {
	rec := &Recorder{}
	m := Multi{failing{}, rec}
	if err := m.Log(3, map[string]float64{TaskLoss(0): 1}); err == nil {
		t.Error("failing sink error swallowed")
	}
	records := rec.Records()
	if len(records) != 1 || records[0].Step != 3 || records[0].Values["task_0_loss"] != 1 {
		t.Errorf("records = %v", records)
	}
}
