package famo

import (
	"reflect"
	"testing"
)

func TestConfigParseDump(t *testing.T) {
	conf := DefaultConfig(4, 8)
	conf.RejectedIDs = []int{1, 3}
	conf.LossScale = map[string]float64{"1": 1, "3": 0.4}
	buf, err := Dump(conf)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	got, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(got, conf) {
		t.Errorf("Parse(Dump()) = %+v, want %+v", got, conf)
	}
	if got.Scale(3) != 0.4 || got.Scale(0) != 1 {
		t.Errorf("Scale(3), Scale(0) = %v, %v", got.Scale(3), got.Scale(0))
	}
	if !got.IsRejected(1) || got.IsRejected(2) {
		t.Errorf("IsRejected(1), IsRejected(2) = %v, %v", got.IsRejected(1), got.IsRejected(2))
	}
}

func TestConfigParseKeys(t *testing.T) {
	conf, err := Parse([]byte(`{"n_tasks": 2, "world_size": 4, "famo_update_frequency": 5,
		"w_lr": 0.01, "rejected_ids": [1], "loss_scale": {"1": 0.5}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if conf.NTasks != 2 || conf.UpdateFrequency != 5 || conf.WLR != 0.01 || conf.Scale(1) != 0.5 {
		t.Errorf("parsed %+v", conf)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if conf.RejectedLossType != RejectedLossLog || conf.Normalizer != NormalizerBaseline || conf.Weighting != WeightingFAMO {
		t.Errorf("defaults not filled in: %q %q %q", conf.RejectedLossType, conf.Normalizer, conf.Weighting)
	}
	if conf.GroupSize() != 2 {
		t.Errorf("GroupSize = %d, want 2", conf.GroupSize())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		mutate func(c *Config)
		field  string
	}{
		{func(c *Config) {}, ""},
		{func(c *Config) { c.NTasks = 0 }, "n_tasks"},
		{func(c *Config) { c.WorldSize = 3 }, "world_size"},
		{func(c *Config) { c.UpdateFrequency = 0 }, "famo_update_frequency"},
		{func(c *Config) { c.EMAAlpha = 1.5 }, "ema_alpha"},
		{func(c *Config) { c.WLR = 0 }, "w_lr"},
		{func(c *Config) { c.Gamma = -1 }, "gamma"},
		{func(c *Config) { c.BatchSize = 0 }, "batch_size"},
		{func(c *Config) { c.RejectedIDs = []int{2} }, "rejected_ids"},
		{func(c *Config) { c.RejectedIDs = []int{1, 1} }, "rejected_ids"},
		{func(c *Config) { c.LossScale = map[string]float64{"x": 1} }, "loss_scale"},
		{func(c *Config) { c.MinLosses = []float64{0} }, "min_losses"},
		{func(c *Config) { c.RejectedLossType = "kl" }, "rejected_loss_type"},
		{func(c *Config) { c.RejectedLossType = RejectedLossNPO; c.Beta = 0 }, "beta"},
		{func(c *Config) { c.Normalizer = "max" }, "normalizer"},
		{func(c *Config) { c.Weighting = "uniform" }, "weighting"},
		{func(c *Config) { c.DivergenceClampMax = -1 }, "divergence_clamp_max"},
	}
	for i, tt := range tests {
		conf := DefaultConfig(2, 4)
		tt.mutate(conf)
		err := conf.Validate()
		if tt.field == "" {
			if err != nil {
				t.Errorf("#%d: Validate failed: %v", i, err)
			}
			continue
		}
		ce, ok := err.(*ConfigurationError)
		if !ok {
			t.Errorf("#%d: Validate error = %v, want *ConfigurationError", i, err)
			continue
		}
		if ce.Field != tt.field {
			t.Errorf("#%d: field = %q, want %q", i, ce.Field, tt.field)
		}
	}
}
