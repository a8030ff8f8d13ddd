package famo

import (
	"encoding/json"
	"math"
	"strconv"
)

const (
	RejectedLossLog = "log"
	RejectedLossNPO = "npo"

	NormalizerBaseline = "baseline"
	NormalizerPairMax  = "pairmax"

	WeightingFAMO   = "famo"
	WeightingStatic = "static"
)

// Config is the recognized configuration of a training job. The json names
// follow the command line flags of the trainer family it replaces.
type Config struct {
	NTasks          int     `json:"n_tasks"`
	WorldSize       int     `json:"world_size"`
	UpdateFrequency uint64  `json:"famo_update_frequency"`
	Gamma           float64 `json:"gamma"`
	WLR             float64 `json:"w_lr"`
	EMAAlpha        float64 `json:"ema_alpha"`
	InitSteps       uint64  `json:"init_steps"`

	// Tasks whose objective is suppression rather than imitation.
	RejectedIDs      []int  `json:"rejected_ids"`
	RejectedLossType string `json:"rejected_loss_type"`
	// Keyed by task id, e.g. {"1": 1, "3": 0.4}. Missing ids scale by 1.
	LossScale          map[string]float64 `json:"loss_scale"`
	Beta               float64            `json:"beta"`
	DivergenceClampMax float64            `json:"divergence_clamp_max"`

	Normalizer string    `json:"normalizer"`
	Weighting  string    `json:"weighting"`
	MinLosses  []float64 `json:"min_losses"`

	BatchSize int    `json:"batch_size"`
	Seed      int64  `json:"seed"`
	DropLast  bool   `json:"drop_last"`
	MaxSteps  uint64 `json:"max_steps"`
}

// DefaultConfig has the values of the supervised fine tuning launcher.
func DefaultConfig(nTasks, worldSize int) *Config {
	return &Config{
		NTasks:           nTasks,
		WorldSize:        worldSize,
		UpdateFrequency:  10,
		Gamma:            0.01,
		WLR:              1e-3,
		EMAAlpha:         0.9,
		InitSteps:        100,
		RejectedLossType: RejectedLossLog,
		Beta:             0.1,
		Normalizer:       NormalizerBaseline,
		Weighting:        WeightingFAMO,
		BatchSize:        8,
		Seed:             42,
		MaxSteps:         1000,
	}
}

func Parse(buf []byte) (*Config, error) {
	conf := &Config{}
	err := json.Unmarshal(buf, conf)
	return conf, err
}

func Dump(conf *Config) ([]byte, error) {
	return json.MarshalIndent(conf, "", "  ")
}

// Validate fills in defaults for the optional enum fields and checks every
// constraint that can be checked before the dataset is seen.
func (c *Config) Validate() error {
	if c.NTasks < 1 {
		return NewConfigurationError("n_tasks", "must be positive, got %d", c.NTasks)
	}
	if c.WorldSize < 1 {
		return NewConfigurationError("world_size", "must be positive, got %d", c.WorldSize)
	}
	if c.WorldSize%c.NTasks != 0 {
		return NewConfigurationError("world_size", "%d workers can not be split evenly over %d tasks", c.WorldSize, c.NTasks)
	}
	if c.UpdateFrequency == 0 {
		return NewConfigurationError("famo_update_frequency", "must be positive")
	}
	if c.EMAAlpha < 0 || c.EMAAlpha > 1 {
		return NewConfigurationError("ema_alpha", "%v is outside [0, 1]", c.EMAAlpha)
	}
	if c.WLR <= 0 {
		return NewConfigurationError("w_lr", "must be positive, got %v", c.WLR)
	}
	if c.Gamma < 0 {
		return NewConfigurationError("gamma", "must not be negative, got %v", c.Gamma)
	}
	if c.BatchSize < 1 {
		return NewConfigurationError("batch_size", "must be positive, got %d", c.BatchSize)
	}
	seen := make(map[int]bool, len(c.RejectedIDs))
	for _, id := range c.RejectedIDs {
		if id < 0 || id >= c.NTasks {
			return NewConfigurationError("rejected_ids", "task id %d outside [0, %d)", id, c.NTasks)
		}
		if seen[id] {
			return NewConfigurationError("rejected_ids", "task id %d listed twice", id)
		}
		seen[id] = true
	}
	for key := range c.LossScale {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id >= c.NTasks {
			return NewConfigurationError("loss_scale", "key %q is not a task id in [0, %d)", key, c.NTasks)
		}
	}
	if c.MinLosses != nil && len(c.MinLosses) != c.NTasks {
		return NewConfigurationError("min_losses", "has %d entries for %d tasks", len(c.MinLosses), c.NTasks)
	}

	switch c.RejectedLossType {
	case "":
		c.RejectedLossType = RejectedLossLog
	case RejectedLossLog:
	case RejectedLossNPO:
		if c.Beta <= 0 {
			return NewConfigurationError("beta", "must be positive for npo, got %v", c.Beta)
		}
	default:
		return NewConfigurationError("rejected_loss_type", "unknown type %q", c.RejectedLossType)
	}
	switch c.Normalizer {
	case "":
		c.Normalizer = NormalizerBaseline
	case NormalizerBaseline, NormalizerPairMax:
	default:
		return NewConfigurationError("normalizer", "unknown normalizer %q", c.Normalizer)
	}
	switch c.Weighting {
	case "":
		c.Weighting = WeightingFAMO
	case WeightingFAMO, WeightingStatic:
	default:
		return NewConfigurationError("weighting", "unknown weighting %q", c.Weighting)
	}
	if c.DivergenceClampMax < 0 || math.IsNaN(c.DivergenceClampMax) {
		return NewConfigurationError("divergence_clamp_max", "invalid bound %v", c.DivergenceClampMax)
	}
	return nil
}

// IsRejected reports whether task id is a suppression task.
func (c *Config) IsRejected(id int) bool {
	for _, r := range c.RejectedIDs {
		if r == id {
			return true
		}
	}
	return false
}

// Scale returns the loss scale of task id.
func (c *Config) Scale(id int) float64 {
	if s, ok := c.LossScale[strconv.Itoa(id)]; ok {
		return s
	}
	return 1
}

// GroupSize is the number of workers sharing one task.
func (c *Config) GroupSize() int {
	return c.WorldSize / c.NTasks
}
