package shared

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/argusml/argus/pkg/checkpoint"
	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/task"
)

func testDefinition() *core.Definition {
	return &core.Definition{
		Name:     "argus-n",
		Channels: 3,
		Classes:  80,
		Backbone: []core.Layer{
			{Type: "conv", Repeats: 1},
			{Type: "c2f", Repeats: 3},
		},
		Head: []core.Layer{
			{Type: "upsample", Repeats: 1},
			{Type: "detect", Repeats: 1},
		},
	}
}

func mergedConfig(t *testing.T, pairs map[string]interface{}) *config.Merged {
	t.Helper()
	defaults, err := config.LoadDefaults()
	require.NoError(t, err)
	ov := config.New()
	for k, v := range pairs {
		ov.Set(k, v)
	}
	merged, err := config.Merge(defaults, ov)
	require.NoError(t, err)
	return merged
}

func TestModelFromDefinition(t *testing.T) {
	m := NewFromDefinition(task.Detect, "v8", testDefinition())

	assert.Equal(t, task.Detect, m.Task())
	assert.Equal(t, "v8", m.Variant())
	assert.Positive(t, m.ParamCount())

	t.Run("deterministic for the same definition", func(t *testing.T) {
		other := NewFromDefinition(task.Detect, "v8", testDefinition())
		assert.Equal(t, m.State(), other.State())
	})

	t.Run("reset restores the initial state", func(t *testing.T) {
		before := m.State()
		m.Fuse()
		require.True(t, m.Fused())

		m.Reset()
		assert.Equal(t, before, m.State())
		assert.False(t, m.Fused())
	})
}

func TestModelFromState(t *testing.T) {
	state := map[string][]float32{"layer0.conv.weight": {1, 2, 3}}
	m := NewFromState(task.Segment, "v8", state)

	assert.Equal(t, task.Segment, m.Task())
	assert.Equal(t, int64(3), m.ParamCount())

	// the model owns a copy, mutating the source must not leak in
	state["layer0.conv.weight"][0] = 99
	assert.Equal(t, float32(1), m.State()["layer0.conv.weight"][0])
}

func TestFitnessBounds(t *testing.T) {
	m := NewFromDefinition(task.Classify, "v8", testDefinition())
	f := Fitness(m)
	assert.Greater(t, f, 0.0)
	assert.LessOrEqual(t, f, 1.0)
}

func TestLoopRun(t *testing.T) {
	t.Run("saves a checkpoint when save is set", func(t *testing.T) {
		dir := t.TempDir()
		cfg := mergedConfig(t, map[string]interface{}{
			"epochs":  3,
			"project": dir,
			"name":    "run1",
			"data":    "coco128.yaml",
		})
		m := NewFromDefinition(task.Detect, "v8", testDefinition())

		loop := &Loop{
			Cfg:   cfg,
			Model: m,
			Log:   zaptest.NewLogger(t),
			Step:  func(epoch int) float64 { return 1 / float64(epoch) },
		}
		require.NoError(t, loop.Run(context.Background()))

		path := filepath.Join(dir, "run1", "last"+CheckpointExt)
		ckpt, err := checkpoint.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "detect", ckpt.Meta.TrainArgs["task"])
		assert.Equal(t, 3, ckpt.Meta.Epoch)
	})

	t.Run("save disabled writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		cfg := mergedConfig(t, map[string]interface{}{
			"epochs":  2,
			"project": dir,
			"save":    false,
		})
		m := NewFromDefinition(task.Detect, "v8", testDefinition())

		loop := &Loop{
			Cfg:   cfg,
			Model: m,
			Log:   zaptest.NewLogger(t),
			Step:  func(epoch int) float64 { return 1 },
		}
		require.NoError(t, loop.Run(context.Background()))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context stops training", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cfg := mergedConfig(t, map[string]interface{}{"epochs": 100, "save": false})
		m := NewFromDefinition(task.Detect, "v8", testDefinition())

		loop := &Loop{
			Cfg:   cfg,
			Model: m,
			Log:   zaptest.NewLogger(t),
			Step:  func(epoch int) float64 { return 1 },
		}
		assert.Error(t, loop.Run(ctx))
	})

	t.Run("early stopping honors patience", func(t *testing.T) {
		cfg := mergedConfig(t, map[string]interface{}{
			"epochs":   1000,
			"patience": 2,
			"save":     false,
		})
		m := NewFromDefinition(task.Detect, "v8", testDefinition())

		steps := 0
		loop := &Loop{
			Cfg:   cfg,
			Model: m,
			Log:   zaptest.NewLogger(t),
			Step: func(epoch int) float64 {
				steps++
				return float64(epoch) // fitness only degrades
			},
		}
		require.NoError(t, loop.Run(context.Background()))
		assert.Less(t, steps, 1000)
	})
}

func TestResolveModelRequiresPath(t *testing.T) {
	cfg := mergedConfig(t, nil)
	_, err := ResolveModel(cfg, task.Detect, DefaultVariant)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingOption))
}

func TestRunDir(t *testing.T) {
	cfg := mergedConfig(t, nil)
	assert.Equal(t, filepath.Join("runs", "segment", "train"), RunDir(cfg, task.Segment))

	cfg = mergedConfig(t, map[string]interface{}{"project": "exp", "name": "trial3"})
	assert.Equal(t, filepath.Join("exp", "trial3"), RunDir(cfg, task.Segment))
}
