package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusml/argus/pkg/checkpoint"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/ops/shared"
	"github.com/argusml/argus/pkg/task"

	_ "github.com/argusml/argus/pkg/ops/classify"
	_ "github.com/argusml/argus/pkg/ops/detect"
	_ "github.com/argusml/argus/pkg/ops/export"
	_ "github.com/argusml/argus/pkg/ops/segment"
)

const detectDefinition = `
name: argus-test
channels: 3
nc: 80
backbone:
  - {from: -1, repeats: 1, type: conv}
  - {from: -1, repeats: 3, type: c2f}
head:
  - {from: -1, repeats: 1, type: upsample}
  - {from: -1, repeats: 1, type: detect}
`

func chdirTemp(t *testing.T) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeDefinition(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func writeCheckpoint(t *testing.T, kind task.Kind) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights"+shared.CheckpointExt)
	meta := checkpoint.Metadata{
		Task:      string(kind),
		Variant:   "v8",
		Epoch:     7,
		SavedAt:   time.Now().UTC(),
		TrainArgs: map[string]interface{}{"task": string(kind)},
	}
	state := map[string][]float32{"layer0.conv.weight": {0.1, -0.2, 0.3}}
	require.NoError(t, checkpoint.Save(path, meta, state, checkpoint.SaveOptions{}))
	return path
}

func TestFacadeNew(t *testing.T) {
	f := NewFacade("")
	require.Equal(t, StateUninitialized, f.State())

	require.NoError(t, f.New(writeDefinition(t, detectDefinition)))
	assert.Equal(t, StateConstructed, f.State())
	assert.Equal(t, task.Detect, f.Task())

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, task.Detect, info.Task)
	assert.Equal(t, shared.DefaultVariant, info.Variant)
	assert.Positive(t, info.Parameters)
}

func TestFacadeNewRejectsUnknownHead(t *testing.T) {
	doc := `
head:
  - {from: -1, repeats: 1, type: pose}
`
	f := NewFacade("")
	err := f.New(writeDefinition(t, doc))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnrecognizedTask))
	assert.Equal(t, StateUninitialized, f.State())
}

func TestFacadeLoad(t *testing.T) {
	f := NewFacade("")
	require.NoError(t, f.Load(writeCheckpoint(t, task.Segment)))
	assert.Equal(t, StateLoaded, f.State())
	assert.Equal(t, task.Segment, f.Task())

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Parameters)
}

func TestFacadeStrictWhenUninitialized(t *testing.T) {
	f := NewFacade("")
	ctx := context.Background()

	for name, call := range map[string]func() error{
		"train":   func() error { return f.Train(ctx, nil) },
		"val":     func() error { return f.Val(ctx, "coco128.yaml", nil) },
		"predict": func() error { return f.Predict(ctx, "bus.jpg", nil) },
		"reset":   func() error { return f.Reset() },
		"fuse":    func() error { return f.Fuse() },
		"info":    func() error { _, err := f.Info(); return err },
	} {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeNotInitialized))
		})
	}
}

func TestFacadeTrain(t *testing.T) {
	t.Run("requires a dataset", func(t *testing.T) {
		f := NewFacade("")
		require.NoError(t, f.New(writeDefinition(t, detectDefinition)))

		err := f.Train(context.Background(), map[string]interface{}{"epochs": 1})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeMissingDataset))
	})

	t.Run("trains and saves into the project directory", func(t *testing.T) {
		dir := t.TempDir()
		f := NewFacade("")
		require.NoError(t, f.New(writeDefinition(t, detectDefinition)))

		err := f.Train(context.Background(), map[string]interface{}{
			"data":    "coco128.yaml",
			"epochs":  2,
			"project": dir,
			"name":    "exp",
		})
		require.NoError(t, err)
		assert.Equal(t, StateConstructed, f.State())

		ckpt, err := checkpoint.Load(filepath.Join(dir, "exp", "last"+shared.CheckpointExt))
		require.NoError(t, err)
		assert.Equal(t, "detect", ckpt.Meta.TrainArgs["task"])
	})

	t.Run("cfg override replaces the rest", func(t *testing.T) {
		doc := filepath.Join(t.TempDir(), "train.yaml")
		require.NoError(t, os.WriteFile(doc, []byte("epochs: 1\nsave: false\n"), 0o644))

		f := NewFacade("")
		require.NoError(t, f.New(writeDefinition(t, detectDefinition)))

		// data rides along in the same map but cfg wins, so the
		// replaced override set has no dataset
		err := f.Train(context.Background(), map[string]interface{}{
			"cfg":  doc,
			"data": "coco128.yaml",
		})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeMissingDataset))
	})
}

func TestFacadeValAndPredict(t *testing.T) {
	f := NewFacade("")
	require.NoError(t, f.Load(writeCheckpoint(t, task.Detect)))

	require.NoError(t, f.Val(context.Background(), "coco128.yaml", map[string]interface{}{"save": false}))
	require.NoError(t, f.Predict(context.Background(), "bus.jpg", nil))
	assert.Equal(t, StateLoaded, f.State())
}

func TestFacadeResume(t *testing.T) {
	t.Run("checkpoint path wins over the task name", func(t *testing.T) {
		path := writeCheckpoint(t, task.Classify)
		f := NewFacade("")

		// resume trains again, steer the run output into a temp dir
		chdirTemp(t)
		require.NoError(t, f.Resume(context.Background(), "detect", path))
		assert.Equal(t, task.Classify, f.Task())
		assert.Equal(t, StateLoaded, f.State())
	})

	t.Run("missing run reports a checkpoint error", func(t *testing.T) {
		chdirTemp(t)
		f := NewFacade("")
		err := f.Resume(context.Background(), "detect", "")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCheckpoint))
	})

	t.Run("unknown task name", func(t *testing.T) {
		f := NewFacade("")
		err := f.Resume(context.Background(), "pose", "")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnrecognizedTask))
	})
}

func TestFacadeResetAndFuse(t *testing.T) {
	f := NewFacade("")
	require.NoError(t, f.New(writeDefinition(t, detectDefinition)))
	require.NoError(t, f.Fuse())
	require.NoError(t, f.Reset())
}
