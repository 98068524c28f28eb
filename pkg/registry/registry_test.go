package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/task"
)

func testTriad(kind task.Kind) Triad {
	return Triad{
		Task:    kind,
		Builder: func(variant string) core.Builder { return nil },
		Trainer: func(cfg *config.Merged) (core.Trainer, error) { return nil, nil },
		Validator: func(cfg *config.Merged) (core.Validator, error) {
			return nil, nil
		},
		Predictor: func(cfg *config.Merged) (core.Predictor, error) {
			return nil, nil
		},
	}
}

func noop(ctx context.Context, cfg *config.Merged) error { return nil }

func TestRegisterAndResolveTriad(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterTriad(testTriad(task.Detect)))

	t.Run("duplicate registration rejected", func(t *testing.T) {
		err := r.RegisterTriad(testTriad(task.Detect))
		assert.Error(t, err)
	})

	t.Run("resolve succeeds", func(t *testing.T) {
		got, err := r.ResolveTriad(task.Detect, "v8")
		require.NoError(t, err)
		assert.Equal(t, task.Detect, got.Task)
	})

	t.Run("unregistered task fails defensively", func(t *testing.T) {
		_, err := r.ResolveTriad(task.Segment, "v8")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedTask))
	})
}

func TestTriadIdentifiersPure(t *testing.T) {
	tr := testTriad(task.Classify)

	first := tr.Identifiers("v8")
	second := tr.Identifiers("v8")
	assert.Equal(t, first, second)

	assert.Equal(t, [4]string{
		"classify.v8.builder",
		"classify.v8.trainer",
		"classify.v8.validator",
		"classify.v8.predictor",
	}, first)

	// a different variant yields different identifiers
	assert.NotEqual(t, first, tr.Identifiers("v5"))
}

func TestResolveOperation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterOperation(task.Detect, task.Train, noop))
	require.NoError(t, r.RegisterExport(noop))

	t.Run("registered pair resolves", func(t *testing.T) {
		op, err := r.ResolveOperation(task.Detect, task.Train)
		require.NoError(t, err)
		assert.NotNil(t, op)
	})

	t.Run("export is task-independent", func(t *testing.T) {
		for _, kind := range task.Kinds() {
			op, err := r.ResolveOperation(kind, task.Export)
			require.NoError(t, err)
			assert.NotNil(t, op)
		}
	})

	t.Run("unmapped mode fails", func(t *testing.T) {
		_, err := r.ResolveOperation(task.Detect, task.Val)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidMode))
	})

	t.Run("unregistered task fails", func(t *testing.T) {
		_, err := r.ResolveOperation(task.Segment, task.Train)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedTask))
	})

	t.Run("duplicate operation rejected", func(t *testing.T) {
		err := r.RegisterOperation(task.Detect, task.Train, noop)
		assert.Error(t, err)
	})

	t.Run("duplicate export rejected", func(t *testing.T) {
		err := r.RegisterExport(noop)
		assert.Error(t, err)
	})
}

func TestClear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterTriad(testTriad(task.Detect)))
	require.NoError(t, r.RegisterExport(noop))

	r.Clear()

	assert.Empty(t, r.Tasks())
	_, err := r.ResolveOperation(task.Detect, task.Export)
	assert.Error(t, err)
}
