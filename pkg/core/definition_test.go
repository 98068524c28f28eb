package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/task"
)

func write(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadDefinition(t *testing.T) {
	doc := `
name: argus-s
channels: 3
nc: 1000
backbone:
  - {from: -1, repeats: 1, type: conv}
head:
  - {from: -1, repeats: 1, type: classifier}
`
	def, err := LoadDefinition(write(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "argus-s", def.Name)
	assert.Equal(t, 1000, def.Classes)
	require.Len(t, def.Head, 1)

	kind, err := def.InferTask()
	require.NoError(t, err)
	assert.Equal(t, task.Classify, kind)
}

func TestLoadDefinitionErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDefinition(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfigLoad))
	})

	t.Run("no head", func(t *testing.T) {
		_, err := LoadDefinition(write(t, "backbone:\n  - {type: conv}\n"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfigLoad))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadDefinition(write(t, "head: ["))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfigLoad))
	})
}

func TestInferTaskUnknownHead(t *testing.T) {
	def := &Definition{Head: []Layer{{Type: "pose"}}}
	_, err := def.InferTask()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnrecognizedTask))
}
