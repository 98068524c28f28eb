package checkpoint

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusml/argus/pkg/errors"
)

func sampleState() map[string][]float32 {
	return map[string][]float32{
		"layer0.conv.weight": {0.5, -0.25, 1.75, 0},
		"layer1.fc.weight":   {1, 2, 3},
		"empty.bias":         {},
	}
}

func sampleMeta() Metadata {
	return Metadata{
		Version: "0.1.0",
		Task:    "detect",
		Variant: "v8",
		Epoch:   7,
		Fitness: 0.42,
		SavedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TrainArgs: map[string]interface{}{
			"task":   "detect",
			"epochs": float64(100),
			"data":   "coco128.yaml",
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, algo := range []Algorithm{AlgorithmNone, AlgorithmZstd, AlgorithmLZ4} {
		t.Run(string(algo), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.ckpt")
			require.NoError(t, Save(path, sampleMeta(), sampleState(), SaveOptions{Algorithm: algo}))

			ckpt, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "detect", ckpt.Meta.Task)
			assert.Equal(t, 7, ckpt.Meta.Epoch)
			assert.Equal(t, "detect", ckpt.Meta.TrainArgs["task"])
			assert.Equal(t, sampleState(), ckpt.State)
		})
	}
}

// corruptFile writes a checkpoint with a valid header but a hand-built
// weight blob, bypassing Save's encoder
func corruptFile(t *testing.T, blob []byte) string {
	t.Helper()

	header, err := gojson.Marshal(sampleMeta())
	require.NoError(t, err)

	var buf []byte
	buf = append(buf, magic[:]...)
	buf = append(buf, algoByte(AlgorithmNone))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(header)))
	buf = append(buf, header...)
	buf = append(buf, blob...)

	path := filepath.Join(t.TempDir(), "corrupt.ckpt")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestLoadRejectsCorruptBlob(t *testing.T) {
	// declared lengths larger than the data must fail the bounds checks
	// even where adding or multiplying them would wrap 32 bits
	cases := map[string][]byte{
		"oversized name length": func() []byte {
			blob := binary.LittleEndian.AppendUint32(nil, 1)
			return binary.LittleEndian.AppendUint32(blob, 0xFFFFFFFF)
		}(),
		"oversized value length": func() []byte {
			blob := binary.LittleEndian.AppendUint32(nil, 1)
			blob = binary.LittleEndian.AppendUint32(blob, 1)
			blob = append(blob, 'a')
			return binary.LittleEndian.AppendUint32(blob, 0x40000000)
		}(),
		"missing value length": func() []byte {
			blob := binary.LittleEndian.AppendUint32(nil, 1)
			blob = binary.LittleEndian.AppendUint32(blob, 1)
			return append(blob, 'a')
		}(),
		"empty blob": {},
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(corruptFile(t, blob))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeCheckpoint))
			assert.Contains(t, err.Error(), "truncated")
		})
	}
}

func TestDefaultAlgorithmIsZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")
	require.NoError(t, Save(path, sampleMeta(), sampleState(), SaveOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(1), data[8])
}

func TestLoadRejectsForeignFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.ckpt"))
		assert.Error(t, err)
	})

	t.Run("wrong magic", func(t *testing.T) {
		path := filepath.Join(dir, "foreign.ckpt")
		require.NoError(t, os.WriteFile(path, []byte("not a checkpoint at all"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		path := filepath.Join(dir, "short.ckpt")
		require.NoError(t, os.WriteFile(path, []byte("ARG"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoadRequiresTaskKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")

	meta := sampleMeta()
	delete(meta.TrainArgs, "task")
	require.NoError(t, Save(path, meta, sampleState(), SaveOptions{}))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task")
}

func TestLoadRequiresTrainArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")

	meta := sampleMeta()
	meta.TrainArgs = nil
	require.NoError(t, Save(path, meta, sampleState(), SaveOptions{}))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestCompressionShrinksRepetitiveState(t *testing.T) {
	big := make([]float32, 1<<16)
	state := map[string][]float32{"layer0.conv.weight": big}

	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.ckpt")
	packed := filepath.Join(dir, "packed.ckpt")
	require.NoError(t, Save(plain, sampleMeta(), state, SaveOptions{Algorithm: AlgorithmNone}))
	require.NoError(t, Save(packed, sampleMeta(), state, SaveOptions{Algorithm: AlgorithmZstd}))

	plainInfo, err := os.Stat(plain)
	require.NoError(t, err)
	packedInfo, err := os.Stat(packed)
	require.NoError(t, err)
	assert.Less(t, packedInfo.Size(), plainInfo.Size())
}
