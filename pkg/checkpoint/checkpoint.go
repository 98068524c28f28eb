// Package checkpoint reads and writes the Argus checkpoint container.
//
// A checkpoint is a small binary file holding a JSON metadata block (the
// training arguments the run was started with, including the task) followed
// by a compressed blob of named weight tensors. The metadata is trusted on
// load; only the presence of required keys is checked.
package checkpoint

import (
	"encoding/binary"
	"math"
	"os"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/argusml/argus/pkg/errors"
)

// magic identifies an Argus checkpoint file, with a format version suffix
var magic = [8]byte{'A', 'R', 'G', 'C', 'K', 'P', 'T', '1'}

// Metadata is the recorded context of the training run that produced the
// checkpoint. TrainArgs must contain at least a "task" key.
type Metadata struct {
	Version   string                 `json:"version"`
	Task      string                 `json:"task"`
	Variant   string                 `json:"variant"`
	Epoch     int                    `json:"epoch"`
	Fitness   float64                `json:"fitness"`
	SavedAt   time.Time              `json:"saved_at"`
	TrainArgs map[string]interface{} `json:"train_args"`
}

// Checkpoint is a loaded checkpoint: metadata plus the weight tensors
type Checkpoint struct {
	Meta  Metadata
	State map[string][]float32
}

// SaveOptions controls how a checkpoint is written
type SaveOptions struct {
	// Algorithm selects the weight blob codec; AlgorithmZstd when empty
	Algorithm Algorithm
}

// Save writes a checkpoint to path
func Save(path string, meta Metadata, state map[string][]float32, opts SaveOptions) error {
	algo := opts.Algorithm
	if algo == "" {
		algo = AlgorithmZstd
	}

	header, err := gojson.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to encode checkpoint metadata")
	}

	blob, err := compress(encodeState(state), algo)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to compress weights")
	}

	buf := make([]byte, 0, len(magic)+1+4+len(header)+len(blob))
	buf = append(buf, magic[:]...)
	buf = append(buf, algoByte(algo))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(header)))
	buf = append(buf, header...)
	buf = append(buf, blob...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to write checkpoint").
			WithDetail("path", path)
	}
	return nil
}

// Load reads a checkpoint from path
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to read checkpoint").
			WithDetail("path", path)
	}
	if len(data) < len(magic)+5 {
		return nil, errors.New(errors.ErrorTypeCheckpoint, "checkpoint file truncated").
			WithDetail("path", path)
	}
	for i := range magic {
		if data[i] != magic[i] {
			return nil, errors.New(errors.ErrorTypeCheckpoint, "not an Argus checkpoint").
				WithDetail("path", path)
		}
	}

	algo, err := algoFromByte(data[len(magic)])
	if err != nil {
		return nil, err
	}
	headerLen := binary.BigEndian.Uint32(data[len(magic)+1 : len(magic)+5])
	rest := data[len(magic)+5:]
	if uint32(len(rest)) < headerLen {
		return nil, errors.New(errors.ErrorTypeCheckpoint, "checkpoint metadata truncated").
			WithDetail("path", path)
	}

	var meta Metadata
	if err := gojson.Unmarshal(rest[:headerLen], &meta); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to decode checkpoint metadata")
	}
	if meta.TrainArgs == nil {
		return nil, errors.New(errors.ErrorTypeCheckpoint, "checkpoint has no train_args")
	}
	if _, ok := meta.TrainArgs["task"]; !ok {
		return nil, errors.New(errors.ErrorTypeCheckpoint, "checkpoint train_args missing required task key")
	}

	raw, err := decompress(rest[headerLen:], algo)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to decompress weights")
	}
	state, err := decodeState(raw)
	if err != nil {
		return nil, err
	}

	return &Checkpoint{Meta: meta, State: state}, nil
}

// encodeState serializes named tensors: count, then per tensor a name and
// its little-endian float32 values
func encodeState(state map[string][]float32) []byte {
	size := 4
	for name, vals := range state {
		size += 4 + len(name) + 4 + 4*len(vals)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(state)))
	for name, vals := range state {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(name)))
		buf = append(buf, name...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vals)))
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

// decodeState reverses encodeState
func decodeState(data []byte) (map[string][]float32, error) {
	truncated := errors.New(errors.ErrorTypeCheckpoint, "weight blob truncated")
	if len(data) < 4 {
		return nil, truncated
	}
	count := binary.LittleEndian.Uint32(data)
	data = data[4:]

	state := make(map[string][]float32, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 4 {
			return nil, truncated
		}
		nameLen := binary.LittleEndian.Uint32(data)
		data = data[4:]
		// lengths come from the file, widen before arithmetic so a
		// corrupt value cannot wrap the bounds check
		if uint64(len(data)) < uint64(nameLen)+4 {
			return nil, truncated
		}
		name := string(data[:nameLen])
		data = data[nameLen:]
		valLen := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint64(len(data)) < uint64(valLen)*4 {
			return nil, truncated
		}
		vals := make([]float32, valLen)
		for j := range vals {
			vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*j:]))
		}
		data = data[valLen*4:]
		state[name] = vals
	}
	return state, nil
}
