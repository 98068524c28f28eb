// Package shared holds the model scaffolding and the operation shells common
// to the task implementation packages. The numerical core of every model is
// an external collaborator; what lives here is the bookkeeping around it:
// parameter storage, deterministic initialization, the epoch loop, and the
// flow from a merged configuration to a bound model.
package shared

import (
	"hash/fnv"
	"math"
	"strconv"

	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/task"
)

// Model is the common core.Model implementation used by all task families
type Model struct {
	kind    task.Kind
	variant string
	tensors map[string][]float32
	fused   bool
}

// NewFromDefinition synthesizes a model from a parsed definition. Tensor
// sizes derive from the layer sequence so parameter counts are stable for a
// given document.
func NewFromDefinition(kind task.Kind, variant string, def *core.Definition) *Model {
	tensors := make(map[string][]float32)
	layers := make([]core.Layer, 0, len(def.Backbone)+len(def.Head))
	layers = append(layers, def.Backbone...)
	layers = append(layers, def.Head...)

	channels := def.Channels
	if channels <= 0 {
		channels = 3
	}
	width := channels * 16
	for i, layer := range layers {
		repeats := layer.Repeats
		if repeats <= 0 {
			repeats = 1
		}
		size := width * repeats
		name := tensorName(i, layer.Type)
		tensors[name] = initTensor(size, seedFor(name))
		if width < 1024 {
			width *= 2
		}
	}

	return &Model{kind: kind, variant: variant, tensors: tensors}
}

// NewFromState rebuilds a model around persisted weight tensors
func NewFromState(kind task.Kind, variant string, state map[string][]float32) *Model {
	tensors := make(map[string][]float32, len(state))
	for name, vals := range state {
		copied := make([]float32, len(vals))
		copy(copied, vals)
		tensors[name] = copied
	}
	return &Model{kind: kind, variant: variant, tensors: tensors}
}

// Task returns the task family the model was built for
func (m *Model) Task() task.Kind { return m.kind }

// Variant returns the model family discriminator
func (m *Model) Variant() string { return m.variant }

// ParamCount returns the number of trainable parameters
func (m *Model) ParamCount() int64 {
	var n int64
	for _, t := range m.tensors {
		n += int64(len(t))
	}
	return n
}

// Reset reinitializes all tensors from their deterministic seeds
func (m *Model) Reset() {
	for name, t := range m.tensors {
		m.tensors[name] = initTensor(len(t), seedFor(name))
	}
	m.fused = false
}

// Fuse marks normalization folding as done. Idempotent.
func (m *Model) Fuse() { m.fused = true }

// Fused reports whether Fuse has been applied
func (m *Model) Fused() bool { return m.fused }

// State returns a copy of the named weight tensors
func (m *Model) State() map[string][]float32 {
	out := make(map[string][]float32, len(m.tensors))
	for name, t := range m.tensors {
		copied := make([]float32, len(t))
		copy(copied, t)
		out[name] = copied
	}
	return out
}

func tensorName(index int, layerType string) string {
	return "layer" + strconv.Itoa(index) + "." + layerType + ".weight"
}

func seedFor(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// initTensor fills a tensor with small deterministic values from an
// xorshift generator, so Reset and fresh builds agree.
func initTensor(size int, seed uint64) []float32 {
	if seed == 0 {
		seed = 1
	}
	t := make([]float32, size)
	s := seed
	for i := range t {
		s ^= s << 13
		s ^= s >> 7
		s ^= s << 17
		t[i] = float32(s%2000)/1000 - 1 // [-1, 1)
	}
	return t
}

// Fitness is a deterministic pseudo-metric over a model's weights, used by
// validators in place of the numerical evaluation that lives out of scope.
func Fitness(m core.Model) float64 {
	var sum float64
	var n int
	for _, t := range m.State() {
		for _, v := range t {
			sum += math.Abs(float64(v))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return 1 / (1 + mean)
}
