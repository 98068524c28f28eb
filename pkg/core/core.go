// Package core defines the contracts shared between the model facade, the
// operation registry and the task-specific implementation packages. The
// numerical internals of models live behind these interfaces and are not a
// concern of this layer.
package core

import (
	"context"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/task"
)

// Model is an instantiated network bound to a single task family
type Model interface {
	// Task returns the task family the model was built for
	Task() task.Kind
	// Variant returns the model family/version discriminator
	Variant() string
	// ParamCount returns the number of trainable parameters
	ParamCount() int64
	// Reset reinitializes all trainable parameters
	Reset()
	// Fuse folds normalization layers into adjacent convolutions for
	// inference. Safe to call more than once.
	Fuse()
	// State returns the named weight tensors for persistence
	State() map[string][]float32
}

// Builder constructs models for one task family
type Builder interface {
	// New builds a model from a parsed definition document
	New(def *Definition) (Model, error)
	// FromState rebuilds a model from persisted weight tensors
	FromState(state map[string][]float32) (Model, error)
}

// Trainer runs the training loop for one task family
type Trainer interface {
	Train(ctx context.Context, m Model) error
}

// Validator evaluates a model against a dataset
type Validator interface {
	Validate(ctx context.Context, m Model) error
}

// Predictor runs inference against a source
type Predictor interface {
	Predict(ctx context.Context, m Model, source string) error
}

// Operation is a resolved (task, mode) entry point. Exactly one operation
// runs per dispatch; it blocks until done.
type Operation func(ctx context.Context, cfg *config.Merged) error
