// Package model provides the high-level Argus facade: a stateful handle
// that binds a model definition or checkpoint to its task triad and exposes
// train, val, predict and resume as methods.
//
// The facade is an explicit state machine (uninitialized, constructed,
// loaded, training). Operations that need a bound model fail with a
// not_initialized error in the uninitialized state; nothing warns and
// continues on a nil model. It is single-owner: methods must not be called
// concurrently.
package model

import (
	"context"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/checkpoint"
	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/ops/shared"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
)

// State names the facade lifecycle position
type State string

const (
	// StateUninitialized means no model or checkpoint is bound
	StateUninitialized State = "uninitialized"
	// StateConstructed means a model was built from a definition
	StateConstructed State = "constructed"
	// StateLoaded means a model was rebuilt from a checkpoint
	StateLoaded State = "loaded"
	// StateTraining means a training run is in progress
	StateTraining State = "training"
)

// Facade wraps a bound model, its task triad and optional checkpoint
type Facade struct {
	variant string
	state   State
	kind    task.Kind
	triad   registry.Triad
	model   core.Model
	ckpt    *checkpoint.Checkpoint
	log     *zap.Logger
}

// NewFacade creates an uninitialized facade for a model family variant.
// An empty variant selects the default family.
func NewFacade(variant string) *Facade {
	if variant == "" {
		variant = shared.DefaultVariant
	}
	return &Facade{
		variant: variant,
		state:   StateUninitialized,
		log:     logger.With(zap.String("component", "model_facade")),
	}
}

// State returns the current lifecycle position
func (f *Facade) State() State { return f.state }

// Task returns the bound task family, empty when uninitialized
func (f *Facade) Task() task.Kind { return f.kind }

// New builds a fresh model from a definition document, inferring the task
// from its final head layer.
func (f *Facade) New(cfgPath string) error {
	def, err := core.LoadDefinition(cfgPath)
	if err != nil {
		return err
	}
	kind, err := def.InferTask()
	if err != nil {
		return err
	}
	triad, err := registry.ResolveTriad(kind, f.variant)
	if err != nil {
		return err
	}
	m, err := triad.Builder(f.variant).New(def)
	if err != nil {
		return err
	}

	f.kind, f.triad, f.model, f.ckpt = kind, triad, m, nil
	f.state = StateConstructed
	f.log.Info("model constructed",
		zap.String("definition", cfgPath),
		zap.String("task", string(kind)),
		zap.Int64("parameters", m.ParamCount()))
	return nil
}

// Load rebuilds a model from a checkpoint, taking the task from the
// checkpoint's recorded training arguments.
func (f *Facade) Load(path string) error {
	ckpt, err := checkpoint.Load(path)
	if err != nil {
		return err
	}
	kind, err := task.InferFromCheckpoint(ckpt.Meta.TrainArgs)
	if err != nil {
		return err
	}
	triad, err := registry.ResolveTriad(kind, f.variant)
	if err != nil {
		return err
	}
	m, err := triad.Builder(f.variant).FromState(ckpt.State)
	if err != nil {
		return err
	}

	f.kind, f.triad, f.model, f.ckpt = kind, triad, m, ckpt
	f.state = StateLoaded
	f.log.Info("checkpoint loaded",
		zap.String("path", path),
		zap.String("task", string(kind)),
		zap.Int("epoch", ckpt.Meta.Epoch))
	return nil
}

// Train runs a training pass over the bound model. A `cfg` override points
// at an external document that replaces all other overrides; task and mode
// are force-set either way. Fails when nothing is bound or when no dataset
// is configured after the merge.
func (f *Facade) Train(ctx context.Context, overrides map[string]interface{}) error {
	if f.state != StateConstructed && f.state != StateLoaded {
		return errors.New(errors.ErrorTypeNotInitialized,
			"no model bound, call New or Load first")
	}

	ov, err := f.buildOverrides(overrides)
	if err != nil {
		return err
	}
	ov.Set("task", string(f.kind))
	ov.Set("mode", string(task.Train))

	merged, err := f.merge(ov)
	if err != nil {
		return err
	}
	if !merged.IsSet("data") {
		return errors.New(errors.ErrorTypeMissingDataset,
			"no dataset provided, set data=<dataset definition>")
	}

	trainer, err := f.triad.Trainer(merged)
	if err != nil {
		return err
	}

	prev := f.state
	f.state = StateTraining
	defer func() { f.state = prev }()
	return trainer.Train(ctx, f.model)
}

// Val evaluates the bound model against a dataset
func (f *Facade) Val(ctx context.Context, data string, overrides map[string]interface{}) error {
	if f.model == nil {
		return errors.New(errors.ErrorTypeNotInitialized,
			"no model bound, call New or Load first")
	}

	ov, err := f.buildOverrides(overrides)
	if err != nil {
		return err
	}
	ov.Set("data", data)
	ov.Set("task", string(f.kind))
	ov.Set("mode", string(task.Val))

	merged, err := f.merge(ov)
	if err != nil {
		return err
	}
	validator, err := f.triad.Validator(merged)
	if err != nil {
		return err
	}
	return validator.Validate(ctx, f.model)
}

// Predict runs inference on a source with the bound model
func (f *Facade) Predict(ctx context.Context, source string, overrides map[string]interface{}) error {
	if f.model == nil {
		return errors.New(errors.ErrorTypeNotInitialized,
			"no model bound, call New or Load first")
	}

	ov, err := f.buildOverrides(overrides)
	if err != nil {
		return err
	}
	ov.Set("source", source)
	ov.Set("task", string(f.kind))
	ov.Set("mode", string(task.Predict))

	merged, err := f.merge(ov)
	if err != nil {
		return err
	}
	predictor, err := f.triad.Predictor(merged)
	if err != nil {
		return err
	}
	return predictor.Predict(ctx, f.model, source)
}

// Resume continues a previous training run. A checkpoint path takes
// precedence and supplies the task from its metadata; otherwise taskName
// selects which task's most recent run to pick up.
func (f *Facade) Resume(ctx context.Context, taskName, modelPath string) error {
	var kind task.Kind
	var ckpt *checkpoint.Checkpoint
	var err error

	if modelPath != "" {
		ckpt, err = checkpoint.Load(modelPath)
		if err != nil {
			return err
		}
		kind, err = task.InferFromCheckpoint(ckpt.Meta.TrainArgs)
		if err != nil {
			return err
		}
	} else {
		kind, err = task.Parse(taskName)
		if err != nil {
			return err
		}
	}

	triad, err := registry.ResolveTriad(kind, f.variant)
	if err != nil {
		return err
	}

	ov := config.New()
	ov.Set("task", string(kind))
	ov.Set("mode", string(task.Train))
	ov.Set("resume", true)
	merged, err := f.merge(ov)
	if err != nil {
		return err
	}

	if ckpt == nil {
		last := filepath.Join(shared.RunDir(merged, kind), "last"+shared.CheckpointExt)
		ckpt, err = checkpoint.Load(last)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeCheckpoint,
				"no run to resume for task "+string(kind))
		}
	}
	m, err := triad.Builder(f.variant).FromState(ckpt.State)
	if err != nil {
		return err
	}

	f.kind, f.triad, f.model, f.ckpt = kind, triad, m, ckpt
	f.state = StateTraining
	defer func() { f.state = StateLoaded }()

	trainer, err := f.triad.Trainer(merged)
	if err != nil {
		return err
	}
	return trainer.Train(ctx, f.model)
}

// Reset reinitializes the bound model's parameters
func (f *Facade) Reset() error {
	if f.model == nil {
		return errors.New(errors.ErrorTypeNotInitialized,
			"no model bound, call New or Load first")
	}
	f.model.Reset()
	return nil
}

// Fuse folds normalization layers for inference
func (f *Facade) Fuse() error {
	if f.model == nil {
		return errors.New(errors.ErrorTypeNotInitialized,
			"no model bound, call New or Load first")
	}
	f.model.Fuse()
	return nil
}

// Info describes the bound model
func (f *Facade) Info() (Info, error) {
	if f.model == nil {
		return Info{}, errors.New(errors.ErrorTypeNotInitialized,
			"no model bound, call New or Load first")
	}
	return Info{
		Task:       f.kind,
		Variant:    f.model.Variant(),
		Parameters: f.model.ParamCount(),
		State:      f.state,
	}, nil
}

// Info summarizes a bound model
type Info struct {
	Task       task.Kind
	Variant    string
	Parameters int64
	State      State
}

// buildOverrides converts caller overrides into an override set. A non-empty
// `cfg` entry replaces everything with the referenced document's contents,
// minus any cfg key inside it.
func (f *Facade) buildOverrides(overrides map[string]interface{}) (*config.Config, error) {
	if path, ok := overrides["cfg"].(string); ok && path != "" {
		f.log.Info("replacing overrides with external document", zap.String("cfg", path))
		ov, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		ov.Delete("cfg")
		return ov, nil
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ov := config.New()
	for _, k := range keys {
		ov.Set(k, overrides[k])
	}
	return ov, nil
}

// merge overlays an override set onto freshly loaded defaults
func (f *Facade) merge(ov *config.Config) (*config.Merged, error) {
	defaults, err := config.LoadDefaults()
	if err != nil {
		return nil, err
	}
	return config.Merge(defaults, ov)
}
