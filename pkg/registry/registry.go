// Package registry maps task families to their operation implementations.
//
// Implementation packages register themselves at process start through
// init functions, so resolution never evaluates constructed identifiers at
// runtime: a (task, mode) pair resolves to a function pointer installed
// before main runs.
package registry

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/task"
)

// BuilderFactory creates a model builder for a variant tag
type BuilderFactory func(variant string) core.Builder

// TrainerFactory creates a trainer from a merged configuration
type TrainerFactory func(cfg *config.Merged) (core.Trainer, error)

// ValidatorFactory creates a validator from a merged configuration
type ValidatorFactory func(cfg *config.Merged) (core.Validator, error)

// PredictorFactory creates a predictor from a merged configuration
type PredictorFactory func(cfg *config.Merged) (core.Predictor, error)

// Triad binds the four task-specific implementations for one task family
type Triad struct {
	Task      task.Kind
	Builder   BuilderFactory
	Trainer   TrainerFactory
	Validator ValidatorFactory
	Predictor PredictorFactory
}

// Identifiers returns the four implementation identifiers for a variant tag.
// Resolution never interprets these; they exist for logging and reporting.
func (t Triad) Identifiers(variant string) [4]string {
	roles := [4]string{"builder", "trainer", "validator", "predictor"}
	var out [4]string
	for i, role := range roles {
		out[i] = fmt.Sprintf("%s.%s.%s", t.Task, variant, role)
	}
	return out
}

// Registry manages triad and operation registration and resolution
type Registry struct {
	triads     map[task.Kind]Triad
	operations map[task.Kind]map[task.Mode]core.Operation
	export     core.Operation
	mu         sync.RWMutex
	logger     *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new operation registry
func NewRegistry() *Registry {
	return &Registry{
		triads:     make(map[task.Kind]Triad),
		operations: make(map[task.Kind]map[task.Mode]core.Operation),
		logger:     logger.Get().With(zap.String("component", "operation_registry")),
	}
}

// RegisterTriad registers the implementation triad for a task family
func (r *Registry) RegisterTriad(t Triad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.triads[t.Task]; exists {
		return errors.Newf(errors.ErrorTypeInternal, "triad for task %s already registered", t.Task)
	}

	r.triads[t.Task] = t
	r.logger.Debug("task triad registered", zap.String("task", string(t.Task)))
	return nil
}

// RegisterOperation registers the operation for a (task, mode) pair
func (r *Registry) RegisterOperation(kind task.Kind, mode task.Mode, op core.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops, ok := r.operations[kind]
	if !ok {
		ops = make(map[task.Mode]core.Operation)
		r.operations[kind] = ops
	}
	if _, exists := ops[mode]; exists {
		return errors.Newf(errors.ErrorTypeInternal, "operation %s/%s already registered", kind, mode)
	}

	ops[mode] = op
	r.logger.Debug("operation registered",
		zap.String("task", string(kind)), zap.String("mode", string(mode)))
	return nil
}

// RegisterExport registers the single task-independent export operation
func (r *Registry) RegisterExport(op core.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.export != nil {
		return errors.New(errors.ErrorTypeInternal, "export operation already registered")
	}
	r.export = op
	r.logger.Debug("export operation registered")
	return nil
}

// ResolveTriad returns the triad for a task family. The variant tag selects
// among task-equivalent implementations and is recorded for diagnostics.
func (r *Registry) ResolveTriad(kind task.Kind, variant string) (Triad, error) {
	r.mu.RLock()
	t, exists := r.triads[kind]
	r.mu.RUnlock()

	if !exists {
		// Unreachable for the closed task enumeration; guards forward
		// compatibility if a kind is added without an implementation.
		return Triad{}, errors.Newf(errors.ErrorTypeUnsupportedTask,
			"no implementations registered for task %s", kind)
	}

	ids := t.Identifiers(variant)
	r.logger.Debug("triad resolved",
		zap.String("task", string(kind)),
		zap.String("variant", variant),
		zap.Strings("identifiers", ids[:]))
	return t, nil
}

// ResolveOperation returns the operation for a (task, mode) pair. Export is
// task-independent; the other modes resolve through the task's table.
func (r *Registry) ResolveOperation(kind task.Kind, mode task.Mode) (core.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mode == task.Export {
		if r.export == nil {
			return nil, errors.New(errors.ErrorTypeInvalidMode, "export operation not registered")
		}
		return r.export, nil
	}

	ops, ok := r.operations[kind]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedTask,
			"no operations registered for task %s", kind)
	}
	op, ok := ops[mode]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeInvalidMode,
			"mode %s has no operation for task %s", mode, kind)
	}
	return op, nil
}

// Tasks returns the task kinds with registered triads
func (r *Registry) Tasks() []task.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]task.Kind, 0, len(r.triads))
	for kind := range r.triads {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Clear removes all registrations (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triads = make(map[task.Kind]Triad)
	r.operations = make(map[task.Kind]map[task.Mode]core.Operation)
	r.export = nil
}

// RegisterTriad registers a triad with the global registry
func RegisterTriad(t Triad) error {
	return globalRegistry.RegisterTriad(t)
}

// RegisterOperation registers an operation with the global registry
func RegisterOperation(kind task.Kind, mode task.Mode, op core.Operation) error {
	return globalRegistry.RegisterOperation(kind, mode, op)
}

// RegisterExport registers the export operation with the global registry
func RegisterExport(op core.Operation) error {
	return globalRegistry.RegisterExport(op)
}

// ResolveTriad resolves a triad from the global registry
func ResolveTriad(kind task.Kind, variant string) (Triad, error) {
	return globalRegistry.ResolveTriad(kind, variant)
}

// ResolveOperation resolves an operation from the global registry
func ResolveOperation(kind task.Kind, mode task.Mode) (core.Operation, error) {
	return globalRegistry.ResolveOperation(kind, mode)
}

// Tasks lists tasks registered with the global registry
func Tasks() []task.Kind {
	return globalRegistry.Tasks()
}
