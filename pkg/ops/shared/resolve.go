package shared

import (
	"strings"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/checkpoint"
	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
)

const (
	// DefaultVariant is the model family used when none is requested
	DefaultVariant = "v8"
	// CheckpointExt marks a model path as a trained checkpoint
	CheckpointExt = ".ckpt"
)

// ResolveModel binds a model from the `model` option of a merged
// configuration: a checkpoint path rebuilds from persisted weights, any
// other path is parsed as a definition document. When the model's recorded
// task disagrees with the requested one, the model wins and the mismatch is
// logged.
func ResolveModel(cfg *config.Merged, kind task.Kind, variant string) (core.Model, error) {
	path := cfg.String("model")
	if path == "" {
		return nil, errors.New(errors.ErrorTypeMissingOption,
			"no model specified, set model=<definition or checkpoint>")
	}

	if strings.HasSuffix(path, CheckpointExt) {
		ckpt, err := checkpoint.Load(path)
		if err != nil {
			return nil, err
		}
		recorded, err := task.InferFromCheckpoint(ckpt.Meta.TrainArgs)
		if err != nil {
			return nil, err
		}
		kind = reconcile(kind, recorded, path)
		triad, err := registry.ResolveTriad(kind, variant)
		if err != nil {
			return nil, err
		}
		return triad.Builder(variant).FromState(ckpt.State)
	}

	def, err := core.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	inferred, err := def.InferTask()
	if err != nil {
		return nil, err
	}
	kind = reconcile(kind, inferred, path)
	triad, err := registry.ResolveTriad(kind, variant)
	if err != nil {
		return nil, err
	}
	return triad.Builder(variant).New(def)
}

func reconcile(requested, fromModel task.Kind, path string) task.Kind {
	if requested != fromModel {
		logger.Warn("model task differs from requested task, using the model's",
			zap.String("requested", string(requested)),
			zap.String("model", string(fromModel)),
			zap.String("path", path))
	}
	return fromModel
}
