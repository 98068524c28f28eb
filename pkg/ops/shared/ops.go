package shared

import (
	"context"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
)

// TrainOperation builds the train entry point for a task family. The
// returned operation binds a model from the configuration, resolves the
// family's trainer and runs it.
func TrainOperation(kind task.Kind) core.Operation {
	return func(ctx context.Context, cfg *config.Merged) error {
		if !cfg.IsSet("data") {
			return errors.New(errors.ErrorTypeMissingDataset,
				"no dataset provided, set data=<dataset definition>")
		}
		m, err := ResolveModel(cfg, kind, DefaultVariant)
		if err != nil {
			return err
		}
		triad, err := registry.ResolveTriad(m.Task(), DefaultVariant)
		if err != nil {
			return err
		}
		trainer, err := triad.Trainer(cfg)
		if err != nil {
			return err
		}
		return trainer.Train(ctx, m)
	}
}

// ValOperation builds the val entry point for a task family
func ValOperation(kind task.Kind) core.Operation {
	return func(ctx context.Context, cfg *config.Merged) error {
		if !cfg.IsSet("data") {
			return errors.New(errors.ErrorTypeMissingDataset,
				"no dataset provided, set data=<dataset definition>")
		}
		m, err := ResolveModel(cfg, kind, DefaultVariant)
		if err != nil {
			return err
		}
		triad, err := registry.ResolveTriad(m.Task(), DefaultVariant)
		if err != nil {
			return err
		}
		validator, err := triad.Validator(cfg)
		if err != nil {
			return err
		}
		return validator.Validate(ctx, m)
	}
}

// PredictOperation builds the predict entry point for a task family
func PredictOperation(kind task.Kind) core.Operation {
	return func(ctx context.Context, cfg *config.Merged) error {
		source := cfg.String("source")
		if source == "" {
			return errors.New(errors.ErrorTypeMissingOption,
				"no source provided, set source=<file, directory or URL>")
		}
		m, err := ResolveModel(cfg, kind, DefaultVariant)
		if err != nil {
			return err
		}
		triad, err := registry.ResolveTriad(m.Task(), DefaultVariant)
		if err != nil {
			return err
		}
		predictor, err := triad.Predictor(cfg)
		if err != nil {
			return err
		}
		return predictor.Predict(ctx, m, source)
	}
}
