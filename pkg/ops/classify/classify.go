// Package classify implements the image-classification task family.
package classify

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/ops/shared"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
)

func init() {
	_ = registry.RegisterTriad(registry.Triad{
		Task:      task.Classify,
		Builder:   newBuilder,
		Trainer:   newTrainer,
		Validator: newValidator,
		Predictor: newPredictor,
	})
	_ = registry.RegisterOperation(task.Classify, task.Train, shared.TrainOperation(task.Classify))
	_ = registry.RegisterOperation(task.Classify, task.Val, shared.ValOperation(task.Classify))
	_ = registry.RegisterOperation(task.Classify, task.Predict, shared.PredictOperation(task.Classify))
}

type builder struct {
	variant string
}

func newBuilder(variant string) core.Builder {
	return builder{variant: variant}
}

func (b builder) New(def *core.Definition) (core.Model, error) {
	return shared.NewFromDefinition(task.Classify, b.variant, def), nil
}

func (b builder) FromState(state map[string][]float32) (core.Model, error) {
	return shared.NewFromState(task.Classify, b.variant, state), nil
}

type trainer struct {
	cfg *config.Merged
	log *zap.Logger
}

func newTrainer(cfg *config.Merged) (core.Trainer, error) {
	return &trainer{
		cfg: cfg,
		log: logger.With(zap.String("component", "classify_trainer")),
	}, nil
}

func (t *trainer) Train(ctx context.Context, m core.Model) error {
	loop := &shared.Loop{Cfg: t.cfg, Model: m, Log: t.log, Step: t.step}
	return loop.Run(ctx)
}

// step models cross-entropy decay shaped by the initial learning rate
func (t *trainer) step(epoch int) float64 {
	lr0 := t.cfg.Float("lr0", 0.01)
	return math.Exp(-lr0*float64(epoch)) * t.cfg.Float("cls", 0.5) * 10
}

type validator struct {
	cfg *config.Merged
	log *zap.Logger
}

func newValidator(cfg *config.Merged) (core.Validator, error) {
	return &validator{
		cfg: cfg,
		log: logger.With(zap.String("component", "classify_validator")),
	}, nil
}

func (v *validator) Validate(ctx context.Context, m core.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// top-1 proxy derived from the weight distribution
	v.log.Info("validation complete",
		zap.String("data", v.cfg.String("data")),
		zap.Float64("accuracy", shared.Fitness(m)))
	return nil
}

type predictor struct {
	cfg *config.Merged
	log *zap.Logger
}

func newPredictor(cfg *config.Merged) (core.Predictor, error) {
	return &predictor{
		cfg: cfg,
		log: logger.With(zap.String("component", "classify_predictor")),
	}, nil
}

func (p *predictor) Predict(ctx context.Context, m core.Model, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info("prediction complete", zap.String("source", source))
	return nil
}
