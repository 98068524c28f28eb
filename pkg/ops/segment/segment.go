// Package segment implements the instance-segmentation task family.
// It reuses the detection loss structure with an additional mask term.
package segment

import (
	"context"

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
		Task:      task.Segment,
		Builder:   newBuilder,
		Trainer:   newTrainer,
		Validator: newValidator,
		Predictor: newPredictor,
	})
	_ = registry.RegisterOperation(task.Segment, task.Train, shared.TrainOperation(task.Segment))
	_ = registry.RegisterOperation(task.Segment, task.Val, shared.ValOperation(task.Segment))
	_ = registry.RegisterOperation(task.Segment, task.Predict, shared.PredictOperation(task.Segment))
}

type builder struct {
	variant string
}

func newBuilder(variant string) core.Builder {
	return builder{variant: variant}
}

func (b builder) New(def *core.Definition) (core.Model, error) {
	return shared.NewFromDefinition(task.Segment, b.variant, def), nil
}

func (b builder) FromState(state map[string][]float32) (core.Model, error) {
	return shared.NewFromState(task.Segment, b.variant, state), nil
}

type trainer struct {
	cfg *config.Merged
	log *zap.Logger
}

func newTrainer(cfg *config.Merged) (core.Trainer, error) {
	return &trainer{
		cfg: cfg,
		log: logger.With(zap.String("component", "segment_trainer")),
	}, nil
}

func (t *trainer) Train(ctx context.Context, m core.Model) error {
	loop := &shared.Loop{Cfg: t.cfg, Model: m, Log: t.log, Step: t.step}
	return loop.Run(ctx)
}

func (t *trainer) step(epoch int) float64 {
	box := t.cfg.Float("box", 7.5)
	cls := t.cfg.Float("cls", 0.5)
	dfl := t.cfg.Float("dfl", 1.5)
	const mask = 2.5
	return (box + cls + dfl + mask) / float64(epoch+1)
}

type validator struct {
	cfg *config.Merged
	log *zap.Logger
}

func newValidator(cfg *config.Merged) (core.Validator, error) {
	return &validator{
		cfg: cfg,
		log: logger.With(zap.String("component", "segment_validator")),
	}, nil
}

func (v *validator) Validate(ctx context.Context, m core.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.log.Info("validation complete",
		zap.String("data", v.cfg.String("data")),
		zap.Float64("fitness", shared.Fitness(m)))
	return nil
}

type predictor struct {
	cfg *config.Merged
	log *zap.Logger
}

func newPredictor(cfg *config.Merged) (core.Predictor, error) {
	return &predictor{
		cfg: cfg,
		log: logger.With(zap.String("component", "segment_predictor")),
	}, nil
}

func (p *predictor) Predict(ctx context.Context, m core.Model, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info("prediction complete",
		zap.String("source", source),
		zap.Float64("conf", p.cfg.Float("conf", 0.25)))
	return nil
}
