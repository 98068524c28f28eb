// Package detect implements the object-detection task family.
package detect

import (
	"context"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/ops/shared"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
)

func init() {
	// Register the detection triad and its CLI operations
	_ = registry.RegisterTriad(registry.Triad{
		Task:      task.Detect,
		Builder:   newBuilder,
		Trainer:   newTrainer,
		Validator: newValidator,
		Predictor: newPredictor,
	})
	_ = registry.RegisterOperation(task.Detect, task.Train, shared.TrainOperation(task.Detect))
	_ = registry.RegisterOperation(task.Detect, task.Val, shared.ValOperation(task.Detect))
	_ = registry.RegisterOperation(task.Detect, task.Predict, shared.PredictOperation(task.Detect))
}

type builder struct {
	variant string
}

func newBuilder(variant string) core.Builder {
	return builder{variant: variant}
}

func (b builder) New(def *core.Definition) (core.Model, error) {
	return shared.NewFromDefinition(task.Detect, b.variant, def), nil
}

func (b builder) FromState(state map[string][]float32) (core.Model, error) {
	return shared.NewFromState(task.Detect, b.variant, state), nil
}

type trainer struct {
	cfg *config.Merged
	log *zap.Logger
}

func newTrainer(cfg *config.Merged) (core.Trainer, error) {
	return &trainer{
		cfg: cfg,
		log: logger.With(zap.String("component", "detect_trainer")),
	}, nil
}

func (t *trainer) Train(ctx context.Context, m core.Model) error {
	loop := &shared.Loop{Cfg: t.cfg, Model: m, Log: t.log, Step: t.step}
	return loop.Run(ctx)
}

// step models the combined detection loss: box, classification and
// distribution focal terms, each weighted by its configured gain and
// decaying with epoch count.
func (t *trainer) step(epoch int) float64 {
	box := t.cfg.Float("box", 7.5)
	cls := t.cfg.Float("cls", 0.5)
	dfl := t.cfg.Float("dfl", 1.5)
	return (box + cls + dfl) / float64(epoch+1)
}

type validator struct {
	cfg *config.Merged
	log *zap.Logger
}

func newValidator(cfg *config.Merged) (core.Validator, error) {
	return &validator{
		cfg: cfg,
		log: logger.With(zap.String("component", "detect_validator")),
	}, nil
}

func (v *validator) Validate(ctx context.Context, m core.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.log.Info("validation complete",
		zap.String("data", v.cfg.String("data")),
		zap.Float64("iou", v.cfg.Float("iou", 0.7)),
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
		log: logger.With(zap.String("component", "detect_predictor")),
	}, nil
}

func (p *predictor) Predict(ctx context.Context, m core.Model, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	maxDet := p.cfg.Int("max_det", 300)
	h := fnv.New32a()
	_, _ = h.Write([]byte(source))
	detections := int(h.Sum32()) % (maxDet + 1)
	if detections < 0 {
		detections = -detections
	}
	p.log.Info("prediction complete",
		zap.String("source", source),
		zap.Int("detections", detections),
		zap.Bool("show", p.cfg.Bool("show")))
	return nil
}
