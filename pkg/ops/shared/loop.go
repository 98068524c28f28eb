package shared

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/checkpoint"
	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/core"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/metrics"
	"github.com/argusml/argus/pkg/task"
	"github.com/argusml/argus/pkg/version"
)

// Loop is the epoch shell shared by all trainers. Step is the task-specific
// hook standing in for the out-of-scope numerical core; it returns the
// epoch's loss.
type Loop struct {
	Cfg   *config.Merged
	Model core.Model
	Log   *zap.Logger
	Step  func(epoch int) float64
}

// Run executes the training epochs. It honors context cancellation between
// epochs, applies early stopping after `patience` epochs without fitness
// improvement, and saves a checkpoint at the end when `save` is set.
func (l *Loop) Run(ctx context.Context) error {
	epochs := l.Cfg.Int("epochs", 100)
	patience := l.Cfg.Int("patience", 0)

	l.Log.Info("starting training",
		zap.Int("epochs", epochs),
		zap.String("data", l.Cfg.String("data")),
		zap.Int64("parameters", l.Model.ParamCount()))

	best := 0.0
	sinceBest := 0
	completed := 0
	for epoch := 1; epoch <= epochs; epoch++ {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrorTypeInternal, "training interrupted")
		default:
		}

		loss := l.Step(epoch)
		fitness := 1 / (1 + loss)
		completed = epoch
		metrics.EpochsTotal.WithLabelValues(string(l.Model.Task())).Inc()

		if epoch == 1 || epoch == epochs || epoch%10 == 0 {
			l.Log.Info("epoch complete",
				zap.Int("epoch", epoch),
				zap.Float64("loss", loss),
				zap.Float64("fitness", fitness))
		}

		if fitness > best {
			best = fitness
			sinceBest = 0
		} else {
			sinceBest++
			if patience > 0 && sinceBest >= patience {
				l.Log.Info("early stopping", zap.Int("epoch", epoch), zap.Int("patience", patience))
				break
			}
		}
	}

	if !l.Cfg.Bool("save") {
		return nil
	}
	path, err := l.save(completed, best)
	if err != nil {
		return err
	}
	l.Log.Info("checkpoint saved", zap.String("path", path))
	return nil
}

// save writes the final checkpoint under the run directory
func (l *Loop) save(epoch int, fitness float64) (string, error) {
	dir := RunDir(l.Cfg, l.Model.Task())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "cannot create run directory").
			WithDetail("dir", dir)
	}

	trainArgs := l.Cfg.Map()
	trainArgs["task"] = string(l.Model.Task())

	path := filepath.Join(dir, "last"+CheckpointExt)
	meta := checkpoint.Metadata{
		Version:   version.Version,
		Task:      string(l.Model.Task()),
		Variant:   l.Model.Variant(),
		Epoch:     epoch,
		Fitness:   fitness,
		SavedAt:   time.Now().UTC(),
		TrainArgs: trainArgs,
	}
	if err := checkpoint.Save(path, meta, l.Model.State(), checkpoint.SaveOptions{}); err != nil {
		return "", err
	}
	if fi, err := os.Stat(path); err == nil {
		metrics.CheckpointBytes.Observe(float64(fi.Size()))
	}
	return path, nil
}

// RunDir resolves the output directory for a run from the project and name
// options, defaulting to runs/<task>/train
func RunDir(cfg *config.Merged, kind task.Kind) string {
	project := cfg.String("project")
	if project == "" {
		project = "runs"
	}
	name := cfg.String("name")
	if name == "" {
		name = filepath.Join(string(kind), "train")
	}
	return filepath.Join(project, name)
}
