// Package export implements the task-independent export operation: it binds
// a model and serializes it to an interchange artifact named after the
// requested format. One routine serves all task families.
package export

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/checkpoint"
	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/ops/shared"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
	"github.com/argusml/argus/pkg/version"
)

func init() {
	_ = registry.RegisterExport(Run)
}

// Run executes an export for the task recorded in the configuration
func Run(ctx context.Context, cfg *config.Merged) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kind, err := task.Parse(cfg.String("task"))
	if err != nil {
		return err
	}
	format := strings.ToLower(cfg.String("format"))
	if format == "" {
		return errors.New(errors.ErrorTypeMissingOption, "no export format specified, set format=<name>")
	}

	m, err := shared.ResolveModel(cfg, kind, shared.DefaultVariant)
	if err != nil {
		return err
	}
	// exports always ship inference-ready weights
	m.Fuse()

	src := cfg.String("model")
	out := strings.TrimSuffix(src, filepath.Ext(src)) + "." + format

	meta := checkpoint.Metadata{
		Version: version.Version,
		Task:    string(m.Task()),
		Variant: m.Variant(),
		TrainArgs: map[string]interface{}{
			"task":   string(m.Task()),
			"format": format,
			"half":   cfg.Bool("half"),
			"int8":   cfg.Bool("int8"),
		},
	}
	if err := checkpoint.Save(out, meta, m.State(), checkpoint.SaveOptions{
		Algorithm: checkpoint.AlgorithmNone,
	}); err != nil {
		return err
	}

	logger.Info("export complete",
		zap.String("model", src),
		zap.String("format", format),
		zap.String("output", out))
	return nil
}
