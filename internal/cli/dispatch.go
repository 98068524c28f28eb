// Package cli implements the Argus argument dispatcher: it classifies raw
// command-line tokens, merges configuration overrides onto the packaged
// defaults, resolves the (task, mode) operation and invokes it. Exactly one
// operation runs per dispatch; special commands short-circuit before the
// merge.
package cli

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/metrics"
	"github.com/argusml/argus/pkg/observability"
	"github.com/argusml/argus/pkg/registry"
	"github.com/argusml/argus/pkg/task"
)

// Dispatch classifies tokens, merges configuration and runs the resolved
// operation. The token source is the caller's concern; args is already an
// ordered token sequence. Human-readable command output goes to out.
func Dispatch(ctx context.Context, args []string, out io.Writer) error {
	err := dispatch(ctx, args, out)
	if err != nil {
		metrics.DispatchesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.DispatchesTotal.WithLabelValues("ok").Inc()
	return nil
}

func dispatch(ctx context.Context, args []string, out io.Writer) error {
	log := logger.Get()

	defaults, err := config.LoadDefaults()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return printHelp(out)
	}

	overrides, special, err := collectOverrides(args, defaults)
	if err != nil {
		return err
	}
	if special != nil {
		return special(out)
	}

	merged, err := config.Merge(defaults, overrides)
	if err != nil {
		return err
	}

	kind, err := task.Parse(merged.String("task"))
	if err != nil {
		return errors.Newf(errors.ErrorTypeSyntax,
			"task=%s is invalid, valid tasks are detect, segment, classify\n%s",
			merged.String("task"), HelpText)
	}
	mode, err := task.ParseMode(merged.String("mode"))
	if err != nil {
		return errors.Newf(errors.ErrorTypeSyntax,
			"mode=%s is invalid, valid modes are train, val, predict, export\n%s",
			merged.String("mode"), HelpText)
	}

	op, err := registry.ResolveOperation(kind, mode)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeInvalidMode) ||
			errors.IsType(err, errors.ErrorTypeUnsupportedTask) {
			return errors.Wrap(err, errors.ErrorTypeSyntax,
				"cannot resolve an operation for task="+string(kind)+
					" mode="+string(mode)+"\n"+HelpText)
		}
		return err
	}

	log.Info("dispatching operation",
		zap.String("task", string(kind)),
		zap.String("mode", string(mode)))

	opCtx, span := observability.StartOperation(ctx, string(kind), string(mode))
	timer := metrics.NewTimer(string(kind), string(mode))
	err = op(opCtx, merged)
	timer.Stop()
	observability.EndOperation(span, err)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OperationsTotal.WithLabelValues(string(kind), string(mode), status).Inc()
	return err
}

// collectOverrides classifies raw tokens into the override set. A special
// command token stops classification and is returned for the caller to run
// instead of an operation.
func collectOverrides(args []string, defaults *config.Config) (*config.Config, specialCommand, error) {
	log := logger.Get()
	specials := specialCommands()
	overrides := config.New()
	for _, a := range args {
		switch {
		case strings.Contains(a, "="):
			key, value, _ := strings.Cut(a, "=")
			if key == "cfg" {
				// An external document replaces everything collected so far
				log.Info("overriding defaults with external document",
					zap.String("cfg", value))
				doc, err := config.Load(value)
				if err != nil {
					return nil, nil, err
				}
				doc.Delete("cfg")
				overrides = doc
				continue
			}
			overrides.Set(key, value)

		case isTask(a):
			overrides.Set("task", strings.ToLower(a))

		case isMode(a):
			overrides.Set("mode", strings.ToLower(a))

		case specials[a] != nil:
			return nil, specials[a], nil

		case defaults.IsFalse(a):
			// bare mention of a boolean-false option acts as a flag,
			// i.e. 'argus show' sets show=true
			overrides.Set(a, true)

		case defaults.Has(a):
			return nil, nil, errors.Newf(errors.ErrorTypeSyntax,
				"%q is a valid argument but is missing an '=' sign to set its value, "+
					"i.e. try '%s=<value>'\n%s", a, a, HelpText)

		default:
			return nil, nil, errors.Newf(errors.ErrorTypeSyntax,
				"%q is not a valid argument\n%s", a, HelpText)
		}
	}
	return overrides, nil, nil
}

func isTask(a string) bool {
	_, err := task.Parse(a)
	return err == nil
}

func isMode(a string) bool {
	_, err := task.ParseMode(a)
	return err == nil
}
