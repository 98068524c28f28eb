// Package argus is a command-line front end for vision model training. It
// resolves configuration from packaged defaults, external documents and
// command-line overrides, then dispatches exactly one (task, mode) operation
// per invocation.
//
// Tasks are the supported problem families (detect, segment, classify) and
// modes are the lifecycle phases (train, val, predict, export). Task
// implementations register themselves at init time; the dispatcher resolves
// them through a static registry and never evaluates type names at runtime.
//
// # Quick Start
//
// Run an operation from the command line:
//
//	argus detect train model=argus-n.yaml data=coco128.yaml epochs=100
//	argus classify predict model=runs/classify/train/last.ckpt source=bus.jpg
//	argus copy-config
//
// Or drive a model programmatically through the facade:
//
//	import "github.com/argusml/argus/pkg/model"
//
//	m := model.NewFacade("")
//	if err := m.New("argus-n.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	err := m.Train(ctx, map[string]interface{}{
//	    "data":   "coco128.yaml",
//	    "epochs": 50,
//	})
//
// # Package Layout
//
//   - cmd/argus: the binary entry point
//   - internal/cli: token classification and operation dispatch
//   - pkg/config: ordered configuration store, defaults, merge and suggestions
//   - pkg/task: task and mode vocabulary, head-layer inference
//   - pkg/registry: static triad and operation registry
//   - pkg/model: the stateful facade
//   - pkg/checkpoint: the checkpoint container format
//   - pkg/ops: per-task train, val, predict and the shared export
//
// Configuration precedence is overrides over defaults, with a cfg=<path>
// token replacing every override collected before it. Unknown option keys
// fail the merge with near-match suggestions.
package argus
