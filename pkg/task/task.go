// Package task defines the task and mode enumerations and the rules for
// inferring a task family from a model definition or checkpoint.
package task

import (
	"strings"

	"github.com/argusml/argus/pkg/errors"
)

// Kind is the class of problem a model solves
type Kind string

const (
	// Classify is image classification
	Classify Kind = "classify"
	// Detect is object detection
	Detect Kind = "detect"
	// Segment is instance segmentation
	Segment Kind = "segment"
)

// Mode is the operation requested against a task
type Mode string

const (
	// Train runs the training loop
	Train Mode = "train"
	// Val runs validation against a dataset
	Val Mode = "val"
	// Predict runs inference on a source
	Predict Mode = "predict"
	// Export serializes a model to an interchange layout
	Export Mode = "export"
)

// Kinds lists all task kinds in a stable order
func Kinds() []Kind {
	return []Kind{Classify, Detect, Segment}
}

// Modes lists all modes in a stable order
func Modes() []Mode {
	return []Mode{Train, Val, Predict, Export}
}

// headSynonyms maps lowercase head-layer identifiers to task kinds.
// The classification head historically appears under several names.
var headSynonyms = map[string]Kind{
	"classify":   Classify,
	"classifier": Classify,
	"cls":        Classify,
	"fc":         Classify,
	"detect":     Detect,
	"segment":    Segment,
}

// InferFromHead determines the task kind from the identifier of a model's
// final head layer. Matching is case-insensitive.
func InferFromHead(head string) (Kind, error) {
	if k, ok := headSynonyms[strings.ToLower(head)]; ok {
		return k, nil
	}
	return "", errors.Newf(errors.ErrorTypeUnrecognizedTask,
		"head layer %q does not map to a known task", head)
}

// Parse converts a task string to a Kind. Matching is case-insensitive.
func Parse(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Classify:
		return Classify, nil
	case Detect:
		return Detect, nil
	case Segment:
		return Segment, nil
	}
	return "", errors.Newf(errors.ErrorTypeUnrecognizedTask,
		"unrecognized task %q, supported tasks are classify, detect, segment", s)
}

// ParseMode converts a mode string to a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case Train:
		return Train, nil
	case Val:
		return Val, nil
	case Predict:
		return Predict, nil
	case Export:
		return Export, nil
	}
	return "", errors.Newf(errors.ErrorTypeInvalidMode,
		"invalid mode %q, valid modes are train, val, predict, export", s)
}

// InferFromCheckpoint reads the task recorded in checkpoint training
// arguments. The recorded value is trusted; it was validated when the
// checkpoint was written.
func InferFromCheckpoint(trainArgs map[string]interface{}) (Kind, error) {
	v, ok := trainArgs["task"]
	if !ok {
		return "", errors.New(errors.ErrorTypeCheckpoint,
			"checkpoint train_args missing required task key")
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf(errors.ErrorTypeCheckpoint,
			"checkpoint train_args task is %T, want string", v)
	}
	return Kind(strings.ToLower(s)), nil
}
