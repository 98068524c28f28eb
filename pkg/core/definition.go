package core

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/task"
)

// Layer is one entry in a model definition's backbone or head sequence.
// From and Repeats mirror the document layout; Type names the layer and is
// what task inference keys on for the final head entry.
type Layer struct {
	From    interface{} `yaml:"from"`
	Repeats int         `yaml:"repeats"`
	Type    string      `yaml:"type"`
	Args    []yaml.Node `yaml:"args"`
}

// Definition is a parsed model definition document
type Definition struct {
	Name     string                 `yaml:"name"`
	Scales   map[string]interface{} `yaml:"scales"`
	Channels int                    `yaml:"channels"`
	Classes  int                    `yaml:"nc"`
	Backbone []Layer                `yaml:"backbone"`
	Head     []Layer                `yaml:"head"`
}

// LoadDefinition reads and parses a model definition document
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "failed to read model definition").
			WithDetail("path", path)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "failed to parse model definition").
			WithDetail("path", path)
	}
	if len(def.Head) == 0 {
		return nil, errors.New(errors.ErrorTypeConfigLoad, "model definition has no head sequence").
			WithDetail("path", path)
	}
	return &def, nil
}

// InferTask determines the task family from the definition's final head layer
func (d *Definition) InferTask() (task.Kind, error) {
	return task.InferFromHead(d.Head[len(d.Head)-1].Type)
}
