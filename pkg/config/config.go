// Package config provides the configuration system for Argus.
//
// Two configuration sets exist per invocation: the defaults, loaded once
// from the packaged default document (or a user-supplied path), and the
// overrides accumulated from the command line or an external document.
// Merge overlays overrides onto defaults, rejecting keys that the defaults
// do not know about and suggesting near-matches for typos.
package config

import (
	"bytes"
	_ "embed"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/logger"
)

//go:embed default.yaml
var defaultDocument []byte

// DefaultName is the file name the packaged defaults are published under.
const DefaultName = "default.yaml"

// Config is an ordered mapping from option name to value. Key order follows
// the source document so diagnostics and copies stay readable.
type Config struct {
	keys   []string
	values map[string]interface{}
}

// New returns an empty configuration
func New() *Config {
	return &Config{values: make(map[string]interface{})}
}

// Set stores a value, appending the key on first sight
func (c *Config) Set(key string, value interface{}) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value for key and whether it is present
func (c *Config) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Delete removes a key if present
func (c *Config) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in document order
func (c *Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of keys
func (c *Config) Len() int {
	return len(c.keys)
}

// IsFalse reports whether key is present with a boolean false value.
// Such keys act as flags on the command line.
func (c *Config) IsFalse(key string) bool {
	v, ok := c.values[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && !b
}

// LoadDefaults parses the packaged default document
func LoadDefaults() (*Config, error) {
	cfg, err := parse(defaultDocument)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "packaged defaults are malformed")
	}
	return cfg, nil
}

// DefaultDocument returns the raw bytes of the packaged default document
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// Load reads and parses a YAML configuration document from path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "failed to read config file").
			WithDetail("path", path)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "failed to parse config file").
			WithDetail("path", path)
	}
	return cfg, nil
}

// parse decodes a YAML mapping preserving key order
func parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	cfg := New()
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrorTypeConfigLoad, "document root is not a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		var value interface{}
		if err := valNode.Decode(&value); err != nil {
			return nil, err
		}
		cfg.Set(keyNode.Value, value)
	}
	return cfg, nil
}

// Merge overlays overrides onto defaults. Every override key must exist in
// defaults; unknown keys are reported together with up to three near-matching
// default keys and the merge fails with an unknown_option error.
// The overlay is shallow: an override value replaces the default verbatim.
func Merge(defaults, overrides *Config) (*Merged, error) {
	log := logger.Get()

	var mismatched []string
	for _, key := range overrides.Keys() {
		if defaults.Has(key) {
			continue
		}
		mismatched = append(mismatched, key)
		log.Error("not a valid argument",
			zap.String("key", key),
			zap.Strings("similar", Suggest(key, defaults.Keys())))
	}
	if len(mismatched) > 0 {
		return nil, mismatchError(mismatched, defaults)
	}

	merged := &Merged{keys: defaults.Keys(), values: make(map[string]interface{}, defaults.Len())}
	for _, key := range merged.keys {
		if v, ok := overrides.Get(key); ok {
			merged.values[key] = v
			continue
		}
		v, _ := defaults.Get(key)
		merged.values[key] = v
	}
	return merged, nil
}

// mismatchError builds the unknown_option error for a set of offending keys
func mismatchError(mismatched []string, defaults *Config) *errors.Error {
	err := errors.Newf(errors.ErrorTypeUnknownOption,
		"%d unknown configuration key(s)", len(mismatched))
	for _, key := range mismatched {
		err = err.WithDetail(key, Suggest(key, defaults.Keys()))
	}
	return err
}

// Dump serializes the configuration back to YAML in key order
func (c *Config) Dump() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range c.keys {
		var keyNode, valNode yaml.Node
		keyNode.SetString(key)
		if err := valNode.Encode(c.values[key]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &keyNode, &valNode)
	}
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
