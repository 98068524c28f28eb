// Package settings manages the persistent per-user Argus settings file.
// The file lives under the user config directory and records where datasets,
// weights and run outputs are kept. It is created with defaults on first use.
package settings

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/argusml/argus/pkg/errors"
)

const (
	dirName  = "argus"
	fileName = "settings"
	fileExt  = "yaml"
)

// Settings are the persisted user-level preferences
type Settings struct {
	DatasetsDir string `mapstructure:"datasets_dir"`
	WeightsDir  string `mapstructure:"weights_dir"`
	RunsDir     string `mapstructure:"runs_dir"`
	Sync        bool   `mapstructure:"sync"`
}

// Path returns the settings file location
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "cannot determine user config directory")
	}
	return filepath.Join(base, dirName, fileName+"."+fileExt), nil
}

// Load reads the settings file, creating it with defaults on first use
func Load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	v := viper.New()
	v.SetConfigName(fileName)
	v.SetConfigType(fileExt)
	v.AddConfigPath(filepath.Dir(path))
	v.SetDefault("datasets_dir", filepath.Join(home, "datasets"))
	v.SetDefault("weights_dir", filepath.Join(home, "weights"))
	v.SetDefault("runs_dir", filepath.Join(home, "runs"))
	v.SetDefault("sync", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "settings file is malformed").
				WithDetail("path", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot create settings directory")
		}
		if err := v.SafeWriteConfigAs(path); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot write settings file").
				WithDetail("path", path)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfigLoad, "settings file is malformed").
			WithDetail("path", path)
	}
	return &s, nil
}

// Print writes the settings as key: value lines, sorted by key
func (s *Settings) Print(w io.Writer) {
	entries := map[string]string{
		"datasets_dir": s.DatasetsDir,
		"weights_dir":  s.WeightsDir,
		"runs_dir":     s.RunsDir,
		"sync":         fmt.Sprintf("%v", s.Sync),
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, entries[k])
	}
}
