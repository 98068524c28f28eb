package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/argusml/argus/pkg/checks"
	"github.com/argusml/argus/pkg/config"
	"github.com/argusml/argus/pkg/errors"
	"github.com/argusml/argus/pkg/settings"
	"github.com/argusml/argus/pkg/version"
)

// specialCommand executes immediately and ends the dispatch sequence
type specialCommand func(out io.Writer) error

func specialCommands() map[string]specialCommand {
	return map[string]specialCommand{
		"help":        printHelp,
		"checks":      runChecks,
		"version":     printVersion,
		"settings":    printSettings,
		"copy-config": copyConfig,
	}
}

func printHelp(out io.Writer) error {
	fmt.Fprint(out, HelpText)
	return nil
}

func printVersion(out io.Writer) error {
	fmt.Fprintf(out, "Argus v%s\n", version.Version)
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

func runChecks(out io.Writer) error {
	checks.Collect().Print(out)
	return nil
}

func printSettings(out io.Writer) error {
	s, err := settings.Load()
	if err != nil {
		return err
	}
	s.Print(out)
	return nil
}

// copyConfig writes a byte-identical copy of the packaged defaults into the
// working directory under a _copy suffix, so users have a template to edit
// and pass back with cfg=<path>.
func copyConfig(out io.Writer) error {
	ext := filepath.Ext(config.DefaultName)
	name := strings.TrimSuffix(config.DefaultName, ext) + "_copy" + ext

	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "cannot determine working directory")
	}
	dest := filepath.Join(cwd, name)
	if err := os.WriteFile(dest, config.DefaultDocument(), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "cannot write config copy").
			WithDetail("path", dest)
	}

	fmt.Fprintf(out, "%s copied to %s\n", config.DefaultName, dest)
	fmt.Fprintf(out, "Usage with this custom config:\n    argus cfg=%s args...\n", dest)
	return nil
}
