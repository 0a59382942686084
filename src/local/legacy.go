package local

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/heyong4725/dora-tui/src/provider"
)

// ErrEmptyCommand is returned by Execute when argv is empty.
var ErrEmptyCommand = errors.New("empty command")

// LegacyCLI runs dora CLI commands on this machine.
type LegacyCLI struct {
	Binary string
	Stdout io.Writer
	Stderr io.Writer
}

var _ provider.LegacyCLIService = (*LegacyCLI)(nil)

// NewLegacyCLI returns a LegacyCLIService running binary, or DefaultBinary if
// empty, with output going to the process's stdout and stderr.
func NewLegacyCLI(binary string) *LegacyCLI {
	if binary == "" {
		binary = DefaultBinary
	}
	return &LegacyCLI{Binary: binary, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute runs the dora CLI with argv in workingDir. argv may start with the
// program name ("dora" or the configured binary), which is dropped.
func (l *LegacyCLI) Execute(ctx context.Context, argv []string, workingDir string) error {
	args := argv
	if len(args) > 0 && (args[0] == DefaultBinary || args[0] == l.Binary || args[0] == filepath.Base(l.Binary)) {
		args = args[1:]
	}
	if len(args) == 0 {
		return provider.Errorf(ErrEmptyCommand, "no dora command given")
	}

	cmd := exec.CommandContext(ctx, l.Binary, args...)
	cmd.Dir = workingDir
	cmd.Stdin = nil
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		return provider.Errorf(err, "dora %s: %v", strings.Join(args, " "), err)
	}
	return nil
}
