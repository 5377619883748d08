package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
)

// Linter checks saved files. It receives the paths that changed and nothing
// else from the build configuration.
type Linter interface {
	Lint(ctx context.Context, files []string) error
}

// CommandLinter runs an external lint tool with the saved files appended to
// its arguments.
type CommandLinter struct {
	Command string
	Args    []string
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewCommandLinter builds a linter from a command line split into fields.
func NewCommandLinter(dir string, fields []string) (*CommandLinter, error) {
	if len(fields) == 0 {
		return nil, errors.New("lint command is empty")
	}
	return &CommandLinter{
		Command: fields[0],
		Args:    slices.Clone(fields[1:]),
		Dir:     dir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

func (l *CommandLinter) Lint(ctx context.Context, files []string) error {
	args := append(slices.Clone(l.Args), files...)

	// #nosec G204 - the lint command is supplied by the operator
	cmd := exec.CommandContext(ctx, l.Command, args...)
	cmd.Dir = l.Dir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("lint command %s failed: %w", l.Command, err)
	}
	return nil
}
