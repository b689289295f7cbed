package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Result describes a finished command. A non-zero ExitCode is not an
// error from Run's point of view.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func (r Result) Success() bool { return r.ExitCode == 0 }

// Spec describes a detached child process.
type Spec struct {
	Name string
	Args []string
	Env  []string
	Dir  string
}

// Runner spawns external programs. Run returns an error only when the
// program could not be started or the context ended.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	Start(spec Spec) error
}

var _ Runner = (*ExecRunner)(nil)

type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	result := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to spawn %s: %w", name, err)
	}

	return result, nil
}

// Start launches the process with stdio discarded and reaps it in the
// background. The child outlives the caller's context.
func (r *ExecRunner) Start(spec Spec) error {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", spec.Name, err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
