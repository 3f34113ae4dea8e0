// Package proc runs external programs and captures their combined output.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"
)

// TimeoutExitCode is reported when an invocation is killed after its timeout,
// matching coreutils timeout(1).
const TimeoutExitCode = 124

// waitDelay bounds how long Exec waits for output pipes to close after the
// program was killed.
const waitDelay = 2 * time.Second

type Invocation struct {
	Path    string
	Args    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Argv returns the full command line, program first.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.Path}, inv.Args...)
}

type Outcome struct {
	Output   []byte
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Executor runs invocations. A non-zero exit status is reported through
// Outcome.ExitCode; an error means the program could not be run at all.
type Executor interface {
	Lookup(path string) error
	Exec(ctx context.Context, inv *Invocation) (*Outcome, error)
}

// Local runs programs on the host with os/exec.
type Local struct{}

func (Local) Lookup(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("looking up %s: %w", path, err)
	}
	return nil
}

func (Local) Exec(ctx context.Context, inv *Invocation) (*Outcome, error) {
	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	killGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), EnvList(inv.Env)...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	outcome := &Outcome{Output: out.Bytes(), Duration: time.Since(start)}
	if err == nil {
		return outcome, nil
	}

	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		outcome.ExitCode = TimeoutExitCode
		outcome.TimedOut = true
		return outcome, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, nil
	}
	return nil, fmt.Errorf("running %s: %w", inv.Path, err)
}

// EnvList flattens an environment map into sorted KEY=VALUE pairs.
func EnvList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}
