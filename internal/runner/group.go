package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalnine/trackbench/internal/metric"
	"github.com/signalnine/trackbench/internal/proc"
	"github.com/signalnine/trackbench/internal/result"
)

var (
	// ErrExecutableNotFound means the target could not be resolved before
	// the first invocation.
	ErrExecutableNotFound = errors.New("executable not found")
	// ErrInvocationFailed is returned under the Abort policy when an
	// invocation exits non-zero, times out, or cannot be started.
	ErrInvocationFailed = errors.New("invocation failed")
)

// Policy decides what a failed invocation does to the rest of the group.
type Policy int

const (
	// Continue records the failed iteration without a value and moves on.
	Continue Policy = iota
	// Abort stops the group at the first failed invocation.
	Abort
)

func (p Policy) String() string {
	switch p {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

type Opts struct {
	Label      string
	Executor   proc.Executor
	Invocation *proc.Invocation
	Runs       int
	Delay      time.Duration
	Extractor  metric.Extractor
	Policy     Policy

	// OnResult is called after each invocation with the recorded result.
	OnResult func(r *result.RunResult, runs int)
	// Sleep waits between invocations; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func ExitReasonFromCode(code int, timedOut bool) string {
	if timedOut {
		return "timeout"
	}
	if code == 0 {
		return "completed"
	}
	return "failed"
}

// RunN invokes the target opts.Runs times, strictly one after another, and
// returns the group of results. The group returned alongside a non-nil error
// holds every iteration completed so far.
func RunN(ctx context.Context, opts *Opts) (*result.RunGroup, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", opts.Runs)
	}
	if opts.Executor == nil || opts.Invocation == nil {
		return nil, fmt.Errorf("executor and invocation are required")
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = metric.MsPerEvent
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	inv := opts.Invocation
	if err := opts.Executor.Lookup(inv.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExecutableNotFound, inv.Path, err)
	}

	group := &result.RunGroup{
		Label:      opts.Label,
		Executable: inv.Path,
		Args:       append([]string(nil), inv.Args...),
	}

	for i := 1; i <= opts.Runs; i++ {
		if i > 1 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return group, err
			}
		}

		r, failed := runOnce(ctx, opts.Executor, inv, extractor, i)
		if r == nil {
			return group, ctx.Err()
		}
		group.Append(*r)
		if opts.OnResult != nil {
			opts.OnResult(&group.Results[len(group.Results)-1], opts.Runs)
		}
		if failed && opts.Policy == Abort {
			return group, fmt.Errorf("%w: %s run %d/%d: %s", ErrInvocationFailed, opts.Label, i, opts.Runs, r.ExitReason)
		}
	}
	return group, nil
}

// runOnce performs one invocation. A nil result means the context was
// cancelled mid-run.
func runOnce(ctx context.Context, ex proc.Executor, inv *proc.Invocation, extractor metric.Extractor, iteration int) (*result.RunResult, bool) {
	outcome, err := ex.Exec(ctx, inv)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true
		}
		return &result.RunResult{
			Iteration:  iteration,
			ExitCode:   -1,
			ExitReason: "error",
			Error:      err.Error(),
		}, true
	}

	r := &result.RunResult{
		Iteration:  iteration,
		ExitCode:   outcome.ExitCode,
		ExitReason: ExitReasonFromCode(outcome.ExitCode, outcome.TimedOut),
		DurationMS: outcome.Duration.Milliseconds(),
		Output:     metric.SplitLines(outcome.Output),
	}
	if outcome.ExitCode != 0 || outcome.TimedOut {
		r.Error = fmt.Sprintf("exit status %d", outcome.ExitCode)
		return r, true
	}
	if v, ok := extractor.Extract(r.Output); ok {
		r.Value = &v
	}
	return r, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
