package gitops

import (
	"fmt"
	"os/exec"
	"strings"
)

// Info identifies the source revision a benchmark was built from.
type Info struct {
	Rev   string
	Dirty bool
}

// Describe reports HEAD and whether the work tree has uncommitted changes.
func Describe(repoDir string) (*Info, error) {
	rev := exec.Command("git", "rev-parse", "HEAD")
	rev.Dir = repoDir
	out, err := rev.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	status := exec.Command("git", "status", "--porcelain", "--untracked-files=no")
	status.Dir = repoDir
	st, err := status.Output()
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return &Info{
		Rev:   strings.TrimSpace(string(out)),
		Dirty: len(strings.TrimSpace(string(st))) > 0,
	}, nil
}

// Short returns an abbreviated revision with a "-dirty" suffix when needed.
func (i *Info) Short() string {
	rev := i.Rev
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if i.Dirty {
		rev += "-dirty"
	}
	return rev
}
