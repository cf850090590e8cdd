// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

type (
	// Runner transfers control to argv.
	Runner interface {
		Run(argv []string) error
	}

	// ExecRunner replaces the current process image with exec(2). On success
	// Run does not return.
	ExecRunner struct {
		env []string
	}
)

// NewExecRunner creates a runner that passes the current environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{env: os.Environ()}
}

// Run resolves argv[0] and execs it.
func (r *ExecRunner) Run(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty command", ErrHandoff)
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandoff, err)
	}

	if err := unix.Exec(path, argv, r.env); err != nil {
		return fmt.Errorf("%w: exec %s: %w", ErrHandoff, path, err)
	}
	return nil
}
