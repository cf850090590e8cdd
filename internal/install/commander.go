// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type (
	// Commander runs a program and returns its standard output.
	Commander interface {
		Output(ctx context.Context, name string, args ...string) ([]byte, error)
	}

	// ExecCommander runs programs with os/exec.
	ExecCommander struct{}
)

// Output runs name with args. A non-zero exit is an error carrying stderr.
func (ExecCommander) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
