// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
)

type (
	// CommandTransport shells out to an external download tool that writes
	// the body to stdout. Request headers never appear in the tool's argv,
	// where any local user could read them from /proc.
	CommandTransport struct {
		name     string
		binary   string
		prepare  func(Request) (*invocation, error)
		lookPath func(string) (string, error)
	}

	// CommandOption configures a CommandTransport.
	CommandOption func(*CommandTransport)

	// invocation is the argv and side inputs of one tool run.
	invocation struct {
		args    []string
		stdin   io.Reader
		cleanup func()
	}
)

// WithLookPath replaces exec.LookPath for availability probing.
func WithLookPath(fn func(string) (string, error)) CommandOption {
	return func(c *CommandTransport) {
		c.lookPath = fn
	}
}

// NewCurlTransport creates a transport that runs curl -fsSL with headers
// read from a config on stdin.
func NewCurlTransport(opts ...CommandOption) *CommandTransport {
	return newCommandTransport(PreferCurl, "curl", curlInvocation, opts)
}

// NewWgetTransport creates a transport that runs wget -qO- with headers
// read from a private temporary wgetrc.
func NewWgetTransport(opts ...CommandOption) *CommandTransport {
	return newCommandTransport(PreferWget, "wget", wgetInvocation, opts)
}

func newCommandTransport(name, binary string, prepare func(Request) (*invocation, error), opts []CommandOption) *CommandTransport {
	c := &CommandTransport{
		name:     name,
		binary:   binary,
		prepare:  prepare,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the transport name ("curl" or "wget").
func (c *CommandTransport) Name() string { return c.name }

// Available reports whether the tool is on PATH.
func (c *CommandTransport) Available() bool {
	_, err := c.lookPath(c.binary)
	return err == nil
}

// Fetch runs the tool and streams its stdout into w.
func (c *CommandTransport) Fetch(ctx context.Context, req Request, w io.Writer) error {
	path, err := c.lookPath(c.binary)
	if err != nil {
		return fmt.Errorf("%s not found: %w", c.binary, err)
	}

	inv, err := c.prepare(req)
	if err != nil {
		return fmt.Errorf("%s GET %s: %w", c.name, redactURL(req.URL), err)
	}
	defer inv.cleanup()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, inv.args...)
	cmd.Stdin = inv.stdin
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s GET %s: %w", c.name, redactURL(req.URL), err)
		}
		return fmt.Errorf("%s GET %s: %w: %s", c.name, redactURL(req.URL), err, msg)
	}
	return nil
}

// curlInvocation passes headers as a curl config on stdin (--config -).
func curlInvocation(req Request) (*invocation, error) {
	var cfg strings.Builder
	for _, line := range headerLines(req) {
		fmt.Fprintf(&cfg, "header = %s\n", curlQuote(line))
	}
	return &invocation{
		args:    []string{"-fsSL", "--config", "-", req.URL},
		stdin:   strings.NewReader(cfg.String()),
		cleanup: func() {},
	}, nil
}

// wgetInvocation writes headers to a 0600 wgetrc that is removed after the run.
func wgetInvocation(req Request) (*invocation, error) {
	lines := headerLines(req)
	if len(lines) == 0 {
		return &invocation{args: []string{"-q", "-O", "-", req.URL}, cleanup: func() {}}, nil
	}

	f, err := os.CreateTemp("", "invowk-wgetrc-*")
	if err != nil {
		return nil, fmt.Errorf("creating wget config: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	var cfg strings.Builder
	for _, line := range lines {
		cfg.WriteString("header = " + line + "\n")
	}
	if _, err := f.WriteString(cfg.String()); err != nil {
		_ = f.Close()
		cleanup()
		return nil, fmt.Errorf("writing wget config: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, fmt.Errorf("closing wget config: %w", err)
	}

	return &invocation{
		args:    []string{"-q", "-O", "-", "--config=" + f.Name(), req.URL},
		cleanup: cleanup,
	}, nil
}

// headerLines renders req.Header as "Key: value" lines in key order. Line
// breaks are dropped so a value cannot inject further config directives.
func headerLines(req Request) []string {
	strip := strings.NewReplacer("\r", "", "\n", "")
	var lines []string
	for _, key := range slices.Sorted(maps.Keys(req.Header)) {
		for _, v := range req.Header[key] {
			lines = append(lines, strip.Replace(key+": "+v))
		}
	}
	return lines
}

func curlQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
