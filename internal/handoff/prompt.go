// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ttyPath is the controlling terminal, used when stdin is a pipe (curl | sh).
const ttyPath = "/dev/tty"

type (
	// Prompter asks a yes/no question.
	Prompter interface {
		Confirm(ctx context.Context, question string) (bool, error)
	}

	// LinePrompter reads a single answer line. Anything other than an explicit
	// "n" or "no" is a yes, including an empty line and end of input.
	LinePrompter struct {
		in  io.Reader
		out io.Writer
	}
)

// NewLinePrompter creates a prompter reading from in and writing to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: in, out: out}
}

// NewTerminalPrompter prompts on stdin when it is a terminal and on the
// controlling terminal otherwise. The returned close function releases the
// terminal handle. Without any terminal the prompter reads end of input.
func NewTerminalPrompter(out io.Writer) (*LinePrompter, func()) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return NewLinePrompter(os.Stdin, out), func() {}
	}

	tty, err := os.Open(ttyPath)
	if err != nil {
		return NewLinePrompter(strings.NewReader(""), out), func() {}
	}
	return NewLinePrompter(tty, out), func() { _ = tty.Close() }
}

// Confirm writes question followed by " [Y/n] " and waits for an answer or
// for ctx to be cancelled.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [Y/n] ", question); err != nil {
		return false, err
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	// On cancel this goroutine stays parked in ReadString; the process is exiting anyway.
	go func() {
		line, err := bufio.NewReader(p.in).ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("reading answer: %w", a.err)
		}
		if errors.Is(a.err, io.EOF) && a.line == "" {
			_, _ = fmt.Fprintln(p.out)
		}
		return IsAffirmative(a.line), nil
	}
}

// IsAffirmative reports whether answer counts as a yes.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return false
	}
	return true
}
