// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"mvdan.cc/sh/v3/shell"
)

// ErrHandoff indicates the post-install command could not be started.
var ErrHandoff = errors.New("handoff failed")

type (
	// Params describes what was installed and what to run next.
	Params struct {
		ToolName    string
		BinaryPath  string
		AliasName   string
		InitCommand string
		// AutoConfirm skips the prompt and runs the command.
		AutoConfirm bool
	}

	// Handoff decides whether to run the initialization command.
	Handoff struct {
		prompter Prompter
		runner   Runner
		out      io.Writer
		render   func(markdown string) (string, error)
	}

	// Option configures a Handoff.
	Option func(*Handoff)
)

// WithRenderer replaces the markdown renderer used for the next-steps message.
func WithRenderer(fn func(string) (string, error)) Option {
	return func(h *Handoff) {
		h.render = fn
	}
}

// New creates a Handoff writing messages to out.
func New(prompter Prompter, runner Runner, out io.Writer, opts ...Option) *Handoff {
	h := &Handoff{
		prompter: prompter,
		runner:   runner,
		out:      out,
		render: func(md string) (string, error) {
			return glamour.Render(md, "auto")
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Command returns the argv for the initialization command.
func Command(p Params) ([]string, error) {
	args, err := shell.Fields(p.InitCommand, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %q: %w", ErrHandoff, p.InitCommand, err)
	}
	return append([]string{p.BinaryPath}, args...), nil
}

// Run prompts (unless AutoConfirm is set) and hands off to the initialization
// command. It reports whether the command was started; with ExecRunner a
// successful handoff never returns. A declined prompt prints the next steps.
func (h *Handoff) Run(ctx context.Context, p Params) (bool, error) {
	if strings.TrimSpace(p.InitCommand) == "" {
		return false, h.printNextSteps(p)
	}

	argv, err := Command(p)
	if err != nil {
		return false, err
	}

	if !p.AutoConfirm {
		display := p.ToolName + " " + strings.TrimSpace(p.InitCommand)
		ok, err := h.prompter.Confirm(ctx, fmt.Sprintf("Run `%s` now?", display))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, h.printNextSteps(p)
		}
	}

	if err := h.runner.Run(argv); err != nil {
		if errors.Is(err, ErrHandoff) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", ErrHandoff, err)
	}
	return true, nil
}

func (h *Handoff) printNextSteps(p Params) error {
	out, err := h.render(NextSteps(p))
	if err != nil {
		out = NextSteps(p)
	}
	_, err = io.WriteString(h.out, out)
	return err
}

// NextSteps returns the markdown shown when the initialization command is not run.
func NextSteps(p Params) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s is installed\n\n", p.ToolName)
	fmt.Fprintf(&sb, "Installed at `%s`.\n\n", p.BinaryPath)
	sb.WriteString("## Next steps\n\n")
	if cmd := strings.TrimSpace(p.InitCommand); cmd != "" {
		fmt.Fprintf(&sb, "- Initialize when you are ready: `%s %s`\n", p.ToolName, cmd)
	}
	name := p.ToolName
	if p.AliasName != "" {
		name = p.AliasName
	}
	fmt.Fprintf(&sb, "- Explore the commands: `%s --help`\n", name)
	return sb.String()
}
