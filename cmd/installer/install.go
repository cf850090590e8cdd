// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/invowk/installer/internal/config"
	"github.com/invowk/installer/internal/handoff"
	"github.com/invowk/installer/internal/install"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// installParams bundles the inputs of one installer run so that runInstall
// can be tested without a real Cobra command, network or root.
type installParams struct {
	stdout io.Writer
	stderr io.Writer
	// configFile is the --config value; empty means the system default.
	configFile string
	// defaultConfigFile overrides config.DefaultFilePath.
	defaultConfigFile string
	flags             *pflag.FlagSet
	// installOpts are appended after the production options.
	installOpts []install.Option
	// prompter and runner default to the controlling terminal and exec(2).
	prompter handoff.Prompter
	runner   handoff.Runner
}

// runInstall is the installer flow, separated from Cobra for testability.
//
// Flow:
//  1. Resolve configuration (defaults, file, environment, flags).
//  2. Run the install pipeline; the staging directory is gone when it returns.
//  3. Print the summary.
//  4. Hand off to the initialization command, prompting unless --yes.
func runInstall(ctx context.Context, p installParams) error {
	cfg, cfgPath, err := config.Load(ctx, config.LoadOptions{
		ConfigFilePath:  p.configFile,
		DefaultFilePath: p.defaultConfigFile,
		Flags:           p.flags,
	})
	if err != nil {
		return err
	}

	logger := newLogger(p.stderr, cfg.Verbose)
	if cfgPath != "" {
		logger.Debug("configuration loaded", "path", cfgPath)
	}

	opts := []install.Option{
		install.WithLogger(logger),
		install.WithUserAgent("invowk-install/" + Version),
		install.WithProgress(func(step string) {
			fmt.Fprintln(p.stdout, StepStyle.Render("==>")+" "+step)
		}),
	}
	opts = append(opts, p.installOpts...)

	res, err := install.New(cfg, opts...).Run(ctx)
	if err != nil {
		return err
	}
	printSummary(p.stdout, cfg, res)

	prompter, closePrompter := p.prompter, func() {}
	if prompter == nil {
		tp, closeFn := handoff.NewTerminalPrompter(p.stdout)
		prompter, closePrompter = tp, closeFn
	}
	defer closePrompter()

	runner := p.runner
	if runner == nil {
		runner = handoff.NewExecRunner()
	}

	_, err = handoff.New(prompter, runner, p.stdout).Run(ctx, handoff.Params{
		ToolName:    cfg.Tool.Name,
		BinaryPath:  res.BinaryPath,
		AliasName:   cfg.Tool.Alias,
		InitCommand: cfg.Tool.InitCommand,
		AutoConfirm: cfg.Yes,
	})
	return err
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "invowk-install",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// printSummary reports what was installed.
func printSummary(w io.Writer, cfg config.Config, res *install.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Installed %s %s", cfg.Tool.Name, res.Tag)))

	row := func(label, value string) {
		fmt.Fprintln(w, "  "+labelStyle.Render(label)+value)
	}
	row("binary", res.BinaryPath)
	if res.AliasPath != "" {
		row("alias", res.AliasPath+" -> "+res.BinaryPath)
	}
	row("platform", res.Platform.String())
	if res.ReleaseURL != "" {
		row("release", res.ReleaseURL)
	}
	row("version", res.Version)

	if res.Checksum != "" {
		row("checksum", string(res.Checksum)+" verified")
	} else {
		row("checksum", WarningStyle.Render("not verified"))
	}
	if res.Signed {
		row("signature", "verified")
	}

	if n := len(res.Warnings); n > 0 {
		fmt.Fprintln(w, "  "+WarningStyle.Render(fmt.Sprintf("%d warning(s) during installation", n)))
	}
	fmt.Fprintln(w)
}
