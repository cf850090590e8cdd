// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand creates the invowk-install command. The installer has no
// subcommands: running it performs the installation.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invowk-install",
		Short: "Install the latest invowk release on this host",
		Long: TitleStyle.Render("invowk-install") + SubtitleStyle.Render(" - install invowk from its release host") + `

Detects the Linux distribution and CPU architecture, downloads the latest
invowk release, verifies its checksum, installs the binary into
/usr/local/bin, creates the 'ivk' alias and offers to run 'invowk init'.

Must be run as root.

` + SubtitleStyle.Render("Configuration:") + `
  Settings are read from /etc/invowk/install.cue (or --config), then from
  INVOWK_INSTALL_* environment variables, then from flags. GITHUB_TOKEN
  is used for authenticated release lookups.`,
		Example: `  # Install and answer the init prompt interactively
  sudo invowk-install

  # Install and run 'invowk init' without prompting
  sudo invowk-install --yes

  # Use curl instead of the built-in HTTP client
  sudo invowk-install --transport curl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			cfgFile, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")

			p := installParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				configFile: cfgFile,
				flags:      cmd.Flags(),
			}

			if err := runInstall(cmd.Context(), p); err != nil {
				renderError(p.stderr, err, verbose)
				return &ExitError{Code: 1, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "run the initialization command without prompting")
	cmd.Flags().BoolP("verbose", "v", false, "enable debug output")
	cmd.Flags().String("config", "", "config file (default is /etc/invowk/install.cue)")
	cmd.Flags().String("transport", "", "download transport: auto, native, curl or wget")
	cmd.Flags().String("install-dir", "", "directory the binary is installed into")

	return cmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the installer and exits with its status. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
