// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// DefaultFilePath is the system-wide configuration file.
	DefaultFilePath = "/etc/invowk/install.cue"

	// EnvPrefix prefixes every environment override, e.g. INVOWK_INSTALL_INSTALL_DIR.
	EnvPrefix = "INVOWK_INSTALL"

	// TokenEnvVar is the conventional GitHub token variable, honored for repo.token.
	TokenEnvVar = "GITHUB_TOKEN"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

// transports lists the accepted transport preferences.
var transports = []string{"auto", "native", "curl", "wget"}

type (
	// Config is the resolved installer configuration.
	Config struct {
		Tool       ToolConfig   `mapstructure:"tool"`
		InstallDir string       `mapstructure:"install_dir"`
		Transport  string       `mapstructure:"transport"`
		Repo       RepoConfig   `mapstructure:"repo"`
		Verify     VerifyConfig `mapstructure:"verify"`
		Yes        bool         `mapstructure:"yes"`
		Verbose    bool         `mapstructure:"verbose"`
	}

	// ToolConfig names the installed tool and its post-install command.
	ToolConfig struct {
		Name        string `mapstructure:"name"`
		Alias       string `mapstructure:"alias"`
		InitCommand string `mapstructure:"init_command"`
	}

	// RepoConfig locates the release host and the published artifacts.
	RepoConfig struct {
		Owner           string `mapstructure:"owner"`
		Name            string `mapstructure:"name"`
		APIURL          string `mapstructure:"api_url"`
		DownloadURL     string `mapstructure:"download_url"`
		AssetPattern    string `mapstructure:"asset_pattern"`
		ChecksumSuffix  string `mapstructure:"checksum_suffix"`
		SignatureSuffix string `mapstructure:"signature_suffix"`
		Token           string `mapstructure:"token"`
	}

	// VerifyConfig enables the optional signature check.
	VerifyConfig struct {
		PublicKey string `mapstructure:"public_key"`
	}

	// InvalidConfigError names the offending key.
	InvalidConfigError struct {
		Key    string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Tool: ToolConfig{
			Name:        "invowk",
			Alias:       "ivk",
			InitCommand: "init",
		},
		InstallDir: "/usr/local/bin",
		Transport:  "auto",
		Repo: RepoConfig{
			Owner:           "invowk",
			Name:            "invowk",
			APIURL:          "https://api.github.com",
			DownloadURL:     "https://github.com/{{owner}}/{{repo}}/releases/download",
			AssetPattern:    "{{name}}_{{version}}_{{os}}_{{arch}}.tar.gz",
			ChecksumSuffix:  ".sha256",
			SignatureSuffix: ".sig",
		},
	}
}

// BinaryPath is where the tool is installed.
func (c Config) BinaryPath() string {
	return filepath.Join(c.InstallDir, c.Tool.Name)
}

// AliasPath is where the alias symlink is created, or "" when disabled.
func (c Config) AliasPath() string {
	if c.Tool.Alias == "" {
		return ""
	}
	return filepath.Join(c.InstallDir, c.Tool.Alias)
}

// Validate checks constraints the schema cannot see: environment and flag
// values never pass through CUE.
func (c Config) Validate() error {
	switch {
	case c.Tool.Name == "" || c.Tool.Name != filepath.Base(c.Tool.Name):
		return &InvalidConfigError{Key: "tool.name", Reason: fmt.Sprintf("%q is not a file name", c.Tool.Name)}
	case c.Tool.Alias != "" && c.Tool.Alias != filepath.Base(c.Tool.Alias):
		return &InvalidConfigError{Key: "tool.alias", Reason: fmt.Sprintf("%q is not a file name", c.Tool.Alias)}
	case c.Tool.Alias == c.Tool.Name:
		return &InvalidConfigError{Key: "tool.alias", Reason: "must differ from tool.name"}
	case !filepath.IsAbs(c.InstallDir):
		return &InvalidConfigError{Key: "install_dir", Reason: fmt.Sprintf("%q is not an absolute path", c.InstallDir)}
	case !slices.Contains(transports, c.Transport):
		return &InvalidConfigError{Key: "transport", Reason: fmt.Sprintf("%q is not one of %s", c.Transport, strings.Join(transports, ", "))}
	case c.Repo.Owner == "" || c.Repo.Name == "":
		return &InvalidConfigError{Key: "repo", Reason: "owner and name are required"}
	case strings.TrimSpace(c.Repo.AssetPattern) == "":
		return &InvalidConfigError{Key: "repo.asset_pattern", Reason: "must not be empty"}
	case c.Repo.ChecksumSuffix == "":
		return &InvalidConfigError{Key: "repo.checksum_suffix", Reason: "must not be empty"}
	}

	for key, raw := range map[string]string{"repo.api_url": c.Repo.APIURL, "repo.download_url": c.Repo.DownloadURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &InvalidConfigError{Key: key, Reason: fmt.Sprintf("%q is not an http(s) URL", raw)}
		}
	}

	return nil
}
