// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/invowk/installer/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// maxFileBytes bounds the configuration file size (1 MB).
const maxFileBytes = 1 << 20

//go:embed config_schema.cue
var configSchema string

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"yes":         "yes",
	"verbose":     "verbose",
	"transport":   "transport",
	"install-dir": "install_dir",
}

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific file, which must exist.
	ConfigFilePath string
	// DefaultFilePath overrides DefaultFilePath; a missing file there is not an error.
	DefaultFilePath string
	// Flags holds parsed command-line flags. Only flags the user changed
	// override lower layers.
	Flags *pflag.FlagSet
}

// Load resolves the configuration and reports which file, if any, was read.
func Load(ctx context.Context, opts LoadOptions) (Config, string, error) {
	select {
	case <-ctx.Done():
		return Config{}, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("repo.token", EnvPrefix+"_REPO_TOKEN", TokenEnvVar); err != nil {
		return Config{}, "", fmt.Errorf("binding token environment: %w", err)
	}

	resolvedPath, err := loadFile(v, opts)
	if err != nil {
		return Config{}, "", err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, "", fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestions(
				"Check INVOWK_INSTALL_* environment variables and command-line flags",
				"Compare the file against the documented defaults",
			).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			Build()
	}

	return cfg, resolvedPath, nil
}

// loadFile merges the explicit or system config file into v.
func loadFile(v *viper.Viper, opts LoadOptions) (string, error) {
	path := opts.ConfigFilePath
	explicit := path != ""
	if !explicit {
		path = opts.DefaultFilePath
		if path == "" {
			path = DefaultFilePath
		}
	}

	if !fileExists(path) {
		if !explicit {
			return "", nil
		}
		return "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestions(
				"Verify the file path is correct",
				"Check that the file exists and is readable",
			).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(fmt.Errorf("config file not found: %s", path)).
			Build()
	}

	if err := loadCUEIntoViper(v, path); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestions(
				"Check that the file contains valid CUE syntax",
				"Verify the configuration values match the expected schema",
			).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			Build()
	}
	return path, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("tool.name", d.Tool.Name)
	v.SetDefault("tool.alias", d.Tool.Alias)
	v.SetDefault("tool.init_command", d.Tool.InitCommand)
	v.SetDefault("install_dir", d.InstallDir)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("repo.owner", d.Repo.Owner)
	v.SetDefault("repo.name", d.Repo.Name)
	v.SetDefault("repo.api_url", d.Repo.APIURL)
	v.SetDefault("repo.download_url", d.Repo.DownloadURL)
	v.SetDefault("repo.asset_pattern", d.Repo.AssetPattern)
	v.SetDefault("repo.checksum_suffix", d.Repo.ChecksumSuffix)
	v.SetDefault("repo.signature_suffix", d.Repo.SignatureSuffix)
	v.SetDefault("repo.token", d.Repo.Token)
	v.SetDefault("verify.public_key", d.Verify.PublicKey)
	v.SetDefault("yes", d.Yes)
	v.SetDefault("verbose", d.Verbose)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. The file is decoded to a map rather than
// a struct so that Viper keeps track of which keys it actually set.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > maxFileBytes {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxFileBytes)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}
