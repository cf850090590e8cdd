// SPDX-License-Identifier: MPL-2.0

// Package config builds the installer configuration using Viper with CUE as
// the file format.
//
// Values are layered in increasing precedence: built-in defaults, an optional
// CUE file (/etc/invowk/install.cue or the --config path), environment
// variables prefixed INVOWK_INSTALL_, and finally command-line flags. The file
// is validated against the embedded config_schema.cue before it is merged.
// The result is a Config value that is built once and passed down by value.
package config
