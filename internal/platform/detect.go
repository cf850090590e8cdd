// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/subosito/gotenv"
)

type (
	// Detector probes the running host. The zero value is not usable; build
	// one with NewDetector.
	Detector struct {
		goos           string
		osReleasePath  string
		lsbReleasePath string
		kernelArch     func(context.Context) (string, error)
	}

	// Option configures a Detector during construction.
	Option func(*Detector)
)

// WithReleaseFiles overrides the release-metadata file locations.
func WithReleaseFiles(osRelease, lsbRelease string) Option {
	return func(d *Detector) {
		d.osReleasePath = osRelease
		d.lsbReleasePath = lsbRelease
	}
}

// WithKernelArch replaces the kernel architecture probe.
func WithKernelArch(fn func(context.Context) (string, error)) Option {
	return func(d *Detector) {
		d.kernelArch = fn
	}
}

// WithGOOS overrides the operating system reported by the Go runtime.
func WithGOOS(goos string) Option {
	return func(d *Detector) {
		d.goos = goos
	}
}

// NewDetector creates a Detector that reads the standard release files and
// asks the kernel for its machine type through gopsutil.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		goos:           runtime.GOOS,
		osReleasePath:  OSReleasePath,
		lsbReleasePath: LSBReleasePath,
		kernelArch:     host.KernelArchWithContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the platform descriptor for the running host.
//
// Non-Linux hosts and CPU identifiers outside the supported buckets are
// errors. A missing release-metadata file is not: the descriptor then carries
// ID "unknown" and the support check decides what to do with it.
func (d *Detector) Detect(ctx context.Context) (*Descriptor, error) {
	if d.goos != Linux {
		return nil, fmt.Errorf("%w: %s (only linux hosts are supported)", ErrUnsupportedOS, d.goos)
	}

	raw, err := d.kernelArch(ctx)
	if err != nil || raw == "" {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		// uname is unavailable in some sandboxes; the binary's own arch is
		// the next best answer.
		raw = runtime.GOARCH
	}
	raw = strings.TrimSpace(raw)

	arch, err := NormalizeArch(raw)
	if err != nil {
		return nil, err
	}

	desc, err := d.readIdentity()
	if err != nil {
		return nil, err
	}
	desc.Arch = arch
	desc.ArchRaw = raw

	return desc, nil
}

// readIdentity tries os-release, then lsb-release, then gives up with "unknown".
func (d *Detector) readIdentity() (*Descriptor, error) {
	env, err := readEnvFile(d.osReleasePath)
	switch {
	case err == nil:
		return &Descriptor{
			ID:         strings.ToLower(strings.TrimSpace(env["ID"])),
			VersionID:  strings.TrimSpace(env["VERSION_ID"]),
			PrettyName: strings.TrimSpace(env["PRETTY_NAME"]),
		}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", d.osReleasePath, err)
	}

	env, err = readEnvFile(d.lsbReleasePath)
	switch {
	case err == nil:
		return &Descriptor{
			ID:         strings.ToLower(strings.TrimSpace(env["DISTRIB_ID"])),
			VersionID:  strings.TrimSpace(env["DISTRIB_RELEASE"]),
			PrettyName: strings.TrimSpace(env["DISTRIB_DESCRIPTION"]),
		}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", d.lsbReleasePath, err)
	}

	return &Descriptor{ID: UnknownID}, nil
}

// readEnvFile parses a KEY=VALUE shell fragment such as os-release.
func readEnvFile(path string) (gotenv.Env, error) {
	if path == "" {
		return nil, fs.ErrNotExist
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() // read-only file handle

	return gotenv.Parse(f), nil
}
