// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/invowk/installer/internal/archive"
	"github.com/invowk/installer/internal/checksum"
	"github.com/invowk/installer/internal/config"
	"github.com/invowk/installer/internal/fetch"
	"github.com/invowk/installer/internal/platform"

	"github.com/charmbracelet/log"
)

type (
	// Detector probes the host platform.
	Detector interface {
		Detect(ctx context.Context) (*platform.Descriptor, error)
	}

	// Extractor pulls the named binary out of a downloaded archive.
	Extractor interface {
		Extract(archivePath, binaryName, destDir string) (string, error)
	}

	// Result describes a completed installation.
	Result struct {
		Platform   platform.Descriptor
		Transport  string
		Tag        string
		// ReleaseURL is the release page, when the host reports one.
		ReleaseURL string
		BinaryPath string
		// AliasPath is empty when no alias was configured or creating it failed.
		AliasPath string
		// Version is the first line printed by the installed binary's --version.
		Version string
		// Checksum is the digest algorithm used, or "" when verification was skipped.
		Checksum checksum.Algorithm
		Signed   bool
		Warnings []string
	}

	// Installer runs the installation pipeline for one configuration.
	Installer struct {
		cfg         config.Config
		logger      *log.Logger
		detector    Detector
		transports  []fetch.Transport
		digester    checksum.Digester
		extractor   Extractor
		commander   Commander
		euid        func() int
		stagingRoot string
		userAgent   string
		progress    func(step string)
	}

	// Option configures an Installer during construction.
	Option func(*Installer)
)

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(l *log.Logger) Option {
	return func(in *Installer) {
		in.logger = l
	}
}

// WithDetector replaces the platform detector.
func WithDetector(d Detector) Option {
	return func(in *Installer) {
		in.detector = d
	}
}

// WithTransports sets the transport candidates, in preference order.
func WithTransports(ts ...fetch.Transport) Option {
	return func(in *Installer) {
		in.transports = ts
	}
}

// WithDigester sets the digest capability. A nil digester means the host
// has none: checksum verification is skipped with a warning.
func WithDigester(d checksum.Digester) Option {
	return func(in *Installer) {
		in.digester = d
	}
}

// WithExtractor replaces the archive extractor.
func WithExtractor(e Extractor) Option {
	return func(in *Installer) {
		in.extractor = e
	}
}

// WithCommander replaces the runner used for the --version check.
func WithCommander(c Commander) Option {
	return func(in *Installer) {
		in.commander = c
	}
}

// WithEUID replaces the effective user ID probe.
func WithEUID(fn func() int) Option {
	return func(in *Installer) {
		in.euid = fn
	}
}

// WithStagingRoot sets the parent of the staging directory. The default is
// the system temporary directory.
func WithStagingRoot(dir string) Option {
	return func(in *Installer) {
		in.stagingRoot = dir
	}
}

// WithUserAgent sets the User-Agent header for every request.
func WithUserAgent(ua string) Option {
	return func(in *Installer) {
		in.userAgent = ua
	}
}

// WithProgress registers a callback invoked as each pipeline step starts.
func WithProgress(fn func(step string)) Option {
	return func(in *Installer) {
		in.progress = fn
	}
}

// New creates an Installer for cfg with the production capabilities.
func New(cfg config.Config, opts ...Option) *Installer {
	in := &Installer{
		cfg:        cfg,
		logger:     log.New(io.Discard),
		detector:   platform.NewDetector(),
		transports: fetch.Defaults(),
		digester:   checksum.StdDigester{},
		extractor:  archive.NewExtractor(),
		commander:  ExecCommander{},
		euid:       os.Geteuid,
		userAgent:  "invowk-install/dev",
		progress:   func(string) {},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run executes the pipeline. The staging directory is removed before Run
// returns on success, on failure and on cancellation.
func (in *Installer) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	in.step("Checking privileges")
	if uid := in.euid(); uid != 0 {
		return nil, fmt.Errorf("%w (effective uid %d)", ErrNotRoot, uid)
	}

	in.step("Detecting platform")
	desc, err := in.detector.Detect(ctx)
	if err != nil {
		return nil, err
	}
	res.Platform = *desc
	in.logger.Debug("platform detected", "id", desc.ID, "version", desc.VersionID, "arch", desc.Arch, "raw_arch", desc.ArchRaw)

	verdict, err := platform.Check(*desc)
	if err != nil {
		return nil, err
	}
	if verdict == platform.UntestedVersion {
		in.warn(res, fmt.Sprintf("%s is not a tested release of %s (tested: %v); continuing",
			desc.Name(), desc.ID, platform.SupportedVersions(desc.ID)))
	}

	in.step("Checking prerequisites")
	transport, err := fetch.Select(in.cfg.Transport, in.transports...)
	if err != nil {
		return nil, err
	}
	res.Transport = transport.Name()
	in.logger.Debug("transport selected", "transport", transport.Name())

	if in.digester == nil {
		in.warn(res, "no checksum capability available; the download will not be verified")
	}

	if err := ctx.Err(); err != nil {
		return nil, interrupted(err)
	}

	stage, err := newStaging(in.stagingRoot)
	if err != nil {
		return nil, err
	}
	defer stage.cleanup(in.logger)

	p := &pipeline{Installer: in, ctx: ctx, res: res, desc: desc, transport: transport, stage: stage}
	if err := p.run(); err != nil {
		return nil, err
	}
	return res, nil
}

func (in *Installer) step(name string) {
	in.logger.Debug(name)
	in.progress(name)
}

func (in *Installer) warn(res *Result, msg string) {
	in.logger.Warn(msg)
	res.Warnings = append(res.Warnings, msg)
}

func interrupted(err error) error {
	return fmt.Errorf("installation interrupted: %w", err)
}
