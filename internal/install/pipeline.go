// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/installer/internal/archive"
	"github.com/invowk/installer/internal/checksum"
	"github.com/invowk/installer/internal/fetch"
	"github.com/invowk/installer/internal/platform"
	"github.com/invowk/installer/internal/release"
)

// pipeline carries the state of one Run past the prerequisite checks.
type pipeline struct {
	*Installer

	ctx       context.Context
	res       *Result
	desc      *platform.Descriptor
	transport fetch.Transport
	stage     *staging
	client    *release.Client
}

func (p *pipeline) run() error {
	p.client = release.NewClient(p.transport,
		release.WithBaseURL(p.cfg.Repo.APIURL),
		release.WithRepo(p.cfg.Repo.Owner, p.cfg.Repo.Name),
		release.WithToken(p.cfg.Repo.Token),
		release.WithUserAgent(p.userAgent),
	)

	p.step("Resolving latest release")
	rel, err := p.client.Latest(p.ctx)
	if err != nil {
		if p.ctx.Err() != nil {
			return interrupted(p.ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrReleaseLookup, err)
	}
	p.res.Tag = rel.TagName
	p.res.ReleaseURL = rel.HTMLURL
	p.logger.Info("latest release", "tag", rel.TagName, "name", rel.Name)

	vars := release.AssetVars{
		Name:    p.cfg.Tool.Name,
		Version: rel.Version,
		Tag:     rel.TagName,
		OS:      platform.Linux,
		Arch:    p.desc.Arch,
		Owner:   p.cfg.Repo.Owner,
		Repo:    p.cfg.Repo.Name,
	}
	assetName, err := release.AssetName(p.cfg.Repo.AssetPattern, vars)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	format, err := archive.DetectFormat(assetName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtract, err)
	}
	assetURL := release.AssetURL(p.cfg.Repo.DownloadURL, vars, assetName)

	// The archive is saved under the tool name, not the remote asset name.
	archivePath := p.stage.path(p.cfg.Tool.Name + format.Ext())

	p.step("Downloading " + assetName)
	if err := p.download(assetURL, archivePath); err != nil {
		if p.ctx.Err() != nil {
			return interrupted(p.ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	if err := p.verifyChecksum(assetURL, assetName, archivePath); err != nil {
		return err
	}
	if err := p.verifySignature(assetURL, archivePath); err != nil {
		return err
	}

	p.step("Extracting")
	extracted, err := p.extractor.Extract(archivePath, p.cfg.Tool.Name, p.stage.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtract, err)
	}

	if err := p.ctx.Err(); err != nil {
		return interrupted(err)
	}

	p.step("Installing to " + p.cfg.InstallDir)
	binaryPath := p.cfg.BinaryPath()
	if err := placeBinary(extracted, binaryPath); err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}
	p.res.BinaryPath = binaryPath

	if aliasPath := p.cfg.AliasPath(); aliasPath != "" {
		if err := linkAlias(binaryPath, aliasPath); err != nil {
			p.warn(p.res, fmt.Sprintf("could not create alias %s: %v", aliasPath, err))
		} else {
			p.res.AliasPath = aliasPath
		}
	}

	p.step("Verifying installation")
	out, err := p.commander.Output(p.ctx, binaryPath, "--version")
	if err != nil {
		if p.ctx.Err() != nil {
			return interrupted(p.ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrNotInvocable, err)
	}
	p.res.Version = firstLine(out)

	return nil
}

// download fetches url into a new file at dest.
func (p *pipeline) download(url, dest string) (err error) {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(dest), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return p.transport.Fetch(p.ctx, p.client.Request(url), f)
}

// verifyChecksum applies the companion checksum file. Failing to fetch it is
// a warning; once fetched, anything short of a match is fatal.
func (p *pipeline) verifyChecksum(assetURL, assetName, archivePath string) error {
	if p.digester == nil {
		return nil
	}

	p.step("Verifying checksum")
	sumPath := archivePath + p.cfg.Repo.ChecksumSuffix
	if err := p.download(assetURL+p.cfg.Repo.ChecksumSuffix, sumPath); err != nil {
		if p.ctx.Err() != nil {
			return interrupted(p.ctx.Err())
		}
		if fetch.IsNotFound(err) {
			p.warn(p.res, "no checksum file published for "+assetName+", skipping verification")
			return nil
		}
		p.warn(p.res, fmt.Sprintf("checksum file unavailable, skipping verification: %v", err))
		return nil
	}

	data, err := os.ReadFile(sumPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}
	entries, err := checksum.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}
	entry, err := checksum.Resolve(entries, assetName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}
	if entry.Filename != "" && entry.Filename != assetName {
		p.logger.Debug("checksum recorded under a different name", "recorded", entry.Filename, "asset", assetName)
	}

	if err := checksum.Verify(p.digester, archivePath, entry.Digest); err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}

	algo, _ := checksum.AlgorithmFor(entry.Digest) //nolint:errcheck // Verify already accepted the digest.
	p.res.Checksum = algo
	p.logger.Info("checksum verified", "algorithm", algo)
	return nil
}

// verifySignature runs only when a public key is configured. A missing
// signature file is a warning; an unusable key or a bad signature is fatal.
func (p *pipeline) verifySignature(assetURL, archivePath string) error {
	keyPath := p.cfg.Verify.PublicKey
	if keyPath == "" || p.cfg.Repo.SignatureSuffix == "" {
		return nil
	}

	p.step("Verifying signature")
	keyring, err := checksum.LoadKeyring(keyPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}

	sigPath := archivePath + p.cfg.Repo.SignatureSuffix
	if err := p.download(assetURL+p.cfg.Repo.SignatureSuffix, sigPath); err != nil {
		if p.ctx.Err() != nil {
			return interrupted(p.ctx.Err())
		}
		if fetch.IsNotFound(err) {
			p.warn(p.res, "no signature published for "+filepath.Base(assetURL)+", skipping signature check")
			return nil
		}
		p.warn(p.res, fmt.Sprintf("signature file unavailable, skipping signature check: %v", err))
		return nil
	}

	if err := checksum.VerifySignature(keyring, archivePath, sigPath); err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}
	p.res.Signed = true
	p.logger.Info("signature verified")
	return nil
}

// placeBinary copies src to dest through a temporary file in dest's directory
// and renames it into place, so dest is never observed half-written.
func placeBinary(src, dest string) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening extracted binary: %w", err)
	}
	defer func() { _ = in.Close() }() // read-only file handle

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o755); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting binary permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("replacing %s: %w", dest, err)
	}
	renamed = true
	return nil
}

// linkAlias replaces whatever is at alias with a symlink to target.
func linkAlias(target, alias string) error {
	if err := os.Remove(alias); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Symlink(target, alias)
}

func firstLine(out []byte) string {
	s := bufio.NewScanner(bytes.NewReader(out))
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			return line
		}
	}
	return ""
}
