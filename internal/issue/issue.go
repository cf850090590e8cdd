// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a known installer failure.
type Id int

const (
	NotRootId Id = iota + 1
	PlatformNotSupportedId
	NoTransportId
	ReleaseLookupFailedId
	DownloadFailedId
	ChecksumMismatchId
	SignatureInvalidId
	ExtractFailedId
	InstallFailedId
	NotInvocableId
	HandoffFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

// Issue is a markdown troubleshooting guide for one failure kind.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guide for a terminal. stylePath is a glamour style name
// ("auto", "dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		var sb strings.Builder
		sb.WriteString(md)
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- " + string(link) + "\n")
		}
		md = sb.String()
	}
	return render(md, stylePath)
}

const releasesLink HttpLink = "https://github.com/invowk/invowk/releases"

var (
	render = glamour.Render

	notRootIssue = &Issue{
		id: NotRootId,
		mdMsg: `
# The installer needs root privileges

The binary is written into a system directory, which only root may modify.

## Things you can try:
- Re-run the installer with sudo:
~~~
$ curl -fsSL https://invowk.io/install | sudo sh
~~~
- Point ` + "`INVOWK_INSTALL_INSTALL_DIR`" + ` at a directory you own`,
	}

	platformNotSupportedIssue = &Issue{
		id: PlatformNotSupportedId,
		mdMsg: `
# Platform not supported

Release binaries are published for Linux on amd64 and arm64 only, and the
installer is tested on Ubuntu, Debian, Fedora, RHEL-compatible distributions
and Amazon Linux.

## Things you can try:
- Download a release archive manually and place the binary on your PATH
- Build from source with ` + "`go install`",
		docLinks: []HttpLink{releasesLink},
	}

	noTransportIssue = &Issue{
		id: NoTransportId,
		mdMsg: `
# No download tool available

The configured transport could not be used on this host.

## Things you can try:
- Set ` + "`INVOWK_INSTALL_TRANSPORT=auto`" + ` to use the built-in HTTP client
- Install curl or wget`,
	}

	releaseLookupFailedIssue = &Issue{
		id: ReleaseLookupFailedId,
		mdMsg: `
# Could not determine the latest release

The releases endpoint did not return a usable tag.

## Things you can try:
- Check network access to the release host
- Set ` + "`GITHUB_TOKEN`" + ` if you are hitting the anonymous API rate limit`,
		docLinks: []HttpLink{releasesLink},
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed

The release archive could not be retrieved.

## Things you can try:
- Check that a build exists for your architecture on the releases page
- Retry; transient network errors are not retried automatically`,
		docLinks: []HttpLink{releasesLink},
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# Checksum mismatch

The downloaded archive does not match its published digest. Nothing was installed.

## Things you can try:
- Retry the installation; the download may have been corrupted in transit
- If the problem persists, report it: the artifact may have been tampered with`,
	}

	signatureInvalidIssue = &Issue{
		id: SignatureInvalidId,
		mdMsg: `
# Signature verification failed

The archive's detached signature does not verify against the configured public key.
Nothing was installed.

## Things you can try:
- Check that ` + "`verify.public_key`" + ` points at the current release key
- Report the failure if the key is correct`,
	}

	extractFailedIssue = &Issue{
		id: ExtractFailedId,
		mdMsg: `
# Could not extract the binary

The archive is unreadable or does not contain the expected executable.

## Things you can try:
- Check ` + "`repo.asset_pattern`" + ` and ` + "`tool.name`" + ` in your configuration
- Retry the installation`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Could not install the binary

Copying the binary into the install directory failed.

## Things you can try:
- Check free space and that the install directory exists and is writable
- Check whether the filesystem is mounted read-only`,
	}

	notInvocableIssue = &Issue{
		id: NotInvocableId,
		mdMsg: `
# Installed binary does not run

The binary was installed but ` + "`--version`" + ` failed.

## Things you can try:
- Check that the archive matches your CPU architecture
- Check that the install directory is not mounted noexec`,
	}

	handoffFailedIssue = &Issue{
		id: HandoffFailedId,
		mdMsg: `
# Could not start the initialization command

The tool is installed, but its initialization command could not be started.

## Things you can try:
- Run the initialization command yourself:
~~~
$ invowk init
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Invalid installer configuration

## Things you can try:
- Check the syntax of /etc/invowk/install.cue
- Check ` + "`INVOWK_INSTALL_*`" + ` environment variables and command-line flags`,
	}

	issues = map[Id]*Issue{
		notRootIssue.Id():              notRootIssue,
		platformNotSupportedIssue.Id(): platformNotSupportedIssue,
		noTransportIssue.Id():          noTransportIssue,
		releaseLookupFailedIssue.Id():  releaseLookupFailedIssue,
		downloadFailedIssue.Id():       downloadFailedIssue,
		checksumMismatchIssue.Id():     checksumMismatchIssue,
		signatureInvalidIssue.Id():     signatureInvalidIssue,
		extractFailedIssue.Id():        extractFailedIssue,
		installFailedIssue.Id():        installFailedIssue,
		notInvocableIssue.Id():         notInvocableIssue,
		handoffFailedIssue.Id():        handoffFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
	}
)

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
