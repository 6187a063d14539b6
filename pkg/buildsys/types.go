package buildsys

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// CommandSpec names an executable and the arguments it is called with
type CommandSpec struct {
	Name string
	Args []string
}

// String returns the command as it would be typed into a shell
func (c CommandSpec) String() string {
	parts := append([]string{c.Name}, c.Args...)
	for idx, part := range parts {
		if part == "" || strings.ContainsAny(part, " \t\"'$") {
			parts[idx] = "'" + strings.ReplaceAll(part, "'", `'\''`) + "'"
		}
	}

	return strings.Join(parts, " ")
}

// IsZero reports whether no executable is set
func (c CommandSpec) IsZero() bool {
	return c.Name == ""
}

// PlatformCommands maps platform identifiers (GOOS values) to the command that should run there.
// The DefaultPlatform key is used for every platform without its own entry.
type PlatformCommands map[string]CommandSpec

// DefaultPlatform is the fallback key in PlatformCommands
const DefaultPlatform = "default"

// Select returns the command registered for goos or the default entry
func (p PlatformCommands) Select(goos string) (CommandSpec, error) {
	if spec, ok := p[goos]; ok && !spec.IsZero() {
		return spec, nil
	}

	if spec, ok := p[DefaultPlatform]; ok && !spec.IsZero() {
		return spec, nil
	}

	return CommandSpec{}, eris.Errorf("no command configured for platform %s", goos)
}

// Compression selects how published artifacts are encoded
type Compression string

const (
	CompressNone   Compression = "none"
	CompressGzip   Compression = "gzip"
	CompressXz     Compression = "xz"
	CompressBrotli Compression = "brotli"
)

// Ext returns the file extension appended to published files
func (c Compression) Ext() string {
	switch c {
	case CompressGzip:
		return ".gz"
	case CompressXz:
		return ".xz"
	case CompressBrotli:
		return ".br"
	default:
		return ""
	}
}

// ParseCompression validates a compression name. An empty name means no compression.
func ParseCompression(name string) (Compression, error) {
	switch Compression(strings.ToLower(name)) {
	case "", CompressNone:
		return CompressNone, nil
	case CompressGzip, "gz":
		return CompressGzip, nil
	case CompressXz:
		return CompressXz, nil
	case CompressBrotli, "br":
		return CompressBrotli, nil
	}

	return "", eris.Errorf("unsupported compression %s (must be one of none, gzip, xz or brotli)", name)
}

// BuildConfig contains the resolved settings for one pipeline run. It is created once and never modified.
type BuildConfig struct {
	// PackageDir is the absolute path of the addon package. Commands run here.
	PackageDir string
	// ReleaseDir is the native build output directory, relative paths are resolved against PackageDir.
	ReleaseDir string
	// PublishDir receives the published artifacts.
	PublishDir  string
	Version     string
	Platform    string
	Compression Compression
	Env         map[string]string
	Progress    bool
	DryRun      bool
}

// Result describes a finished external command
type Result struct {
	Command  CommandSpec
	ExitCode int
	Output   string
	Duration time.Duration
	// Err is set if the command could not be started or was interrupted.
	Err error
}

// Success reports whether the command ran and exited with status 0
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Artifact describes a file that is registered and published by the default pipeline
type Artifact struct {
	Name     string
	Path     string
	Template string
}

// StepKind identifies a pipeline step
type StepKind string

const (
	StepNativeBuild     StepKind = "native-build"
	StepPlatformRebuild StepKind = "platform-rebuild"
	StepAddFile         StepKind = "add-package-file"
	StepPublish         StepKind = "publish-package-file"
)

// Step is one entry in a pipeline plan
type Step struct {
	Kind    StepKind
	Command CommandSpec
	Name    string
	Path    string
	Target  string
}
