package buildsys

import (
	"runtime"

	"github.com/rotisserie/eris"
)

// DefaultNativeCommand compiles the native library in release mode
var DefaultNativeCommand = CommandSpec{Name: "cargo", Args: []string{"build", "--release"}}

// DefaultRebuildCommands rebuilds the Node.js addon. node-gyp is a batch script on Windows and
// has to be started through cmd.
func DefaultRebuildCommands() PlatformCommands {
	return PlatformCommands{
		"windows":       {Name: "cmd", Args: []string{"/c", "node-gyp", "rebuild"}},
		DefaultPlatform: {Name: "npm", Args: []string{"run", "build"}},
	}
}

// DefaultReleaseDir is where node-gyp places the compiled addon
const DefaultReleaseDir = "lib/build/Release"

// HostPlatform returns the GOOS value of the running binary
func HostPlatform() string {
	return runtime.GOOS
}

var knownPlatforms = map[string]bool{
	"aix": true, "android": true, "darwin": true, "dragonfly": true, "freebsd": true, "illumos": true,
	"ios": true, "js": true, "linux": true, "netbsd": true, "openbsd": true, "plan9": true,
	"solaris": true, "wasip1": true, "windows": true,
}

// ParsePlatform returns the GOOS value for name. Empty means the host platform and the Node.js
// names produced by NodePlatform are accepted as well.
func ParsePlatform(name string) (string, error) {
	switch name {
	case "":
		return HostPlatform(), nil
	case "win32":
		return "windows", nil
	case "sunos":
		return "solaris", nil
	}

	if !knownPlatforms[name] {
		return "", eris.Errorf("unknown platform %s (expected a GOOS value like linux, darwin or windows)", name)
	}
	return name, nil
}

// NodePlatform converts a GOOS value into the name Node.js uses for process.platform,
// which is what the {p} placeholder expands to.
func NodePlatform(goos string) string {
	switch goos {
	case "windows":
		return "win32"
	case "illumos", "solaris":
		return "sunos"
	default:
		return goos
	}
}
