package buildsys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

type cargoManifest struct {
	Package struct {
		// a table like {workspace = true} when inherited from the workspace
		Version interface{} `toml:"version"`
	} `toml:"package"`
}

type npmManifest struct {
	Version string `json:"version"`
}

// ValidateVersion checks that version is a semantic version and returns it trimmed
func ValidateVersion(version string) (string, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return "", eris.Wrap(ErrInvalidVersion, "version is empty")
	}

	if _, err := semver.NewVersion(version); err != nil {
		return "", eris.Wrapf(ErrInvalidVersion, "%s: %v", version, err)
	}

	return version, nil
}

// LookupVersion determines the version of the package in packageDir. The Cargo.toml of the native
// library wins over the package.json of the addon; both are searched from packageDir upwards.
func LookupVersion(packageDir string) (string, error) {
	dir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", err
	}

	for {
		version, err := readCargoVersion(filepath.Join(dir, "Cargo.toml"))
		if err != nil {
			return "", err
		}

		if version == "" {
			version, err = readNpmVersion(filepath.Join(dir, "package.json"))
			if err != nil {
				return "", err
			}
		}

		if version != "" {
			return ValidateVersion(version)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", eris.Wrapf(ErrInvalidVersion, "no Cargo.toml or package.json with a version found above %s", packageDir)
}

func readCargoVersion(path string) (string, error) {
	var manifest cargoManifest
	_, err := toml.DecodeFile(path, &manifest)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "failed to parse %s", path)
	}

	version, _ := manifest.Package.Version.(string)
	return version, nil
}

func readNpmVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "failed to read %s", path)
	}

	var manifest npmManifest
	err = json.Unmarshal(data, &manifest)
	if err != nil {
		return "", eris.Wrapf(err, "failed to parse %s", path)
	}

	return manifest.Version, nil
}
