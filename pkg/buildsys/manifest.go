package buildsys

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the name of the manifest inside the publish directory
const ManifestFile = "manifest.yml"

// ManifestEntry records one published artifact
type ManifestEntry struct {
	Name         string      `yaml:"name"`
	File         string      `yaml:"file"`
	Source       string      `yaml:"source"`
	SourceSha256 string      `yaml:"sourceSha256"`
	Sha256       string      `yaml:"sha256"`
	Version      string      `yaml:"version"`
	Platform     string      `yaml:"platform"`
	Compression  Compression `yaml:"compression"`
}

// Manifest lists everything published into a directory, keyed by file name
type Manifest struct {
	Artifacts map[string]ManifestEntry `yaml:"artifacts"`
}

// ReadManifest loads the manifest of a publish directory. A missing file yields an empty manifest.
func ReadManifest(publishDir string) (*Manifest, error) {
	manifest := &Manifest{Artifacts: map[string]ManifestEntry{}}
	path := filepath.Join(publishDir, ManifestFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return manifest, nil
		}
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}

	err = yaml.Unmarshal(data, manifest)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	if manifest.Artifacts == nil {
		manifest.Artifacts = map[string]ManifestEntry{}
	}
	return manifest, nil
}

// Write stores the manifest in publishDir
func (m *Manifest) Write(publishDir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "failed to encode manifest")
	}

	path := filepath.Join(publishDir, ManifestFile)
	err = os.WriteFile(path, data, 0660)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// Files returns the published file names in sorted order
func (m *Manifest) Files() []string {
	names := make([]string, 0, len(m.Artifacts))
	for name := range m.Artifacts {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func fileDigest(path string) (string, error) {
	hdl, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer hdl.Close()

	hash := sha256.New()
	_, err = io.Copy(hash, hdl)
	if err != nil {
		return "", eris.Wrapf(err, "failed to calculate checksum for %s", path)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
