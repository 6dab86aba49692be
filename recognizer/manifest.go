package recognizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingManifest is returned when a native model archive comes without
// the manifest describing it.
var ErrMissingManifest = errors.New("missing model manifest")

// Manifest describes a model archive written by a recognizer which cannot
// report whether a reloaded model holds any sample, such as the OpenCV one.
type Manifest struct {
	Version int `yaml:"version"`
	Samples int `yaml:"samples"`
}

// Empty reports whether the archived model was saved untrained.
func (m Manifest) Empty() bool { return m.Samples == 0 }

// ManifestPath returns the location of the manifest of the archive.
func ManifestPath(archive string) string {
	return archive + ".manifest"
}

// SaveManifest writes the manifest next to the archive.
func SaveManifest(archive string, m Manifest) error {
	m.Version = archiveVersion
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("unable to encode the manifest: %w", err)
	}
	return writeFile(ManifestPath(archive), data)
}

// LoadManifest reads the manifest of the archive.
func LoadManifest(archive string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(ManifestPath(archive))
	if errors.Is(err, fs.ErrNotExist) {
		return m, fmt.Errorf("%w for %s", ErrMissingManifest, archive)
	}
	if err != nil {
		return m, fmt.Errorf("unable to read the manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("unable to decode the manifest: %w", err)
	}
	if m.Version != archiveVersion {
		return m, fmt.Errorf("%w: %d", ErrArchiveVersion, m.Version)
	}
	if m.Samples < 0 {
		return m, fmt.Errorf("invalid manifest: %d samples", m.Samples)
	}
	return m, nil
}
