package recognizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const archiveVersion = 1

// ErrArchiveVersion is returned when loading a model saved by an
// incompatible version.
var ErrArchiveVersion = errors.New("unsupported archive version")

type archive struct {
	Version int              `yaml:"version"`
	Params  Params           `yaml:"params"`
	Samples []archivedSample `yaml:"samples"`
}

type archivedSample struct {
	Label     int       `yaml:"label"`
	Histogram []float32 `yaml:"histogram,flow"`
}

// Save writes the model to path.
func (r *LBPH) Save(path string) error {
	a := archive{Version: archiveVersion, Params: r.params, Samples: make([]archivedSample, len(r.samples))}
	for i, s := range r.samples {
		h := make([]float32, len(s.histogram))
		for j, v := range s.histogram {
			h[j] = float32(v)
		}
		a.Samples[i] = archivedSample{Label: s.label, Histogram: h}
	}

	data, err := yaml.Marshal(&a)
	if err != nil {
		return fmt.Errorf("unable to encode the recognizer: %w", err)
	}
	return writeFile(path, data)
}

// writeFile replaces the file at path atomically so that an interrupted
// save never corrupts a previous archive.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lbph-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write the recognizer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load replaces the model with the one saved at path, parameters included.
func (r *LBPH) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read the recognizer: %w", err)
	}

	var a archive
	if err := yaml.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("unable to decode the recognizer: %w", err)
	}
	if a.Version != archiveVersion {
		return fmt.Errorf("%w: %d", ErrArchiveVersion, a.Version)
	}
	if err := a.Params.validate(); err != nil {
		return err
	}

	size := a.Params.GridX * a.Params.GridY * bins
	samples := make([]sample, len(a.Samples))
	for i, s := range a.Samples {
		if len(s.Histogram) != size {
			return fmt.Errorf("sample %d: histogram of %d bins, expected %d", i, len(s.Histogram), size)
		}
		h := make([]float64, size)
		for j, v := range s.Histogram {
			h[j] = float64(v)
		}
		samples[i] = sample{label: s.Label, histogram: h}
	}

	r.params, r.samples = a.Params, samples
	return nil
}
