package recognizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_UntrainedModelShouldReloadEmpty(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "LBPH_recognizer.xml")
	require.NoError(t, SaveManifest(archive, Manifest{}))

	m, err := LoadManifest(archive)
	require.NoError(t, err)
	assert.True(t, m.Empty())
}

func TestManifest_ShouldKeepSampleCount(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "LBPH_recognizer.xml")
	require.NoError(t, SaveManifest(archive, Manifest{Samples: 62}))
	assert.FileExists(t, ManifestPath(archive))

	m, err := LoadManifest(archive)
	require.NoError(t, err)
	assert.False(t, m.Empty())
	assert.Equal(t, 62, m.Samples)
}

func TestManifest_ShouldRejectMissingOrForeignFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadManifest(filepath.Join(dir, "alone.xml"))
	assert.ErrorIs(t, err, ErrMissingManifest)

	archive := filepath.Join(dir, "foreign.xml")
	require.NoError(t, os.WriteFile(ManifestPath(archive), []byte("version: 9\nsamples: 3\n"), 0644))
	_, err = LoadManifest(archive)
	assert.ErrorIs(t, err, ErrArchiveVersion)

	require.NoError(t, os.WriteFile(ManifestPath(archive), []byte("version: 1\nsamples: -2\n"), 0644))
	_, err = LoadManifest(archive)
	assert.Error(t, err)
}
