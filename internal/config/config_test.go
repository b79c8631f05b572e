package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	e := Default()
	assert.Equal(t, 5, e.NumSFX)
	assert.Equal(t, 7, e.NumSources())
	assert.Equal(t, 5, e.MusicSlot())
	assert.Equal(t, 6, e.SpeechSlot())
	assert.Equal(t, 64, e.MusicBufferCount)
	assert.Equal(t, 8, e.SpeechBufferCount)
	assert.Equal(t, 1, e.SFXBufferCount)
	assert.Equal(t, 256, e.ScopePadBytes)
	assert.NoError(t, e.Validate())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	e, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), e)
}

func TestLoadOverridesSelectively(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_sfx: 8\nattenuation: 200\n"), 0o644))

	e, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, e.NumSFX)
	assert.Equal(t, float64(200), e.Attenuation)
	// Untouched fields keep their defaults.
	assert.Equal(t, 64, e.MusicBufferCount)
}

func TestValidateRejectsBadValues(t *testing.T) {
	e := Default()
	e.Attenuation = 0
	assert.Error(t, e.Validate())

	e = Default()
	e.MusicBufferCount = 0
	assert.Error(t, e.Validate())
}
