package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	assert.Equal(t, CurrentVersion, c.Version)
	assert.Equal(t, 1, c.Optimizer.Level)
	assert.Equal(t, uint64(1_000_000), c.Oracle.MaxSteps)
	assert.Equal(t, int64(1920), c.Geometry.ScreenWidth)
	assert.Equal(t, int64(1080), c.Geometry.ScreenHeight)
	assert.Equal(t, "2s", c.Geometry.SolverTimeout)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aurac.yaml")
	yaml := "version: v1.0\noptimizer:\n  level: 0\noracle:\n  max_steps: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Optimizer.Level)
	assert.Equal(t, uint64(42), c.Oracle.MaxSteps)
	// Unspecified fields keep Default's values via the pre-populated struct.
	assert.Equal(t, int64(1920), c.Geometry.ScreenWidth)
}

func TestLoadRejectsIncompatibleMajorVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aurac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v2.0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadAcceptsNewerMinor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aurac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1.9\n"), 0o644))

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestCheckVersionRejectsInvalidSemver(t *testing.T) {
	err := checkVersion("not-a-version")
	assert.Error(t, err)
}

func TestCheckVersionAllowsEmpty(t *testing.T) {
	assert.NoError(t, checkVersion(""))
}
