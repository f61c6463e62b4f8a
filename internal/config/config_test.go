package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	resolved, err := Load("", "", "com.example")
	require.NoError(t, err)
	assert.True(t, resolved.Spec.ArchivesEnabled())
	assert.True(t, resolved.Spec.DirectoriesEnabled())
}

func TestLoadYAMLOverridesToggles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classgraph.yaml")
	yamlBody := "toggles:\n  scanArchives: false\n  ignoreVisibility: true\nworkers: 6\npackages:\n  - com.example\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	resolved, err := Load("", path)
	require.NoError(t, err)
	assert.False(t, resolved.Spec.ArchivesEnabled())
	assert.True(t, resolved.Spec.IgnoreVisibility())
	assert.Equal(t, 6, resolved.Workers)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	resolved, err := Load("", filepath.Join(t.TempDir(), "missing.yaml"), "com.example")
	require.NoError(t, err)
	assert.NotNil(t, resolved.Spec)
}

func TestLoadWorkersFromEnv(t *testing.T) {
	t.Setenv("CLASSGRAPH_WORKERS", "3")
	resolved, err := Load("", "", "com.example")
	require.NoError(t, err)
	assert.Equal(t, 3, resolved.Workers)
}
