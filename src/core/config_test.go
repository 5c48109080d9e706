package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultToolConfigHasSaneDefaults(t *testing.T) {
	c := DefaultToolConfig()
	assert.Greater(t, c.Build.NumThreads, 0)
	assert.Equal(t, "out/Default", c.Build.DefaultOutDir)
	assert.Equal(t, ".bg-cache", c.Cache.Dir)
	assert.Equal(t, "INFO", c.Log.Level)
}

func TestReadToolConfigLayersLocalOverRepo(t *testing.T) {
	dir := t.TempDir()
	repo := []byte("[build]\nnumthreads=4\ndefaultoutdir=out/Release\n")
	local := []byte("[build]\nnumthreads=8\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), repo, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalConfigFileName), local, 0644))

	c, err := ReadToolConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Build.NumThreads)
	assert.Equal(t, "out/Release", c.Build.DefaultOutDir)
}

func TestReadToolConfigMissingFilesIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	c, err := ReadToolConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultToolConfig().Cache.Dir, c.Cache.Dir)
}
