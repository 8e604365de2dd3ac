package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsCwdToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, ".berth.yaml", "noRegistry: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Cwd)
	assert.Equal(t, "origin", cfg.Git.Remote)
}

func TestLoad_PreservesExplicitCwd(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, ".berth.yaml", "cwd: /elsewhere\nnoRegistry: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", cfg.Cwd)
}

func TestLoad_ValidatesMissingRegistryURL(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, ".berth.yaml", "git:\n  remote: origin\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ReturnsConfigurationErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromDir_FindsBerthYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".berth.yaml", "noRegistry: true\n")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Cwd)
}

func TestFindConfig_WalksUpParentDirectories(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, ".berth.yaml", "noRegistry: true\n")

	nested := filepath.Join(root, "packages", "core")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".berth.yaml"), found)
}

func TestFindConfig_ErrorsWhenNoneFound(t *testing.T) {
	dir := t.TempDir()
	_, err := FindConfig(dir)
	assert.Error(t, err)
}
