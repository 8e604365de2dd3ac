package applier

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthrelease/berth/internal/analyzer"
	"github.com/berthrelease/berth/internal/prerelease"
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

func writePackageJSON(t *testing.T, dir string, content map[string]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), data, 0644))
}

func readPackageJSON(t *testing.T, dir string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestApply_BumpsPatchFromRegistryVersion(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "core"), map[string]interface{}{"name": "core", "version": "1.2.0"})

	ws := workspace.New(root)
	require.NoError(t, ws.Add(&workspace.Package{
		Name: "core", Path: "core", Ecosystem: workspace.EcosystemNPM,
		RegistryVersion: semver.MustParse("1.2.0"),
	}))

	strategies := analyzer.StrategyMap{"core": {BumpLevel: types.ChangeTypePatch}}

	result, err := Apply(ws, strategies, Options{})
	require.NoError(t, err)
	require.Contains(t, result, "core")
	assert.Equal(t, "1.2.1", result["core"].NewVersion.String())

	raw := readPackageJSON(t, filepath.Join(root, "core"))
	assert.Equal(t, "1.2.1", raw["version"])
}

func TestApply_RewritesDependentCaretRange(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "core"), map[string]interface{}{"name": "core", "version": "1.0.0"})
	writePackageJSON(t, filepath.Join(root, "api"), map[string]interface{}{
		"name": "api", "version": "1.0.0",
		"dependencies": map[string]interface{}{"core": "^1.0.0"},
	})

	ws := workspace.New(root)
	require.NoError(t, ws.Add(&workspace.Package{
		Name: "core", Path: "core", Ecosystem: workspace.EcosystemNPM,
		RegistryVersion: semver.MustParse("1.0.0"),
	}))
	require.NoError(t, ws.Add(&workspace.Package{
		Name: "api", Path: "api", Ecosystem: workspace.EcosystemNPM,
		RegistryVersion: semver.MustParse("1.0.0"),
		Dependencies: []workspace.DependencySpec{
			{Name: "core", Kind: types.DependencyRuntime, Range: "^1.0.0", Operator: types.RangeCaret},
		},
	}))

	strategies := analyzer.StrategyMap{"core": {BumpLevel: types.ChangeTypeMajor}}

	_, err := Apply(ws, strategies, Options{})
	require.NoError(t, err)

	raw := readPackageJSON(t, filepath.Join(root, "api"))
	deps := raw["dependencies"].(map[string]interface{})
	assert.Equal(t, "^2.0.0", deps["core"])
}

func TestApply_WorkspaceProtocolPreservedOnDisk(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "core"), map[string]interface{}{"name": "core", "version": "1.0.0"})
	writePackageJSON(t, filepath.Join(root, "api"), map[string]interface{}{
		"name": "api", "version": "1.0.0",
		"dependencies": map[string]interface{}{"core": "workspace:*"},
	})

	ws := workspace.New(root)
	require.NoError(t, ws.Add(&workspace.Package{
		Name: "core", Path: "core", Ecosystem: workspace.EcosystemNPM,
		RegistryVersion: semver.MustParse("1.0.0"),
	}))
	require.NoError(t, ws.Add(&workspace.Package{
		Name: "api", Path: "api", Ecosystem: workspace.EcosystemNPM,
		RegistryVersion: semver.MustParse("1.0.0"),
		Dependencies: []workspace.DependencySpec{
			{Name: "core", Kind: types.DependencyRuntime, Range: "workspace:*", Operator: types.RangeWorkspace},
		},
	}))

	strategies := analyzer.StrategyMap{"core": {BumpLevel: types.ChangeTypeMinor}}

	_, err := Apply(ws, strategies, Options{})
	require.NoError(t, err)

	raw := readPackageJSON(t, filepath.Join(root, "api"))
	deps := raw["dependencies"].(map[string]interface{})
	assert.Equal(t, "workspace:*", deps["core"])
}

func TestApply_PrereleaseAdvancesCounterPerPackage(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "core"), map[string]interface{}{"name": "core", "version": "1.0.0"})

	ws := workspace.New(root)
	require.NoError(t, ws.Add(&workspace.Package{
		Name: "core", Path: "core", Ecosystem: workspace.EcosystemNPM,
		RegistryVersion: semver.MustParse("1.0.0"),
	}))

	strategies := analyzer.StrategyMap{"core": {BumpLevel: types.ChangeTypeMinor}}
	state := &prerelease.State{Packages: make(map[string]prerelease.PackageState)}

	result, err := Apply(ws, strategies, Options{Prerelease: true, Tag: "rc", State: state})
	require.NoError(t, err)
	assert.Equal(t, "1.1.0-rc.0", result["core"].NewVersion.String())

	ws.Packages["core"].RegistryVersion = result["core"].NewVersion
	result, err = Apply(ws, strategies, Options{Prerelease: true, Tag: "rc", State: state})
	require.NoError(t, err)
	assert.Equal(t, "1.1.0-rc.1", result["core"].NewVersion.String())
}

func TestApply_UnknownPackageInStrategyMapErrors(t *testing.T) {
	ws := workspace.New(t.TempDir())
	strategies := analyzer.StrategyMap{"ghost": {BumpLevel: types.ChangeTypePatch}}

	_, err := Apply(ws, strategies, Options{})
	assert.Error(t, err)
}
