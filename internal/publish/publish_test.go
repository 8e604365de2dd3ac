package publish

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

type fakeRegistry struct {
	mu        sync.Mutex
	published []string
	access    map[string]string
	failNames map[string]bool
}

func (f *fakeRegistry) FetchVersion(name, distTag string) (semver.Version, bool, error) {
	return semver.Version{}, false, nil
}

func (f *fakeRegistry) Publish(name string, archive []byte, manifest []byte, distTag, access string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNames[name] {
		return assert.AnError
	}
	f.published = append(f.published, name)
	if f.access == nil {
		f.access = map[string]string{}
	}
	f.access[name] = access
	return nil
}

func writePackageJSON(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"`+name+`","version":"0.0.0"}`), 0644))
}

func buildPublishWorkspace(t *testing.T) (*workspace.Workspace, *graph.DependencyGraph) {
	t.Helper()
	root := t.TempDir()
	writePackageJSON(t, root, "core")
	writePackageJSON(t, root, "api")
	writePackageJSON(t, root, "internal-tool")

	ws := workspace.New(root)
	core := &workspace.Package{Name: "core", Path: "core", Ecosystem: workspace.EcosystemNPM, CurrentVersion: semver.New(1, 1, 0)}
	api := &workspace.Package{
		Name: "api", Path: "api", Ecosystem: workspace.EcosystemNPM, CurrentVersion: semver.New(2, 0, 0),
		Dependencies: []workspace.DependencySpec{{Name: "core", Kind: types.DependencyRuntime, Range: "^1.0.0", Operator: types.RangeCaret}},
	}
	private := &workspace.Package{Name: "internal-tool", Path: "internal-tool", Ecosystem: workspace.EcosystemNPM, Private: true, CurrentVersion: semver.New(1, 0, 0)}

	require.NoError(t, ws.Add(core))
	require.NoError(t, ws.Add(api))
	require.NoError(t, ws.Add(private))

	g := graph.NewGraph()
	require.NoError(t, g.AddNode(*core))
	require.NoError(t, g.AddNode(*api))
	require.NoError(t, g.AddNode(*private))
	require.NoError(t, g.AddEdge("api", "core", types.DependencyRuntime))

	return ws, g
}

func TestRun_PublishesEveryNonPrivatePackage(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0), "api": semver.New(2, 0, 0), "internal-tool": semver.New(1, 0, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{DistTag: "latest", AccessFor: func(string) string { return "public" }})

	require.NoError(t, result.Err)
	require.Len(t, result.Results, 3)

	byName := map[string]PackageResult{}
	for _, r := range result.Results {
		byName[r.Name] = r
	}
	assert.True(t, byName["core"].Published)
	assert.True(t, byName["api"].Published)
	assert.False(t, byName["internal-tool"].Published)
	assert.ElementsMatch(t, []string{"core", "api"}, reg.published)
}

func TestRun_AccessForResolvesPerPackage(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0), "api": semver.New(2, 0, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{
		DistTag: "latest",
		AccessFor: func(name string) string {
			if name == "core" {
				return "restricted"
			}
			return "public"
		},
	})

	require.NoError(t, result.Err)
	assert.Equal(t, "restricted", reg.access["core"])
	assert.Equal(t, "public", reg.access["api"])
}

func TestRun_AccessDefaultsToPublicWhenAccessForUnset(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{DistTag: "latest"})

	require.NoError(t, result.Err)
	assert.Equal(t, "public", reg.access["core"])
}

func TestRun_DryRunSkipsUploadOnly(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{DryRun: true})

	require.NoError(t, result.Err)
	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Published)
	assert.Empty(t, reg.published)
}

func TestRun_NoRegistrySkipsPackAndUpload(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	hookCalled := false
	versions := map[string]semver.Version{"core": semver.New(1, 1, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{
		NoRegistry:     true,
		PrepublishHook: func(name string) error { hookCalled = true; return nil },
	})

	require.NoError(t, result.Err)
	assert.True(t, hookCalled)
	assert.False(t, result.Results[0].Published)
	assert.Empty(t, reg.published)
}

func TestRun_FailedPackageDoesNotDropSucceeded(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{"api": true}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0), "api": semver.New(2, 0, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{Topological: true})

	require.Error(t, result.Err)
	require.Len(t, result.Results, 2)

	byName := map[string]PackageResult{}
	for _, r := range result.Results {
		byName[r.Name] = r
	}
	assert.True(t, byName["core"].Published)
	assert.Error(t, byName["api"].Err)
}

func TestRun_TopologicalOrdersCoreBeforeApi(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0), "api": semver.New(2, 0, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{Topological: true})

	require.NoError(t, result.Err)
	require.Len(t, reg.published, 2)
	assert.Equal(t, "core", reg.published[0])
	assert.Equal(t, "api", reg.published[1])
}

func TestRun_PrepublishHookFailureAbortsThatPackageOnly(t *testing.T) {
	ws, g := buildPublishWorkspace(t)
	reg := &fakeRegistry{failNames: map[string]bool{}}

	versions := map[string]semver.Version{"core": semver.New(1, 1, 0)}
	result := Run(context.Background(), ws, g, versions, reg, Options{
		PrepublishHook: func(name string) error { return assert.AnError },
	})

	require.Error(t, result.Err)
	assert.False(t, result.Results[0].Published)
	assert.Empty(t, reg.published)
}
