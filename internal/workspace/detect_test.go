package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/berthrelease/berth/pkg/semver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_GoModule(t *testing.T) {
	tempDir := t.TempDir()
	goMod := "module github.com/example/myproject\n\ngo 1.21\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte(goMod), 0644))

	ws, err := Detect(tempDir)
	require.NoError(t, err)
	require.Len(t, ws.All(), 1)

	pkg, ok := ws.Get("myproject")
	require.True(t, ok)
	assert.Equal(t, "./", pkg.Path)
	assert.Equal(t, EcosystemGo, pkg.Ecosystem)
}

func TestDetect_NPMPackage(t *testing.T) {
	tempDir := t.TempDir()
	packageJSON := `{
  "name": "my-npm-package",
  "version": "1.2.0",
  "dependencies": {"left-pad": "^1.0.0"},
  "devDependencies": {"jest": "~29.0.0"},
  "peerDependencies": {"react": "workspace:*"}
}`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "package.json"), []byte(packageJSON), 0644))

	ws, err := Detect(tempDir)
	require.NoError(t, err)
	require.Len(t, ws.All(), 1)

	pkg, ok := ws.Get("my-npm-package")
	require.True(t, ok)
	assert.Equal(t, EcosystemNPM, pkg.Ecosystem)
	assert.True(t, pkg.CurrentVersion.Equals(semver.New(1, 2, 0)))
	assert.False(t, pkg.Private)

	var found map[string]DependencySpec = make(map[string]DependencySpec)
	for _, d := range pkg.Dependencies {
		found[d.Name] = d
	}
	assert.Equal(t, "caret", string(found["left-pad"].Operator))
	assert.Equal(t, "tilde", string(found["jest"].Operator))
	assert.Equal(t, "workspace", string(found["react"].Operator))
}

func TestDetect_MonorepoMultiplePackages(t *testing.T) {
	tempDir := t.TempDir()
	for _, pkg := range []string{"pkg-a", "pkg-b"} {
		dir := filepath.Join(tempDir, pkg)
		require.NoError(t, os.MkdirAll(dir, 0755))
		content := `{"name": "` + pkg + `", "version": "1.0.0"}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0644))
	}

	ws, err := Detect(tempDir)
	require.NoError(t, err)
	assert.Len(t, ws.All(), 2)
}

func TestDetect_SkipsNodeModules(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "package.json"), []byte(`{"name":"root","version":"1.0.0"}`), 0644))
	nested := filepath.Join(tempDir, "node_modules", "dep")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "package.json"), []byte(`{"name":"dep","version":"1.0.0"}`), 0644))

	ws, err := Detect(tempDir)
	require.NoError(t, err)
	assert.Len(t, ws.All(), 1)
}

func TestWorkspace_ValidateDependencies(t *testing.T) {
	ws := New("/repo")
	require.NoError(t, ws.Add(&Package{Name: "a", Dependencies: []DependencySpec{{Name: "b"}}}))
	require.NoError(t, ws.Add(&Package{Name: "b"}))
	assert.NoError(t, ws.ValidateDependencies())

	ws2 := New("/repo")
	require.NoError(t, ws2.Add(&Package{Name: "a", Dependencies: []DependencySpec{{Name: "missing"}}}))
	assert.Error(t, ws2.ValidateDependencies())
}

func TestWorkspace_AddDuplicate(t *testing.T) {
	ws := New("/repo")
	require.NoError(t, ws.Add(&Package{Name: "a"}))
	assert.Error(t, ws.Add(&Package{Name: "a"}))
}
