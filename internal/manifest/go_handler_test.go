package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthrelease/berth/pkg/semver"
)

func TestGoHandler_WriteVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/core\n\ngo 1.24\n")

	h := &GoHandler{}
	require.NoError(t, h.WriteVersion(dir, semver.New(1, 2, 0)))

	data, err := os.ReadFile(filepath.Join(dir, ".version"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", string(data))
}

func TestGoHandler_WriteDependencyRange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/api\n\nrequire example.com/core v1.0.0\n")

	h := &GoHandler{}
	require.NoError(t, h.WriteDependencyRange(dir, "example.com/core", "^1.2.0"))

	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "require example.com/core v1.2.0")
}

func TestGoHandler_WriteDependencyRange_NoMatchingRequireIsNoop(t *testing.T) {
	dir := t.TempDir()
	original := "module example.com/api\n\nrequire example.com/other v1.0.0\n"
	writeFile(t, filepath.Join(dir, "go.mod"), original)

	h := &GoHandler{}
	require.NoError(t, h.WriteDependencyRange(dir, "example.com/core", "^1.2.0"))

	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}
