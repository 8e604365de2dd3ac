package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// NPMHandler writes package.json version and dependency range fields.
type NPMHandler struct{}

func (h *NPMHandler) Ecosystem() workspace.Ecosystem { return workspace.EcosystemNPM }
func (h *NPMHandler) ManifestFile() string            { return "package.json" }

func (h *NPMHandler) manifestPath(pkgPath string) string {
	if filepath.Ext(pkgPath) == ".json" {
		return pkgPath
	}
	return filepath.Join(pkgPath, h.ManifestFile())
}

func (h *NPMHandler) readRaw(manifestPath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read package manifest %s: %w", manifestPath, err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse package manifest %s: %w", manifestPath, err)
	}
	return raw, nil
}

func writeJSONAtomic(manifestPath string, raw map[string]interface{}) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal package manifest: %w", err)
	}
	data = append(data, '\n')

	tempPath := manifestPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp manifest %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, manifestPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp manifest %s: %w", tempPath, err)
	}
	return nil
}

func (h *NPMHandler) WriteVersion(pkgPath string, version semver.Version) error {
	manifestPath := h.manifestPath(pkgPath)
	raw, err := h.readRaw(manifestPath)
	if err != nil {
		return err
	}

	raw["version"] = version.String()
	return writeJSONAtomic(manifestPath, raw)
}

func (h *NPMHandler) WriteDependencyRange(pkgPath string, depName string, newRange string) error {
	manifestPath := h.manifestPath(pkgPath)
	raw, err := h.readRaw(manifestPath)
	if err != nil {
		return err
	}

	for _, field := range []string{"dependencies", "devDependencies", "peerDependencies", "optionalDependencies"} {
		deps, ok := raw[field].(map[string]interface{})
		if !ok {
			continue
		}
		if _, exists := deps[depName]; exists {
			deps[depName] = newRange
		}
	}

	return writeJSONAtomic(manifestPath, raw)
}
