package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// CargoHandler writes Cargo.toml's first `version = "..."` line (the
// [package] version) and inline `<name> = "<range>"` dependency lines via
// targeted line rewrites, keeping the rest of the file (comments,
// formatting, feature tables) untouched. Dependencies declared as
// [dependencies.<name>] tables or `{ version = ... }` inline tables are not
// rewritten.
type CargoHandler struct{}

func (h *CargoHandler) Ecosystem() workspace.Ecosystem { return workspace.EcosystemCargo }
func (h *CargoHandler) ManifestFile() string            { return "Cargo.toml" }

var packageVersionRe = regexp.MustCompile(`(?m)^(\s*version\s*=\s*)"[^"]*"(\s*)$`)

func cargoDepVersionRe(depName string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?m)^(\s*%s\s*=\s*)"[^"]*"(\s*)$`, regexp.QuoteMeta(depName)))
}

func (h *CargoHandler) WriteVersion(pkgPath string, version semver.Version) error {
	manifestPath := filepath.Join(pkgPath, h.ManifestFile())
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read Cargo.toml %s: %w", manifestPath, err)
	}

	replaced := false
	result := packageVersionRe.ReplaceAllStringFunc(string(data), func(line string) string {
		if replaced {
			return line
		}
		replaced = true
		groups := packageVersionRe.FindStringSubmatch(line)
		return fmt.Sprintf(`%s"%s"%s`, groups[1], version.String(), groups[2])
	})

	return writeTOMLAtomic(manifestPath, result)
}

func (h *CargoHandler) WriteDependencyRange(pkgPath string, depName string, newRange string) error {
	manifestPath := filepath.Join(pkgPath, h.ManifestFile())
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read Cargo.toml %s: %w", manifestPath, err)
	}

	re := cargoDepVersionRe(depName)
	replaced := re.ReplaceAllStringFunc(string(data), func(line string) string {
		groups := re.FindStringSubmatch(line)
		return fmt.Sprintf(`%s"%s"%s`, groups[1], newRange, groups[2])
	})

	return writeTOMLAtomic(manifestPath, replaced)
}

func writeTOMLAtomic(manifestPath string, content string) error {
	tempPath := manifestPath + ".tmp"
	if err := os.WriteFile(tempPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write temp manifest %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, manifestPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp manifest %s: %w", tempPath, err)
	}
	return nil
}
