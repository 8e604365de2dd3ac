package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// GoHandler writes a Go module's version to a sibling .version file, since
// go.mod carries no version field of its own — Go modules are versioned via
// VCS tags, and a .version file is the convention this handler mirrors for
// release bookkeeping.
type GoHandler struct{}

func (h *GoHandler) Ecosystem() workspace.Ecosystem { return workspace.EcosystemGo }
func (h *GoHandler) ManifestFile() string            { return "go.mod" }

func (h *GoHandler) WriteVersion(pkgPath string, version semver.Version) error {
	versionFile := filepath.Join(pkgPath, ".version")
	tempPath := versionFile + ".tmp"
	if err := os.WriteFile(tempPath, []byte(version.String()), 0644); err != nil {
		return fmt.Errorf("failed to write temp version file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, versionFile); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp version file %s: %w", tempPath, err)
	}
	return nil
}

var requireLineRe = regexp.MustCompile(`(?m)^(\s*require\s+)(\S+)(\s+)v\S+(.*)$`)

// WriteDependencyRange rewrites a `require <module> vX.Y.Z` line in go.mod
// for depName, if one exists. Go modules have no notion of caret/tilde
// ranges; the rewritten line always pins the exact resolved version.
func (h *GoHandler) WriteDependencyRange(pkgPath string, depName string, newRange string) error {
	manifestPath := filepath.Join(pkgPath, h.ManifestFile())
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read go.mod %s: %w", manifestPath, err)
	}

	version := strings.TrimPrefix(strings.TrimPrefix(newRange, "^"), "~")
	replaced := requireLineRe.ReplaceAllStringFunc(string(data), func(line string) string {
		groups := requireLineRe.FindStringSubmatch(line)
		if groups[2] != depName {
			return line
		}
		return fmt.Sprintf("%s%s%sv%s%s", groups[1], groups[2], groups[3], version, groups[4])
	})

	if replaced == string(data) {
		return nil
	}

	tempPath := manifestPath + ".tmp"
	if err := os.WriteFile(tempPath, []byte(replaced), 0644); err != nil {
		return fmt.Errorf("failed to write temp go.mod %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, manifestPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp go.mod %s: %w", tempPath, err)
	}
	return nil
}
