package manifest

import (
	"encoding/json"

	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// PackedDependency is one dependency entry in a PackedManifest, with its
// range fully resolved rather than left as an on-disk literal.
type PackedDependency struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

// PackedManifest is the canonical, ecosystem-independent manifest document
// the publish scheduler archives and uploads. It never touches disk: the
// on-disk manifest keeps workspace-protocol specifiers literal, while this
// document carries the fully resolved range for every bumped dependency.
type PackedManifest struct {
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	Dependencies []PackedDependency `json:"dependencies,omitempty"`
}

// BuildPackedManifest assembles pkg's pack-time manifest. resolvedVersions
// maps a dependency name to its newly applied version, for every dependency
// that was bumped this run; dependencies absent from the map keep their
// currently declared range unresolved.
func BuildPackedManifest(pkg *workspace.Package, resolvedVersions map[string]semver.Version) ([]byte, error) {
	packed := PackedManifest{
		Name:    pkg.Name,
		Version: pkg.CurrentVersion.String(),
	}

	for _, dep := range pkg.Dependencies {
		rangeStr := dep.Range
		if version, ok := resolvedVersions[dep.Name]; ok {
			rangeStr = RewriteForPack(dep.Operator, version)
		}
		packed.Dependencies = append(packed.Dependencies, PackedDependency{Name: dep.Name, Range: rangeStr})
	}

	return json.MarshalIndent(packed, "", "  ")
}
