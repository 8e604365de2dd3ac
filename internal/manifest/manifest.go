package manifest

import (
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// Manifest is a loaded, mutable view of one package's on-disk manifest file.
// DiskRanges holds the range text as it will be written back to disk
// (workspace-protocol specifiers preserved); PackRanges holds the fully
// resolved ranges used for the archive the publish scheduler packs.
type Manifest struct {
	PackageName  string
	ManifestPath string
	Ecosystem    workspace.Ecosystem
	Version      semver.Version
	DiskRanges   map[string]string
	PackRanges   map[string]string
}

// Handler rewrites a package's on-disk manifest for a single ecosystem.
// Loading and dependency discovery for the workspace model is
// workspace.Detect's job; Handler only ever mutates.
type Handler interface {
	// Ecosystem reports the ecosystem this handler writes manifests for.
	Ecosystem() workspace.Ecosystem

	// ManifestFile returns the manifest file name this handler writes
	// (e.g. "package.json", "Chart.yaml").
	ManifestFile() string

	// WriteVersion atomically updates the package version field in the
	// manifest at pkgPath (write-temp + rename).
	WriteVersion(pkgPath string, version semver.Version) error

	// WriteDependencyRange atomically updates the declared range for
	// depName in the manifest at pkgPath to newRange.
	WriteDependencyRange(pkgPath string, depName string, newRange string) error
}

var handlers = map[workspace.Ecosystem]Handler{}

// Register adds a handler to the registry, replacing any existing handler
// for the same ecosystem.
func Register(h Handler) {
	handlers[h.Ecosystem()] = h
}

// GetHandler returns the registered handler for an ecosystem.
func GetHandler(eco workspace.Ecosystem) (Handler, bool) {
	h, ok := handlers[eco]
	return h, ok
}

func init() {
	Register(&NPMHandler{})
	Register(&GoHandler{})
	Register(&HelmHandler{})
	Register(&CargoHandler{})
}
