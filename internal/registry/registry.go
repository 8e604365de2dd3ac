// Package registry defines the package-registry contract the version
// applier and publish scheduler depend on, plus an HTTP-based reference
// adapter.
package registry

import (
	"fmt"

	"github.com/berthrelease/berth/pkg/semver"
)

// Adapter queries and publishes package versions against a package
// registry under a dist-tag.
type Adapter interface {
	// FetchVersion returns the version currently published under distTag
	// for name, or ok=false if nothing has ever been published under
	// that tag.
	FetchVersion(name, distTag string) (version semver.Version, ok bool, err error)

	// Publish uploads an archive and its resolved manifest under distTag
	// with the given access level ("public" or "restricted").
	Publish(name string, archive []byte, manifest []byte, distTag, access string) error
}

// NullAdapter is the registry adapter for no-registry mode: every package
// is treated as never-published, so version resolution falls back to
// 0.0.0, and Publish always errors since the scheduler is expected to
// skip calling it entirely when NoRegistry is set.
type NullAdapter struct{}

// NewNullAdapter returns a NullAdapter.
func NewNullAdapter() *NullAdapter { return &NullAdapter{} }

func (NullAdapter) FetchVersion(name, distTag string) (semver.Version, bool, error) {
	return semver.Zero(), false, nil
}

func (NullAdapter) Publish(name string, archive []byte, manifest []byte, distTag, access string) error {
	return fmt.Errorf("publish called against the null registry adapter for %s; no-registry mode should never reach this", name)
}
