// Package semver provides the semantic-version type used throughout berth:
// parsing, comparison, and the bump/prerelease arithmetic the version
// applier needs. It wraps github.com/blang/semver/v4 rather than
// reimplementing comparison and prerelease-identifier handling by hand.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	bsemver "github.com/blang/semver/v4"
)

// Version represents a semantic version, including optional prerelease
// identifiers (e.g. "1.2.0-rc.3").
type Version struct {
	inner bsemver.Version
}

// Zero returns the zero version (0.0.0).
func Zero() Version {
	return Version{inner: bsemver.Version{}}
}

// New creates a Version from its major/minor/patch components.
func New(major, minor, patch int) Version {
	return Version{inner: bsemver.Version{
		Major: uint64(major),
		Minor: uint64(minor),
		Patch: uint64(patch),
	}}
}

// Parse parses a version string. An empty string or "latest" parses to 0.0.0,
// matching the registry tag map's convention for packages with no prior
// publication.
func Parse(versionStr string) (Version, error) {
	trimmed := strings.TrimSpace(versionStr)
	if trimmed == "" || trimmed == "latest" {
		return Zero(), nil
	}
	trimmed = strings.TrimPrefix(trimmed, "v")

	parsed, err := bsemver.Parse(trimmed)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", versionStr, err)
	}
	return Version{inner: parsed}, nil
}

// MustParse parses a version string and panics if it's invalid.
func MustParse(versionStr string) Version {
	v, err := Parse(versionStr)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) Major() int { return int(v.inner.Major) }
func (v Version) Minor() int { return int(v.inner.Minor) }
func (v Version) Patch() int { return int(v.inner.Patch) }

// Prerelease returns the dot-joined prerelease identifiers, or "" if none.
func (v Version) Prerelease() string {
	if len(v.inner.Pre) == 0 {
		return ""
	}
	parts := make([]string, len(v.inner.Pre))
	for i, p := range v.inner.Pre {
		parts[i] = p.String()
	}
	return strings.Join(parts, ".")
}

// IsPrerelease reports whether this version carries prerelease identifiers.
func (v Version) IsPrerelease() bool {
	return len(v.inner.Pre) > 0
}

func (v Version) String() string {
	return v.inner.String()
}

// Compare returns -1, 0, or 1 per semantic-version ordering.
func (v Version) Compare(other Version) int {
	return v.inner.Compare(other.inner)
}

func (v Version) Equals(other Version) bool      { return v.Compare(other) == 0 }
func (v Version) LessThan(other Version) bool     { return v.Compare(other) < 0 }
func (v Version) GreaterThan(other Version) bool  { return v.Compare(other) > 0 }

// stripPre returns a copy with no prerelease or build identifiers.
func (v Version) stripPre() bsemver.Version {
	return bsemver.Version{Major: v.inner.Major, Minor: v.inner.Minor, Patch: v.inner.Patch}
}

// Base returns a copy of v with any prerelease or build identifiers
// removed, e.g. Base() of "1.2.0-rc.3" is "1.2.0".
func (v Version) Base() Version {
	return Version{inner: v.stripPre()}
}

// BumpLevel is the subset of change levels that produce a version
// increment; "none" never reaches Bump.
type BumpLevel string

const (
	BumpPatch BumpLevel = "patch"
	BumpMinor BumpLevel = "minor"
	BumpMajor BumpLevel = "major"
)

// Bump applies a standard (non-prerelease) semantic-version increment.
func (v Version) Bump(level BumpLevel) (Version, error) {
	base := v.stripPre()
	switch level {
	case BumpMajor:
		base.Major++
		base.Minor = 0
		base.Patch = 0
	case BumpMinor:
		base.Minor++
		base.Patch = 0
	case BumpPatch:
		base.Patch++
	default:
		return Version{}, fmt.Errorf("invalid bump level: %s", level)
	}
	return Version{inner: base}, nil
}

// BumpPrerelease applies a prerelease-aware increment: if the current
// version is already a prerelease of the same base+tag, only the numeric
// prerelease counter advances; otherwise a fresh base bump is taken and
// the counter restarts at 0.
func (v Version) BumpPrerelease(level BumpLevel, tag string, nextCounter int) (Version, error) {
	if v.IsPrerelease() && v.samePrereleaseLine(level, tag) {
		return v.withPrereleaseCounter(tag, nextCounter), nil
	}

	base, err := v.Bump(level)
	if err != nil {
		return Version{}, err
	}
	return base.withPrereleaseCounter(tag, nextCounter), nil
}

// samePrereleaseLine reports whether this version is already a prerelease
// on the requested tag. Only the tag is compared; `level` is not consulted.
func (v Version) samePrereleaseLine(level BumpLevel, tag string) bool {
	if len(v.inner.Pre) == 0 || v.inner.Pre[0].VersionStr != tag {
		return false
	}
	return true
}

func (v Version) withPrereleaseCounter(tag string, counter int) Version {
	next := v.stripPre()
	next.Pre = []bsemver.PRVersion{
		{VersionStr: tag},
		{VersionNum: uint64(counter), IsNum: true},
	}
	return Version{inner: next}
}

// PrereleaseCounter returns the numeric prerelease counter (the second
// identifier, e.g. 3 in "1.2.0-rc.3"), or 0 if this is not a prerelease.
func (v Version) PrereleaseCounter() int {
	if len(v.inner.Pre) < 2 {
		return 0
	}
	if !v.inner.Pre[1].IsNum {
		n, err := strconv.Atoi(v.inner.Pre[1].VersionStr)
		if err != nil {
			return 0
		}
		return n
	}
	return int(v.inner.Pre[1].VersionNum)
}
