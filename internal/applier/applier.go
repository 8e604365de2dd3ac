// Package applier computes each affected package's next version from its
// registry tag and strategy-map bump level, then rewrites the on-disk
// manifest and every consumer's dependency range to match.
package applier

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/berthrelease/berth/internal/analyzer"
	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/manifest"
	"github.com/berthrelease/berth/internal/prerelease"
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

// Options configures a single Apply invocation.
type Options struct {
	// Prerelease activates prerelease-aware increments under Tag, tracked
	// in State so the numeric counter is monotonic per package.
	Prerelease bool
	Tag        string
	State      *prerelease.State
}

// PackageResult is the outcome of applying a strategy to one package.
type PackageResult struct {
	PreviousVersion semver.Version
	NewVersion      semver.Version
}

// Result maps package name to its applied version change, for every
// package present in the input strategy map.
type Result map[string]*PackageResult

// Apply computes a new version for every package in strategies, writes it
// to the package's on-disk manifest, and rewrites the declared dependency
// range of every other workspace package that depends on a bumped
// package. Writes proceed in sorted package-name order for determinism;
// callers are expected to have already snapshotted manifests for restore.
func Apply(ws *workspace.Workspace, strategies analyzer.StrategyMap, opts Options) (Result, error) {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make(Result, len(names))
	for _, name := range names {
		pkg, ok := ws.Get(name)
		if !ok {
			return nil, berrors.NewWorkspaceError(name, "strategy references a package not present in the workspace")
		}

		level, err := bumpLevel(strategies[name].BumpLevel)
		if err != nil {
			return nil, berrors.NewWorkspaceError(name, err.Error())
		}

		newVersion, err := nextVersion(pkg, level, opts)
		if err != nil {
			return nil, berrors.NewWorkspaceError(name, fmt.Sprintf("failed to compute next version: %v", err))
		}

		handler, ok := manifest.GetHandler(pkg.Ecosystem)
		if !ok {
			return nil, berrors.NewWorkspaceError(name, fmt.Sprintf("no manifest handler registered for ecosystem %q", pkg.Ecosystem))
		}

		pkgPath := filepath.Join(ws.Root, pkg.Path)
		if err := handler.WriteVersion(pkgPath, newVersion); err != nil {
			return nil, berrors.NewWorkspaceError(name, fmt.Sprintf("failed to write version: %v", err))
		}

		result[name] = &PackageResult{PreviousVersion: pkg.RegistryVersion, NewVersion: newVersion}
		pkg.CurrentVersion = newVersion
	}

	if err := rewriteDependents(ws, result); err != nil {
		return nil, err
	}
	return result, nil
}

func bumpLevel(ct types.ChangeType) (semver.BumpLevel, error) {
	switch ct {
	case types.ChangeTypePatch:
		return semver.BumpPatch, nil
	case types.ChangeTypeMinor:
		return semver.BumpMinor, nil
	case types.ChangeTypeMajor:
		return semver.BumpMajor, nil
	default:
		return "", fmt.Errorf("cannot bump a %q-level strategy", ct)
	}
}

func nextVersion(pkg *workspace.Package, level semver.BumpLevel, opts Options) (semver.Version, error) {
	base := pkg.RegistryVersion

	if !opts.Prerelease {
		return base.Bump(level)
	}

	// Probe which base version this bump would land on (a fresh bump, or
	// the existing prerelease's base if already on the same tag line) so
	// the counter is keyed on that base rather than unconditionally
	// re-bumping an already-prerelease version.
	probe, err := base.BumpPrerelease(level, opts.Tag, 0)
	if err != nil {
		return semver.Version{}, err
	}
	target := probe.Base()

	counter := opts.State.Advance(pkg.Name, opts.Tag, target.String())
	return base.BumpPrerelease(level, opts.Tag, counter)
}

// rewriteDependents rewrites, for every workspace package, the declared
// range of every dependency that was bumped this run. Workspace-protocol
// specifiers are preserved on disk; the fully-resolved pack-time range is
// computed by the publish scheduler when it archives the manifest.
func rewriteDependents(ws *workspace.Workspace, bumped Result) error {
	consumers := ws.All()
	sort.Slice(consumers, func(i, j int) bool { return consumers[i].Name < consumers[j].Name })

	for _, consumer := range consumers {
		handler, ok := manifest.GetHandler(consumer.Ecosystem)
		if !ok {
			continue
		}
		pkgPath := filepath.Join(ws.Root, consumer.Path)

		for _, dep := range consumer.Dependencies {
			bump, ok := bumped[dep.Name]
			if !ok {
				continue
			}
			newRange := manifest.RewriteOnDisk(dep.Operator, dep.Range, bump.NewVersion)
			if newRange == dep.Range {
				continue
			}
			if err := handler.WriteDependencyRange(pkgPath, dep.Name, newRange); err != nil {
				return berrors.NewWorkspaceError(consumer.Name, fmt.Sprintf("failed to rewrite dependency range for %s: %v", dep.Name, err))
			}
		}
	}
	return nil
}
