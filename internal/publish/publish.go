// Package publish schedules the per-package prepublish-hook -> pack ->
// upload -> postpublish-hook pipeline across a workspace, bounded by a
// global upload concurrency cap and a per-group pipeline concurrency cap,
// optionally gated into dependency-ordered groups.
package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/internal/manifest"
	"github.com/berthrelease/berth/internal/registry"
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// Hook runs a named lifecycle hook for a package. A non-nil error aborts
// that package's pipeline but does not stop sibling packages.
type Hook func(pkgName string) error

// Options configures a Run invocation.
type Options struct {
	DryRun      bool // skip upload only; everything else still runs
	NoRegistry  bool // skip pack + upload; package still counts as released
	DistTag     string
	Topological bool // gate packages into dependency-ordered groups

	// AccessFor resolves the publish access level ("public"/"restricted")
	// for a given package name, called once per package so scoped and
	// unscoped names in the same run can resolve differently. Defaults to
	// "public" for every package when nil.
	AccessFor func(name string) string

	// MaxConcurrentWrites bounds how many uploads run at once across the
	// entire run. Jobs bounds how many per-package pipelines run at once
	// within a single group. Both default to 1 if <= 0.
	MaxConcurrentWrites int
	Jobs                int

	PrepublishHook  Hook
	PostpublishHook Hook
}

// PackageResult is the outcome of one package's publish pipeline.
type PackageResult struct {
	Name      string
	Published bool // false for dry-run, no-registry, or private packages
	Err       error
}

// Result collects every package's outcome. Err is non-nil if any package
// failed; already-succeeded packages are still reported in Results.
type Result struct {
	Results []PackageResult
	Err     error
}

func (o Options) jobs() int64 {
	if o.Jobs <= 0 {
		return 1
	}
	return int64(o.Jobs)
}

func (o Options) maxConcurrentWrites() int64 {
	if o.MaxConcurrentWrites <= 0 {
		return 1
	}
	return int64(o.MaxConcurrentWrites)
}

func (o Options) accessFor(name string) string {
	if o.AccessFor == nil {
		return "public"
	}
	return o.AccessFor(name)
}

// Run publishes every non-private package in versions, in dependency order
// when opts.Topological is set, otherwise as a single group.
func Run(ctx context.Context, ws *workspace.Workspace, g *graph.DependencyGraph, versions map[string]semver.Version, adapter registry.Adapter, opts Options) Result {
	groups, err := groupsFor(g, versions, opts.Topological)
	if err != nil {
		return Result{Err: err}
	}

	uploadSem := semaphore.NewWeighted(opts.maxConcurrentWrites())

	var (
		mu      sync.Mutex
		results []PackageResult
		firstErr error
	)

	for _, group := range groups {
		jobSem := semaphore.NewWeighted(opts.jobs())
		var wg sync.WaitGroup

		for _, name := range group {
			name := name
			_ = jobSem.Acquire(ctx, 1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer jobSem.Release(1)

				res := publishOne(ctx, ws, name, versions[name], adapter, opts, uploadSem)

				mu.Lock()
				results = append(results, res)
				if res.Err != nil && firstErr == nil {
					firstErr = res.Err
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		// A group only starts after the prior one fully completes; stop
		// advancing groups once a failure has occurred so later groups
		// don't publish on top of a broken dependency.
		if firstErr != nil {
			break
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return Result{Results: results, Err: firstErr}
}

func publishOne(ctx context.Context, ws *workspace.Workspace, name string, version semver.Version, adapter registry.Adapter, opts Options, uploadSem *semaphore.Weighted) PackageResult {
	pkg, ok := ws.Get(name)
	if !ok {
		return PackageResult{Name: name, Err: berrors.NewWorkspaceError(name, "publish target not present in workspace")}
	}
	if pkg.Private {
		return PackageResult{Name: name, Published: false}
	}

	if opts.PrepublishHook != nil {
		if err := opts.PrepublishHook(name); err != nil {
			return PackageResult{Name: name, Err: berrors.NewPublishError(name, "prepublish hook failed", err)}
		}
	}

	if opts.NoRegistry {
		return PackageResult{Name: name, Published: false}
	}

	handler, ok := manifest.GetHandler(pkg.Ecosystem)
	if !ok {
		return PackageResult{Name: name, Err: berrors.NewWorkspaceError(name, fmt.Sprintf("no manifest handler registered for ecosystem %q", pkg.Ecosystem))}
	}

	resolved := resolvedVersionsFor(pkg, versionsOf(ws))
	manifestBytes, err := manifest.BuildPackedManifest(pkg, resolved)
	if err != nil {
		return PackageResult{Name: name, Err: berrors.NewPublishError(name, "failed to build packed manifest", err)}
	}

	pkgDir := filepath.Join(ws.Root, pkg.Path)
	archive, err := packArchive(pkgDir, manifestFileFor(handler), manifestBytes)
	if err != nil {
		return PackageResult{Name: name, Err: berrors.NewPublishError(name, "failed to pack archive", err)}
	}

	if !opts.DryRun {
		if err := uploadSem.Acquire(ctx, 1); err != nil {
			return PackageResult{Name: name, Err: berrors.NewPublishError(name, "failed to acquire upload slot", err)}
		}
		err = adapter.Publish(name, archive, manifestBytes, opts.DistTag, opts.accessFor(name))
		uploadSem.Release(1)
		if err != nil {
			return PackageResult{Name: name, Err: err}
		}
	}

	if opts.PostpublishHook != nil {
		if err := opts.PostpublishHook(name); err != nil {
			return PackageResult{Name: name, Err: berrors.NewPublishError(name, "postpublish hook failed", err)}
		}
	}

	return PackageResult{Name: name, Published: !opts.DryRun}
}

// versionsOf lets resolvedVersionsFor look up any workspace package's
// current version, not just the ones being published this run, so a
// dependency left unbumped still resolves to something real.
func versionsOf(ws *workspace.Workspace) map[string]semver.Version {
	out := make(map[string]semver.Version, len(ws.Packages))
	for name, pkg := range ws.Packages {
		out[name] = pkg.CurrentVersion
	}
	return out
}

func resolvedVersionsFor(pkg *workspace.Package, all map[string]semver.Version) map[string]semver.Version {
	out := make(map[string]semver.Version, len(pkg.Dependencies))
	for _, dep := range pkg.Dependencies {
		if v, ok := all[dep.Name]; ok {
			out[dep.Name] = v
		}
	}
	return out
}

// groupsFor returns the package names to publish, in dependency order when
// topological is set (one group per dependency level), otherwise a single
// group containing every package in versions.
func groupsFor(g *graph.DependencyGraph, versions map[string]semver.Version, topological bool) ([][]string, error) {
	if !topological {
		names := make([]string, 0, len(versions))
		for name := range versions {
			names = append(names, name)
		}
		sort.Strings(names)
		return [][]string{names}, nil
	}

	levels, err := graph.TopologicalLevels(g)
	if err != nil {
		return nil, berrors.NewPublishError("", "failed to compute publish order", err)
	}

	var groups [][]string
	for _, level := range levels {
		var names []string
		for _, node := range level {
			if _, ok := versions[node.Package.Name]; ok {
				names = append(names, node.Package.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		groups = append(groups, names)
	}
	return groups, nil
}
