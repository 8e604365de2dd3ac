// Package orchestrator drives one release run through its state machine:
// analyze, propagate, apply, publish, record, notify. A failure at each
// stage maps to one of three abort paths with a well-defined blast radius.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/berthrelease/berth/internal/analyzer"
	"github.com/berthrelease/berth/internal/applier"
	"github.com/berthrelease/berth/internal/changelog"
	"github.com/berthrelease/berth/internal/classifier"
	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/internal/logger"
	"github.com/berthrelease/berth/internal/manifest"
	"github.com/berthrelease/berth/internal/plugin"
	"github.com/berthrelease/berth/internal/prerelease"
	"github.com/berthrelease/berth/internal/propagate"
	"github.com/berthrelease/berth/internal/publish"
	"github.com/berthrelease/berth/internal/record"
	"github.com/berthrelease/berth/internal/registry"
	"github.com/berthrelease/berth/internal/scm"
	"github.com/berthrelease/berth/internal/workspace"
	"github.com/berthrelease/berth/pkg/semver"
)

// State names the orchestrator's current or terminal position in the
// pipeline.
type State string

const (
	StateInit             State = "INIT"
	StateAnalyze          State = "ANALYZE"
	StatePropagate        State = "PROPAGATE"
	StateApply            State = "APPLY"
	StatePublish          State = "PUBLISH"
	StateRecord           State = "RECORD"
	StateNotify           State = "NOTIFY"
	StateDone             State = "DONE"
	StateAbortClean       State = "ABORT_CLEAN"
	StateAbortRestore     State = "ABORT_RESTORE"
	StateAbortPostpublish State = "ABORT_POSTPUBLISH"
)

// Dependencies collects the adapters and models a run is wired against.
type Dependencies struct {
	SCM             scm.Adapter
	Workspace       *workspace.Workspace
	Graph           *graph.DependencyGraph
	Classifier      classifier.Classifier
	Registry        registry.Adapter
	Plugins         *plugin.Registry
	Logger          *logger.Logger
	PrereleaseState *prerelease.State
	BackupRoot      string
}

// Options mirrors the run-level configuration surface.
type Options struct {
	BaseBranch string
	CommitSha  string
	Remote     string

	DryRun          bool
	PersistVersions bool

	Prerelease    bool
	PrereleaseTag string

	AutoCommit            bool
	Push                  bool
	CommitMessageTemplate string

	NoRegistry bool
	DistTag    string

	// AccessFor resolves the publish access level ("public"/"restricted")
	// for a given package name; threaded straight through to
	// publish.Options.AccessFor so the decision is made per package rather
	// than once for the whole run. Defaults to "public" for every package
	// when nil.
	AccessFor func(name string) string

	Topological         bool
	MaxConcurrentWrites int
	Jobs                int

	ChangelogFilename string
}

func (o Options) changelogFilename() string {
	if o.ChangelogFilename == "" {
		return "CHANGELOG.md"
	}
	return o.ChangelogFilename
}

func (o Options) distTag() string {
	if o.Prerelease && o.PrereleaseTag != "" {
		return o.PrereleaseTag
	}
	if o.DistTag == "" {
		return "latest"
	}
	return o.DistTag
}

// Outcome is the final report of a run: its terminal state, every release
// produced (if any survived to RECORD), and any non-fatal plugin errors.
type Outcome struct {
	State        State
	Releases     []record.Release
	PluginErrors []error
}

// Run executes one full release pipeline.
func Run(ctx context.Context, deps Dependencies, opts Options) (*Outcome, error) {
	outcome := &Outcome{State: StateInit}

	// ANALYZE
	strategies, err := analyzer.Analyze(deps.SCM, deps.Workspace, deps.Classifier, opts.BaseBranch, opts.CommitSha)
	if err != nil {
		outcome.State = StateAbortClean
		return outcome, err
	}
	if len(strategies) == 0 {
		outcome.State = StateDone
		return outcome, nil
	}

	// PROPAGATE
	if err := deps.Workspace.ValidateDependencies(); err != nil {
		outcome.State = StateAbortClean
		return outcome, err
	}
	if hasCycles, cycles := graph.DetectCycles(deps.Graph); hasCycles {
		outcome.State = StateAbortClean
		return outcome, berrors.NewCycleError(flattenCycles(cycles))
	}
	full := propagate.Propagate(deps.Graph, strategies)

	// APPLY, guarded by a manifest snapshot for restore-on-failure.
	backupKey, err := manifest.NewBackupKey(runTimestamp(ctx))
	if err != nil {
		outcome.State = StateAbortClean
		return outcome, berrors.NewWorkspaceError("", fmt.Sprintf("failed to allocate backup key: %v", err))
	}
	store := manifest.NewStore(deps.BackupRoot, backupKey)

	manifestPaths, err := manifestPathsFor(deps.Workspace, full)
	if err != nil {
		outcome.State = StateAbortClean
		return outcome, err
	}
	if err := store.Snapshot(manifestPaths); err != nil {
		outcome.State = StateAbortClean
		return outcome, err
	}

	if err := fetchRegistryVersions(deps.Workspace, deps.Registry, full, opts.distTag()); err != nil {
		_ = store.Restore(manifestPaths)
		outcome.State = StateAbortRestore
		return outcome, err
	}

	applyResult, err := applier.Apply(deps.Workspace, full, applier.Options{
		Prerelease: opts.Prerelease,
		Tag:        opts.PrereleaseTag,
		State:      deps.PrereleaseState,
	})
	if err != nil {
		_ = store.Restore(manifestPaths)
		outcome.State = StateAbortRestore
		return outcome, err
	}

	if err := writeChangelogs(deps.Workspace, full, applyResult, opts.changelogFilename()); err != nil {
		_ = store.Restore(manifestPaths)
		outcome.State = StateAbortRestore
		return outcome, err
	}

	// PUBLISH
	releaseVersions := make(map[string]semver.Version, len(applyResult))
	for name, r := range applyResult {
		releaseVersions[name] = r.NewVersion
	}

	publishResult := publish.Run(ctx, deps.Workspace, deps.Graph, releaseVersions, deps.Registry, publish.Options{
		DryRun:              opts.DryRun,
		NoRegistry:          opts.NoRegistry,
		DistTag:             opts.distTag(),
		AccessFor:           opts.AccessFor,
		Topological:         opts.Topological,
		MaxConcurrentWrites: opts.MaxConcurrentWrites,
		Jobs:                opts.Jobs,
	})
	if publishResult.Err != nil {
		_ = store.Restore(manifestPaths)
		outcome.State = StateAbortRestore
		return outcome, publishResult.Err
	}

	releases := buildReleases(deps.Workspace, applyResult)
	outcome.Releases = releases

	// RECORD
	touched := touchedPaths(deps.Workspace, full, opts.changelogFilename())
	recordErr := record.Record(deps.SCM, releases, touched, record.Options{
		AutoCommit:            opts.AutoCommit,
		Push:                  opts.Push,
		DryRun:                opts.DryRun,
		Remote:                opts.Remote,
		CommitMessageTemplate: opts.CommitMessageTemplate,
	})
	if recordErr != nil {
		if anyTagExists(deps.SCM, releases) {
			// Archives are already uploaded and at least one tag is
			// durable: restoring manifests is still safe (local-only), but
			// we must not pretend the release never happened.
			_ = store.Restore(manifestPaths)
			outcome.State = StateAbortPostpublish
		} else {
			_ = store.Restore(manifestPaths)
			outcome.State = StateAbortRestore
		}
		return outcome, recordErr
	}

	if !opts.PersistVersions {
		if err := store.Restore(manifestPaths); err != nil {
			outcome.State = StateAbortPostpublish
			return outcome, err
		}
	} else {
		_ = store.Discard()
	}

	// NOTIFY
	outcome.State = StateNotify
	if deps.Plugins != nil {
		outcome.PluginErrors = plugin.NotifyReleaseAvailable(deps.Plugins, deps.Logger, releases)
	}

	outcome.State = StateDone
	return outcome, nil
}

func runTimestamp(ctx context.Context) time.Time {
	if v := ctx.Value(timestampKey{}); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Now()
}

type timestampKey struct{}

func anyTagExists(adapter scm.Adapter, releases []record.Release) bool {
	for _, r := range releases {
		if r.Private || !r.Published {
			continue
		}
		if _, exists, err := adapter.TagExists(r.TagName); err == nil && exists {
			return true
		}
	}
	return false
}

func flattenCycles(cycles [][]string) []string {
	var out []string
	for _, c := range cycles {
		out = append(out, c...)
	}
	return out
}

func manifestPathsFor(ws *workspace.Workspace, strategies analyzer.StrategyMap) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for name := range strategies {
		pkg, ok := ws.Get(name)
		if !ok {
			return nil, berrors.NewWorkspaceError(name, "strategy references a package not present in the workspace")
		}
		handler, ok := manifest.GetHandler(pkg.Ecosystem)
		if !ok {
			return nil, berrors.NewWorkspaceError(name, fmt.Sprintf("no manifest handler registered for ecosystem %q", pkg.Ecosystem))
		}
		path := filepath.Join(ws.Root, pkg.Path, handler.ManifestFile())
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	// Any consumer whose dependency range might be rewritten also needs a
	// snapshot, even if it has no strategy entry of its own.
	for _, pkg := range ws.All() {
		for _, dep := range pkg.Dependencies {
			if _, bumped := strategies[dep.Name]; !bumped {
				continue
			}
			handler, ok := manifest.GetHandler(pkg.Ecosystem)
			if !ok {
				continue
			}
			path := filepath.Join(ws.Root, pkg.Path, handler.ManifestFile())
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func fetchRegistryVersions(ws *workspace.Workspace, adapter registry.Adapter, strategies analyzer.StrategyMap, distTag string) error {
	for name := range strategies {
		pkg, ok := ws.Get(name)
		if !ok {
			continue
		}
		version, found, err := adapter.FetchVersion(name, distTag)
		if err != nil {
			return berrors.NewPublishError(name, "failed to fetch registry version", err)
		}
		if !found {
			version = semver.Zero()
		}
		pkg.RegistryVersion = version
	}
	return nil
}

func writeChangelogs(ws *workspace.Workspace, strategies analyzer.StrategyMap, applied applier.Result, filename string) error {
	now := time.Now()
	for name, strategy := range strategies {
		pkg, ok := ws.Get(name)
		if !ok {
			continue
		}
		result, ok := applied[name]
		if !ok {
			continue
		}
		fragment := changelog.RenderFragment(result.NewVersion, now, strategy)
		path := filepath.Join(ws.Root, pkg.Path, filename)
		if err := changelog.Splice(path, fragment); err != nil {
			return err
		}
	}
	return nil
}

// buildReleases turns the applied version changes into release
// descriptors. Reaching this point means publish.Run returned no error, so
// every entry in applied counts as released for tagging purposes
// regardless of whether an upload actually happened (dry-run and
// registry-skip both still version, changelog, and tag).
func buildReleases(ws *workspace.Workspace, applied applier.Result) []record.Release {
	var releases []record.Release
	for name, result := range applied {
		pkg, ok := ws.Get(name)
		if !ok {
			continue
		}
		releases = append(releases, record.Release{
			Name:            name,
			PreviousVersion: result.PreviousVersion,
			NewVersion:      result.NewVersion,
			TagName:         fmt.Sprintf("%s@%s", name, result.NewVersion.String()),
			Private:         pkg.Private,
			Published:       true,
		})
	}
	sort.Slice(releases, func(i, j int) bool { return releases[i].Name < releases[j].Name })
	return releases
}

func touchedPaths(ws *workspace.Workspace, strategies analyzer.StrategyMap, changelogFilename string) []string {
	var paths []string
	for name := range strategies {
		pkg, ok := ws.Get(name)
		if !ok {
			continue
		}
		handler, ok := manifest.GetHandler(pkg.Ecosystem)
		if !ok {
			continue
		}
		paths = append(paths, filepath.Join(pkg.Path, handler.ManifestFile()))
		paths = append(paths, filepath.Join(pkg.Path, changelogFilename))
	}
	sort.Strings(paths)
	return paths
}
