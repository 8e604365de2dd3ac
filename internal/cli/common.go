package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cc "github.com/leodido/go-conventionalcommits"
	"github.com/spf13/cobra"

	"github.com/berthrelease/berth/internal/classifier"
	"github.com/berthrelease/berth/internal/config"
	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/internal/orchestrator"
	"github.com/berthrelease/berth/internal/prerelease"
	"github.com/berthrelease/berth/internal/registry"
	"github.com/berthrelease/berth/internal/scm"
	"github.com/berthrelease/berth/internal/workspace"
)

// prereleaseStatePath is where NOTIFY-adjacent prerelease counters persist,
// relative to a workspace root.
const prereleaseStatePath = ".berth/prerelease.yml"

const backupDirName = ".berth-backups"

// loadConfig resolves the config file from the --config flag, or by
// discovering .berth.yaml from the current directory, and fills Cwd from
// the working directory if the file didn't set one.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return withCommitShaDefault(cfg, cwd), nil
	}

	found, err := config.FindConfig(cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(found)
	if err != nil {
		return nil, err
	}
	return withCommitShaDefault(cfg, cwd), nil
}

func withCommitShaDefault(cfg *config.Config, cwd string) *config.Config {
	if cfg.Cwd == "" {
		cfg.Cwd = cwd
	}
	if cfg.Git.CommitSha == "" {
		cfg.Git.CommitSha = "HEAD"
	}
	return cfg
}

// pipelineContext bundles every adapter and model a release run is driven
// by, built once from a loaded Config.
type pipelineContext struct {
	cfg        *config.Config
	scm        scm.Adapter
	ws         *workspace.Workspace
	graph      *graph.DependencyGraph
	classifier classifier.Classifier
	registry   registry.Adapter
	prerelease *prerelease.State
}

func buildPipelineContext(cfg *config.Config) (*pipelineContext, error) {
	ws, err := workspace.Detect(cfg.Cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to detect workspace: %w", err)
	}

	g, err := graph.Build(ws)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}

	gitAdapter, err := scm.Open(cfg.Cwd)
	if err != nil {
		return nil, err
	}

	statePath := filepath.Join(cfg.Cwd, prereleaseStatePath)
	state, err := prerelease.ReadState(statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prerelease state: %w", err)
	}

	var reg registry.Adapter
	if cfg.NoRegistry {
		reg = registry.NewNullAdapter()
	} else {
		reg = registry.NewHTTPAdapter(cfg.RegistryURL, os.Getenv("BERTH_REGISTRY_TOKEN"))
	}

	return &pipelineContext{
		cfg:        cfg,
		scm:        gitAdapter,
		ws:         ws,
		graph:      g,
		classifier: resolveClassifier(cfg),
		registry:   reg,
		prerelease: state,
	}, nil
}

func resolveClassifier(cfg *config.Config) classifier.Classifier {
	if cfg.ConventionalChangelogConfig == "" {
		return classifier.NewHeuristic()
	}
	return classifier.NewConventional(conventionalPreset(cfg.ConventionalChangelogConfig))
}

// conventionalPreset maps a configured preset name to its leodido TypeConfig.
// An unrecognised name still selects conventional mode; it just falls back
// to the bundled conventional preset rather than the narrower minimal one.
func conventionalPreset(name string) cc.TypeConfig {
	switch strings.ToLower(name) {
	case "minimal":
		return cc.TypesMinimal
	case "falco":
		return cc.TypesFalco
	case "freeform", "free-form":
		return cc.TypesFreeForm
	default:
		return cc.TypesConventional
	}
}

func (p *pipelineContext) orchestratorDeps() orchestrator.Dependencies {
	return orchestrator.Dependencies{
		SCM:             p.scm,
		Workspace:       p.ws,
		Graph:           p.graph,
		Classifier:      p.classifier,
		Registry:        p.registry,
		Plugins:         nil,
		Logger:          log,
		PrereleaseState: p.prerelease,
		BackupRoot:      filepath.Join(p.ws.Root, backupDirName),
	}
}

func (p *pipelineContext) orchestratorOptions() orchestrator.Options {
	cfg := p.cfg

	commitTemplate := cfg.AutoCommitMessage
	if commitTemplate == "chore: release" {
		// That's just WithDefaults' plain fallback; let record.Record use
		// its own richer per-release template instead of this literal.
		commitTemplate = ""
	}

	return orchestrator.Options{
		BaseBranch:            cfg.Git.BaseBranch,
		CommitSha:             cfg.Git.CommitSha,
		Remote:                cfg.Git.Remote,
		DryRun:                cfg.DryRun,
		PersistVersions:       cfg.PersistVersions,
		Prerelease:            cfg.Prerelease,
		PrereleaseTag:         cfg.PrereleaseNPMTag,
		AutoCommit:            cfg.AutoCommit,
		Push:                  cfg.Git.Push,
		CommitMessageTemplate: commitTemplate,
		NoRegistry:            cfg.NoRegistry,
		DistTag:               "latest",
		AccessFor:             cfg.ResolveAccess,
		Topological:           cfg.Topological,
		MaxConcurrentWrites:   cfg.MaxConcurrentWrites,
		Jobs:                  cfg.Jobs,
		ChangelogFilename:     cfg.ChangelogFilename,
	}
}
