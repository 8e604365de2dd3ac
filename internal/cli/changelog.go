package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/berthrelease/berth/internal/analyzer"
	"github.com/berthrelease/berth/internal/changelog"
	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/internal/propagate"
	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Preview the changelog fragment each affected package would get",
	Long:  "Classifies commits since the base branch and renders the changelog fragment each affected package would receive, without writing anything to disk.",
	RunE:  runChangelogPreview,
}

func init() {
	changelogCmd.Flags().Bool("raw", false, "print raw markdown instead of rendering it")
}

func runChangelogPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pc, err := buildPipelineContext(cfg)
	if err != nil {
		return err
	}

	strategies, err := analyzer.Analyze(pc.scm, pc.ws, pc.classifier, cfg.Git.BaseBranch, cfg.Git.CommitSha)
	if err != nil {
		return err
	}
	if len(strategies) == 0 {
		fmt.Println("No commits since the base branch affect a versioned package.")
		return nil
	}

	if hasCycles, cycles := graph.DetectCycles(pc.graph); hasCycles {
		return fmt.Errorf("dependency graph has a cycle: %v", cycles)
	}
	full := propagate.Propagate(pc.graph, strategies)

	names := make([]string, 0, len(full))
	for name := range full {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	raw, _ := cmd.Flags().GetBool("raw")

	var combined string
	for _, name := range names {
		pkg, ok := pc.ws.Get(name)
		if !ok {
			continue
		}
		strategy := full[name]

		version, _, err := pc.registry.FetchVersion(name, "latest")
		if err != nil {
			return fmt.Errorf("failed to fetch registry version for %s: %w", name, err)
		}

		nextLevel, err := bumpLevelFor(strategy.BumpLevel)
		if err != nil {
			return err
		}
		next, err := version.Bump(nextLevel)
		if err != nil {
			return fmt.Errorf("failed to compute next version for %s: %w", name, err)
		}

		fragment := changelog.RenderFragment(next, now, strategy)
		combined += fmt.Sprintf("## %s\n\n%s", pkg.Name, fragment)
	}

	if raw {
		fmt.Print(combined)
		return nil
	}
	rendered, err := renderMarkdown(combined)
	if err != nil {
		fmt.Print(combined)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func bumpLevelFor(ct types.ChangeType) (semver.BumpLevel, error) {
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
