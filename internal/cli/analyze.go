package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/berthrelease/berth/internal/analyzer"
	"github.com/berthrelease/berth/internal/graph"
	"github.com/berthrelease/berth/internal/propagate"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show which packages would bump and by how much, without changing anything",
	Long:  "Classifies commits since the base branch, resolves affected packages, and propagates the resulting bumps across the dependency graph. Makes no changes.",
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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
	printStrategies(full)
	return nil
}

func printStrategies(strategies analyzer.StrategyMap) {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		strategy := strategies[name]
		originLabel := "explicit"
		if strategy.Origin == analyzer.OriginPropagated {
			originLabel = "propagated"
		}
		fmt.Printf("%-24s %-8s %s\n", name, strategy.BumpLevel, originLabel)
	}
}
