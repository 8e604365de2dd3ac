package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/berthrelease/berth/internal/orchestrator"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Classify commits, bump versions, publish, and record a release",
	Long:  "Runs the full release pipeline: analyze commits since the base branch, propagate bumps across the dependency graph, apply versions, publish packages, and record the outcome.",
	RunE:  runRelease,
}

func init() {
	releaseCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	releaseCmd.Flags().Bool("dry-run", false, "run the full pipeline without publishing, tagging, or pushing")
}

func runRelease(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		cfg.DryRun = true
	}

	pc, err := buildPipelineContext(cfg)
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		var confirm bool
		mode := "release"
		if cfg.DryRun {
			mode = "dry-run release"
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Run a %s for %s?", mode, pc.ws.Root)).
					Description("This classifies new commits, bumps affected package versions, and publishes them.").
					Value(&confirm),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !confirm {
			fmt.Println("Release cancelled.")
			return nil
		}
	}

	outcome, err := orchestrator.Run(context.Background(), pc.orchestratorDeps(), pc.orchestratorOptions())
	if err != nil {
		log.Error("release run failed", "state", string(outcome.State), "error", err)
		return err
	}

	printOutcome(outcome)
	return nil
}

func printOutcome(outcome *orchestrator.Outcome) {
	if len(outcome.Releases) == 0 {
		fmt.Println("No packages needed a release.")
		return
	}

	var md string
	md += "# Release summary\n\n"
	for _, release := range outcome.Releases {
		md += fmt.Sprintf("- **%s**: %s -> %s (tag `%s`)\n", release.Name, release.PreviousVersion.String(), release.NewVersion.String(), release.TagName)
	}

	rendered, err := renderMarkdown(md)
	if err != nil {
		fmt.Print(md)
	} else {
		fmt.Print(rendered)
	}

	for _, pluginErr := range outcome.PluginErrors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", pluginErr)
	}
}

func renderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render(content)
}
