package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	gitPkg "github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/berthrelease/berth/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starting .berth.yaml for this repository",
	Long:  "Writes a .berth.yaml config file in the current directory, pre-filled from auto-detected values where possible.",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("yes", false, "skip the confirmation prompts and accept detected defaults")
	RootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	remote := detectRemoteName(cwd)
	baseBranch := "main"
	registryURL := ""
	noRegistry := false

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewNote().
					Title("Berth init").
					Description("A few questions to write your starting configuration."),
				huh.NewInput().
					Title("Git remote").
					Value(&remote).
					Placeholder("origin"),
				huh.NewInput().
					Title("Base branch to diff against").
					Value(&baseBranch).
					Placeholder("main"),
				huh.NewConfirm().
					Title("Skip the package registry entirely?").
					Description("Choose this if you only want version bumps, changelogs, and tags, with no publish step.").
					Value(&noRegistry),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to get init answers: %w", err)
		}

		if !noRegistry {
			registryForm := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Registry URL").
						Value(&registryURL).
						Placeholder("https://registry.npmjs.org"),
				),
			)
			if err := registryForm.Run(); err != nil {
				return fmt.Errorf("failed to get registry URL: %w", err)
			}
		}
	}

	if remote == "" {
		remote = "origin"
	}
	if baseBranch == "" {
		baseBranch = "main"
	}

	cfg := config.Config{
		Git: config.GitConfig{
			Remote:     remote,
			BaseBranch: baseBranch,
		},
		RegistryURL: registryURL,
		NoRegistry:  noRegistry,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	path := filepath.Join(cwd, ".berth.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func detectRemoteName(cwd string) string {
	repo, err := gitPkg.PlainOpen(cwd)
	if err != nil {
		return ""
	}
	remotes, err := repo.Remotes()
	if err != nil || len(remotes) == 0 {
		return ""
	}
	for _, r := range remotes {
		if strings.Contains(r.Config().Name, "origin") {
			return r.Config().Name
		}
	}
	return remotes[0].Config().Name
}
