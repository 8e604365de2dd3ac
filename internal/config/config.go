// Package config defines the option set the release pipeline is driven by
// and loads it with Viper.
package config

import (
	"strings"

	berrors "github.com/berthrelease/berth/internal/errors"
)

// GitConfig groups the git.* options.
type GitConfig struct {
	BaseBranch string `mapstructure:"baseBranch" yaml:"baseBranch"`
	CommitSha  string `mapstructure:"commitSha" yaml:"commitSha"`
	Remote     string `mapstructure:"remote" yaml:"remote"`
	Push       bool   `mapstructure:"push" yaml:"push"`
}

// Config is the full recognised option set a release invocation is driven
// by.
type Config struct {
	Cwd string `mapstructure:"cwd" yaml:"cwd"`

	DryRun bool      `mapstructure:"dryRun" yaml:"dryRun"`
	Git    GitConfig `mapstructure:"git" yaml:"git"`

	// ConventionalChangelogConfig names a preset for conventional-commit
	// classification; empty selects the default heuristic mode.
	ConventionalChangelogConfig string `mapstructure:"conventionalChangelogConfig" yaml:"conventionalChangelogConfig"`

	ChangesetFilename string `mapstructure:"changesetFilename" yaml:"changesetFilename"`
	ChangelogFilename string `mapstructure:"changelogFilename" yaml:"changelogFilename"`

	// Access is "public" or "restricted". Empty means "resolve per package"
	// via ResolveAccess.
	Access string `mapstructure:"access" yaml:"access"`

	RegistryURL      string `mapstructure:"registryUrl" yaml:"registryUrl"`
	NoRegistry       bool   `mapstructure:"noRegistry" yaml:"noRegistry"`
	PersistVersions  bool   `mapstructure:"persistVersions" yaml:"persistVersions"`

	MaxConcurrentWrites int `mapstructure:"maxConcurrentWrites" yaml:"maxConcurrentWrites"`
	Jobs                int `mapstructure:"jobs" yaml:"jobs"`

	Topological    bool `mapstructure:"topological" yaml:"topological"`
	TopologicalDev bool `mapstructure:"topologicalDev" yaml:"topologicalDev"`

	Prerelease       bool   `mapstructure:"prerelease" yaml:"prerelease"`
	PrereleaseNPMTag string `mapstructure:"prereleaseNPMTag" yaml:"prereleaseNPMTag"`

	AutoCommit        bool   `mapstructure:"autoCommit" yaml:"autoCommit"`
	AutoCommitMessage string `mapstructure:"autoCommitMessage" yaml:"autoCommitMessage"`

	Plugins []string `mapstructure:"plugins" yaml:"plugins"`
}

// WithDefaults returns a copy of cfg with every zero-valued option replaced
// by its default: jobs unbounded (0 means "no cap" to the publish
// scheduler), maxConcurrentWrites = 1, git.remote = "origin",
// git.baseBranch = "main", changelogFilename = "CHANGELOG.md", prerelease
// tag "rc".
func (c Config) WithDefaults() Config {
	result := c
	if result.Git.Remote == "" {
		result.Git.Remote = "origin"
	}
	if result.Git.BaseBranch == "" {
		result.Git.BaseBranch = "main"
	}
	if result.ChangelogFilename == "" {
		result.ChangelogFilename = "CHANGELOG.md"
	}
	if result.MaxConcurrentWrites == 0 {
		result.MaxConcurrentWrites = 1
	}
	if result.PrereleaseNPMTag == "" {
		result.PrereleaseNPMTag = "rc"
	}
	if result.AutoCommitMessage == "" {
		result.AutoCommitMessage = "chore: release"
	}
	return result
}

// Validate rejects configuration option combinations the core cannot act
// on, surfacing a *errors.ConfigurationError.
func (c Config) Validate() error {
	if c.Cwd == "" {
		return berrors.NewConfigurationError("cwd", "workspace root must be set", nil)
	}
	if c.Access != "" && c.Access != "public" && c.Access != "restricted" {
		return berrors.NewConfigurationError("access", "must be \"public\" or \"restricted\"", nil)
	}
	if c.MaxConcurrentWrites < 0 {
		return berrors.NewConfigurationError("maxConcurrentWrites", "must not be negative", nil)
	}
	if c.Jobs < 0 {
		return berrors.NewConfigurationError("jobs", "must not be negative", nil)
	}
	if !c.NoRegistry && c.RegistryURL == "" {
		return berrors.NewConfigurationError("registryUrl", "required unless noRegistry is set", nil)
	}
	return nil
}

// ResolveAccess computes the concrete access level a publish call uses for
// a given package name: the configured Access if set, otherwise
// "restricted" for scoped names (leading "@") and "public" otherwise. This
// is computed even in dry-run / no-registry modes so it can still be
// logged.
func (c Config) ResolveAccess(packageName string) string {
	if c.Access != "" {
		return c.Access
	}
	if strings.HasPrefix(packageName, "@") {
		return "restricted"
	}
	return "public"
}
