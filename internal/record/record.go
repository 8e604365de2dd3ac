// Package record stages the manifests and changelog a release touched,
// commits them, tags every released package, and pushes the result.
package record

import (
	"fmt"
	"strings"
	"text/template"

	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/internal/logger"
	"github.com/berthrelease/berth/internal/scm"
	"github.com/berthrelease/berth/pkg/semver"
)

// Release is the outcome of one package's release, handed off between the
// publish, record, and notification stages.
type Release struct {
	Name               string
	PreviousVersion    semver.Version
	NewVersion         semver.Version
	ChangelogFragment  string
	TagName            string
	Private            bool
	Published          bool
}

// Options configures a Record invocation.
type Options struct {
	AutoCommit            bool
	Push                  bool
	DryRun                bool
	Remote                string
	CommitMessageTemplate string // text/template source; defaults to DefaultCommitMessageTemplate
}

// DefaultCommitMessageTemplate renders a conventional release commit
// summarizing every released package.
const DefaultCommitMessageTemplate = `chore: release
{{range .Releases}}
- {{.Name}}: {{.NewVersion}}
{{- end}}
`

// Record stages touched paths, commits, tags every released non-private
// package, and pushes, according to opts. Dry-run logs the tags that would
// have been pushed without creating or pushing anything.
func Record(adapter scm.Adapter, releases []Release, touchedPaths []string, opts Options) error {
	if opts.AutoCommit && !opts.DryRun {
		if len(touchedPaths) > 0 {
			if err := adapter.AddPaths(touchedPaths); err != nil {
				return berrors.NewRecordError(fmt.Sprintf("failed to stage release files: %v", err), err)
			}
		}

		message, err := renderCommitMessage(releases, opts.CommitMessageTemplate)
		if err != nil {
			return berrors.NewRecordError("failed to render commit message", err)
		}
		if _, err := adapter.Commit(message); err != nil {
			return berrors.NewRecordError(fmt.Sprintf("failed to commit release: %v", err), err)
		}
	}

	var tagRefs []string
	for _, release := range releases {
		if release.Private || !release.Published {
			continue
		}

		if opts.DryRun {
			tagRefs = append(tagRefs, "refs/tags/"+release.TagName)
			continue
		}

		tagMessage := fmt.Sprintf("%s %s", release.Name, release.NewVersion.String())
		if err := adapter.CreateAnnotatedTag(release.TagName, tagMessage); err != nil {
			return berrors.NewRecordError(fmt.Sprintf("failed to tag %s: %v", release.Name, err), err)
		}
		tagRefs = append(tagRefs, "refs/tags/"+release.TagName)
	}

	if !opts.Push || len(tagRefs) == 0 {
		return nil
	}
	if opts.DryRun {
		for _, ref := range tagRefs {
			logger.Get().Info("dry run: tag would be pushed", "ref", ref, "remote", opts.Remote)
		}
		return nil
	}

	refs := tagRefs
	if opts.AutoCommit {
		refs = append([]string{"HEAD"}, tagRefs...)
	}
	if err := adapter.Push(opts.Remote, refs); err != nil {
		return berrors.NewRecordError(fmt.Sprintf("failed to push release: %v", err), err)
	}
	return nil
}

func renderCommitMessage(releases []Release, templateSource string) (string, error) {
	if templateSource == "" {
		templateSource = DefaultCommitMessageTemplate
	}

	tmpl, err := template.New("commit").Parse(templateSource)
	if err != nil {
		return "", fmt.Errorf("failed to parse commit message template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, struct{ Releases []Release }{Releases: releases}); err != nil {
		return "", fmt.Errorf("failed to render commit message template: %w", err)
	}
	return b.String(), nil
}
