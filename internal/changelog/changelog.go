// Package changelog renders a per-package changelog fragment from a
// version strategy's driving commits and splices it into the project's
// changelog file at a fixed sentinel.
package changelog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/berthrelease/berth/internal/analyzer"
	berrors "github.com/berthrelease/berth/internal/errors"
	"github.com/berthrelease/berth/pkg/semver"
)

// Sentinel marks the insertion point in a changelog file. New fragments
// are spliced in immediately after it, pushing prior content down.
const Sentinel = "<!-- MONODEPLOY:BELOW -->"

const defaultHeader = "# Changelog\n\n" + Sentinel + "\n"

var (
	headerBreakingRe = regexp.MustCompile(`(?i)^\w+(\([^)]*\))?!:\s*(.*)$`)
	headerTypeRe     = regexp.MustCompile(`(?i)^(\w+)(\([^)]*\))?:\s*(.*)$`)
)

var sectionOrder = []string{"Breaking Changes", "Features", "Bug Fixes", "Performance"}

// RenderFragment renders the changelog section for one package's release:
// a "## <version> (<date>)" header followed by its categorized commits, or
// a stub line when the strategy was propagated rather than explicit.
func RenderFragment(version semver.Version, date time.Time, strategy *analyzer.Strategy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s)\n\n", version.String(), date.Format("2006-01-02"))

	if strategy.Origin == analyzer.OriginPropagated {
		b.WriteString("- Bumped due to updated dependencies.\n\n")
		return b.String()
	}

	grouped := groupByCategory(strategy.DrivingCommits)
	wrote := false
	for _, section := range sectionOrder {
		entries := grouped[section]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", section)
		for _, entry := range entries {
			fmt.Fprintf(&b, "- %s\n", entry)
		}
		b.WriteString("\n")
		wrote = true
	}
	if !wrote {
		b.WriteString("- Maintenance changes.\n\n")
	}
	return b.String()
}

func groupByCategory(messages []string) map[string][]string {
	grouped := make(map[string][]string)
	for _, message := range messages {
		header := firstLine(message)
		section, summary := categorize(header)
		if section == "" {
			continue
		}
		grouped[section] = append(grouped[section], summary)
	}
	return grouped
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}

// categorize maps a commit header to a changelog section and the summary
// text to display, or ("", "") if the commit type doesn't surface in a
// changelog (e.g. chore, test, ci).
func categorize(header string) (section, summary string) {
	if m := headerBreakingRe.FindStringSubmatch(header); m != nil {
		return "Breaking Changes", m[2]
	}

	m := headerTypeRe.FindStringSubmatch(header)
	if m == nil {
		return "", ""
	}
	summary = m[3]

	switch strings.ToLower(m[1]) {
	case "feat":
		return "Features", summary
	case "fix":
		return "Bug Fixes", summary
	case "perf":
		return "Performance", summary
	default:
		return "", ""
	}
}

// Splice inserts fragment immediately after Sentinel in the changelog file
// at path, creating the file with a default header if it doesn't exist.
func Splice(path, fragment string) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return berrors.NewWorkspaceError("", fmt.Sprintf("failed to read changelog %s: %v", path, err))
		}
		return writeAtomic(path, defaultHeader+fragment)
	}

	content := string(existing)
	if strings.Count(content, Sentinel) > 1 {
		return berrors.NewWorkspaceError("", fmt.Sprintf("changelog %s has more than one sentinel; ambiguous insertion point", path))
	}
	idx := strings.Index(content, Sentinel)
	if idx < 0 {
		return berrors.NewWorkspaceError("", fmt.Sprintf("changelog %s is missing its sentinel", path))
	}

	insertAt := idx + len(Sentinel)
	before := content[:insertAt]
	after := content[insertAt:]

	var spliced strings.Builder
	spliced.WriteString(before)
	spliced.WriteString("\n")
	spliced.WriteString(fragment)
	spliced.WriteString(strings.TrimPrefix(after, "\n"))

	return writeAtomic(path, spliced.String())
}

func writeAtomic(path, content string) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(content), 0644); err != nil {
		return berrors.NewWorkspaceError("", fmt.Sprintf("failed to write temp changelog %s: %v", tempPath, err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return berrors.NewWorkspaceError("", fmt.Sprintf("failed to rename temp changelog %s: %v", tempPath, err))
	}
	return nil
}
