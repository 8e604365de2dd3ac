// Package classifier maps a commit message, or a set of commit messages,
// to a semantic-version bump level.
package classifier

import (
	"regexp"
	"strings"

	"github.com/berthrelease/berth/pkg/types"
)

// Classifier maps commit messages to bump levels.
type Classifier interface {
	// ClassifyCommit returns the bump level implied by a single commit
	// message.
	ClassifyCommit(message string) types.ChangeType

	// ClassifySet returns the bump level for a set of commit messages
	// taken together: the per-commit maximum.
	ClassifySet(messages []string) types.ChangeType
}

var headerBreakingRe = regexp.MustCompile(`(?i)^\w+(\([^)]*\))?!:`)

// HeuristicClassifier is the default mode: a plain regex/substring
// heuristic on the commit message header, with no external
// conventional-commits preset.
type HeuristicClassifier struct{}

// NewHeuristic returns the default-mode classifier.
func NewHeuristic() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (c *HeuristicClassifier) ClassifyCommit(message string) types.ChangeType {
	header := firstLine(message)

	if strings.Contains(message, "BREAKING CHANGE") || headerBreakingRe.MatchString(header) {
		return types.ChangeTypeMajor
	}

	switch headerType(header) {
	case "feat":
		return types.ChangeTypeMinor
	case "fix", "perf":
		return types.ChangeTypePatch
	default:
		return types.ChangeTypeNone
	}
}

func (c *HeuristicClassifier) ClassifySet(messages []string) types.ChangeType {
	result := types.ChangeTypeNone
	for _, msg := range messages {
		result = types.Max(result, c.ClassifyCommit(msg))
	}
	return result
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}

// headerType extracts the conventional-commit type token from a header
// line, e.g. "feat(api): add thing" -> "feat", "fix!: patch it" -> "fix".
func headerType(header string) string {
	colon := strings.IndexByte(header, ':')
	if colon < 0 {
		return ""
	}
	typePart := header[:colon]
	typePart = strings.TrimSuffix(typePart, "!")
	if paren := strings.IndexByte(typePart, '('); paren >= 0 {
		typePart = typePart[:paren]
	}
	return strings.ToLower(strings.TrimSpace(typePart))
}
