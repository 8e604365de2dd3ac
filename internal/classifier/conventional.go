package classifier

import (
	cc "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/berthrelease/berth/pkg/types"
)

// ConventionalClassifier is the conventional mode: a named
// conventional-commits preset yields per-commit {breaking, feature, patch}
// classification, and the aggregate set-level bump follows breaking>0 →
// major, else features>0 → minor, else patches>0 → patch, else none.
type ConventionalClassifier struct {
	typeConfig cc.TypeConfig
}

// NewConventional returns a conventional-mode classifier parameterised by a
// named type preset (e.g. cc.TypesConventional).
func NewConventional(typeConfig cc.TypeConfig) *ConventionalClassifier {
	return &ConventionalClassifier{typeConfig: typeConfig}
}

func (c *ConventionalClassifier) machine() cc.Machine {
	return parser.NewMachine(cc.WithTypes(c.typeConfig))
}

func (c *ConventionalClassifier) ClassifyCommit(message string) types.ChangeType {
	msg, err := c.machine().Parse([]byte(message))
	if err != nil || !msg.Ok() {
		return types.ChangeTypeNone
	}

	switch msg.VersionBump(cc.DefaultStrategy) {
	case cc.MajorVersion:
		return types.ChangeTypeMajor
	case cc.MinorVersion:
		return types.ChangeTypeMinor
	case cc.PatchVersion:
		return types.ChangeTypePatch
	default:
		return types.ChangeTypeNone
	}
}

// counts holds the {breaking, features, patches} tally for a commit set.
type counts struct {
	breaking int
	features int
	patches  int
}

func (c *ConventionalClassifier) tally(messages []string) counts {
	var result counts
	m := c.machine()
	for _, message := range messages {
		msg, err := m.Parse([]byte(message))
		if err != nil || !msg.Ok() {
			continue
		}
		if msg.IsBreakingChange() {
			result.breaking++
			continue
		}
		if msg.IsFeat() {
			result.features++
			continue
		}
		if msg.IsFix() {
			result.patches++
		}
	}
	return result
}

func (c *ConventionalClassifier) ClassifySet(messages []string) types.ChangeType {
	tally := c.tally(messages)
	switch {
	case tally.breaking > 0:
		return types.ChangeTypeMajor
	case tally.features > 0:
		return types.ChangeTypeMinor
	case tally.patches > 0:
		return types.ChangeTypePatch
	default:
		return types.ChangeTypeNone
	}
}
