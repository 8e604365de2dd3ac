package manifest

import (
	"fmt"
	"strings"

	mastersemver "github.com/Masterminds/semver/v3"

	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

// RewriteOnDisk computes the range string to persist to a manifest file for
// a dependency bumped to newVersion, given the range's original operator.
// Workspace-protocol specifiers are preserved literally on disk.
func RewriteOnDisk(operator types.RangeOperator, current string, newVersion semver.Version) string {
	if operator == types.RangeWorkspace {
		return current
	}
	return formatRange(operator, newVersion)
}

// RewriteForPack computes the fully-resolved range used in the in-memory
// manifest that gets archived for upload: even a workspace protocol
// specifier resolves to a concrete range here, since a published archive
// cannot reference a workspace-local sibling.
func RewriteForPack(operator types.RangeOperator, newVersion semver.Version) string {
	if operator == types.RangeWorkspace {
		return formatRange(types.RangeCaret, newVersion)
	}
	return formatRange(operator, newVersion)
}

func formatRange(operator types.RangeOperator, v semver.Version) string {
	switch operator {
	case types.RangeCaret:
		return fmt.Sprintf("^%s", v.String())
	case types.RangeTilde:
		return fmt.Sprintf("~%s", v.String())
	case types.RangeExact:
		return v.String()
	default:
		return fmt.Sprintf("^%s", v.String())
	}
}

// Satisfies reports whether the given range (as it will appear on disk or
// in the archive) is satisfied by the provider's new version. Backed by
// Masterminds/semver/v3, which understands caret/tilde/exact range syntax.
func Satisfies(rangeStr string, version semver.Version) (bool, error) {
	if strings.HasPrefix(rangeStr, "workspace:") {
		return true, nil
	}

	constraint, err := mastersemver.NewConstraint(rangeStr)
	if err != nil {
		return false, fmt.Errorf("invalid dependency range %q: %w", rangeStr, err)
	}

	v, err := mastersemver.NewVersion(version.String())
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version.String(), err)
	}

	return constraint.Check(v), nil
}
