package types

import "fmt"

// ChangeType represents a semantic-version bump level, totally ordered:
// none < patch < minor < major.
type ChangeType string

const (
	// ChangeTypeNone means no version change is warranted.
	ChangeTypeNone ChangeType = "none"

	// ChangeTypePatch represents a patch-level change (0.0.X)
	ChangeTypePatch ChangeType = "patch"

	// ChangeTypeMinor represents a minor-level change (0.X.0)
	ChangeTypeMinor ChangeType = "minor"

	// ChangeTypeMajor represents a major-level change (X.0.0)
	ChangeTypeMajor ChangeType = "major"
)

// String returns the string representation of the change type
func (ct ChangeType) String() string {
	return string(ct)
}

// Validate checks if the change type is valid
func (ct ChangeType) Validate() error {
	switch ct {
	case ChangeTypeNone, ChangeTypePatch, ChangeTypeMinor, ChangeTypeMajor:
		return nil
	default:
		return fmt.Errorf("invalid change type: %s (must be none, patch, minor, or major)", ct)
	}
}

// Priority returns the numeric priority of the change type.
// Higher values indicate more significant changes: none=0, patch=1, minor=2, major=3.
func (ct ChangeType) Priority() int {
	switch ct {
	case ChangeTypePatch:
		return 1
	case ChangeTypeMinor:
		return 2
	case ChangeTypeMajor:
		return 3
	default:
		return 0
	}
}

// Max returns the higher-priority of two change types.
func Max(a, b ChangeType) ChangeType {
	if a.Priority() >= b.Priority() {
		return a
	}
	return b
}

// ParseChangeType parses a string into a ChangeType
func ParseChangeType(s string) (ChangeType, error) {
	ct := ChangeType(s)
	if err := ct.Validate(); err != nil {
		return "", err
	}
	return ct, nil
}

// DependencyKind identifies the role a declared dependency plays: runtime
// dependencies, development-only dependencies, peer dependencies, and
// optional dependencies.
type DependencyKind string

const (
	DependencyRuntime  DependencyKind = "runtime"
	DependencyDev      DependencyKind = "development"
	DependencyPeer     DependencyKind = "peer"
	DependencyOptional DependencyKind = "optional"
)

// RangeOperator identifies the notation a declared dependency range uses,
// so the version applier can rewrite a range using its original operator.
type RangeOperator string

const (
	RangeCaret     RangeOperator = "caret"     // ^1.2.3
	RangeTilde     RangeOperator = "tilde"     // ~1.2.3
	RangeExact     RangeOperator = "exact"     // 1.2.3
	RangeWorkspace RangeOperator = "workspace" // workspace:*
)
