package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berthrelease/berth/pkg/semver"
	"github.com/berthrelease/berth/pkg/types"
)

func TestRewriteOnDisk(t *testing.T) {
	v := semver.New(1, 3, 0)

	tests := []struct {
		name     string
		operator types.RangeOperator
		current  string
		want     string
	}{
		{"caret", types.RangeCaret, "^1.2.0", "^1.3.0"},
		{"tilde", types.RangeTilde, "~1.2.0", "~1.3.0"},
		{"exact", types.RangeExact, "1.2.0", "1.3.0"},
		{"workspace preserved", types.RangeWorkspace, "workspace:*", "workspace:*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteOnDisk(tt.operator, tt.current, v))
		})
	}
}

func TestRewriteForPack(t *testing.T) {
	v := semver.New(1, 3, 0)

	tests := []struct {
		name     string
		operator types.RangeOperator
		want     string
	}{
		{"caret", types.RangeCaret, "^1.3.0"},
		{"tilde", types.RangeTilde, "~1.3.0"},
		{"exact", types.RangeExact, "1.3.0"},
		{"workspace resolves to caret", types.RangeWorkspace, "^1.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteForPack(tt.operator, v))
		})
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name      string
		rangeStr  string
		version   semver.Version
		satisfied bool
	}{
		{"caret satisfied", "^1.2.0", semver.New(1, 3, 0), true},
		{"caret violates major bump", "^1.2.0", semver.New(2, 0, 0), false},
		{"tilde satisfied", "~1.2.0", semver.New(1, 2, 5), true},
		{"tilde violates minor bump", "~1.2.0", semver.New(1, 3, 0), false},
		{"exact mismatch", "1.2.0", semver.New(1, 2, 1), false},
		{"workspace always satisfied", "workspace:*", semver.New(9, 9, 9), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Satisfies(tt.rangeStr, tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.satisfied, ok)
		})
	}
}

func TestSatisfies_InvalidRange(t *testing.T) {
	_, err := Satisfies("not-a-range!!", semver.New(1, 0, 0))
	assert.Error(t, err)
}
