package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{name: "valid standard version", input: "1.2.3", want: New(1, 2, 3)},
		{name: "valid v-prefixed version", input: "v1.2.3", want: New(1, 2, 3)},
		{name: "empty string defaults to zero", input: "", want: Zero()},
		{name: "latest defaults to zero", input: "latest", want: Zero()},
		{name: "zero version", input: "0.0.0", want: New(0, 0, 0)},
		{name: "invalid format", input: "1.2", wantErr: true},
		{name: "non-numeric", input: "a.b.c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equals(got))
		})
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, New(1, 0, 0).Compare(New(2, 0, 0)))
	assert.Equal(t, 1, New(2, 0, 0).Compare(New(1, 9, 9)))
	assert.Equal(t, 0, New(1, 2, 3).Compare(New(1, 2, 3)))
	assert.True(t, New(1, 0, 0).LessThan(New(1, 0, 1)))
	assert.True(t, New(1, 0, 1).GreaterThan(New(1, 0, 0)))
}

func TestBump(t *testing.T) {
	v := New(1, 2, 3)

	major, err := v.Bump(BumpMajor)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", major.String())

	minor, err := v.Bump(BumpMinor)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", minor.String())

	patch, err := v.Bump(BumpPatch)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", patch.String())

	_, err = v.Bump("nonsense")
	assert.Error(t, err)
}

func TestBumpPrerelease_FreshLine(t *testing.T) {
	v := New(1, 2, 3)
	next, err := v.BumpPrerelease(BumpMinor, "rc", 0)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0-rc.0", next.String())
	assert.True(t, next.IsPrerelease())
	assert.Equal(t, 0, next.PrereleaseCounter())
}

func TestBumpPrerelease_SameLineAdvancesCounter(t *testing.T) {
	v := MustParse("1.3.0-rc.0")
	next, err := v.BumpPrerelease(BumpMinor, "rc", 1)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0-rc.1", next.String())
	assert.Equal(t, 1, next.PrereleaseCounter())
}

func TestBumpPrerelease_DifferentTagStartsFresh(t *testing.T) {
	v := MustParse("1.3.0-alpha.2")
	next, err := v.BumpPrerelease(BumpMinor, "rc", 0)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0-rc.0", next.String())
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParse("not-a-version")
	})
}

func TestBase(t *testing.T) {
	v := MustParse("1.3.0-rc.2")
	assert.Equal(t, "1.3.0", v.Base().String())
	assert.False(t, v.Base().IsPrerelease())

	stable := New(2, 0, 0)
	assert.Equal(t, "2.0.0", stable.Base().String())
}
