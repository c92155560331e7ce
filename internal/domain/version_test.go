package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersion(t *testing.T) {
	t.Run("Should parse version with v prefix", func(t *testing.T) {
		v, err := NewVersion("v1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "v1.2.3", v.String())
	})
	t.Run("Should reject invalid version", func(t *testing.T) {
		_, err := NewVersion("not-a-version")
		assert.Error(t, err)
	})
}

func TestIsVersionTag(t *testing.T) {
	cases := []struct {
		name string
		tag  string
		want bool
	}{
		{name: "plain release", tag: "v1.0.0", want: true},
		{name: "prerelease", tag: "v2.0.0-rc.1", want: true},
		{name: "reserved prefix", tag: "patched-v1.0.0", want: false},
		{name: "missing prefix", tag: "1.0.0", want: false},
		{name: "non-semver suffix", tag: "vnext", want: false},
		{name: "branch-like name", tag: "release/v1.0.0", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsVersionTag(tc.tag, "v", "patched-"))
		})
	}
}

func TestSortVersionTags(t *testing.T) {
	t.Run("Should order tags ascending by semantic version", func(t *testing.T) {
		got := SortVersionTags([]string{"v1.10.0", "v1.2.0", "v1.9.9", "v0.1.0"}, "v")
		assert.Equal(t, []string{"v0.1.0", "v1.2.0", "v1.9.9", "v1.10.0"}, got)
	})
	t.Run("Should order prereleases before their release", func(t *testing.T) {
		got := SortVersionTags([]string{"v1.0.0", "v1.0.0-rc.1"}, "v")
		assert.Equal(t, []string{"v1.0.0-rc.1", "v1.0.0"}, got)
	})
	t.Run("Should drop unparseable tags", func(t *testing.T) {
		got := SortVersionTags([]string{"v1.0.0", "vgarbage"}, "v")
		assert.Equal(t, []string{"v1.0.0"}, got)
	})
}
