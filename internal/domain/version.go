package domain

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version wraps semver.Version for additional methods.
type Version struct {
	*semver.Version
}

// NewVersion creates a new Version from a string.
func NewVersion(s string) (*Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, err
	}
	return &Version{v}, nil
}

// Compare compares two versions.
func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// String returns the version string with v prefix.
func (v *Version) String() string {
	return "v" + v.Version.String()
}

// IsVersionTag reports whether the tag name is a processable version tag:
// it carries the version prefix, is not claimed by the reserved prefix,
// and parses as a semantic version.
func IsVersionTag(tag, versionPrefix, reservedPrefix string) bool {
	if reservedPrefix != "" && strings.HasPrefix(tag, reservedPrefix) {
		return false
	}
	if !strings.HasPrefix(tag, versionPrefix) {
		return false
	}
	_, err := semver.NewVersion(strings.TrimPrefix(tag, versionPrefix))
	return err == nil
}

// SortVersionTags orders tag names ascending by semantic version.
// Tags that do not parse are dropped; callers filter with IsVersionTag first.
func SortVersionTags(tags []string, versionPrefix string) []string {
	type parsed struct {
		name string
		ver  *semver.Version
	}
	vs := make([]parsed, 0, len(tags))
	for _, t := range tags {
		v, err := semver.NewVersion(strings.TrimPrefix(t, versionPrefix))
		if err != nil {
			continue
		}
		vs = append(vs, parsed{name: t, ver: v})
	}
	sort.Slice(vs, func(i, j int) bool {
		if c := vs[i].ver.Compare(vs[j].ver); c != 0 {
			return c < 0
		}
		return vs[i].name < vs[j].name
	})
	out := make([]string, len(vs))
	for i, p := range vs {
		out[i] = p.name
	}
	return out
}
