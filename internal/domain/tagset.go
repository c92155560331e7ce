package domain

import "sort"

// TagSet is a set of tag names. Membership is exact string equality;
// no normalization or version-aware matching is performed.
type TagSet map[string]struct{}

// NewTagSet creates a TagSet from the given tag names.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether the tag is in the set.
func (s TagSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Add inserts a tag into the set.
func (s TagSet) Add(tag string) {
	s[tag] = struct{}{}
}

// Remove deletes a tag from the set.
func (s TagSet) Remove(tag string) {
	delete(s, tag)
}

// Len returns the number of tags in the set.
func (s TagSet) Len() int {
	return len(s)
}

// Union returns a new set containing tags present in either set.
func (s TagSet) Union(other TagSet) TagSet {
	out := make(TagSet, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// Difference returns a new set containing tags present in s but not in other.
func (s TagSet) Difference(other TagSet) TagSet {
	out := make(TagSet)
	for t := range s {
		if _, ok := other[t]; !ok {
			out[t] = struct{}{}
		}
	}
	return out
}

// Sorted returns the tags in lexicographic order. Use SortVersionTags for
// semantic-version ordering.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
