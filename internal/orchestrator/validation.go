package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
)

// tagNameRegex matches tag names that are safe to embed in branch refs.
var tagNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

// ValidateTagName validates a tag name before it is used to build refs and
// temporary branch names.
func ValidateTagName(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	if len(tag) > 255 {
		return fmt.Errorf("tag name too long: %d characters (max: 255)", len(tag))
	}
	if strings.HasPrefix(tag, "/") || strings.HasSuffix(tag, "/") {
		return fmt.Errorf("tag name cannot start or end with slash: %s", tag)
	}
	if strings.Contains(tag, "..") {
		return fmt.Errorf("tag name cannot contain consecutive dots: %s", tag)
	}
	if strings.HasSuffix(tag, ".lock") {
		return fmt.Errorf("tag name cannot end with .lock: %s", tag)
	}
	if !tagNameRegex.MatchString(tag) {
		return fmt.Errorf("invalid tag name format: %s", tag)
	}
	return nil
}
