package usecase

import (
	"github.com/forkline/forkline/internal/domain"
)

// SelectTagsUseCase picks the upstream tags eligible for the publish loop.
type SelectTagsUseCase struct {
	TagPrefix      string
	ReservedPrefix string
}

// Execute filters upstream tags down to version tags (prefix match, not
// reserved, valid semver) and orders them ascending by semantic version.
func (uc *SelectTagsUseCase) Execute(upstreamTags domain.TagSet) []string {
	candidates := make([]string, 0, upstreamTags.Len())
	for tag := range upstreamTags {
		if domain.IsVersionTag(tag, uc.TagPrefix, uc.ReservedPrefix) {
			candidates = append(candidates, tag)
		}
	}
	return domain.SortVersionTags(candidates, uc.TagPrefix)
}
