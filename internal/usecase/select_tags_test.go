package usecase

import (
	"testing"

	"github.com/forkline/forkline/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSelectTagsUseCase_Execute(t *testing.T) {
	uc := &SelectTagsUseCase{TagPrefix: "v", ReservedPrefix: "patched-"}
	t.Run("Should keep only version tags in semver order", func(t *testing.T) {
		got := uc.Execute(domain.NewTagSet(
			"v1.10.0", "v1.2.0", "v0.9.0",
			"patched-v1.0.0", "nightly", "v-broken",
		))
		assert.Equal(t, []string{"v0.9.0", "v1.2.0", "v1.10.0"}, got)
	})
	t.Run("Should return empty slice for no eligible tags", func(t *testing.T) {
		got := uc.Execute(domain.NewTagSet("patched-v1.0.0", "release"))
		assert.Empty(t, got)
	})
}
