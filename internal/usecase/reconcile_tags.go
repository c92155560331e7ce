package usecase

import (
	"context"
	"fmt"

	"github.com/forkline/forkline/internal/domain"
	"github.com/forkline/forkline/internal/repository"
	"go.uber.org/zap"
)

// ReconcileTagsUseCase aligns the fork's tag set with upstream's by removing
// fork-only tags from the fork remote.
type ReconcileTagsUseCase struct {
	GitRepo repository.GitRepository
	Logger  *zap.Logger
	DryRun  bool
}

// Execute deletes every tag present in the fork but absent from upstream.
// Deletion failures are logged and skipped; the remaining tags are still
// processed. Local tag refs are refreshed afterwards to reflect the pruned
// state. Returns the names of the tags actually pruned.
func (uc *ReconcileTagsUseCase) Execute(ctx context.Context, forkTags, upstreamTags domain.TagSet) ([]string, error) {
	prune := forkTags.Difference(upstreamTags)
	pruned := make([]string, 0, prune.Len())
	for _, tag := range prune.Sorted() {
		if uc.DryRun {
			uc.Logger.Info("would delete fork-only tag", zap.String("tag", tag))
			continue
		}
		if err := uc.GitRepo.DeleteRemoteTag(ctx, tag); err != nil {
			uc.Logger.Warn("failed to delete fork-only tag", zap.String("tag", tag), zap.Error(err))
			continue
		}
		uc.Logger.Info("deleted fork-only tag", zap.String("tag", tag))
		pruned = append(pruned, tag)
	}
	if uc.DryRun {
		return pruned, nil
	}
	if err := uc.GitRepo.RefreshLocalTags(ctx); err != nil {
		return pruned, fmt.Errorf("failed to refresh local tags: %w", err)
	}
	return pruned, nil
}
