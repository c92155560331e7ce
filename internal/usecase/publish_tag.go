package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/forkline/forkline/internal/domain"
	"github.com/forkline/forkline/internal/repository"
	"github.com/forkline/forkline/internal/service"
	"go.uber.org/zap"
)

// TempBranchPrefix namespaces the per-tag temporary branches.
const TempBranchPrefix = "mirror/"

// PublishTagUseCase runs the per-tag state machine: check existence,
// validate the patch against the tag's tree, materialize an isolated
// worktree, commit the patched tree, and publish it under the same tag name.
type PublishTagUseCase struct {
	GitRepo       repository.GitRepository
	PatchSvc      service.PatchService
	Logger        *zap.Logger
	AutomationDir string
	DryRun        bool
}

// Execute processes one upstream tag. All terminal states are reported as a
// TagResult; a failure never propagates as an error so the surrounding loop
// can continue with the next tag.
func (uc *PublishTagUseCase) Execute(ctx context.Context, tag string, forkTags domain.TagSet) domain.TagResult {
	if forkTags.Contains(tag) {
		uc.Logger.Info("tag already published", zap.String("tag", tag))
		return domain.TagResult{Tag: tag, Outcome: domain.OutcomeSkippedExists}
	}
	commit, err := uc.GitRepo.ResolveUpstreamTag(ctx, tag)
	if err != nil {
		return uc.failed(tag, "", fmt.Errorf("failed to resolve tag: %w", err))
	}
	// Dry-run validation and application are the same in-memory plan: a
	// conflict here means the tree was never touched.
	changes, err := uc.PatchSvc.Plan(ctx, func(path string) (string, bool, error) {
		return uc.GitRepo.TreeFile(ctx, commit, path)
	})
	if err != nil {
		if errors.Is(err, service.ErrPatchConflict) {
			uc.Logger.Warn("patch does not apply", zap.String("tag", tag), zap.Error(err))
			return domain.TagResult{
				Tag:            tag,
				Outcome:        domain.OutcomeSkippedPatchFails,
				UpstreamCommit: commit,
				Reason:         err.Error(),
			}
		}
		return uc.failed(tag, commit, err)
	}
	if len(changes) == 0 {
		uc.Logger.Info("patch is a no-op", zap.String("tag", tag))
		return domain.TagResult{Tag: tag, Outcome: domain.OutcomeSkippedNoOp, UpstreamCommit: commit}
	}
	if uc.DryRun {
		uc.Logger.Info("would publish patched tag",
			zap.String("tag", tag),
			zap.Int("changes", len(changes)))
		return domain.TagResult{Tag: tag, Outcome: domain.OutcomePlanned, UpstreamCommit: commit}
	}
	patched, err := uc.publish(ctx, tag, commit, changes)
	if err != nil {
		return uc.failed(tag, commit, err)
	}
	uc.Logger.Info("published patched tag",
		zap.String("tag", tag),
		zap.String("commit", patched))
	return domain.TagResult{
		Tag:            tag,
		Outcome:        domain.OutcomePublished,
		UpstreamCommit: commit,
		PatchedCommit:  patched,
	}
}

func (uc *PublishTagUseCase) publish(
	ctx context.Context,
	tag, commit string,
	changes []domain.FileChange,
) (string, error) {
	branch := TempBranchPrefix + tag
	ws, err := uc.GitRepo.MaterializeTag(ctx, commit, branch)
	if err != nil {
		return "", fmt.Errorf("failed to materialize tag: %w", err)
	}
	defer func() {
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			uc.Logger.Warn("failed to clean up tag workspace",
				zap.String("tag", tag), zap.Error(cleanupErr))
		}
	}()
	if err := ws.ApplyChanges(ctx, changes); err != nil {
		return "", fmt.Errorf("failed to apply patch: %w", err)
	}
	// The published artifact must not carry this automation's own definitions.
	if uc.AutomationDir != "" {
		if err := ws.RemoveDir(ctx, uc.AutomationDir); err != nil {
			return "", fmt.Errorf("failed to strip automation directory: %w", err)
		}
	}
	patched, err := ws.CommitAll(ctx, fmt.Sprintf("Apply fork patch on top of %s", tag))
	if err != nil {
		return "", fmt.Errorf("failed to commit patched tree: %w", err)
	}
	if err := uc.GitRepo.ForceTag(ctx, tag, patched); err != nil {
		return "", fmt.Errorf("failed to tag patched commit: %w", err)
	}
	// Push the branch first so the commit is reachable on the remote, then
	// overwrite the tag ref.
	if err := uc.GitRepo.PushBranch(ctx, branch); err != nil {
		return "", err
	}
	if err := uc.GitRepo.PushTagForce(ctx, tag); err != nil {
		return "", err
	}
	if err := uc.GitRepo.DeleteRemoteBranch(ctx, branch); err != nil {
		uc.Logger.Warn("failed to delete remote temporary branch",
			zap.String("branch", branch), zap.Error(err))
	}
	return patched, nil
}

func (uc *PublishTagUseCase) failed(tag, commit string, err error) domain.TagResult {
	uc.Logger.Error("failed to publish tag", zap.String("tag", tag), zap.Error(err))
	return domain.TagResult{
		Tag:            tag,
		Outcome:        domain.OutcomeFailed,
		UpstreamCommit: commit,
		Reason:         err.Error(),
	}
}
