package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/forkline/forkline/internal/domain"
	"github.com/forkline/forkline/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newPublishUseCase(gitRepo *mockGitRepository, patchSvc *mockPatchService) *PublishTagUseCase {
	return &PublishTagUseCase{
		GitRepo:       gitRepo,
		PatchSvc:      patchSvc,
		Logger:        zap.NewNop(),
		AutomationDir: ".github",
	}
}

func TestPublishTagUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	t.Run("Should skip a tag already present in the fork", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		patchSvc := new(mockPatchService)
		uc := newPublishUseCase(gitRepo, patchSvc)
		result := uc.Execute(ctx, "v1.0.0", domain.NewTagSet("v1.0.0"))
		assert.Equal(t, domain.OutcomeSkippedExists, result.Outcome)
		gitRepo.AssertNotCalled(t, "ResolveUpstreamTag")
		gitRepo.AssertNotCalled(t, "MaterializeTag")
	})
	t.Run("Should skip a tag when the patch does not apply", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		patchSvc := new(mockPatchService)
		uc := newPublishUseCase(gitRepo, patchSvc)
		gitRepo.On("ResolveUpstreamTag", ctx, "v1.0.0").Return("abc123", nil)
		patchSvc.On("Plan", ctx, mock.Anything).
			Return(nil, fmt.Errorf("%w: hunk mismatch", service.ErrPatchConflict))
		result := uc.Execute(ctx, "v1.0.0", domain.NewTagSet())
		assert.Equal(t, domain.OutcomeSkippedPatchFails, result.Outcome)
		assert.Equal(t, "abc123", result.UpstreamCommit)
		gitRepo.AssertNotCalled(t, "MaterializeTag")
		gitRepo.AssertNotCalled(t, "PushTagForce")
	})
	t.Run("Should skip a tag when the patch is a no-op", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		patchSvc := new(mockPatchService)
		uc := newPublishUseCase(gitRepo, patchSvc)
		gitRepo.On("ResolveUpstreamTag", ctx, "v1.0.0").Return("abc123", nil)
		patchSvc.On("Plan", ctx, mock.Anything).Return([]domain.FileChange{}, nil)
		result := uc.Execute(ctx, "v1.0.0", domain.NewTagSet())
		assert.Equal(t, domain.OutcomeSkippedNoOp, result.Outcome)
		gitRepo.AssertNotCalled(t, "MaterializeTag")
		gitRepo.AssertNotCalled(t, "PushTagForce")
	})
	t.Run("Should publish a patched tag", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		patchSvc := new(mockPatchService)
		ws := new(mockTagWorkspace)
		uc := newPublishUseCase(gitRepo, patchSvc)
		changes := []domain.FileChange{{Path: "hello.txt", Content: "patched\n"}}
		gitRepo.On("ResolveUpstreamTag", ctx, "v1.0.0").Return("abc123", nil)
		patchSvc.On("Plan", ctx, mock.Anything).Return(changes, nil)
		gitRepo.On("MaterializeTag", ctx, "abc123", "mirror/v1.0.0").Return(ws, nil)
		ws.On("ApplyChanges", ctx, changes).Return(nil)
		ws.On("RemoveDir", ctx, ".github").Return(nil)
		ws.On("CommitAll", ctx, "Apply fork patch on top of v1.0.0").Return("def456", nil)
		gitRepo.On("ForceTag", ctx, "v1.0.0", "def456").Return(nil)
		gitRepo.On("PushBranch", ctx, "mirror/v1.0.0").Return(nil)
		gitRepo.On("PushTagForce", ctx, "v1.0.0").Return(nil)
		gitRepo.On("DeleteRemoteBranch", ctx, "mirror/v1.0.0").Return(nil)
		ws.On("Cleanup").Return(nil)
		result := uc.Execute(ctx, "v1.0.0", domain.NewTagSet())
		assert.Equal(t, domain.OutcomePublished, result.Outcome)
		assert.Equal(t, "abc123", result.UpstreamCommit)
		assert.Equal(t, "def456", result.PatchedCommit)
		gitRepo.AssertExpectations(t)
		patchSvc.AssertExpectations(t)
		ws.AssertExpectations(t)
	})
	t.Run("Should report failure and clean up when a push fails", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		patchSvc := new(mockPatchService)
		ws := new(mockTagWorkspace)
		uc := newPublishUseCase(gitRepo, patchSvc)
		changes := []domain.FileChange{{Path: "hello.txt", Content: "patched\n"}}
		gitRepo.On("ResolveUpstreamTag", ctx, "v1.0.0").Return("abc123", nil)
		patchSvc.On("Plan", ctx, mock.Anything).Return(changes, nil)
		gitRepo.On("MaterializeTag", ctx, "abc123", "mirror/v1.0.0").Return(ws, nil)
		ws.On("ApplyChanges", ctx, changes).Return(nil)
		ws.On("RemoveDir", ctx, ".github").Return(nil)
		ws.On("CommitAll", ctx, mock.Anything).Return("def456", nil)
		gitRepo.On("ForceTag", ctx, "v1.0.0", "def456").Return(nil)
		gitRepo.On("PushBranch", ctx, "mirror/v1.0.0").Return(errors.New("remote unreachable"))
		ws.On("Cleanup").Return(nil)
		result := uc.Execute(ctx, "v1.0.0", domain.NewTagSet())
		assert.Equal(t, domain.OutcomeFailed, result.Outcome)
		assert.Contains(t, result.Reason, "remote unreachable")
		gitRepo.AssertNotCalled(t, "PushTagForce")
		ws.AssertExpectations(t)
	})
	t.Run("Should stop before mutating anything in dry-run mode", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		patchSvc := new(mockPatchService)
		uc := newPublishUseCase(gitRepo, patchSvc)
		uc.DryRun = true
		changes := []domain.FileChange{{Path: "hello.txt", Content: "patched\n"}}
		gitRepo.On("ResolveUpstreamTag", ctx, "v1.0.0").Return("abc123", nil)
		patchSvc.On("Plan", ctx, mock.Anything).Return(changes, nil)
		result := uc.Execute(ctx, "v1.0.0", domain.NewTagSet())
		assert.Equal(t, domain.OutcomePlanned, result.Outcome)
		gitRepo.AssertNotCalled(t, "MaterializeTag")
		gitRepo.AssertNotCalled(t, "ForceTag")
		gitRepo.AssertNotCalled(t, "PushTagForce")
	})
}
