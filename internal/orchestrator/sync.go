package orchestrator

import (
	"context"
	"fmt"

	"github.com/forkline/forkline/internal/config"
	"github.com/forkline/forkline/internal/domain"
	"github.com/forkline/forkline/internal/repository"
	"github.com/forkline/forkline/internal/service"
	"github.com/forkline/forkline/internal/usecase"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SyncConfig contains configuration for one sync run.
type SyncConfig struct {
	DryRun        bool // Plan and log without mutating the fork remote
	CIOutput      bool // Emit machine-readable counters on stdout
	ReconcileOnly bool // Stop after tag reconciliation (stages 1-3)
}

// SyncOrchestrator runs the four-stage pipeline: repository preparation,
// upstream linking, tag reconciliation and the patch-and-publish loop.
// Setup failures abort the run; per-tag failures are recorded and skipped.
type SyncOrchestrator struct {
	cfg     *config.Config
	gitRepo repository.GitRepository
	ghRepo  repository.GithubRepository
	fsRepo  repository.FileSystemRepository
	journal repository.JournalRepository
	logger  *zap.Logger
}

// NewSyncOrchestrator creates a new sync orchestrator. ghRepo may be nil;
// the git protocol advertisement is used for default-branch discovery then.
func NewSyncOrchestrator(
	cfg *config.Config,
	gitRepo repository.GitRepository,
	ghRepo repository.GithubRepository,
	fsRepo repository.FileSystemRepository,
	journal repository.JournalRepository,
	logger *zap.Logger,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		cfg:     cfg,
		gitRepo: gitRepo,
		ghRepo:  ghRepo,
		fsRepo:  fsRepo,
		journal: journal,
		logger:  logger,
	}
}

// Execute runs the pipeline once. The returned error is non-nil only for
// fatal setup failures; skipped tags surface through the run summary.
func (o *SyncOrchestrator) Execute(ctx context.Context, syncCfg SyncConfig) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultWorkflowTimeout)
	defer cancel()
	rec := domain.NewRunRecord(uuid.New().String(), o.cfg.UpstreamURL)
	rec.DryRun = syncCfg.DryRun
	// Stage 1: repository preparation
	rec.MarkStage(domain.StagePrepare)
	patchSvc, err := o.prepare(ctx)
	if err != nil {
		return o.abort(ctx, rec, err)
	}
	// Stage 2: upstream linking
	rec.MarkStage(domain.StageLink)
	defaultBranch, err := o.linkUpstream(ctx)
	if err != nil {
		return o.abort(ctx, rec, err)
	}
	rec.DefaultBranch = defaultBranch
	// Stage 3: tag reconciliation
	rec.MarkStage(domain.StageReconcile)
	forkTags, err := o.gitRepo.ListRemoteTags(ctx, repository.OriginRemote)
	if err != nil {
		return o.abort(ctx, rec, fmt.Errorf("failed to list fork tags: %w", err))
	}
	upstreamTags, err := o.gitRepo.ListRemoteTags(ctx, repository.UpstreamRemote)
	if err != nil {
		return o.abort(ctx, rec, fmt.Errorf("failed to list upstream tags: %w", err))
	}
	reconcileUC := &usecase.ReconcileTagsUseCase{
		GitRepo: o.gitRepo,
		Logger:  o.logger,
		DryRun:  syncCfg.DryRun,
	}
	pruned, err := reconcileUC.Execute(ctx, forkTags, upstreamTags)
	if err != nil {
		return o.abort(ctx, rec, err)
	}
	rec.Summary.PrunedTags = pruned
	for _, tag := range pruned {
		forkTags.Remove(tag)
	}
	o.printCIOutput(syncCfg.CIOutput, "pruned=%d\n", len(pruned))
	if syncCfg.ReconcileOnly {
		rec.MarkCompleted()
		o.saveJournal(ctx, rec)
		o.logger.Info("reconciliation completed", zap.Int("pruned", len(pruned)))
		return nil
	}
	// Stage 4: patch-and-publish loop
	rec.MarkStage(domain.StagePublish)
	selectUC := &usecase.SelectTagsUseCase{
		TagPrefix:      o.cfg.TagPrefix,
		ReservedPrefix: o.cfg.ReservedPrefix,
	}
	publishUC := &usecase.PublishTagUseCase{
		GitRepo:       o.gitRepo,
		PatchSvc:      patchSvc,
		Logger:        o.logger,
		AutomationDir: o.cfg.AutomationDir,
		DryRun:        syncCfg.DryRun,
	}
	for _, tag := range selectUC.Execute(upstreamTags) {
		if err := ValidateTagName(tag); err != nil {
			o.logger.Warn("skipping unsafe tag name", zap.String("tag", tag), zap.Error(err))
			rec.Summary.Add(domain.TagResult{
				Tag:     tag,
				Outcome: domain.OutcomeFailed,
				Reason:  err.Error(),
			})
			continue
		}
		rec.Summary.Add(publishUC.Execute(ctx, tag, forkTags))
		o.saveJournal(ctx, rec)
	}
	rec.MarkCompleted()
	o.saveJournal(ctx, rec)
	o.printCIOutput(syncCfg.CIOutput, "published=%d\n", rec.Summary.Published())
	o.printCIOutput(syncCfg.CIOutput, "planned=%d\n", rec.Summary.Planned())
	o.printCIOutput(syncCfg.CIOutput, "skipped=%d\n", rec.Summary.Skipped())
	o.printCIOutput(syncCfg.CIOutput, "failed=%d\n", rec.Summary.Failed())
	o.logger.Info("sync completed",
		zap.String("session", rec.SessionID),
		zap.Int("pruned", len(pruned)),
		zap.Int("published", rec.Summary.Published()),
		zap.Int("planned", rec.Summary.Planned()),
		zap.Int("skipped", rec.Summary.Skipped()),
		zap.Int("failed", rec.Summary.Failed()))
	return nil
}

// prepare configures the committer identity and loads the patch artifact
// into memory before any checkout can mutate the working tree.
func (o *SyncOrchestrator) prepare(ctx context.Context) (service.PatchService, error) {
	if err := o.gitRepo.ConfigureUser(ctx, o.cfg.CommitterName, o.cfg.CommitterEmail); err != nil {
		return nil, fmt.Errorf("failed to configure committer: %w", err)
	}
	data, err := afero.ReadFile(o.fsRepo, o.cfg.PatchFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch file %s: %w", o.cfg.PatchFile, err)
	}
	patchSvc, err := service.NewPatchService(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load patch file %s: %w", o.cfg.PatchFile, err)
	}
	o.logger.Info("loaded patch",
		zap.String("file", o.cfg.PatchFile),
		zap.Strings("targets", patchSvc.Files()))
	return patchSvc, nil
}

// linkUpstream registers the upstream remote, resolves its default branch
// and fetches its full history and tags.
func (o *SyncOrchestrator) linkUpstream(ctx context.Context) (string, error) {
	if err := o.gitRepo.EnsureRemote(ctx, repository.UpstreamRemote, o.cfg.UpstreamURL); err != nil {
		return "", err
	}
	branch := ""
	if o.ghRepo != nil {
		var err error
		branch, err = o.ghRepo.DefaultBranch(ctx)
		if err != nil {
			o.logger.Warn("falling back to git advertisement for default branch", zap.Error(err))
			branch = ""
		}
	}
	if branch == "" {
		var err error
		branch, err = o.gitRepo.DefaultBranch(ctx, repository.UpstreamRemote)
		if err != nil {
			return "", err
		}
	}
	if err := o.gitRepo.FetchUpstream(ctx, repository.UpstreamRemote); err != nil {
		return "", err
	}
	o.logger.Info("linked upstream",
		zap.String("url", o.cfg.UpstreamURL),
		zap.String("default_branch", branch))
	return branch, nil
}

// abort finalizes the journal record for a fatal setup failure.
func (o *SyncOrchestrator) abort(ctx context.Context, rec *domain.RunRecord, err error) error {
	rec.MarkFailed(err)
	o.saveJournal(ctx, rec)
	return err
}

// saveJournal persists the record; journal failures never affect the run.
func (o *SyncOrchestrator) saveJournal(ctx context.Context, rec *domain.RunRecord) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Save(ctx, rec); err != nil {
		o.logger.Warn("failed to save run journal", zap.Error(err))
	}
}

func (o *SyncOrchestrator) printCIOutput(enabled bool, format string, args ...any) {
	if enabled {
		fmt.Printf(format, args...)
	}
}
