package cmd

import (
	"fmt"

	"github.com/forkline/forkline/internal/config"
	"github.com/forkline/forkline/internal/orchestrator"
	"github.com/forkline/forkline/internal/repository"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.
type container struct {
	cfg *config.Config

	fsRepo  repository.FileSystemRepository
	gitRepo repository.GitRepository
	ghRepo  repository.GithubRepository
	journal repository.JournalRepository
	logger  *zap.Logger
}

// newContainer creates a new container with all the dependencies.
func newContainer() (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	fsRepo := repository.FileSystemRepository(afero.NewOsFs())
	gitRepo, err := repository.NewGitRepository(".", cfg.GithubToken)
	if err != nil {
		return nil, err
	}

	// GitHub API access is optional. Without a token or a parseable slug
	// the default branch comes from the git protocol advertisement instead.
	var ghRepo repository.GithubRepository
	if cfg.GithubToken != "" {
		if owner, repo, err := config.ParseRepoSlug(cfg.UpstreamURL); err == nil {
			ghRepo, err = repository.NewGithubRepository(cfg.GithubToken, owner, repo)
			if err != nil {
				return nil, err
			}
		}
	}

	journal := repository.NewJSONJournalRepository(fsRepo, cfg.JournalDir)

	return &container{
		cfg:     cfg,
		fsRepo:  fsRepo,
		gitRepo: gitRepo,
		ghRepo:  ghRepo,
		journal: journal,
		logger:  logger,
	}, nil
}

func (c *container) syncOrchestrator() *orchestrator.SyncOrchestrator {
	return orchestrator.NewSyncOrchestrator(c.cfg, c.gitRepo, c.ghRepo, c.fsRepo, c.journal, c.logger)
}

// InitCommands initializes all commands with their dependencies.
func InitCommands() error {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewReconcileCmd())
	rootCmd.AddCommand(NewStatusCmd())
	return nil
}
