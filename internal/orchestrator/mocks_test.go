package orchestrator

import (
	"context"

	"github.com/forkline/forkline/internal/domain"
	"github.com/forkline/forkline/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for GitRepository
type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) ConfigureUser(ctx context.Context, name, email string) error {
	args := m.Called(ctx, name, email)
	return args.Error(0)
}

func (m *mockGitRepository) EnsureRemote(ctx context.Context, name, url string) error {
	args := m.Called(ctx, name, url)
	return args.Error(0)
}

func (m *mockGitRepository) DefaultBranch(ctx context.Context, remote string) (string, error) {
	args := m.Called(ctx, remote)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) FetchUpstream(ctx context.Context, remote string) error {
	args := m.Called(ctx, remote)
	return args.Error(0)
}

func (m *mockGitRepository) ListRemoteTags(ctx context.Context, remote string) (domain.TagSet, error) {
	args := m.Called(ctx, remote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.TagSet), args.Error(1)
}

func (m *mockGitRepository) ResolveUpstreamTag(ctx context.Context, tag string) (string, error) {
	args := m.Called(ctx, tag)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) ForceTag(ctx context.Context, tag, commit string) error {
	args := m.Called(ctx, tag, commit)
	return args.Error(0)
}

func (m *mockGitRepository) DeleteRemoteTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *mockGitRepository) RefreshLocalTags(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockGitRepository) TreeFile(ctx context.Context, commit, path string) (string, bool, error) {
	args := m.Called(ctx, commit, path)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockGitRepository) MaterializeTag(
	ctx context.Context,
	commit, branch string,
) (repository.TagWorkspace, error) {
	args := m.Called(ctx, commit, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.TagWorkspace), args.Error(1)
}

func (m *mockGitRepository) PushBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *mockGitRepository) PushTagForce(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *mockGitRepository) DeleteRemoteBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Mock for GithubRepository
type mockGithubRepository struct {
	mock.Mock
}

func (m *mockGithubRepository) DefaultBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Mock for TagWorkspace
type mockTagWorkspace struct {
	mock.Mock
}

func (m *mockTagWorkspace) Root() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockTagWorkspace) Branch() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockTagWorkspace) ApplyChanges(ctx context.Context, changes []domain.FileChange) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

func (m *mockTagWorkspace) RemoveDir(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *mockTagWorkspace) CommitAll(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func (m *mockTagWorkspace) Cleanup() error {
	args := m.Called()
	return args.Error(0)
}
