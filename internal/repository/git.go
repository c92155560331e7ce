package repository

import (
	"context"

	"github.com/forkline/forkline/internal/domain"
)

// UpstreamRemote is the remote name registered for the tracked repository.
const UpstreamRemote = "upstream"

// OriginRemote is the fork's own remote, present in the checkout.
const OriginRemote = "origin"

// GitRepository defines the interface for Git operations against the fork
// checkout and its remotes.
type GitRepository interface {
	// Setup operations
	ConfigureUser(ctx context.Context, name, email string) error
	EnsureRemote(ctx context.Context, name, url string) error
	DefaultBranch(ctx context.Context, remote string) (string, error)
	// FetchUpstream brings upstream's full history and tags into the local
	// object store. Upstream tag refs land under refs/upstream/tags/* so
	// they never collide with the fork's own tags.
	FetchUpstream(ctx context.Context, remote string) error
	// Tag operations
	ListRemoteTags(ctx context.Context, remote string) (domain.TagSet, error)
	ResolveUpstreamTag(ctx context.Context, tag string) (string, error)
	ForceTag(ctx context.Context, tag, commit string) error
	DeleteRemoteTag(ctx context.Context, tag string) error
	RefreshLocalTags(ctx context.Context) error
	// Tree access
	TreeFile(ctx context.Context, commit, path string) (string, bool, error)
	// MaterializeTag checks the commit out into an isolated disposable
	// worktree on a temporary branch.
	MaterializeTag(ctx context.Context, commit, branch string) (TagWorkspace, error)
	// Publish operations
	PushBranch(ctx context.Context, name string) error
	PushTagForce(ctx context.Context, tag string) error
	DeleteRemoteBranch(ctx context.Context, name string) error
}

// TagWorkspace is an isolated checkout of one upstream tag, scoped to the
// lifetime of one publish iteration. It shares the fork's object store, so
// commits created here are immediately pushable from the main repository.
type TagWorkspace interface {
	Root() string
	Branch() string
	// ApplyChanges writes the planned patch changes into the worktree.
	ApplyChanges(ctx context.Context, changes []domain.FileChange) error
	// RemoveDir deletes a directory tree from the worktree if present.
	RemoveDir(ctx context.Context, dir string) error
	// CommitAll stages everything and commits it on the temporary branch.
	// The commit is created even when the staged diff is empty.
	CommitAll(ctx context.Context, message string) (string, error)
	// Cleanup removes the temporary branch ref and the worktree directory.
	Cleanup() error
}
