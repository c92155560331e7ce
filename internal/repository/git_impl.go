package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forkline/forkline/internal/domain"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/spf13/afero"
)

// upstreamTagRef is the private namespace upstream tags are fetched into.
const upstreamTagRef = "refs/upstream/tags/"

// gitRepository is the implementation of the GitRepository interface.
type gitRepository struct {
	repo           *git.Repository
	root           string
	token          string
	committerName  string
	committerEmail string
}

// NewGitRepository opens the fork checkout at path. The token, when set, is
// used for all authenticated remote operations.
func NewGitRepository(path, token string) (GitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return &gitRepository{repo: repo, root: wt.Filesystem.Root(), token: token}, nil
}

// getAuth returns authentication configuration for token-based remotes.
func (r *gitRepository) getAuth() *http.BasicAuth {
	if r.token == "" {
		return nil
	}
	// Use x-access-token as username for GitHub token authentication
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: r.token,
	}
}

// ConfigureUser sets the git user configuration and the committer identity
// for commits created in tag workspaces.
func (r *gitRepository) ConfigureUser(_ context.Context, name, email string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := r.repo.Storer.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to set config: %w", err)
	}
	r.committerName = name
	r.committerEmail = email
	return nil
}

// EnsureRemote registers the remote, replacing any existing remote with the
// same name so URL changes take effect.
func (r *gitRepository) EnsureRemote(_ context.Context, name, url string) error {
	if _, err := r.repo.Remote(name); err == nil {
		if err := r.repo.DeleteRemote(name); err != nil {
			return fmt.Errorf("failed to replace remote %s: %w", name, err)
		}
	}
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// DefaultBranch resolves the remote's HEAD symref from its advertisement.
func (r *gitRepository) DefaultBranch(ctx context.Context, remote string) (string, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", remote, err)
	}
	refs, err := rem.ListContext(ctx, &git.ListOptions{Auth: r.getAuth()})
	if err != nil {
		return "", fmt.Errorf("failed to list refs for %s: %w", remote, err)
	}
	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD && ref.Type() == plumbing.SymbolicReference {
			return ref.Target().Short(), nil
		}
	}
	return "", fmt.Errorf("remote %s does not advertise a default branch", remote)
}

// FetchUpstream fetches upstream's branches and tags. Tags land under
// refs/upstream/tags/* so the fork's own tag namespace stays untouched.
func (r *gitRepository) FetchUpstream(ctx context.Context, remote string) error {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return fmt.Errorf("failed to get remote %s: %w", remote, err)
	}
	err = rem.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote)),
			config.RefSpec("+refs/tags/*:" + upstreamTagRef + "*"),
		},
		Tags: git.NoTags,
		Auth: r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to fetch %s: %w", remote, err)
	}
	return nil
}

// ListRemoteTags returns the tag names advertised by the remote.
func (r *gitRepository) ListRemoteTags(ctx context.Context, remote string) (domain.TagSet, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return nil, fmt.Errorf("failed to get remote %s: %w", remote, err)
	}
	refs, err := rem.ListContext(ctx, &git.ListOptions{Auth: r.getAuth()})
	if err != nil {
		return nil, fmt.Errorf("failed to list refs for %s: %w", remote, err)
	}
	tags := domain.NewTagSet()
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		name := ref.Name().Short()
		if strings.HasSuffix(name, "^{}") {
			continue
		}
		tags.Add(name)
	}
	return tags, nil
}

// ResolveUpstreamTag resolves a fetched upstream tag to its commit hash,
// peeling annotated tags.
func (r *gitRepository) ResolveUpstreamTag(_ context.Context, tag string) (string, error) {
	ref, err := r.repo.Reference(plumbing.ReferenceName(upstreamTagRef+tag), true)
	if err != nil {
		return "", fmt.Errorf("failed to resolve upstream tag %s: %w", tag, err)
	}
	hash := ref.Hash()
	if tagObj, err := r.repo.TagObject(hash); err == nil {
		hash = tagObj.Target
	}
	if _, err := r.repo.CommitObject(hash); err != nil {
		return "", fmt.Errorf("upstream tag %s does not point at a commit: %w", tag, err)
	}
	return hash.String(), nil
}

// ForceTag moves or creates the local tag ref to point at the commit.
func (r *gitRepository) ForceTag(_ context.Context, tag, commit string) error {
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(tag), plumbing.NewHash(commit))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to set tag %s: %w", tag, err)
	}
	return nil
}

// DeleteRemoteTag deletes a tag from the fork's remote.
func (r *gitRepository) DeleteRemoteTag(ctx context.Context, tag string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: OriginRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(":refs/tags/" + tag)},
		Auth:       r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to delete remote tag %s: %w", tag, err)
	}
	return nil
}

// RefreshLocalTags aligns the local tag refs with the fork remote: tags
// absent from the remote are dropped, the rest are force-updated.
func (r *gitRepository) RefreshLocalTags(ctx context.Context) error {
	remoteTags, err := r.ListRemoteTags(ctx, OriginRemote)
	if err != nil {
		return err
	}
	iter, err := r.repo.Tags()
	if err != nil {
		return fmt.Errorf("failed to list local tags: %w", err)
	}
	var stale []plumbing.ReferenceName
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		if !remoteTags.Contains(ref.Name().Short()) {
			stale = append(stale, ref.Name())
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to iterate local tags: %w", err)
	}
	for _, name := range stale {
		if err := r.repo.Storer.RemoveReference(name); err != nil {
			return fmt.Errorf("failed to remove local tag %s: %w", name.Short(), err)
		}
	}
	rem, err := r.repo.Remote(OriginRemote)
	if err != nil {
		return fmt.Errorf("failed to get remote %s: %w", OriginRemote, err)
	}
	err = rem.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{config.RefSpec("+refs/tags/*:refs/tags/*")},
		Tags:     git.NoTags,
		Auth:     r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to refresh local tags: %w", err)
	}
	return nil
}

// TreeFile returns the content of path at the given commit.
func (r *gitRepository) TreeFile(_ context.Context, commit, path string) (string, bool, error) {
	commitObj, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return "", false, fmt.Errorf("failed to get commit %s: %w", commit, err)
	}
	file, err := commitObj.File(path)
	if err == object.ErrFileNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s at %s: %w", path, commit, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s at %s: %w", path, commit, err)
	}
	return contents, true, nil
}

// MaterializeTag checks the commit out on a temporary branch in a fresh
// worktree directory. The arena shares the checkout's object store, so the
// commit created there is pushable from this repository.
func (r *gitRepository) MaterializeTag(_ context.Context, commit, branch string) (TagWorkspace, error) {
	dir, err := os.MkdirTemp("", "forkline-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}
	storage := filesystem.NewStorage(osfs.New(filepath.Join(r.root, ".git")), cache.NewObjectLRUDefault())
	arena, err := git.Open(storage, osfs.New(dir))
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open workspace repository: %w", err)
	}
	// The arena shares the checkout's ref storage, so the checkout below
	// moves HEAD. Remember where it pointed so Cleanup can put it back.
	prevHead, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	branchRef := plumbing.NewBranchReferenceName(branch)
	hash := plumbing.NewHash(commit)
	if err := arena.Storer.SetReference(plumbing.NewHashReference(branchRef, hash)); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	wt, err := arena.Worktree()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to get workspace worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to checkout %s: %w", commit, err)
	}
	return &tagWorkspace{
		owner:    r,
		arena:    arena,
		wt:       wt,
		fs:       afero.NewBasePathFs(afero.NewOsFs(), dir),
		dir:      dir,
		branch:   branch,
		prevHead: prevHead,
	}, nil
}

// PushBranch pushes a branch to the fork's remote. The push is forced: an
// interrupted run can leave an orphaned remote branch whose rebuilt
// replacement is not a descendant, and retries must overwrite it.
func (r *gitRepository) PushBranch(ctx context.Context, name string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: OriginRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", name, name))},
		Auth:       r.getAuth(),
		Force:      true,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to push branch %s: %w", name, err)
	}
	return nil
}

// PushTagForce pushes a tag to the fork's remote, overwriting any same-named ref.
func (r *gitRepository) PushTagForce(ctx context.Context, tag string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: OriginRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("+refs/tags/%s:refs/tags/%s", tag, tag))},
		Auth:       r.getAuth(),
		Force:      true,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to push tag %s: %w", tag, err)
	}
	return nil
}

// DeleteRemoteBranch deletes a branch from the fork's remote.
func (r *gitRepository) DeleteRemoteBranch(ctx context.Context, name string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: OriginRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(":refs/heads/" + name)},
		Auth:       r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to delete remote branch %s: %w", name, err)
	}
	return nil
}

// tagWorkspace is the arena-backed implementation of TagWorkspace.
type tagWorkspace struct {
	owner    *gitRepository
	arena    *git.Repository
	wt       *git.Worktree
	fs       afero.Fs
	dir      string
	branch   string
	prevHead *plumbing.Reference
}

func (w *tagWorkspace) Root() string {
	return w.dir
}

func (w *tagWorkspace) Branch() string {
	return w.branch
}

// ApplyChanges writes the planned changes into the worktree. Deletions and
// writes are staged later by CommitAll.
func (w *tagWorkspace) ApplyChanges(_ context.Context, changes []domain.FileChange) error {
	for _, c := range changes {
		if c.Delete {
			if err := w.fs.Remove(c.Path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete %s: %w", c.Path, err)
			}
			continue
		}
		if dir := filepath.Dir(c.Path); dir != "." {
			if err := w.fs.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
		if err := afero.WriteFile(w.fs, c.Path, []byte(c.Content), c.EffectiveMode()); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Path, err)
		}
	}
	return nil
}

// RemoveDir deletes a directory tree from the worktree if present.
func (w *tagWorkspace) RemoveDir(_ context.Context, dir string) error {
	if err := w.fs.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return nil
}

// CommitAll stages all changes and commits them on the temporary branch.
func (w *tagWorkspace) CommitAll(_ context.Context, message string) (string, error) {
	if err := w.wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}
	sig := &object.Signature{
		Name:  w.owner.committerName,
		Email: w.owner.committerEmail,
		When:  time.Now(),
	}
	hash, err := w.wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return hash.String(), nil
}

// Cleanup restores the checkout's HEAD, then drops the temporary branch ref
// and the worktree directory. The shared index still reflects the arena's
// tree until the checkout's next git operation resets it.
func (w *tagWorkspace) Cleanup() error {
	if err := w.owner.repo.Storer.SetReference(w.prevHead); err != nil {
		return fmt.Errorf("failed to restore HEAD: %w", err)
	}
	if err := w.arena.Storer.RemoveReference(plumbing.NewBranchReferenceName(w.branch)); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", w.branch, err)
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to remove workspace dir: %w", err)
	}
	return nil
}
