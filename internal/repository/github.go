package repository

import "context"

// GithubRepository defines the hosting-platform operations used to inspect
// the upstream repository. It is optional: when no token is configured the
// git protocol advertisement is used instead.
type GithubRepository interface {
	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context) (string, error)
}
