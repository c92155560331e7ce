package service

import (
	"context"
	"errors"

	"github.com/forkline/forkline/internal/domain"
)

// ErrPatchConflict marks patches that do not apply cleanly against a given
// tree. It distinguishes the recoverable skip-this-tag case from unexpected
// errors such as a failing tree read.
var ErrPatchConflict = errors.New("patch does not apply")

// TreeReader returns the content of a path in the tree the patch is being
// validated against. exists is false when the tree has no file at path.
type TreeReader func(path string) (content string, exists bool, err error)

// PatchService plans the application of a fixed unified diff against a
// commit tree. Planning is the dry-run validation and the real application
// at once: a plan either covers every file of the patch or fails with
// ErrPatchConflict, and an empty plan means the patch is a no-op for that
// tree.
type PatchService interface {
	// Files returns the tree paths the loaded patch touches.
	Files() []string
	// Plan computes the effective changes of applying the patch to the tree
	// exposed by read. Whitespace-only differences on context and deleted
	// lines are ignored.
	Plan(ctx context.Context, read TreeReader) ([]domain.FileChange, error)
}
