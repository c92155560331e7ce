package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/forkline/forkline/internal/domain"
)

// patchService is the implementation of the PatchService interface.
type patchService struct {
	files []*gitdiff.File
}

// NewPatchService parses a unified diff into a PatchService. Binary patches
// are rejected; the automation carries a single text patch by contract.
func NewPatchService(data []byte) (PatchService, error) {
	files, _, err := gitdiff.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("patch does not modify any files")
	}
	for _, f := range files {
		if f.IsBinary {
			return nil, fmt.Errorf("binary patch for %q is not supported", patchTarget(f))
		}
	}
	return &patchService{files: files}, nil
}

// Files returns the tree paths the patch touches.
func (s *patchService) Files() []string {
	paths := make([]string, 0, len(s.files))
	for _, f := range s.files {
		paths = append(paths, patchTarget(f))
	}
	return paths
}

// Plan applies every file entry of the patch in memory against the tree.
func (s *patchService) Plan(_ context.Context, read TreeReader) ([]domain.FileChange, error) {
	var changes []domain.FileChange
	for _, f := range s.files {
		fileChanges, err := s.planFile(f, read)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fileChanges...)
	}
	return changes, nil
}

func (s *patchService) planFile(f *gitdiff.File, read TreeReader) ([]domain.FileChange, error) {
	switch {
	case f.IsNew:
		if _, exists, err := read(f.NewName); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.NewName, err)
		} else if exists {
			return nil, fmt.Errorf("%w: %s already exists", ErrPatchConflict, f.NewName)
		}
		content, err := applyFragments("", f)
		if err != nil {
			return nil, err
		}
		return []domain.FileChange{{Path: f.NewName, Content: content, Mode: f.NewMode}}, nil
	case f.IsDelete:
		old, exists, err := read(f.OldName)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.OldName, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s does not exist", ErrPatchConflict, f.OldName)
		}
		remainder, err := applyFragments(old, f)
		if err != nil {
			return nil, err
		}
		if remainder != "" {
			return nil, fmt.Errorf("%w: %s has content not covered by the deletion", ErrPatchConflict, f.OldName)
		}
		return []domain.FileChange{{Path: f.OldName, Delete: true}}, nil
	default:
		old, exists, err := read(f.OldName)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.OldName, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s does not exist", ErrPatchConflict, f.OldName)
		}
		content, err := applyFragments(old, f)
		if err != nil {
			return nil, err
		}
		if f.IsRename || f.IsCopy {
			changes := []domain.FileChange{{Path: f.NewName, Content: content, Mode: f.NewMode}}
			if f.IsRename {
				changes = append(changes, domain.FileChange{Path: f.OldName, Delete: true})
			}
			return changes, nil
		}
		if content == old {
			// Already present upstream; contributes nothing to the commit.
			return nil, nil
		}
		return []domain.FileChange{{Path: f.NewName, Content: content, Mode: f.NewMode}}, nil
	}
}

// applyFragments applies the text fragments of one patch file entry to old.
// Context and deletion lines match leniently: differences in trailing
// whitespace and line endings are ignored, while the original file's bytes
// are preserved for untouched lines.
func applyFragments(old string, f *gitdiff.File) (string, error) {
	lines := splitLines(old)
	var out strings.Builder
	next := 0
	for _, frag := range f.TextFragments {
		start := int(frag.OldPosition) - 1
		if frag.OldLines == 0 {
			// A pure insertion hunk applies after line OldPosition.
			start = int(frag.OldPosition)
		}
		if start < next || start > len(lines) {
			return "", fmt.Errorf("%w: hunk at line %d is out of range for %s",
				ErrPatchConflict, frag.OldPosition, patchTarget(f))
		}
		for _, l := range lines[next:start] {
			out.WriteString(l)
		}
		idx := start
		for _, ln := range frag.Lines {
			switch ln.Op {
			case gitdiff.OpContext:
				if idx >= len(lines) || !lenientEqual(lines[idx], ln.Line) {
					return "", fragmentMismatch(f, frag, idx)
				}
				out.WriteString(lines[idx])
				idx++
			case gitdiff.OpDelete:
				if idx >= len(lines) || !lenientEqual(lines[idx], ln.Line) {
					return "", fragmentMismatch(f, frag, idx)
				}
				idx++
			case gitdiff.OpAdd:
				out.WriteString(ln.Line)
			}
		}
		next = idx
	}
	for _, l := range lines[next:] {
		out.WriteString(l)
	}
	return out.String(), nil
}

func fragmentMismatch(f *gitdiff.File, frag *gitdiff.TextFragment, idx int) error {
	return fmt.Errorf("%w: hunk at line %d does not match %s (line %d)",
		ErrPatchConflict, frag.OldPosition, patchTarget(f), idx+1)
}

// lenientEqual compares two lines ignoring trailing whitespace and line
// ending differences.
func lenientEqual(a, b string) bool {
	return strings.TrimRight(a, " \t\r\n") == strings.TrimRight(b, " \t\r\n")
}

// splitLines splits content into lines, each keeping its terminator.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func patchTarget(f *gitdiff.File) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}
