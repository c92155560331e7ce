package domain

import "time"

// TagOutcome is the terminal state of one tag in the publish loop.
type TagOutcome string

const (
	// OutcomePublished means a patched commit was created and pushed under the tag.
	OutcomePublished TagOutcome = "published"
	// OutcomeSkippedExists means the tag already exists in the fork remote.
	OutcomeSkippedExists TagOutcome = "skipped_exists"
	// OutcomeSkippedPatchFails means the patch did not apply cleanly to the tag's tree.
	OutcomeSkippedPatchFails TagOutcome = "skipped_patch_fails"
	// OutcomeSkippedNoOp means the patch applied but produced zero effective changes.
	OutcomeSkippedNoOp TagOutcome = "skipped_noop"
	// OutcomeFailed means an unexpected error interrupted the tag's processing.
	OutcomeFailed TagOutcome = "failed"
	// OutcomePlanned means a dry run stopped before mutating the fork.
	OutcomePlanned TagOutcome = "planned"
)

// TagResult records how one upstream tag was handled during a run.
type TagResult struct {
	Tag            string     `json:"tag"`
	Outcome        TagOutcome `json:"outcome"`
	UpstreamCommit string     `json:"upstream_commit,omitempty"`
	PatchedCommit  string     `json:"patched_commit,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}

// Skipped reports whether the tag reached a skip state rather than being
// published or erroring out.
func (r TagResult) Skipped() bool {
	switch r.Outcome {
	case OutcomeSkippedExists, OutcomeSkippedPatchFails, OutcomeSkippedNoOp:
		return true
	}
	return false
}

// RunSummary aggregates the per-tag results of one pipeline run.
type RunSummary struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	PrunedTags []string    `json:"pruned_tags,omitempty"`
	Results    []TagResult `json:"results,omitempty"`
}

// Add appends a tag result to the summary.
func (s *RunSummary) Add(r TagResult) {
	s.Results = append(s.Results, r)
}

// Published returns the number of tags that ended in OutcomePublished.
func (s *RunSummary) Published() int {
	return s.count(OutcomePublished)
}

// Planned returns the number of tags a dry run would have published.
func (s *RunSummary) Planned() int {
	return s.count(OutcomePlanned)
}

// Skipped returns the number of tags that ended in any skip state.
func (s *RunSummary) Skipped() int {
	n := 0
	for _, r := range s.Results {
		if r.Skipped() {
			n++
		}
	}
	return n
}

// Failed returns the number of tags that ended in OutcomeFailed.
func (s *RunSummary) Failed() int {
	return s.count(OutcomeFailed)
}

func (s *RunSummary) count(outcome TagOutcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}
