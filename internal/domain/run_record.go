package domain

import "time"

// RunStatus represents the overall status of a sync run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunStage identifies the pipeline stage a run has reached.
type RunStage string

const (
	StagePrepare   RunStage = "prepare"
	StageLink      RunStage = "link_upstream"
	StageReconcile RunStage = "reconcile"
	StagePublish   RunStage = "publish"
)

// RunRecord is the journal entry for one pipeline run. It exists for
// observability only; publish decisions never consult it.
type RunRecord struct {
	SessionID     string     `json:"session_id"`
	StartedAt     time.Time  `json:"started_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Stage         RunStage   `json:"stage"`
	Status        RunStatus  `json:"status"`
	Upstream      string     `json:"upstream"`
	DefaultBranch string     `json:"default_branch,omitempty"`
	DryRun        bool       `json:"dry_run,omitempty"`
	Summary       RunSummary `json:"summary"`
	Error         string     `json:"error,omitempty"`
}

// NewRunRecord creates a pending run record for the given session.
func NewRunRecord(sessionID, upstream string) *RunRecord {
	now := time.Now()
	return &RunRecord{
		SessionID: sessionID,
		StartedAt: now,
		UpdatedAt: now,
		Stage:     StagePrepare,
		Status:    RunStatusPending,
		Upstream:  upstream,
		Summary:   RunSummary{StartedAt: now},
	}
}

// MarkStage advances the record to the given stage.
func (r *RunRecord) MarkStage(stage RunStage) {
	r.Stage = stage
	r.Status = RunStatusRunning
	r.UpdatedAt = time.Now()
}

// MarkCompleted finalizes the record as successful.
func (r *RunRecord) MarkCompleted() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.Summary.FinishedAt = now
	r.UpdatedAt = now
}

// MarkFailed finalizes the record with the fatal error that aborted the run.
func (r *RunRecord) MarkFailed(err error) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.Error = err.Error()
	r.Summary.FinishedAt = now
	r.UpdatedAt = now
}
