package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forkline/forkline/internal/domain"
	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
)

const (
	// JournalSchemaVersion defines the current schema version for journal files
	JournalSchemaVersion = "1.0.0"
	// JournalFilePermissions defines the permissions for journal files
	JournalFilePermissions = 0600
	// JournalDirPermissions defines the permissions for the journal directory
	JournalDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// JournalRepository records run outcomes for observability. Records are
// never consulted by publish decisions; git refs remain the only
// authoritative state.
type JournalRepository interface {
	Save(ctx context.Context, rec *domain.RunRecord) error
	Load(ctx context.Context, sessionID string) (*domain.RunRecord, error)
	LoadLatest(ctx context.Context) (*domain.RunRecord, error)
}

// journalMetadata contains metadata about the journal file.
type journalMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// journalWrapper wraps the record with metadata.
type journalWrapper struct {
	Metadata journalMetadata   `json:"metadata"`
	Record   *domain.RunRecord `json:"record"`
}

// JSONJournalRepository implements JournalRepository using JSON file storage.
type JSONJournalRepository struct {
	fs  afero.Fs
	dir string
	mu  sync.RWMutex
}

// NewJSONJournalRepository creates a new JSON-based journal repository.
func NewJSONJournalRepository(fs afero.Fs, dir string) *JSONJournalRepository {
	if dir == "" {
		dir = ".forkline-state"
	}
	return &JSONJournalRepository{fs: fs, dir: dir}
}

// Save persists the run record with file locking and atomic replace.
func (r *JSONJournalRepository) Save(ctx context.Context, rec *domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fs.MkdirAll(r.dir, JournalDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure journal directory: %w", err)
	}
	lock := flock.New(r.lockFilename(rec.SessionID))
	if err := r.acquireLock(ctx, lock, false); err != nil {
		return err
	}
	defer r.unlock(lock)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	wrapper := journalWrapper{
		Metadata: journalMetadata{
			SchemaVersion: JournalSchemaVersion,
			Checksum:      checksum(data),
			CreatedAt:     rec.StartedAt,
			UpdatedAt:     time.Now(),
		},
		Record: rec,
	}
	payload, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal wrapper: %w", err)
	}
	// Write atomically using temp file
	filename := r.recordFilename(rec.SessionID)
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, payload, JournalFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp journal file: %w", err)
	}
	if err := r.fs.Rename(tempFile, filename); err != nil {
		return fmt.Errorf("failed to replace journal file: %w", err)
	}
	return nil
}

// Load reads the run record for the given session.
func (r *JSONJournalRepository) Load(ctx context.Context, sessionID string) (*domain.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lock := flock.New(r.lockFilename(sessionID))
	if err := r.acquireLock(ctx, lock, true); err != nil {
		return nil, err
	}
	defer r.unlock(lock)
	payload, err := afero.ReadFile(r.fs, r.recordFilename(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	var wrapper journalWrapper
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal file: %w", err)
	}
	if wrapper.Record == nil {
		return nil, fmt.Errorf("journal file for session %s has no record", sessionID)
	}
	data, err := json.Marshal(wrapper.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to verify journal checksum: %w", err)
	}
	if checksum(data) != wrapper.Metadata.Checksum {
		return nil, fmt.Errorf("journal file for session %s failed checksum verification", sessionID)
	}
	return wrapper.Record, nil
}

// LoadLatest reads the most recently updated run record.
func (r *JSONJournalRepository) LoadLatest(ctx context.Context) (*domain.RunRecord, error) {
	sessions, err := r.sessions()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no journal records found in %s", r.dir)
	}
	var latest *domain.RunRecord
	for _, id := range sessions {
		rec, err := r.Load(ctx, id)
		if err != nil {
			continue
		}
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no readable journal records found in %s", r.dir)
	}
	return latest, nil
}

func (r *JSONJournalRepository) sessions() ([]string, error) {
	infos, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}
	var out []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

// acquireLock takes the flock with constant-interval retries up to LockTimeout.
func (r *JSONJournalRepository) acquireLock(ctx context.Context, lock *flock.Flock, shared bool) error {
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	backoff := retry.NewConstant(LockRetryInterval)
	err := retry.Do(lockCtx, backoff, func(context.Context) error {
		var locked bool
		var err error
		if shared {
			locked, err = lock.TryRLock()
		} else {
			locked, err = lock.TryLock()
		}
		if err != nil {
			return err
		}
		if !locked {
			return retry.RetryableError(fmt.Errorf("journal lock is held"))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to acquire journal lock: %w", err)
	}
	return nil
}

func (r *JSONJournalRepository) unlock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to unlock journal file: %v\n", err)
	}
}

func (r *JSONJournalRepository) recordFilename(sessionID string) string {
	return filepath.Join(r.dir, sessionID+".json")
}

func (r *JSONJournalRepository) lockFilename(sessionID string) string {
	return filepath.Join(r.dir, sessionID+".lock")
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
