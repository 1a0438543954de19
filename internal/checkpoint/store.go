package checkpoint

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"codenerd/internal/coreerr"
)

// decodeCheckpoint decodes a JSON-encoded checkpoint per §6: "Unknown
// fields are rejected; version > CURRENT_VERSION rejected with
// VersionMismatch."
func decodeCheckpoint(payload []byte) (Checkpoint, *coreerr.Error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var cp Checkpoint
	if err := dec.Decode(&cp); err != nil {
		return Checkpoint{}, coreerr.New(coreerr.KindDeserializeFailed, err.Error(), nil)
	}
	if cp.Version > CurrentVersion {
		return cp, coreerr.New(coreerr.KindVersionMismatch,
			fmt.Sprintf("checkpoint version %d exceeds supported version %d", cp.Version, CurrentVersion),
			map[string]any{"version": cp.Version})
	}
	return cp, nil
}

// Store persists checkpoints to a local sqlite database, one row per
// sequence number, grounded on the teacher's internal/northstar.Store
// schema-on-open / mutex-guarded sql.DB shape.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
	path string
}

// NewStore opens (creating if absent) a sqlite-backed checkpoint store
// at dir/checkpoints.db.
func NewStore(dir string) (*Store, error) {
	path := filepath.Join(dir, "checkpoints.db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open db: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			sequence INTEGER PRIMARY KEY,
			task_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			payload_json TEXT NOT NULL,
			reason TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_checkpoints_task ON checkpoints(task_id);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save persists a checkpoint under the given task identifier.
func (s *Store) Save(taskID string, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(cp)
	if err != nil {
		return coreerr.New(coreerr.KindSerializeFailed, err.Error(), nil)
	}

	_, err = s.db.Exec(`
		INSERT INTO checkpoints (sequence, task_id, version, payload_json, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(sequence) DO UPDATE SET payload_json = excluded.payload_json
	`, cp.Sequence, taskID, cp.Version, string(payload), cp.Reason, cp.CreatedAt)
	if err != nil {
		return fmt.Errorf("checkpoint: insert: %w", err)
	}
	return nil
}

// LoadLatest retrieves the highest-sequence checkpoint recorded for a
// task, or ok=false if none exist.
func (s *Store) LoadLatest(taskID string) (Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(`
		SELECT payload_json FROM checkpoints
		WHERE task_id = ?
		ORDER BY sequence DESC LIMIT 1
	`, taskID).Scan(&payload)
	if err == sql.ErrNoRows {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("checkpoint: query: %w", err)
	}

	cp, decodeErr := decodeCheckpoint([]byte(payload))
	if decodeErr != nil {
		return Checkpoint{}, false, decodeErr
	}
	return cp, true, nil
}

// LoadBySequence retrieves a specific checkpoint by sequence number.
func (s *Store) LoadBySequence(seq uint64) (Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(`SELECT payload_json FROM checkpoints WHERE sequence = ?`, seq).Scan(&payload)
	if err == sql.ErrNoRows {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("checkpoint: query: %w", err)
	}

	cp, decodeErr := decodeCheckpoint([]byte(payload))
	if decodeErr != nil {
		return Checkpoint{}, false, decodeErr
	}
	return cp, true, nil
}

// PruneOlderThan deletes rows created before cutoff, returning the count
// removed.
func (s *Store) PruneOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM checkpoints WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: prune: %w", err)
	}
	return res.RowsAffected()
}
