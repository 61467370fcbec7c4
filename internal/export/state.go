package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB records which workouts have already been exported so repeat runs
// only fetch and write what is new.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS exported_workouts (
		track_id    TEXT PRIMARY KEY,
		file        TEXT NOT NULL,
		run_id      TEXT NOT NULL,
		exported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsExported checks whether a workout already has a CSV on disk from a
// previous run.
func (s *StateDB) IsExported(trackID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM exported_workouts WHERE track_id = ?`,
		trackID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkExported records that a workout's CSV was written, tagged with the
// export run that produced it.
func (s *StateDB) MarkExported(trackID, file, runID string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO exported_workouts (track_id, file, run_id) VALUES (?, ?, ?)`,
		trackID, file, runID,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
