// Package store persists run history of the QS tool: which checks
// failed on which song and which songs were uploaded, so repeated runs
// can be compared.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout stores timestamps as fixed-width RFC3339 text so the
// lexicographic column order matches the chronological one.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the QS run database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Run is one recorded invocation.
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Songs      int
	Issues     int
}

// IssueRecord is one failed check in a run.
type IssueRecord struct {
	RunID string
	File  string
	Check string
}

// UploadRecord is one song pushed to ChurchTools in a run.
type UploadRecord struct {
	RunID  string
	File   string
	SongID int
}

// Open creates or opens the run database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		songs INTEGER NOT NULL DEFAULT 0,
		issues INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS issues (
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		check_name TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);
	CREATE INDEX IF NOT EXISTS idx_issues_file ON issues(file);

	CREATE TABLE IF NOT EXISTS uploads (
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		song_id INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_uploads_run ON uploads(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records the start of an invocation and returns its id.
func (s *Store) BeginRun(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, command, started_at) VALUES (?, ?, ?)`,
		id, command, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// FinishRun closes a run with its totals.
func (s *Store) FinishRun(runID string, songs, issues int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, songs = ?, issues = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), songs, issues, runID)
	if err != nil {
		return fmt.Errorf("failed to record run end: %w", err)
	}
	return nil
}

// RecordIssue stores one failed check.
func (s *Store) RecordIssue(runID, file, check string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO issues (run_id, file, check_name) VALUES (?, ?, ?)`,
		runID, file, check)
	if err != nil {
		return fmt.Errorf("failed to record issue: %w", err)
	}
	return nil
}

// RecordUpload stores one uploaded song.
func (s *Store) RecordUpload(runID, file string, songID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO uploads (run_id, file, song_id) VALUES (?, ?, ?)`,
		runID, file, songID)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run, or nil when the store
// is empty.
func (s *Store) LastRun() (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, command, started_at, COALESCE(finished_at, started_at), songs, issues
		 FROM runs ORDER BY started_at DESC LIMIT 1`)

	var run Run
	var started, finished string
	err := row.Scan(&run.ID, &run.Command, &started, &finished,
		&run.Songs, &run.Issues)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("failed to parse run start: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("failed to parse run end: %w", err)
	}
	return &run, nil
}

// IssueCounts returns how often each check failed in a run.
func (s *Store) IssueCounts(runID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT check_name, COUNT(*) FROM issues WHERE run_id = ? GROUP BY check_name`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var check string
		var n int
		if err := rows.Scan(&check, &n); err != nil {
			return nil, fmt.Errorf("failed to scan issue count: %w", err)
		}
		counts[check] = n
	}
	return counts, rows.Err()
}

// Issues returns all recorded issues of a run, ordered by file.
func (s *Store) Issues(runID string) ([]IssueRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT run_id, file, check_name FROM issues WHERE run_id = ? ORDER BY file, check_name`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load issues: %w", err)
	}
	defer rows.Close()

	var issues []IssueRecord
	for rows.Next() {
		var rec IssueRecord
		if err := rows.Scan(&rec.RunID, &rec.File, &rec.Check); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, rec)
	}
	return issues, rows.Err()
}
