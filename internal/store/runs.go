package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Run represents one recorded pipeline execution.
type Run struct {
	ID           string
	StartedAt    string
	FinishedAt   string
	Files        int
	Associations int
	Survivors    int
}

// Entry is one surviving string/function pair belonging to a run.
type Entry struct {
	Value    string
	Function string
}

// InsertRun stores a run record.
func (s *Store) InsertRun(r *Run) error {
	_, err := s.q.Exec(`
		INSERT INTO runs (id, started_at, finished_at, files, associations, survivors)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.FinishedAt, r.Files, r.Associations, r.Survivors)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Formula-derived batch size: leave room under SQLite's 999 bind variable limit.
const numEntryCols = 3
const entriesBatchSize = 998 / numEntryCols // = 332

// InsertEntryBatch stores entries for a run in batched multi-row INSERTs.
func (s *Store) InsertEntryBatch(runID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := 0; i < len(entries); i += entriesBatchSize {
		end := i + entriesBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.insertEntryChunk(runID, entries[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertEntryChunk(runID string, batch []Entry) error {
	// Build multi-row INSERT
	var sb strings.Builder
	sb.WriteString(`INSERT INTO entries (run_id, value, func) VALUES `)

	args := make([]any, 0, len(batch)*3)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?)")
		args = append(args, runID, e.Value, e.Function)
	}
	sb.WriteString(` ON CONFLICT(run_id, value) DO UPDATE SET func=excluded.func`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert entry batch: %w", err)
	}
	return nil
}

// RecordRun stores a run and its surviving mapping in a single transaction.
// Entries are inserted in sorted value order so archive contents are stable.
func (s *Store) RecordRun(r *Run, mapping map[string]string) error {
	values := make([]string, 0, len(mapping))
	for v := range mapping {
		values = append(values, v)
	}
	sort.Strings(values)

	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		entries = append(entries, Entry{Value: v, Function: mapping[v]})
	}

	return s.WithTransaction(func(txStore *Store) error {
		if err := txStore.InsertRun(r); err != nil {
			return err
		}
		return txStore.InsertEntryBatch(r.ID, entries)
	})
}

// GetRun returns a run by ID, or nil if it does not exist.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.q.QueryRow(`SELECT id, started_at, finished_at, files, associations, survivors
		FROM runs WHERE id=?`, id)
	return scanRun(row)
}

// ListRuns returns all recorded runs, most recent first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.q.Query(`SELECT id, started_at, finished_at, files, associations, survivors
		FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var result []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Associations, &r.Survivors); err != nil {
			return nil, err
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// EntriesForRun returns a run's entries in value order.
func (s *Store) EntriesForRun(runID string) ([]Entry, error) {
	rows, err := s.q.Query("SELECT value, func FROM entries WHERE run_id=? ORDER BY value", runID)
	if err != nil {
		return nil, fmt.Errorf("entries for run: %w", err)
	}
	defer rows.Close()
	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Value, &e.Function); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CountEntries returns the number of entries stored for a run.
func (s *Store) CountEntries(runID string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM entries WHERE run_id=?", runID).Scan(&count)
	return count, err
}

// DeleteRun deletes a run and its entries (CASCADE).
func (s *Store) DeleteRun(id string) error {
	_, err := s.q.Exec("DELETE FROM runs WHERE id=?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Associations, &r.Survivors)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
