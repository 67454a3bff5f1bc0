package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func TestRunCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	r := &Run{
		ID:           "run-1",
		StartedAt:    "2026-08-23T10:00:00Z",
		FinishedAt:   "2026-08-23T10:00:02Z",
		Files:        3,
		Associations: 12,
		Survivors:    7,
	}
	if err := s.InsertRun(r); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	found, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if found == nil {
		t.Fatal("expected run, got nil")
	}
	if found.Files != 3 || found.Associations != 12 || found.Survivors != 7 {
		t.Errorf("unexpected counters: %+v", found)
	}

	missing, err := s.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing run, got %+v", missing)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}

func TestListRunsOrder(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	older := &Run{ID: "a", StartedAt: "2026-08-22T09:00:00Z", FinishedAt: "2026-08-22T09:00:01Z"}
	newer := &Run{ID: "b", StartedAt: "2026-08-23T09:00:00Z", FinishedAt: "2026-08-23T09:00:01Z"}
	if err := s.InsertRun(older); err != nil {
		t.Fatalf("InsertRun older: %v", err)
	}
	if err := s.InsertRun(newer); err != nil {
		t.Fatalf("InsertRun newer: %v", err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[1].ID != "a" {
		t.Errorf("expected most recent first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestInsertEntryBatch(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	r := &Run{ID: "run-1", StartedAt: Now(), FinishedAt: Now()}
	if err := s.InsertRun(r); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	// 700 entries triggers three chunks: 332 + 332 + 36
	entries := make([]Entry, 700)
	for i := range entries {
		entries[i] = Entry{
			Value:    fmt.Sprintf("value_%03d", i),
			Function: fmt.Sprintf("func_%d", i%5),
		}
	}
	if err := s.InsertEntryBatch("run-1", entries); err != nil {
		t.Fatalf("InsertEntryBatch: %v", err)
	}

	count, err := s.CountEntries("run-1")
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 700 {
		t.Fatalf("expected 700 entries, got %d", count)
	}

	// Re-insert with new functions (should update via ON CONFLICT, not duplicate)
	for i := range entries {
		entries[i].Function = "rebound"
	}
	if err := s.InsertEntryBatch("run-1", entries); err != nil {
		t.Fatalf("InsertEntryBatch re-insert: %v", err)
	}
	count, _ = s.CountEntries("run-1")
	if count != 700 {
		t.Errorf("expected 700 after re-insert, got %d", count)
	}

	stored, err := s.EntriesForRun("run-1")
	if err != nil {
		t.Fatalf("EntriesForRun: %v", err)
	}
	if stored[0].Function != "rebound" {
		t.Errorf("expected updated function, got %s", stored[0].Function)
	}
}

func TestInsertEntryBatchEmpty(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.InsertEntryBatch("run-1", nil); err != nil {
		t.Fatalf("InsertEntryBatch nil: %v", err)
	}
}

func TestRecordRun(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	r := &Run{ID: "run-1", StartedAt: Now(), FinishedAt: Now(), Files: 2, Associations: 5, Survivors: 3}
	mapping := map[string]string{
		"zeta":  "f3",
		"alpha": "f1",
		"mid":   "f2",
	}
	if err := s.RecordRun(r, mapping); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	found, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if found == nil || found.Survivors != 3 {
		t.Fatalf("unexpected run: %+v", found)
	}

	entries, err := s.EntriesForRun("run-1")
	if err != nil {
		t.Fatalf("EntriesForRun: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Value order
	if entries[0].Value != "alpha" || entries[1].Value != "mid" || entries[2].Value != "zeta" {
		t.Errorf("unexpected order: %+v", entries)
	}
	if entries[0].Function != "f1" {
		t.Errorf("expected f1, got %s", entries[0].Function)
	}
}

func TestTransactionRollback(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	boom := errors.New("boom")
	err = s.WithTransaction(func(txStore *Store) error {
		r := &Run{ID: "run-1", StartedAt: Now(), FinishedAt: Now()}
		if err := txStore.InsertRun(r); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	found, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if found != nil {
		t.Errorf("expected rollback to discard run, got %+v", found)
	}
}

func TestCascadeDelete(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	r := &Run{ID: "run-1", StartedAt: Now(), FinishedAt: Now()}
	if err := s.RecordRun(r, map[string]string{"a": "f1", "b": "f2"}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	// Deleting the run must cascade to its entries
	if err := s.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	count, _ := s.CountEntries("run-1")
	if count != 0 {
		t.Errorf("expected 0 entries after cascade, got %d", count)
	}
}

func TestDuplicateRunID(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	r := &Run{ID: "run-1", StartedAt: Now(), FinishedAt: Now()}
	if err := s.InsertRun(r); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if err := s.InsertRun(r); err == nil {
		t.Error("expected primary key violation on duplicate run id")
	}
}

func TestPragmaSettings(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	var val string
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&val); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if val != "1" {
		t.Errorf("PRAGMA foreign_keys = %q, want %q", val, "1")
	}
}

func TestBatchSizeSafety(t *testing.T) {
	// Verify the formula-derived batch size stays under SQLite's 999 bind variable limit.
	if numEntryCols*entriesBatchSize >= 999 {
		t.Errorf("entry batch exceeds limit: %d cols × %d rows = %d (max 998)",
			numEntryCols, entriesBatchSize, numEntryCols*entriesBatchSize)
	}
}
