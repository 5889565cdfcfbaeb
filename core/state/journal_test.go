package state

import (
	"errors"
	"testing"

	"synthd/storage"
)

func TestJournalPassthroughWhenInactive(t *testing.T) {
	db := storage.NewMemDB()
	journal := NewJournal(db)

	if err := journal.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get from db: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestJournalStagesUntilCommit(t *testing.T) {
	db := storage.NewMemDB()
	journal := NewJournal(db)

	journal.Begin()
	if err := journal.Put([]byte("key"), []byte("staged")); err != nil {
		t.Fatalf("put: %v", err)
	}

	// The write is visible through the journal but not yet in the database.
	got, err := journal.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get staged: %v", err)
	}
	if string(got) != "staged" {
		t.Fatalf("unexpected staged value: %q", got)
	}
	if _, err := db.Get([]byte("key")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected staged write invisible in db, got %v", err)
	}

	if err := journal.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err = db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get after commit: %v", err)
	}
	if string(got) != "staged" {
		t.Fatalf("unexpected committed value: %q", got)
	}
}

func TestJournalRollbackDiscards(t *testing.T) {
	db := storage.NewMemDB()
	if err := db.Put([]byte("key"), []byte("before")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	journal := NewJournal(db)

	journal.Begin()
	if err := journal.Put([]byte("key"), []byte("after")); err != nil {
		t.Fatalf("put: %v", err)
	}
	journal.Rollback()

	got, err := journal.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get after rollback: %v", err)
	}
	if string(got) != "before" {
		t.Fatalf("expected original value, got %q", got)
	}
}

func TestJournalConfinesStagedReads(t *testing.T) {
	db := storage.NewMemDB()
	if err := db.Put([]byte("key"), []byte("before")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	journal := NewJournal(db)

	journal.Begin()
	if err := journal.Put([]byte("key"), []byte("after")); err != nil {
		t.Fatalf("put: %v", err)
	}

	// The goroutine that opened the scope observes its staged write.
	got, err := journal.Get([]byte("key"))
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if string(got) != "after" {
		t.Fatalf("owner expected staged value, got %q", got)
	}

	// Any other reader sees only the committed value while the scope is
	// open; if the operation later rolls back, the staged write must never
	// have been visible.
	type read struct {
		value []byte
		err   error
	}
	other := make(chan read, 1)
	go func() {
		value, err := journal.Get([]byte("key"))
		other <- read{value: value, err: err}
	}()
	r := <-other
	if r.err != nil {
		t.Fatalf("concurrent get: %v", r.err)
	}
	if string(r.value) != "before" {
		t.Fatalf("concurrent reader saw %q, want committed %q", r.value, "before")
	}

	journal.Rollback()
	got, err = journal.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get after rollback: %v", err)
	}
	if string(got) != "before" {
		t.Fatalf("expected original value after rollback, got %q", got)
	}
}

func TestJournalReadsFallThroughToDatabase(t *testing.T) {
	db := storage.NewMemDB()
	if err := db.Put([]byte("base"), []byte("persisted")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	journal := NewJournal(db)

	journal.Begin()
	got, err := journal.Get([]byte("base"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("unexpected value: %q", got)
	}
	journal.Rollback()
}
