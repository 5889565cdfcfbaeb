package storage

import (
	"errors"
	"testing"
)

func TestMemDBBasicOperations(t *testing.T) {
	db := NewMemDB()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("unexpected value: %q", got)
	}

	has, err := db.Has([]byte("key"))
	if err != nil || !has {
		t.Fatalf("expected key present, has=%v err=%v", has, err)
	}

	if err := db.Delete([]byte("key")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("key")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("original")
	if err := db.Put([]byte("key"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X'

	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
	got[0] = 'Y'
	again, _ := db.Get([]byte("key"))
	if string(again) != "original" {
		t.Fatalf("returned value aliased store: %q", again)
	}
}

func TestMemDBWriteBatch(t *testing.T) {
	db := NewMemDB()
	if err := db.Put([]byte("a"), []byte("old")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	writes := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
		"c": []byte("3"),
	}
	if err := db.WriteBatch(writes); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	for key, want := range writes {
		got, err := db.Get([]byte(key))
		if err != nil {
			t.Fatalf("get %q: %v", key, err)
		}
		if string(got) != string(want) {
			t.Fatalf("key %q: got %q want %q", key, got, want)
		}
	}

	// Batched values must not alias the caller's buffers.
	writes["b"][0] = 'X'
	got, err := db.Get([]byte("b"))
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if string(got) != "2" {
		t.Fatalf("batched value aliased caller buffer: %q", got)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("unexpected value: %q", got)
	}
	if err := db.Delete([]byte("key")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	has, err := db.Has([]byte("key"))
	if err != nil || has {
		t.Fatalf("expected key absent, has=%v err=%v", has, err)
	}
}

func TestLevelDBWriteBatch(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	writes := map[string][]byte{
		"x": []byte("10"),
		"y": []byte("20"),
	}
	if err := db.WriteBatch(writes); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	for key, want := range writes {
		got, err := db.Get([]byte(key))
		if err != nil {
			t.Fatalf("get %q: %v", key, err)
		}
		if string(got) != string(want) {
			t.Fatalf("key %q: got %q want %q", key, got, want)
		}
	}
}
