package state

import (
	"sync"

	"synthd/internal/goroutine"
	"synthd/storage"
)

// KV is the narrow key-value surface the typed store reads and writes
// through. Both the raw database and the journal satisfy it.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
}

// Journal overlays a database with a staged write set so that a multi-step
// engine operation either commits every mutation or leaves no trace. Staged
// writes are confined to the goroutine that opened the scope: the operation
// observes its own tentative state for mutate-then-validate, while every
// other reader sees only committed values, never a partial or about-to-roll-
// back intermediate.
type Journal struct {
	db storage.Database

	mu     sync.Mutex
	staged map[string][]byte
	owner  uint64
	active bool
}

// NewJournal wraps the provided database. The journal passes writes straight
// through until Begin is called.
func NewJournal(db storage.Database) *Journal {
	return &Journal{db: db}
}

// Begin opens a staging scope owned by the calling goroutine. Subsequent
// writes from that goroutine are buffered until Commit or Rollback. Scopes do
// not nest; the engine serializes operations behind its guard.
func (j *Journal) Begin() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.staged = make(map[string][]byte)
	j.owner = goroutine.ID()
	j.active = true
}

// Commit applies the staged write set to the underlying database in one
// atomic batch and closes the scope. Either every staged write lands or none
// does.
func (j *Journal) Commit() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var err error
	if len(j.staged) > 0 {
		err = j.db.WriteBatch(j.staged)
	}
	j.staged = nil
	j.owner = 0
	j.active = false
	return err
}

// Rollback discards every staged write and closes the scope.
func (j *Journal) Rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.staged = nil
	j.owner = 0
	j.active = false
}

func (j *Journal) Get(key []byte) ([]byte, error) {
	j.mu.Lock()
	if j.active && j.owner == goroutine.ID() {
		if value, ok := j.staged[string(key)]; ok {
			j.mu.Unlock()
			return append([]byte(nil), value...), nil
		}
	}
	j.mu.Unlock()
	return j.db.Get(key)
}

func (j *Journal) Put(key []byte, value []byte) error {
	j.mu.Lock()
	if j.active && j.owner == goroutine.ID() {
		j.staged[string(key)] = append([]byte(nil), value...)
		j.mu.Unlock()
		return nil
	}
	j.mu.Unlock()
	return j.db.Put(key, value)
}
