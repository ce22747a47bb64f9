package spatialdb

import (
	"sync"

	"github.com/user/geomesh/model"
)

// RecordStore is the durability collaborator behind a SpatialDatabase. It
// is a write-behind sink, not a correctness dependency: SpatialDatabase
// answers every read from its own in-memory index and treats store errors
// as non-fatal (spec_full.md §4.1).
type RecordStore interface {
	// All returns every persisted entry, used once at startup to warm the
	// in-memory index.
	All() ([]model.NodeDbEntry, error)
	// Save inserts or overwrites one entry.
	Save(entry model.NodeDbEntry) error
	// Delete removes one entry by identity. Deleting an absent id is not
	// an error.
	Delete(id model.NodeId) error
}

// MapRecordStore is the default RecordStore: an in-memory map guarded by
// its own mutex, independent of SpatialDatabase's index. It exists so
// SpatialDatabase always has a RecordStore to write through even when no
// external adapter (spatialdb/postgres) is configured.
type MapRecordStore struct {
	mu   sync.Mutex
	byId map[string]model.NodeDbEntry
}

// NewMapRecordStore creates an empty in-memory record store.
func NewMapRecordStore() *MapRecordStore {
	return &MapRecordStore{byId: make(map[string]model.NodeDbEntry)}
}

func (s *MapRecordStore) All() ([]model.NodeDbEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.NodeDbEntry, 0, len(s.byId))
	for _, e := range s.byId {
		out = append(out, e)
	}
	return out, nil
}

func (s *MapRecordStore) Save(entry model.NodeDbEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byId[entry.Id().Key()] = entry
	return nil
}

func (s *MapRecordStore) Delete(id model.NodeId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byId, id.Key())
	return nil
}
