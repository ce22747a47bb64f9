// Package spatialdb is the authoritative local view of a node's two peer
// relations (Colleague and Neighbour) and the geometric queries answered
// against them: distance, radius, closest-N and random-N.
package spatialdb

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/user/geomesh/geo"
	"github.com/user/geomesh/logging"
	"github.com/user/geomesh/model"
)

// SpatialDatabase is a mutex-guarded map of NodeDbEntry values keyed by
// identity, scoped to a single self location. It knows only self's
// location, not self's NodeId, so it does not itself keep self out of
// either view.
type SpatialDatabase struct {
	mu   sync.RWMutex
	self model.GpsLocation
	byId map[string]model.NodeDbEntry

	store RecordStore
	log   *logging.Logger
}

// New creates a SpatialDatabase for a node located at self, backed by an
// in-memory MapRecordStore. Use NewWithStore to attach a durable adapter.
func New(self model.GpsLocation) *SpatialDatabase {
	return NewWithStore(self, NewMapRecordStore())
}

// NewWithStore creates a SpatialDatabase whose write-behind durability sink
// is store (spec_full.md §4.1: RecordStore is a best-effort collaborator,
// not a correctness dependency — every read is answered from the in-memory
// index regardless of store health).
func NewWithStore(self model.GpsLocation, store RecordStore) *SpatialDatabase {
	db := &SpatialDatabase{
		self:  self,
		byId:  make(map[string]model.NodeDbEntry),
		store: store,
		log:   logging.New("spatialdb"),
	}
	if store != nil {
		entries, err := store.All()
		if err != nil {
			db.log.Warn("record store load failed, starting empty: %v", err)
		}
		for _, e := range entries {
			db.byId[e.Id().Key()] = e
		}
	}
	return db
}

// Store inserts or overwrites entry. Whether entry's identity collides
// with the database's own self identity is not checked here (node.Node is
// the one that knows its own NodeId); this layer only rejects empty ids.
func (db *SpatialDatabase) Store(entry model.NodeDbEntry) bool {
	if len(entry.Id()) == 0 {
		return false
	}
	db.mu.Lock()
	db.byId[entry.Id().Key()] = entry
	db.mu.Unlock()

	db.persist(entry)
	return true
}

// Load looks up a stored entry's NodeInfo by identity.
func (db *SpatialDatabase) Load(id model.NodeId) (model.NodeInfo, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	entry, ok := db.byId[id.Key()]
	if !ok {
		return model.NodeInfo{}, false
	}
	return entry.Info, true
}

// Update mutates a stored entry's NodeInfo in place, preserving its
// relation and role. Returns false if no entry exists for info's identity.
func (db *SpatialDatabase) Update(info model.NodeInfo) bool {
	db.mu.Lock()
	entry, ok := db.byId[info.Id().Key()]
	if !ok {
		db.mu.Unlock()
		return false
	}
	entry.Info = info
	db.byId[info.Id().Key()] = entry
	db.mu.Unlock()

	db.persist(entry)
	return true
}

// Remove deletes a stored entry. Returns false if it was not present.
func (db *SpatialDatabase) Remove(id model.NodeId) bool {
	db.mu.Lock()
	_, ok := db.byId[id.Key()]
	delete(db.byId, id.Key())
	db.mu.Unlock()

	if ok && db.store != nil {
		if err := db.store.Delete(id); err != nil {
			db.log.Warn("record store delete failed for %s: %v", id, err)
		}
	}
	return ok
}

// GetNodeCount returns how many entries are stored under relation.
func (db *SpatialDatabase) GetNodeCount(relation model.RelationType) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	count := 0
	for _, e := range db.byId {
		if e.Relation == relation {
			count++
		}
	}
	return count
}

// GetNeighbourhoodRadiusKm returns the maximum self-distance over all
// currently stored Neighbours, or 0 if there are none.
func (db *SpatialDatabase) GetNeighbourhoodRadiusKm() float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	max := 0.0
	for _, e := range db.byId {
		if e.Relation != model.RelationNeighbour {
			continue
		}
		d := geo.DistanceKm(db.self, e.Location())
		if d > max {
			max = d
		}
	}
	return max
}

// GetRandomNodes returns up to maxCount entries sampled uniformly without
// replacement from the entries matching filter.
func (db *SpatialDatabase) GetRandomNodes(maxCount int, filter model.NeighboursFilter) []model.NodeInfo {
	db.mu.RLock()
	candidates := make([]model.NodeInfo, 0, len(db.byId))
	for _, e := range db.byId {
		if filter.Matches(e.Relation) {
			candidates = append(candidates, e.Info)
		}
	}
	db.mu.RUnlock()

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if maxCount >= 0 && maxCount < len(candidates) {
		candidates = candidates[:maxCount]
	}
	return candidates
}

// GetClosestNodes returns entries matching filter within radiusKm of
// center, sorted ascending by distance and truncated to maxCount. Ties in
// distance are broken by NodeId lexicographic order.
func (db *SpatialDatabase) GetClosestNodes(center model.GpsLocation, radiusKm float64, maxCount int, filter model.NeighboursFilter) []model.NodeInfo {
	type ranked struct {
		info model.NodeInfo
		dist float64
	}

	db.mu.RLock()
	candidates := make([]ranked, 0, len(db.byId))
	for _, e := range db.byId {
		if !filter.Matches(e.Relation) {
			continue
		}
		d := geo.DistanceKm(center, e.Location())
		if d <= radiusKm {
			candidates = append(candidates, ranked{info: e.Info, dist: d})
		}
	}
	db.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].info.Id().String() < candidates[j].info.Id().String()
	})

	if maxCount >= 0 && maxCount < len(candidates) {
		candidates = candidates[:maxCount]
	}
	result := make([]model.NodeInfo, len(candidates))
	for i, c := range candidates {
		result[i] = c.info
	}
	return result
}

// GetDistanceKm returns the great-circle distance between a and b.
func (db *SpatialDatabase) GetDistanceKm(a, b model.GpsLocation) float64 {
	return geo.DistanceKm(a, b)
}

// ClosestColleague returns the stored Colleague nearest to candidate, used
// by the admission rule's bubble-overlap check. Returns false if there are
// no stored Colleagues.
func (db *SpatialDatabase) ClosestColleague(candidate model.GpsLocation) (model.NodeInfo, float64, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var best model.NodeInfo
	bestDist := 0.0
	found := false
	for _, e := range db.byId {
		if e.Relation != model.RelationColleague {
			continue
		}
		d := geo.DistanceKm(candidate, e.Location())
		if !found || d < bestDist {
			best, bestDist, found = e.Info, d, true
		}
	}
	return best, bestDist, found
}

func (db *SpatialDatabase) persist(entry model.NodeDbEntry) {
	if db.store == nil {
		return
	}
	if err := db.store.Save(entry); err != nil {
		db.log.Warn("record store save failed for %s: %v", entry.Id(), err)
	}
}
