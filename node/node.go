// Package node is the top-level discovery engine: it owns the spatial
// database, the connection factory, this node's own identity, and the
// application services registry, and enforces the admission rules that
// keep the Colleague and Neighbour views consistent.
//
// Transcribed from original_source/src/locnet.cpp's Node class into
// idiomatic Go: every method that threw a C++ exception on failure instead
// returns (bool, error) or a plain error; SafeStoreNode's catch-all becomes
// a recover()-guarded conversion to a rejection.
package node

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/geomesh/geo"
	"github.com/user/geomesh/logging"
	"github.com/user/geomesh/metrics"
	"github.com/user/geomesh/model"
	"github.com/user/geomesh/spatialdb"
)

// Node is the top-level discovery engine. It satisfies
// dispatch.NodeOperations, so a *Node can be passed directly to
// dispatch.NewServerDispatcher.
type Node struct {
	self    model.NodeInfo
	db      *spatialdb.SpatialDatabase
	factory ConnectionFactory
	seeds   []model.NodeInfo

	servicesMu sync.RWMutex
	services   map[model.ServiceType]model.ServiceProfile

	log   *logging.Logger
	label string
}

// New constructs a Node. When the spatial database has zero stored
// Colleagues and ignoreDiscovery is false, it runs world discovery
// followed by neighbourhood discovery before returning, matching the C++
// constructor's eager-bootstrap behavior; a discovery failure is returned
// as an error rather than thrown. A founding node (self listed among the
// seeds) that still knows no peer after world discovery skips
// neighbourhood discovery and starts with both views empty.
func New(self model.NodeInfo, db *spatialdb.SpatialDatabase, factory ConnectionFactory, seeds []model.NodeInfo, ignoreDiscovery bool) (*Node, error) {
	if db == nil {
		return nil, errors.New("node: spatial database is required")
	}
	if factory == nil {
		return nil, errors.New("node: connection factory is required")
	}

	n := &Node{
		self:     self,
		db:       db,
		factory:  factory,
		seeds:    seeds,
		services: make(map[model.ServiceType]model.ServiceProfile),
		log:      logging.New("node." + self.Id().String()),
		label:    self.Id().String(),
	}

	if !ignoreDiscovery && db.GetNodeCount(model.RelationColleague) == 0 {
		if !n.DiscoverWorld() {
			return nil, errors.New("node: network discovery failed")
		}
		founding := n.isSelfASeed() &&
			db.GetNodeCount(model.RelationColleague)+db.GetNodeCount(model.RelationNeighbour) == 0
		if !founding && !n.DiscoverNeighbourhood() {
			return nil, errors.New("node: network discovery failed")
		}
	}

	return n, nil
}

// Self returns this node's own immutable identity snapshot.
func (n *Node) Self() model.NodeInfo { return n.self }

// RegisterService adds an application-level service registration. Fails if
// the type is already registered — ServiceType keys are unique.
func (n *Node) RegisterService(profile model.ServiceProfile) (bool, error) {
	n.servicesMu.Lock()
	defer n.servicesMu.Unlock()
	if _, exists := n.services[profile.Type]; exists {
		return false, fmt.Errorf("node: service type %q already registered", profile.Type)
	}
	n.services[profile.Type] = profile
	return true, nil
}

// RemoveService removes a service registration. Fails if the type was not
// registered.
func (n *Node) RemoveService(serviceType model.ServiceType) (bool, error) {
	n.servicesMu.Lock()
	defer n.servicesMu.Unlock()
	if _, exists := n.services[serviceType]; !exists {
		return false, fmt.Errorf("node: service type %q was not registered", serviceType)
	}
	delete(n.services, serviceType)
	return true, nil
}

// Services returns a snapshot of the current service registrations.
func (n *Node) Services() map[model.ServiceType]model.ServiceProfile {
	n.servicesMu.RLock()
	defer n.servicesMu.RUnlock()
	out := make(map[model.ServiceType]model.ServiceProfile, len(n.services))
	for k, v := range n.services {
		out[k] = v
	}
	return out
}

// AcceptColleague is the Acceptor-side handshake entry point: the remote
// peer has asked to become our Colleague.
func (n *Node) AcceptColleague(newNode model.NodeInfo) (bool, error) {
	return n.SafeStoreNode(model.NodeDbEntry{
		Info:     newNode,
		Relation: model.RelationColleague,
		Role:     model.RoleAcceptor,
	}, nil), nil
}

// AcceptNeighbour is the Acceptor-side handshake entry point for Neighbour
// admission.
func (n *Node) AcceptNeighbour(newNode model.NodeInfo) (bool, error) {
	return n.SafeStoreNode(model.NodeDbEntry{
		Info:     newNode,
		Relation: model.RelationNeighbour,
		Role:     model.RoleAcceptor,
	}, nil), nil
}

// RenewNodeConnection refreshes a stored entry's liveness. It succeeds only
// if the caller's location matches what's already stored exactly — a
// changed location would invalidate bubble geometry, so it's rejected
// rather than silently applied.
func (n *Node) RenewNodeConnection(updatedNode model.NodeInfo) (bool, error) {
	stored, ok := n.db.Load(updatedNode.Id())
	if !ok {
		return false, nil
	}
	if !stored.Location.Equal(updatedNode.Location) {
		return false, nil
	}
	return n.db.Update(updatedNode), nil
}

// GetNodeCount returns the number of stored entries under relation.
func (n *Node) GetNodeCount(relation model.RelationType) (uint64, error) {
	return uint64(n.db.GetNodeCount(relation)), nil
}

// GetNeighbourhoodRadiusKm returns the current neighbourhood radius.
func (n *Node) GetNeighbourhoodRadiusKm() (float64, error) {
	return n.db.GetNeighbourhoodRadiusKm(), nil
}

// GetRandomNodes samples entries matching filter.
func (n *Node) GetRandomNodes(maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error) {
	return n.db.GetRandomNodes(int(maxCount), filter), nil
}

// GetClosestNodes returns entries matching filter within radiusKm of
// center, ascending by distance.
func (n *Node) GetClosestNodes(center model.GpsLocation, radiusKm float64, maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error) {
	return n.db.GetClosestNodes(center, radiusKm, int(maxCount), filter), nil
}

// GetBubbleSize computes the repulsion radius a node at location projects,
// as seen from self: 500*log10(distanceKm(self, location) + 2500) - 1700.
func (n *Node) GetBubbleSize(location model.GpsLocation) float64 {
	distance := n.db.GetDistanceKm(n.self.Location, location)
	return geo.BubbleKm(distance)
}

// BubbleOverlaps reports whether a Colleague candidate at location would
// overlap the bubble of the closest already-stored Colleague. An empty
// Colleague set never overlaps.
func (n *Node) BubbleOverlaps(location model.GpsLocation) bool {
	closest, distanceFromClosest, found := n.db.ClosestColleague(location)
	if !found {
		return false
	}
	closestBubble := n.GetBubbleSize(closest.Location)
	newBubble := n.GetBubbleSize(location)
	return closestBubble+newBubble > distanceFromClosest
}

// SafeConnectTo dials profile, swallowing and logging any error. Dialling
// ourselves is refused outright — there is no point connecting to
// ourselves, and a self-loop would corrupt the admission bookkeeping.
func (n *Node) SafeConnectTo(profile model.NodeProfile) RemoteNode {
	if profile.Id.Equal(n.self.Id()) {
		return nil
	}
	conn, err := n.factory.ConnectTo(profile)
	if err != nil {
		n.log.Warn("failed to connect to %s: %v", profile.Id, err)
		return nil
	}
	return conn
}

// SafeStoreNode runs the admission rule for a candidate entry: a range/
// count precheck for Neighbour, a bubble-overlap precheck for Colleague,
// then (for an Initiator-role entry) a round trip asking the remote peer
// for permission before storing locally. If conn is non-nil, it is reused
// for the Initiator handshake instead of dialling a fresh connection (used
// by neighbourhood discovery, which already holds an open connection to
// the candidate).
func (n *Node) SafeStoreNode(entry model.NodeDbEntry, conn RemoteNode) (accepted bool) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("unexpected panic storing node %s: %v", entry.Id(), r)
			metrics.AdmissionResultsTotal.WithLabelValues(n.label, entry.Relation.String(), "panic").Inc()
			accepted = false
		}
	}()

	switch entry.Relation {
	case model.RelationNeighbour:
		if n.db.GetNodeCount(model.RelationNeighbour) >= NeighbourhoodMaxNodeCount ||
			n.db.GetDistanceKm(n.self.Location, entry.Location()) >= NeighbourhoodMaxRangeKm {
			metrics.AdmissionResultsTotal.WithLabelValues(n.label, "Neighbour", "rejected-precheck").Inc()
			return false
		}
	case model.RelationColleague:
		if n.BubbleOverlaps(entry.Location()) {
			metrics.AdmissionResultsTotal.WithLabelValues(n.label, "Colleague", "rejected-precheck").Inc()
			return false
		}
	default:
		n.log.Warn("unknown relation type in SafeStoreNode: %v", entry.Relation)
		return false
	}

	if entry.Role == model.RoleInitiator {
		if conn == nil {
			conn = n.SafeConnectTo(entry.Info.Profile)
		}
		if conn == nil {
			metrics.AdmissionResultsTotal.WithLabelValues(n.label, entry.Relation.String(), "unreachable").Inc()
			return false
		}

		var permitted bool
		var err error
		switch entry.Relation {
		case model.RelationColleague:
			permitted, err = conn.AcceptColleague(n.self)
		case model.RelationNeighbour:
			permitted, err = conn.AcceptNeighbour(n.self)
		}
		if err != nil || !permitted {
			metrics.AdmissionResultsTotal.WithLabelValues(n.label, entry.Relation.String(), "refused-remote").Inc()
			return false
		}
	}

	stored := n.db.Store(entry)
	outcome := "stored"
	if !stored {
		outcome = "store-failed"
	}
	metrics.AdmissionResultsTotal.WithLabelValues(n.label, entry.Relation.String(), outcome).Inc()
	metrics.ViewSize.WithLabelValues(n.label, entry.Relation.String()).Set(float64(n.db.GetNodeCount(entry.Relation)))
	return stored
}
