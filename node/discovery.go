package node

import (
	"math/rand"

	"github.com/user/geomesh/model"
)

// DiscoverWorld bootstraps the Colleague view by contacting a random seed
// node, then filling in further colleagues until the number added in the
// fill phase (the seed itself not counted) reaches
// InitWorldNodeFillTargetRate of the seed's advertised Colleague count.
// Transcribed from Node::DiscoverWorld (original_source/src/locnet.cpp).
func (n *Node) DiscoverWorld() bool {
	if len(n.seeds) == 0 {
		return n.isSelfASeed()
	}

	triedSeeds := make(map[string]bool, len(n.seeds))
	var seedColleagueCount uint64
	var candidates []model.NodeInfo

	for len(triedSeeds) < len(n.seeds) {
		idx := rand.Intn(len(n.seeds))
		seed := n.seeds[idx]
		if triedSeeds[seed.Id().Key()] {
			continue
		}
		triedSeeds[seed.Id().Key()] = true

		conn := n.SafeConnectTo(seed.Profile)
		if conn == nil {
			continue
		}

		count, err := conn.GetNodeCount(model.RelationColleague)
		if err != nil {
			n.log.Warn("failed to query seed %s node count: %v", seed.Id(), err)
			conn.Close()
			continue
		}
		requestCount := count
		if requestCount > InitWorldRandomNodeCount {
			requestCount = InitWorldRandomNodeCount
		}
		got, err := conn.GetRandomNodes(uint32(requestCount), model.Excluded)
		if err != nil {
			n.log.Warn("failed to fetch random nodes from seed %s: %v", seed.Id(), err)
			conn.Close()
			continue
		}
		conn.Close()

		seedColleagueCount = count
		candidates = got

		if seedColleagueCount > 0 && len(candidates) > 0 {
			seedDistance := n.db.GetDistanceKm(n.self.Location, seed.Location)
			relation := model.RelationColleague
			if seedDistance <= NeighbourhoodMaxRangeKm {
				relation = model.RelationNeighbour
			}
			n.SafeStoreNode(model.NodeDbEntry{Info: seed, Relation: relation, Role: model.RoleInitiator}, nil)
			break
		}
	}

	if seedColleagueCount == 0 && len(candidates) == 0 && len(triedSeeds) == len(n.seeds) {
		if !n.isSelfASeed() {
			n.log.Error("all seed nodes have been tried and failed, giving up")
			return false
		}
	}

	targetColleagueCount := int(InitWorldNodeFillTargetRate * float64(seedColleagueCount))
	addedColleagueCount := 0
	for addedColleagueCount < targetColleagueCount {
		if len(candidates) > 0 {
			candidate := candidates[len(candidates)-1]
			candidates = candidates[:len(candidates)-1]
			if n.SafeStoreNode(model.NodeDbEntry{Info: candidate, Relation: model.RelationColleague, Role: model.RoleInitiator}, nil) {
				addedColleagueCount++
			}
			continue
		}

		refilled, ok := n.refillColleagueCandidates()
		if !ok {
			n.log.Error("ran out of colleague candidates while filling the world map")
			return false
		}
		candidates = refilled
	}

	return true
}

// refillColleagueCandidates picks a random node already known locally,
// dials it, and asks it for a fresh batch of random Colleague candidates.
func (n *Node) refillColleagueCandidates() ([]model.NodeInfo, bool) {
	for {
		known := n.db.GetRandomNodes(1, model.Excluded)
		if len(known) == 0 {
			return nil, false
		}

		conn := n.SafeConnectTo(known[0].Profile)
		if conn == nil {
			continue
		}

		candidates, err := conn.GetRandomNodes(InitWorldRandomNodeCount, model.Excluded)
		conn.Close()
		if err != nil {
			n.log.Warn("failed to fetch more random nodes: %v", err)
			continue
		}
		return candidates, true
	}
}

// isSelfASeed reports whether this node's own identity appears in the seed
// list — the founding-node case, where every seed is legitimately
// unreachable because the network has no other members yet.
func (n *Node) isSelfASeed() bool {
	for _, seed := range n.seeds {
		if seed.Id().Equal(n.self.Id()) {
			return true
		}
	}
	return false
}

// DiscoverNeighbourhood fills the Neighbour view: first a greedy descent
// toward the node geometrically closest to self, then a breadth-first
// expansion outward from that fixed point, up to NeighbourhoodMaxNodeCount.
// Transcribed from Node::DiscoverNeighbourhood
// (original_source/src/locnet.cpp).
func (n *Node) DiscoverNeighbourhood() bool {
	closest := n.db.GetClosestNodes(n.self.Location, maxDistanceKm, 1, model.Included)
	if len(closest) == 0 {
		return false
	}

	for {
		conn := n.SafeConnectTo(closest[0].Profile)
		if conn == nil {
			return false
		}
		next, err := conn.GetClosestNodes(n.self.Location, maxDistanceKm, 1, model.Included)
		conn.Close()
		if err != nil {
			n.log.Warn("failed to fetch neighbours during descent: %v", err)
			return false
		}
		if len(next) == 0 {
			return false
		}
		if next[0].Id().Equal(closest[0].Id()) {
			break
		}
		closest = next
	}

	queue := append([]model.NodeInfo{}, closest...)
	asked := make(map[string]bool)
	neighbourCount := 0

	for neighbourCount < NeighbourhoodMaxNodeCount && len(queue) > 0 {
		candidate := queue[0]
		queue = queue[1:]

		if asked[candidate.Id().Key()] {
			continue
		}

		conn := n.SafeConnectTo(candidate.Profile)
		if conn == nil {
			continue
		}

		if n.SafeStoreNode(model.NodeDbEntry{Info: candidate, Relation: model.RelationNeighbour, Role: model.RoleInitiator}, conn) {
			neighbourCount++
		}

		more, err := conn.GetClosestNodes(n.self.Location, NeighbourhoodMaxRangeKm, InitNeighbourhoodQueryNodeCount, model.Included)
		conn.Close()
		if err != nil {
			n.log.Warn("failed to fetch closest nodes from %s: %v", candidate.Id(), err)
			continue
		}

		asked[candidate.Id().Key()] = true
		queue = append(queue, more...)
	}

	return true
}

// maxDistanceKm stands in for the original's numeric_limits<Distance>::max()
// radius used to mean "no radius bound" when descending toward the
// geometrically closest known node.
const maxDistanceKm = 1e18
