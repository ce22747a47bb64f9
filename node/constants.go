package node

// Discovery and admission constants, fixed at build time.
const (
	// NeighbourhoodMaxRangeKm bounds how far a Neighbour may be from self.
	NeighbourhoodMaxRangeKm = 100.0
	// NeighbourhoodMaxNodeCount bounds the size of the Neighbour view.
	NeighbourhoodMaxNodeCount = 100
	// InitWorldRandomNodeCount is how many random Colleague candidates are
	// requested per world-discovery round trip.
	InitWorldRandomNodeCount = 100
	// InitWorldNodeFillTargetRate is the fraction of a seed's advertised
	// Colleague count that world discovery tries to reach.
	InitWorldNodeFillTargetRate = 0.75
	// InitNeighbourhoodQueryNodeCount is how many closest nodes are
	// requested per neighbourhood-discovery hop.
	InitNeighbourhoodQueryNodeCount = 10
)
