// Package model defines the data types shared by every layer of the
// overlay: node identity, contact information, geographic location, and
// the relation/role bookkeeping the spatial database persists.
package model

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// NodeId is an opaque, globally unique identifier compared by equality.
type NodeId []byte

// Equal reports whether two node ids are the same identity.
func (id NodeId) Equal(other NodeId) bool {
	return bytes.Equal(id, other)
}

// String renders the id as hex for logging.
func (id NodeId) String() string {
	return hex.EncodeToString(id)
}

// Key returns a string usable as a map key. NodeId itself isn't comparable
// via == reliably across distinct byte slices with equal content, so every
// map keyed by identity uses Key() instead of the raw NodeId.
func (id NodeId) Key() string {
	return string(id)
}

// NetworkContact carries how to reach a node. At least one address family
// must be populated; either may be left empty.
type NetworkContact struct {
	IPv4Address string
	IPv4Port    uint16
	IPv6Address string
	IPv6Port    uint16
}

// HasIPv4 reports whether the IPv4 endpoint is populated.
func (c NetworkContact) HasIPv4() bool { return c.IPv4Address != "" }

// HasIPv6 reports whether the IPv6 endpoint is populated.
func (c NetworkContact) HasIPv6() bool { return c.IPv6Address != "" }

// Valid reports whether at least one address family is present.
func (c NetworkContact) Valid() bool { return c.HasIPv4() || c.HasIPv6() }

// PreferredAddr returns the address:port to dial, preferring IPv4.
func (c NetworkContact) PreferredAddr() (string, error) {
	if c.HasIPv4() {
		return fmt.Sprintf("%s:%d", c.IPv4Address, c.IPv4Port), nil
	}
	if c.HasIPv6() {
		return fmt.Sprintf("[%s]:%d", c.IPv6Address, c.IPv6Port), nil
	}
	return "", fmt.Errorf("model: contact has neither an IPv4 nor an IPv6 address")
}

// NodeProfile is identity plus how to reach it.
type NodeProfile struct {
	Id      NodeId
	Contact NetworkContact
}

// Equal compares two profiles by identity only, matching the original's
// NodeProfile equality (contact changes don't change who a node is).
func (p NodeProfile) Equal(other NodeProfile) bool {
	return p.Id.Equal(other.Id)
}

// GpsLocation is a WGS-84 latitude/longitude pair in degrees.
type GpsLocation struct {
	Latitude  float64
	Longitude float64
}

// Equal compares two locations for exact equality, used to decide whether a
// renewal is allowed to proceed (spec: location must match exactly).
func (g GpsLocation) Equal(other GpsLocation) bool {
	return g.Latitude == other.Latitude && g.Longitude == other.Longitude
}

// NodeInfo is an immutable snapshot of a peer: who it is, how to reach it,
// and where it is.
type NodeInfo struct {
	Profile  NodeProfile
	Location GpsLocation
}

// Id is a convenience accessor for Profile.Id.
func (n NodeInfo) Id() NodeId { return n.Profile.Id }

// RelationType is the view a stored node belongs to.
type RelationType int

const (
	RelationColleague RelationType = iota
	RelationNeighbour
)

func (r RelationType) String() string {
	switch r {
	case RelationColleague:
		return "Colleague"
	case RelationNeighbour:
		return "Neighbour"
	default:
		return "UnknownRelation"
	}
}

// RoleType records who asked whom first during admission.
type RoleType int

const (
	RoleInitiator RoleType = iota
	RoleAcceptor
)

func (r RoleType) String() string {
	switch r {
	case RoleInitiator:
		return "Initiator"
	case RoleAcceptor:
		return "Acceptor"
	default:
		return "UnknownRole"
	}
}

// NodeDbEntry is what actually gets persisted in the spatial database: an
// immutable snapshot plus the relation/role under which it was admitted.
type NodeDbEntry struct {
	Info     NodeInfo
	Relation RelationType
	Role     RoleType
}

func (e NodeDbEntry) Id() NodeId          { return e.Info.Id() }
func (e NodeDbEntry) Location() GpsLocation { return e.Info.Location }

// NeighboursFilter selects which relation(s) a query should draw from.
type NeighboursFilter int

const (
	// Included draws from Colleague ∪ Neighbour.
	Included NeighboursFilter = iota
	// Excluded draws from Colleague only.
	Excluded
	// NeighboursOnly draws from Neighbour only.
	NeighboursOnly
)

func (f NeighboursFilter) String() string {
	switch f {
	case Included:
		return "Included"
	case Excluded:
		return "Excluded"
	case NeighboursOnly:
		return "NeighboursOnly"
	default:
		return "UnknownFilter"
	}
}

// Matches reports whether a stored entry's relation satisfies the filter.
func (f NeighboursFilter) Matches(r RelationType) bool {
	switch f {
	case Included:
		return true
	case Excluded:
		return r == RelationColleague
	case NeighboursOnly:
		return r == RelationNeighbour
	default:
		return false
	}
}

// ServiceType identifies an application-level service registration.
type ServiceType string

// ServiceProfile is the application-supplied data behind a ServiceType.
type ServiceProfile struct {
	Type     ServiceType
	Contact  NetworkContact
	Metadata map[string]string
}
