package wireproto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/user/geomesh/model"
)

// Operation names every remotely- and locally-callable method on the node
// operation surface.
type Operation uint32

const (
	OpAcceptColleague Operation = iota + 1
	OpAcceptNeighbour
	OpRenewNodeConnection
	OpGetNodeCount
	OpGetNeighbourhoodRadiusKm
	OpGetRandomNodes
	OpGetClosestNodes
	OpRegisterService
	OpRemoveService
)

func (o Operation) String() string {
	switch o {
	case OpAcceptColleague:
		return "AcceptColleague"
	case OpAcceptNeighbour:
		return "AcceptNeighbour"
	case OpRenewNodeConnection:
		return "RenewNodeConnection"
	case OpGetNodeCount:
		return "GetNodeCount"
	case OpGetNeighbourhoodRadiusKm:
		return "GetNeighbourhoodRadiusKm"
	case OpGetRandomNodes:
		return "GetRandomNodes"
	case OpGetClosestNodes:
		return "GetClosestNodes"
	case OpRegisterService:
		return "RegisterService"
	case OpRemoveService:
		return "RemoveService"
	default:
		return fmt.Sprintf("UnknownOperation(%d)", uint32(o))
	}
}

// ProtocolVersion is the fixed request version this core emits.
const ProtocolVersion = "1"

// Request is the client-to-server envelope body. Payload carries the
// operation-specific marshaled argument struct (below).
type Request struct {
	Version   string
	Operation Operation
	Payload   []byte
}

// Field numbers: 1=version, 2=operation, 3=payload.
func (r Request) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, r.Version)
	b = appendVarintField(b, 2, uint64(r.Operation))
	b = appendBytesField(b, 3, r.Payload)
	return b
}

func UnmarshalRequest(data []byte) (Request, error) {
	var r Request
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(b)
			r.Version = v
			return n, err
		case 2:
			v, n, err := consumeVarint(b)
			r.Operation = Operation(v)
			return n, err
		case 3:
			v, n, err := consumeBytes(b)
			r.Payload = v
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return r, err
}

// Response is the server-to-client envelope body. Ok reflects whether the
// operation itself succeeded — an admission rejection is a typed negative
// result, never a protocol failure; Payload carries the operation-specific
// marshaled result struct.
type Response struct {
	Operation Operation
	Ok        bool
	Payload   []byte
	Error     string
}

// Field numbers: 1=operation, 2=ok, 3=payload, 4=error.
func (r Response) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(r.Operation))
	b = appendBoolField(b, 2, r.Ok)
	b = appendBytesField(b, 3, r.Payload)
	b = appendStringField(b, 4, r.Error)
	return b
}

func UnmarshalResponse(data []byte) (Response, error) {
	var r Response
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			r.Operation = Operation(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(b)
			r.Ok = v != 0
			return n, err
		case 3:
			v, n, err := consumeBytes(b)
			r.Payload = v
			return n, err
		case 4:
			v, n, err := consumeString(b)
			r.Error = v
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return r, err
}

// MessageWithHeader mirrors the original C++ MessageWithHeader: a oneof
// body of Request or Response, and a Header field carried for wire
// compatibility but never consulted — the real transport length prefix is
// computed and written by package transport, not by this field.
type MessageWithHeader struct {
	Header   int32
	Request  *Request
	Response *Response
}

// Field numbers: 1=header, 2=request (message), 3=response (message).
func (m MessageWithHeader) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(uint32(m.Header)))
	if m.Request != nil {
		b = appendMessageField(b, 2, m.Request.Marshal())
	}
	if m.Response != nil {
		b = appendMessageField(b, 3, m.Response.Marshal())
	}
	return b
}

func UnmarshalMessageWithHeader(data []byte) (MessageWithHeader, error) {
	var m MessageWithHeader
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			m.Header = int32(uint32(v))
			return n, err
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			req, err := UnmarshalRequest(v)
			if err != nil {
				return n, err
			}
			m.Request = &req
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			resp, err := UnmarshalResponse(v)
			if err != nil {
				return n, err
			}
			m.Response = &resp
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
	return m, err
}

// --- operation payload structs ---------------------------------------------
//
// Each of these is the Payload contents of a Request or Response for one
// operation. They're kept as small standalone messages (rather than one
// giant oneof) so dispatch can decode only what an operation needs.

// SelfArg carries the caller's own NodeInfo, used by AcceptColleague,
// AcceptNeighbour and RenewNodeConnection.
type SelfArg struct {
	Self model.NodeInfo
}

func (a SelfArg) Marshal() []byte {
	return appendMessageField(nil, 1, MarshalNodeInfo(a.Self))
}

func UnmarshalSelfArg(data []byte) (SelfArg, error) {
	var a SelfArg
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return n, err
		}
		info, err := UnmarshalNodeInfo(v)
		a.Self = info
		return n, err
	})
	return a, err
}

// BoolResult is the result payload of any operation that answers bool.
type BoolResult struct {
	Value bool
}

func (r BoolResult) Marshal() []byte { return appendBoolField(nil, 1, r.Value) }

func UnmarshalBoolResult(data []byte) (BoolResult, error) {
	var r BoolResult
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeVarint(b)
		r.Value = v != 0
		return n, err
	})
	return r, err
}

// GetNodeCountArg carries the relation to count.
type GetNodeCountArg struct {
	Relation model.RelationType
}

func (a GetNodeCountArg) Marshal() []byte {
	return appendVarintField(nil, 1, uint64(a.Relation))
}

func UnmarshalGetNodeCountArg(data []byte) (GetNodeCountArg, error) {
	var a GetNodeCountArg
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeVarint(b)
		a.Relation = model.RelationType(v)
		return n, err
	})
	return a, err
}

// CountResult carries a size_t-shaped result.
type CountResult struct {
	Count uint64
}

func (r CountResult) Marshal() []byte { return appendVarintField(nil, 1, r.Count) }

func UnmarshalCountResult(data []byte) (CountResult, error) {
	var r CountResult
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeVarint(b)
		r.Count = v
		return n, err
	})
	return r, err
}

// DistanceResult carries a kilometre distance result.
type DistanceResult struct {
	Km float64
}

func (r DistanceResult) Marshal() []byte { return appendDoubleField(nil, 1, r.Km) }

func UnmarshalDistanceResult(data []byte) (DistanceResult, error) {
	var r DistanceResult
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeFixed64(b)
		r.Km = v
		return n, err
	})
	return r, err
}

// GetRandomNodesArg carries the parameters of a random-sample query.
type GetRandomNodesArg struct {
	MaxCount uint32
	Filter   model.NeighboursFilter
}

func (a GetRandomNodesArg) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(a.MaxCount))
	b = appendVarintField(b, 2, uint64(a.Filter))
	return b
}

func UnmarshalGetRandomNodesArg(data []byte) (GetRandomNodesArg, error) {
	var a GetRandomNodesArg
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			a.MaxCount = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(b)
			a.Filter = model.NeighboursFilter(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return a, err
}

// GetClosestNodesArg carries the parameters of a proximity query.
type GetClosestNodesArg struct {
	Center   model.GpsLocation
	RadiusKm float64
	MaxCount uint32
	Filter   model.NeighboursFilter
}

func (a GetClosestNodesArg) Marshal() []byte {
	var b []byte
	b = appendMessageField(b, 1, MarshalGpsLocation(a.Center))
	b = appendDoubleField(b, 2, a.RadiusKm)
	b = appendVarintField(b, 3, uint64(a.MaxCount))
	b = appendVarintField(b, 4, uint64(a.Filter))
	return b
}

func UnmarshalGetClosestNodesArg(data []byte) (GetClosestNodesArg, error) {
	var a GetClosestNodesArg
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			loc, err := UnmarshalGpsLocation(v)
			a.Center = loc
			return n, err
		case 2:
			v, n, err := consumeFixed64(b)
			a.RadiusKm = v
			return n, err
		case 3:
			v, n, err := consumeVarint(b)
			a.MaxCount = uint32(v)
			return n, err
		case 4:
			v, n, err := consumeVarint(b)
			a.Filter = model.NeighboursFilter(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return a, err
}

// NodeInfoListResult carries a []model.NodeInfo result.
type NodeInfoListResult struct {
	Nodes []model.NodeInfo
}

func (r NodeInfoListResult) Marshal() []byte { return MarshalNodeInfoList(r.Nodes) }

func UnmarshalNodeInfoListResult(data []byte) (NodeInfoListResult, error) {
	nodes, err := UnmarshalNodeInfoList(data)
	return NodeInfoListResult{Nodes: nodes}, err
}

// RegisterServiceArg carries a service registration request.
type RegisterServiceArg struct {
	Profile model.ServiceProfile
}

func (a RegisterServiceArg) Marshal() []byte {
	return appendMessageField(nil, 1, MarshalServiceProfile(a.Profile))
}

func UnmarshalRegisterServiceArg(data []byte) (RegisterServiceArg, error) {
	var a RegisterServiceArg
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return n, err
		}
		profile, err := UnmarshalServiceProfile(v)
		a.Profile = profile
		return n, err
	})
	return a, err
}

// RemoveServiceArg carries the service type to remove.
type RemoveServiceArg struct {
	Type model.ServiceType
}

func (a RemoveServiceArg) Marshal() []byte {
	return appendStringField(nil, 1, string(a.Type))
}

func UnmarshalRemoveServiceArg(data []byte) (RemoveServiceArg, error) {
	var a RemoveServiceArg
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeString(b)
		a.Type = model.ServiceType(v)
		return n, err
	})
	return a, err
}
