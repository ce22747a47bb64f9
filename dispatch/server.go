// Package dispatch adapts between the wire envelope (package wireproto)
// and the node operation surface, in both directions: ServerDispatcher maps
// an incoming request to a node call and a typed response; ClientDispatcher
// maps an outgoing node-shaped call to a request, sends it, and unwraps the
// response. Grounded on original_source/src/network.cpp's
// ProtoBufRequestNetworkDispatcher (server) and the request-building half of
// TcpStreamConnectionFactory::ConnectTo (client).
package dispatch

import (
	"fmt"

	"github.com/user/geomesh/logging"
	"github.com/user/geomesh/model"
	"github.com/user/geomesh/wireproto"
)

// NodeOperations is the server-side surface a ServerDispatcher calls into.
// node.Node implements this; dispatch never imports package node so that
// node can depend on dispatch (for its outbound ClientDispatcher use)
// without a import cycle.
type NodeOperations interface {
	AcceptColleague(self model.NodeInfo) (bool, error)
	AcceptNeighbour(self model.NodeInfo) (bool, error)
	RenewNodeConnection(self model.NodeInfo) (bool, error)
	GetNodeCount(relation model.RelationType) (uint64, error)
	GetNeighbourhoodRadiusKm() (float64, error)
	GetRandomNodes(maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error)
	GetClosestNodes(center model.GpsLocation, radiusKm float64, maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error)
	RegisterService(profile model.ServiceProfile) (bool, error)
	RemoveService(serviceType model.ServiceType) (bool, error)
}

// ServerDispatcher maps a request body to a response body by dispatching
// into NodeOperations. Its Dispatch method has the shape transport.Handler
// expects, so a *ServerDispatcher plugs directly into transport.NewServer.
type ServerDispatcher struct {
	ops NodeOperations
	log *logging.Logger
}

// NewServerDispatcher wraps ops for use as a transport.Handler.
func NewServerDispatcher(ops NodeOperations) *ServerDispatcher {
	return &ServerDispatcher{ops: ops, log: logging.New("dispatch.server")}
}

// Dispatch decodes one envelope, invokes the corresponding operation on
// ops, and encodes the response back into an envelope. An operation
// returning an error produces a Response with Ok=false and Error populated
// rather than failing the session: an admission rejection or a bad request
// is a typed negative result, not a protocol failure.
func (d *ServerDispatcher) Dispatch(requestBody []byte) ([]byte, error) {
	env, err := wireproto.UnmarshalMessageWithHeader(requestBody)
	if err != nil {
		return nil, fmt.Errorf("dispatch: malformed request envelope: %w", err)
	}
	if env.Request == nil {
		return nil, fmt.Errorf("dispatch: envelope carried no request")
	}

	resp := d.dispatchOne(*env.Request)
	return wireproto.MessageWithHeader{Response: &resp}.Marshal(), nil
}

func (d *ServerDispatcher) dispatchOne(req wireproto.Request) wireproto.Response {
	payload, ok, err := d.invoke(req.Operation, req.Payload)
	if err != nil {
		d.log.Warn("operation %s failed: %v", req.Operation, err)
		return wireproto.Response{Operation: req.Operation, Ok: false, Error: err.Error()}
	}
	return wireproto.Response{Operation: req.Operation, Ok: ok, Payload: payload}
}

func (d *ServerDispatcher) invoke(op wireproto.Operation, payload []byte) (respPayload []byte, ok bool, err error) {
	switch op {
	case wireproto.OpAcceptColleague:
		arg, err := wireproto.UnmarshalSelfArg(payload)
		if err != nil {
			return nil, false, err
		}
		ok, err := d.ops.AcceptColleague(arg.Self)
		if err != nil {
			return nil, false, err
		}
		return wireproto.BoolResult{Value: ok}.Marshal(), true, nil

	case wireproto.OpAcceptNeighbour:
		arg, err := wireproto.UnmarshalSelfArg(payload)
		if err != nil {
			return nil, false, err
		}
		ok, err := d.ops.AcceptNeighbour(arg.Self)
		if err != nil {
			return nil, false, err
		}
		return wireproto.BoolResult{Value: ok}.Marshal(), true, nil

	case wireproto.OpRenewNodeConnection:
		arg, err := wireproto.UnmarshalSelfArg(payload)
		if err != nil {
			return nil, false, err
		}
		ok, err := d.ops.RenewNodeConnection(arg.Self)
		if err != nil {
			return nil, false, err
		}
		return wireproto.BoolResult{Value: ok}.Marshal(), true, nil

	case wireproto.OpGetNodeCount:
		arg, err := wireproto.UnmarshalGetNodeCountArg(payload)
		if err != nil {
			return nil, false, err
		}
		count, err := d.ops.GetNodeCount(arg.Relation)
		if err != nil {
			return nil, false, err
		}
		return wireproto.CountResult{Count: count}.Marshal(), true, nil

	case wireproto.OpGetNeighbourhoodRadiusKm:
		km, err := d.ops.GetNeighbourhoodRadiusKm()
		if err != nil {
			return nil, false, err
		}
		return wireproto.DistanceResult{Km: km}.Marshal(), true, nil

	case wireproto.OpGetRandomNodes:
		arg, err := wireproto.UnmarshalGetRandomNodesArg(payload)
		if err != nil {
			return nil, false, err
		}
		nodes, err := d.ops.GetRandomNodes(arg.MaxCount, arg.Filter)
		if err != nil {
			return nil, false, err
		}
		return wireproto.NodeInfoListResult{Nodes: nodes}.Marshal(), true, nil

	case wireproto.OpGetClosestNodes:
		arg, err := wireproto.UnmarshalGetClosestNodesArg(payload)
		if err != nil {
			return nil, false, err
		}
		nodes, err := d.ops.GetClosestNodes(arg.Center, arg.RadiusKm, arg.MaxCount, arg.Filter)
		if err != nil {
			return nil, false, err
		}
		return wireproto.NodeInfoListResult{Nodes: nodes}.Marshal(), true, nil

	case wireproto.OpRegisterService:
		arg, err := wireproto.UnmarshalRegisterServiceArg(payload)
		if err != nil {
			return nil, false, err
		}
		ok, err := d.ops.RegisterService(arg.Profile)
		if err != nil {
			return nil, false, err
		}
		return wireproto.BoolResult{Value: ok}.Marshal(), true, nil

	case wireproto.OpRemoveService:
		arg, err := wireproto.UnmarshalRemoveServiceArg(payload)
		if err != nil {
			return nil, false, err
		}
		ok, err := d.ops.RemoveService(arg.Type)
		if err != nil {
			return nil, false, err
		}
		return wireproto.BoolResult{Value: ok}.Marshal(), true, nil

	default:
		return nil, false, fmt.Errorf("dispatch: unknown operation %s", op)
	}
}
