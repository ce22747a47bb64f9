// Package rpcclient is the RemoteNodeClient proxy: a typed view of a
// remote peer's operation surface, backed by a dispatch.ClientDispatcher.
// Grounded on original_source/src/network.cpp's
// TcpStreamConnectionFactory::ConnectTo, which builds exactly this kind of
// dispatcher-backed proxy (there NodeMethodsProtoBufClient) per connection.
package rpcclient

import (
	"time"

	"github.com/user/geomesh/dispatch"
	"github.com/user/geomesh/model"
	"github.com/user/geomesh/transport"
	"github.com/user/geomesh/wireproto"
)

// RemoteNodeClient exposes the remote-callable operations of a peer
// against one dialled connection.
type RemoteNodeClient struct {
	client *dispatch.ClientDispatcher
}

// Dial opens a connection to contact and wraps it in a RemoteNodeClient.
func Dial(contact model.NetworkContact, timeout time.Duration) (*RemoteNodeClient, error) {
	session, err := transport.Dial(contact, timeout)
	if err != nil {
		return nil, err
	}
	return New(dispatch.NewClientDispatcher(session)), nil
}

// New wraps an already-built client dispatcher, e.g. one built over a
// connection accepted by the local server: the Initiator role may reuse an
// inbound connection rather than always dialling anew.
func New(client *dispatch.ClientDispatcher) *RemoteNodeClient {
	return &RemoteNodeClient{client: client}
}

// Close releases the underlying connection.
func (c *RemoteNodeClient) Close() error {
	return c.client.Close()
}

// AcceptColleague asks the remote peer to admit self as a Colleague. The
// remote runs its own admission rules; a false result is a normal
// rejection, not an error.
func (c *RemoteNodeClient) AcceptColleague(self model.NodeInfo) (bool, error) {
	return c.callBool(wireproto.OpAcceptColleague, wireproto.SelfArg{Self: self}.Marshal())
}

// AcceptNeighbour asks the remote peer to admit self as a Neighbour.
func (c *RemoteNodeClient) AcceptNeighbour(self model.NodeInfo) (bool, error) {
	return c.callBool(wireproto.OpAcceptNeighbour, wireproto.SelfArg{Self: self}.Marshal())
}

// RenewNodeConnection refreshes liveness; the remote accepts only if its
// stored location for self still matches exactly.
func (c *RemoteNodeClient) RenewNodeConnection(self model.NodeInfo) (bool, error) {
	return c.callBool(wireproto.OpRenewNodeConnection, wireproto.SelfArg{Self: self}.Marshal())
}

// GetNodeCount returns the remote's count of stored entries under relation.
func (c *RemoteNodeClient) GetNodeCount(relation model.RelationType) (uint64, error) {
	payload, ok, err := c.client.Call(wireproto.OpGetNodeCount, wireproto.GetNodeCountArg{Relation: relation}.Marshal())
	if err != nil || !ok {
		return 0, err
	}
	result, err := wireproto.UnmarshalCountResult(payload)
	return result.Count, err
}

// GetNeighbourhoodRadiusKm returns the remote's current neighbourhood
// radius.
func (c *RemoteNodeClient) GetNeighbourhoodRadiusKm() (float64, error) {
	payload, ok, err := c.client.Call(wireproto.OpGetNeighbourhoodRadiusKm, nil)
	if err != nil || !ok {
		return 0, err
	}
	result, err := wireproto.UnmarshalDistanceResult(payload)
	return result.Km, err
}

// GetRandomNodes samples up to maxCount of the remote's entries matching
// filter, used during world discovery's seed and fill phases.
func (c *RemoteNodeClient) GetRandomNodes(maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error) {
	payload, ok, err := c.client.Call(wireproto.OpGetRandomNodes, wireproto.GetRandomNodesArg{MaxCount: maxCount, Filter: filter}.Marshal())
	if err != nil || !ok {
		return nil, err
	}
	result, err := wireproto.UnmarshalNodeInfoListResult(payload)
	return result.Nodes, err
}

// GetClosestNodes returns up to maxCount of the remote's entries matching
// filter within radiusKm of center, ascending by distance, used during
// neighbourhood discovery's greedy descent and BFS expansion.
func (c *RemoteNodeClient) GetClosestNodes(center model.GpsLocation, radiusKm float64, maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error) {
	arg := wireproto.GetClosestNodesArg{Center: center, RadiusKm: radiusKm, MaxCount: maxCount, Filter: filter}
	payload, ok, err := c.client.Call(wireproto.OpGetClosestNodes, arg.Marshal())
	if err != nil || !ok {
		return nil, err
	}
	result, err := wireproto.UnmarshalNodeInfoListResult(payload)
	return result.Nodes, err
}

func (c *RemoteNodeClient) callBool(op wireproto.Operation, payload []byte) (bool, error) {
	respPayload, ok, err := c.client.Call(op, payload)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	result, err := wireproto.UnmarshalBoolResult(respPayload)
	return result.Value, err
}
