package node

import (
	"time"

	"github.com/user/geomesh/model"
	"github.com/user/geomesh/rpcclient"
)

// RemoteNode is the subset of rpcclient.RemoteNodeClient the discovery and
// admission algorithms use. Defined here so tests can substitute an
// in-memory fake instead of dialling real sockets.
type RemoteNode interface {
	AcceptColleague(self model.NodeInfo) (bool, error)
	AcceptNeighbour(self model.NodeInfo) (bool, error)
	GetNodeCount(relation model.RelationType) (uint64, error)
	GetRandomNodes(maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error)
	GetClosestNodes(center model.GpsLocation, radiusKm float64, maxCount uint32, filter model.NeighboursFilter) ([]model.NodeInfo, error)
	Close() error
}

// ConnectionFactory dials a remote peer given its profile, so admission and
// discovery never construct a transport connection directly.
type ConnectionFactory interface {
	ConnectTo(profile model.NodeProfile) (RemoteNode, error)
}

// TcpConnectionFactory is the production ConnectionFactory, dialling real
// TCP connections via rpcclient.Dial.
type TcpConnectionFactory struct {
	Timeout time.Duration
}

// NewTcpConnectionFactory creates a factory with the given dial timeout.
func NewTcpConnectionFactory(timeout time.Duration) *TcpConnectionFactory {
	return &TcpConnectionFactory{Timeout: timeout}
}

func (f *TcpConnectionFactory) ConnectTo(profile model.NodeProfile) (RemoteNode, error) {
	return rpcclient.Dial(profile.Contact, f.Timeout)
}
