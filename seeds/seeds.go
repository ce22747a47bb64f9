// Package seeds ships a default static seed list, passed into node.New as
// ordinary configuration rather than read by package node as a global.
// Values below are placeholders carried forward from original_source's
// own TODO ("put some real seed nodes in here") — a real deployment
// supplies its own list.
package seeds

import "github.com/user/geomesh/model"

// Default is the placeholder seed list from
// original_source/src/locnet.cpp's Node::_seedNodes, used by the
// founding-node scenario: a node whose own NodeId matches one of these
// entries treats every other seed being unreachable as expected, not a
// bootstrap failure.
var Default = []model.NodeInfo{
	{
		Profile: model.NodeProfile{
			Id:      model.NodeId("FirstSeedNodeId"),
			Contact: model.NetworkContact{IPv4Address: "1.2.3.4", IPv4Port: 5555},
		},
		Location: model.GpsLocation{Latitude: 1.0, Longitude: 2.0},
	},
	{
		Profile: model.NodeProfile{
			Id:      model.NodeId("SecondSeedNodeId"),
			Contact: model.NetworkContact{IPv4Address: "6.7.8.9", IPv4Port: 5555},
		},
		Location: model.GpsLocation{Latitude: 3.0, Longitude: 4.0},
	},
}
