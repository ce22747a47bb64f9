package wireproto

import (
	"reflect"
	"testing"

	"github.com/user/geomesh/model"
)

func TestGpsLocationRoundTrip(t *testing.T) {
	want := model.GpsLocation{Latitude: 47.4979, Longitude: -19.0402}
	got, err := UnmarshalGpsLocation(MarshalGpsLocation(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestGpsLocationZeroValueOmitsFields(t *testing.T) {
	// Zero coordinates take the proto3 default-omission path, and must
	// still decode back to the zero value.
	got, err := UnmarshalGpsLocation(MarshalGpsLocation(model.GpsLocation{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (model.GpsLocation{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestNetworkContactRoundTrip(t *testing.T) {
	want := model.NetworkContact{
		IPv4Address: "1.2.3.4",
		IPv4Port:    5555,
		IPv6Address: "::1",
		IPv6Port:    6666,
	}
	got, err := UnmarshalNetworkContact(MarshalNetworkContact(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestNodeProfileRoundTrip(t *testing.T) {
	want := model.NodeProfile{
		Id:      model.NodeId("node-1"),
		Contact: model.NetworkContact{IPv4Address: "10.0.0.1", IPv4Port: 9999},
	}
	got, err := UnmarshalNodeProfile(MarshalNodeProfile(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Id.Equal(want.Id) || got.Contact != want.Contact {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestNodeInfoRoundTrip(t *testing.T) {
	want := model.NodeInfo{
		Profile:  model.NodeProfile{Id: model.NodeId("n1"), Contact: model.NetworkContact{IPv4Address: "1.1.1.1", IPv4Port: 80}},
		Location: model.GpsLocation{Latitude: 10, Longitude: 20},
	}
	got, err := UnmarshalNodeInfo(MarshalNodeInfo(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Id().Equal(want.Id()) || got.Location != want.Location {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestNodeInfoListRoundTrip(t *testing.T) {
	want := []model.NodeInfo{
		{Profile: model.NodeProfile{Id: model.NodeId("a")}, Location: model.GpsLocation{Latitude: 1, Longitude: 1}},
		{Profile: model.NodeProfile{Id: model.NodeId("b")}, Location: model.GpsLocation{Latitude: 2, Longitude: 2}},
	}
	got, err := UnmarshalNodeInfoList(MarshalNodeInfoList(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Id().Equal(want[i].Id()) || got[i].Location != want[i].Location {
			t.Fatalf("node %d mismatch: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNodeInfoListRoundTripEmpty(t *testing.T) {
	got, err := UnmarshalNodeInfoList(MarshalNodeInfoList(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected an empty list, got %+v", got)
	}
}

func TestServiceProfileRoundTrip(t *testing.T) {
	want := model.ServiceProfile{
		Type:     model.ServiceType("chat"),
		Contact:  model.NetworkContact{IPv4Address: "2.2.2.2", IPv4Port: 4444},
		Metadata: map[string]string{"version": "1", "region": "eu"},
	}
	got, err := UnmarshalServiceProfile(MarshalServiceProfile(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != want.Type || got.Contact != want.Contact {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(got.Metadata, want.Metadata) {
		t.Fatalf("metadata mismatch: got %+v, want %+v", got.Metadata, want.Metadata)
	}
}

func TestUnmarshalRejectsTruncatedInput(t *testing.T) {
	full := MarshalNodeInfo(model.NodeInfo{
		Profile:  model.NodeProfile{Id: model.NodeId("x")},
		Location: model.GpsLocation{Latitude: 1, Longitude: 1},
	})
	if len(full) < 2 {
		t.Fatalf("expected marshaled bytes long enough to truncate")
	}
	if _, err := UnmarshalNodeInfo(full[:len(full)-1]); err == nil {
		t.Fatalf("expected an error decoding truncated bytes")
	}
}
