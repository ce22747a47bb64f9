package wireproto

import (
	"testing"

	"github.com/user/geomesh/model"
)

func TestRequestRoundTrip(t *testing.T) {
	want := Request{
		Version:   ProtocolVersion,
		Operation: OpAcceptColleague,
		Payload:   SelfArg{Self: model.NodeInfo{Profile: model.NodeProfile{Id: model.NodeId("n1")}}}.Marshal(),
	}
	got, err := UnmarshalRequest(want.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != want.Version || got.Operation != want.Operation {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	arg, err := UnmarshalSelfArg(got.Payload)
	if err != nil {
		t.Fatalf("unexpected error unmarshaling payload: %v", err)
	}
	if !arg.Self.Id().Equal(model.NodeId("n1")) {
		t.Fatalf("payload round trip mismatch: %+v", arg)
	}
}

func TestResponseRoundTripSuccess(t *testing.T) {
	want := Response{
		Operation: OpGetNodeCount,
		Ok:        true,
		Payload:   CountResult{Count: 42}.Marshal(),
	}
	got, err := UnmarshalResponse(want.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Operation != want.Operation || got.Ok != want.Ok {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	count, err := UnmarshalCountResult(got.Payload)
	if err != nil {
		t.Fatalf("unexpected error unmarshaling payload: %v", err)
	}
	if count.Count != 42 {
		t.Fatalf("got count %d, want 42", count.Count)
	}
}

func TestResponseRoundTripFailureCarriesError(t *testing.T) {
	want := Response{Operation: OpAcceptColleague, Ok: false, Error: "bubble overlap"}
	got, err := UnmarshalResponse(want.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Ok {
		t.Fatalf("expected Ok=false to survive round trip")
	}
	if got.Error != want.Error {
		t.Fatalf("got error %q, want %q", got.Error, want.Error)
	}
}

func TestMessageWithHeaderCarriesRequest(t *testing.T) {
	req := Request{Version: ProtocolVersion, Operation: OpGetNeighbourhoodRadiusKm}
	msg := MessageWithHeader{Header: 1, Request: &req}

	got, err := UnmarshalMessageWithHeader(msg.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Request == nil {
		t.Fatalf("expected a request, got none")
	}
	if got.Response != nil {
		t.Fatalf("expected no response, got %+v", got.Response)
	}
	if got.Request.Operation != OpGetNeighbourhoodRadiusKm {
		t.Fatalf("operation mismatch: got %v", got.Request.Operation)
	}
}

func TestMessageWithHeaderCarriesResponse(t *testing.T) {
	resp := Response{Operation: OpGetRandomNodes, Ok: true}
	msg := MessageWithHeader{Response: &resp}

	got, err := UnmarshalMessageWithHeader(msg.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Response == nil {
		t.Fatalf("expected a response, got none")
	}
	if got.Request != nil {
		t.Fatalf("expected no request, got %+v", got.Request)
	}
}

func TestOperationStringUnknown(t *testing.T) {
	op := Operation(999)
	if s := op.String(); s == "" {
		t.Fatalf("expected a non-empty string for an unknown operation")
	}
}

func TestBoolResultRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		got, err := UnmarshalBoolResult(BoolResult{Value: v}.Marshal())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Value != v {
			t.Fatalf("got %v, want %v", got.Value, v)
		}
	}
}

func TestGetClosestNodesArgRoundTrip(t *testing.T) {
	want := GetClosestNodesArg{
		Center:   model.GpsLocation{Latitude: 5, Longitude: 6},
		RadiusKm: 42.5,
		MaxCount: 10,
		Filter:   model.NeighboursOnly,
	}
	got, err := UnmarshalGetClosestNodesArg(want.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}
