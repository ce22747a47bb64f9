package dispatch

import (
	"errors"
	"testing"

	"github.com/user/geomesh/model"
	"github.com/user/geomesh/wireproto"
)

type fakeOps struct {
	acceptColleague func(model.NodeInfo) (bool, error)
	nodeCount       uint64
	nodeCountErr    error
}

func (f *fakeOps) AcceptColleague(self model.NodeInfo) (bool, error) {
	if f.acceptColleague != nil {
		return f.acceptColleague(self)
	}
	return true, nil
}
func (f *fakeOps) AcceptNeighbour(self model.NodeInfo) (bool, error)      { return true, nil }
func (f *fakeOps) RenewNodeConnection(self model.NodeInfo) (bool, error) { return false, nil }
func (f *fakeOps) GetNodeCount(r model.RelationType) (uint64, error)     { return f.nodeCount, f.nodeCountErr }
func (f *fakeOps) GetNeighbourhoodRadiusKm() (float64, error)            { return 42.5, nil }
func (f *fakeOps) GetRandomNodes(uint32, model.NeighboursFilter) ([]model.NodeInfo, error) {
	return nil, nil
}
func (f *fakeOps) GetClosestNodes(model.GpsLocation, float64, uint32, model.NeighboursFilter) ([]model.NodeInfo, error) {
	return nil, nil
}
func (f *fakeOps) RegisterService(model.ServiceProfile) (bool, error) { return true, nil }
func (f *fakeOps) RemoveService(model.ServiceType) (bool, error)      { return true, nil }

// envelopeRequest builds the exact bytes a real ClientDispatcher.Call sends:
// a Request wrapped in a MessageWithHeader, never a bare Request.
func envelopeRequest(req wireproto.Request) []byte {
	return wireproto.MessageWithHeader{Request: &req}.Marshal()
}

// unwrapResponse decodes what Dispatch returns the way a real
// ClientDispatcher.Call does: as a MessageWithHeader carrying a Response.
func unwrapResponse(t *testing.T, respBody []byte) wireproto.Response {
	t.Helper()
	env, err := wireproto.UnmarshalMessageWithHeader(respBody)
	if err != nil {
		t.Fatalf("UnmarshalMessageWithHeader: %v", err)
	}
	if env.Response == nil {
		t.Fatalf("expected a response envelope, got %+v", env)
	}
	return *env.Response
}

func TestServerDispatcherAcceptColleague(t *testing.T) {
	ops := &fakeOps{}
	sd := NewServerDispatcher(ops)

	self := model.NodeInfo{Profile: model.NodeProfile{Id: model.NodeId("caller")}}
	reqBody := envelopeRequest(wireproto.Request{
		Version:   wireproto.ProtocolVersion,
		Operation: wireproto.OpAcceptColleague,
		Payload:   wireproto.SelfArg{Self: self}.Marshal(),
	})

	respBody, err := sd.Dispatch(reqBody)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	resp := unwrapResponse(t, respBody)
	if !resp.Ok {
		t.Fatalf("expected Ok response, got %+v", resp)
	}
	result, err := wireproto.UnmarshalBoolResult(resp.Payload)
	if err != nil {
		t.Fatalf("UnmarshalBoolResult: %v", err)
	}
	if !result.Value {
		t.Fatalf("expected true result")
	}
}

func TestServerDispatcherPropagatesOperationError(t *testing.T) {
	ops := &fakeOps{nodeCountErr: errors.New("boom")}
	sd := NewServerDispatcher(ops)

	reqBody := envelopeRequest(wireproto.Request{
		Version:   wireproto.ProtocolVersion,
		Operation: wireproto.OpGetNodeCount,
		Payload:   wireproto.GetNodeCountArg{Relation: model.RelationColleague}.Marshal(),
	})

	respBody, err := sd.Dispatch(reqBody)
	if err != nil {
		t.Fatalf("Dispatch itself should not fail on an operation error: %v", err)
	}
	resp := unwrapResponse(t, respBody)
	if resp.Ok {
		t.Fatalf("expected Ok=false when the operation errored")
	}
	if resp.Error == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

func TestServerDispatcherUnknownOperation(t *testing.T) {
	ops := &fakeOps{}
	sd := NewServerDispatcher(ops)

	reqBody := envelopeRequest(wireproto.Request{
		Version:   wireproto.ProtocolVersion,
		Operation: wireproto.Operation(9999),
	})

	respBody, err := sd.Dispatch(reqBody)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	resp := unwrapResponse(t, respBody)
	if resp.Ok {
		t.Fatalf("expected Ok=false for an unknown operation")
	}
}

func TestServerDispatcherMalformedRequest(t *testing.T) {
	ops := &fakeOps{}
	sd := NewServerDispatcher(ops)

	// A bare bytes-type field with a truncated length prefix is not a
	// valid envelope encoding.
	_, err := sd.Dispatch([]byte{0x1a, 0xff})
	if err == nil {
		t.Fatalf("expected Dispatch to fail on a malformed request body")
	}
}

func TestServerDispatcherRejectsEnvelopeWithoutRequest(t *testing.T) {
	ops := &fakeOps{}
	sd := NewServerDispatcher(ops)

	resp := wireproto.Response{Operation: wireproto.OpGetNodeCount, Ok: true}
	reqBody := wireproto.MessageWithHeader{Response: &resp}.Marshal()

	_, err := sd.Dispatch(reqBody)
	if err == nil {
		t.Fatalf("expected Dispatch to reject an envelope carrying a response, not a request")
	}
}
