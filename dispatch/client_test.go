package dispatch

import (
	"net"
	"testing"
	"time"

	"github.com/user/geomesh/model"
	"github.com/user/geomesh/transport"
	"github.com/user/geomesh/wireproto"
)

func TestClientDispatcherCallRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	clientSession := transport.NewSession(clientConn, time.Second)
	serverSession := transport.NewSession(serverConn, time.Second)

	sd := NewServerDispatcher(&fakeOps{nodeCount: 7})

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		reqBody, err := serverSession.Receive()
		if err != nil {
			t.Errorf("server Receive: %v", err)
			return
		}
		respBody, err := sd.Dispatch(reqBody)
		if err != nil {
			t.Errorf("server Dispatch: %v", err)
			return
		}
		if err := serverSession.Send(respBody); err != nil {
			t.Errorf("server Send: %v", err)
		}
	}()

	client := NewClientDispatcher(clientSession)
	payload, ok, err := client.Call(wireproto.OpGetNodeCount, wireproto.GetNodeCountArg{Relation: model.RelationColleague}.Marshal())
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if !ok {
		t.Fatalf("Call returned ok=false")
	}
	result, err := wireproto.UnmarshalCountResult(payload)
	if err != nil {
		t.Fatalf("UnmarshalCountResult: %v", err)
	}
	if result.Count != 7 {
		t.Fatalf("Count = %d, want 7", result.Count)
	}

	<-serverDone
}

func TestClientDispatcherRejectsMismatchedOperation(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	clientSession := transport.NewSession(clientConn, time.Second)
	serverSession := transport.NewSession(serverConn, time.Second)

	go func() {
		if _, err := serverSession.Receive(); err != nil {
			return
		}
		resp := wireproto.Response{Operation: wireproto.OpGetNeighbourhoodRadiusKm, Ok: true}
		env := wireproto.MessageWithHeader{Response: &resp}
		serverSession.Send(env.Marshal())
	}()

	client := NewClientDispatcher(clientSession)
	_, _, err := client.Call(wireproto.OpGetNodeCount, nil)
	if err != ErrInvalidResponse {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}
