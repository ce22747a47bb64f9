package dispatch

import (
	"errors"
	"fmt"

	"github.com/user/geomesh/transport"
	"github.com/user/geomesh/wireproto"
)

// ErrInvalidResponse is returned when a remote peer's reply is missing, its
// envelope is malformed, or it answers a different operation than the one
// asked.
var ErrInvalidResponse = errors.New("dispatch: invalid response from remote node")

// ClientDispatcher serializes one request, sends it over a transport
// session, and awaits exactly one response. It owns no retry or reconnect
// logic; RemoteNodeClient (package rpcclient) is the layer that turns this
// into a typed proxy.
type ClientDispatcher struct {
	session *transport.Session
}

// NewClientDispatcher wraps an already-connected session.
func NewClientDispatcher(session *transport.Session) *ClientDispatcher {
	return &ClientDispatcher{session: session}
}

// Call sends a request carrying op and payload, tagged with the fixed
// protocol version string, and returns the decoded response payload and
// its Ok flag. Transport and envelope failures are Go errors. A response
// with Ok=false and a non-empty Error message is also returned as a Go
// error carrying that message; Ok=false with no message yields ok=false
// and a nil error.
func (c *ClientDispatcher) Call(op wireproto.Operation, payload []byte) (respPayload []byte, ok bool, err error) {
	req := wireproto.Request{
		Version:   wireproto.ProtocolVersion,
		Operation: op,
		Payload:   payload,
	}
	envelope := wireproto.MessageWithHeader{Request: &req}

	if err := c.session.Send(envelope.Marshal()); err != nil {
		return nil, false, fmt.Errorf("dispatch: send failed: %w", err)
	}

	respBody, err := c.session.Receive()
	if err != nil {
		return nil, false, fmt.Errorf("dispatch: receive failed: %w", err)
	}

	respEnvelope, err := wireproto.UnmarshalMessageWithHeader(respBody)
	if err != nil || respEnvelope.Response == nil {
		return nil, false, ErrInvalidResponse
	}
	resp := respEnvelope.Response
	if resp.Operation != op {
		return nil, false, ErrInvalidResponse
	}
	if !resp.Ok {
		if resp.Error != "" {
			return nil, false, fmt.Errorf("dispatch: remote reported: %s", resp.Error)
		}
		return nil, false, nil
	}
	return resp.Payload, true, nil
}

// Close releases the underlying session.
func (c *ClientDispatcher) Close() error {
	return c.session.Close()
}
