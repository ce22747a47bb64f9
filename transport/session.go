package transport

import (
	"net"
	"sync"
	"time"

	"github.com/user/geomesh/model"
)

// DefaultTimeout bounds every blocking dial/read/write this package
// performs, so no operation blocks the engine indefinitely.
const DefaultTimeout = 10 * time.Second

// Session is one length-prefixed request/response connection, usable by
// both server-accepted and client-dialled sockets. Send/Receive are
// strictly FIFO on a single session; concurrent callers must serialize
// their own access — Session does not multiplex.
type Session struct {
	conn    net.Conn
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
}

// NewSession wraps an already-established connection.
func NewSession(conn net.Conn, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{conn: conn, timeout: timeout}
}

// Dial opens an outbound connection to contact and wraps it in a Session.
func Dial(contact model.NetworkContact, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addr, err := contact.PreferredAddr()
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return NewSession(conn, timeout), nil
}

// Send writes one length-prefixed message.
func (s *Session) Send(body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return net.ErrClosed
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return writeFrame(s.conn, body)
}

// Receive blocks for exactly one length-prefixed message.
func (s *Session) Receive() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, net.ErrClosed
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, err
	}
	return readFrame(s.conn)
}

// Close closes the underlying connection. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// RemoteAddr returns the underlying connection's remote address for logging.
func (s *Session) RemoteAddr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}
