package transport

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/user/geomesh/logging"
	"github.com/user/geomesh/metrics"
)

// Handler processes one request body and returns the response body to send
// back. It is invoked once per received message, in the order messages
// arrive on that session — responses on a single session are strictly
// FIFO with requests. dispatch.ServerDispatcher is the concrete
// implementation used in production.
type Handler func(requestBody []byte) (responseBody []byte, err error)

// ThreadPoolSize is the default worker-pool size, overridable via
// ServerOption.
const ThreadPoolSize = 1

// ServerOption customizes a Server at construction time.
type ServerOption func(*Server)

// WithWorkerPoolSize overrides the default single-worker pool.
func WithWorkerPoolSize(n int) ServerOption {
	return func(s *Server) { s.poolSize = n }
}

// WithSessionTimeout overrides the default per-session read/write timeout.
func WithSessionTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.timeout = d }
}

// Server accepts inbound connections on a listener and serves each one on a
// bounded worker pool, one session loop per connection.
type Server struct {
	nodeLabel string
	listener  net.Listener
	handler   Handler
	log       *logging.Logger
	poolSize  int
	timeout   time.Duration

	pool     *workerPool
	shutdown atomic.Bool
}

// NewServer binds a TCP listener on addr and prepares (but does not start)
// a Server that will dispatch accepted connections to handler.
func NewServer(nodeLabel, addr string, handler Handler, opts ...ServerOption) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		nodeLabel: nodeLabel,
		listener:  listener,
		handler:   handler,
		log:       logging.New("transport." + nodeLabel),
		poolSize:  ThreadPoolSize,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr returns the address the listener is bound to.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve starts the worker pool and blocks accepting connections until
// Shutdown is called or the listener errors. Shutdown causes Serve to
// return nil.
func (s *Server) Serve(ctx context.Context) error {
	s.pool = newWorkerPool(ctx, s.poolSize)
	s.pool.start()
	defer s.pool.stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && !netErr.Timeout() {
				return err
			}
			continue
		}

		metrics.SessionsAccepted.WithLabelValues(s.nodeLabel).Inc()
		session := NewSession(conn, s.timeout)
		accepted := s.pool.submit(func(taskCtx context.Context) {
			s.serveSession(taskCtx, session)
		})
		if !accepted {
			session.Close()
			return nil
		}
	}
}

// serveSession runs one connection's request/response loop until the peer
// closes, shutdown is requested, or an unrecoverable error occurs. Failures
// here are logged and terminate only this session, not the server.
func (s *Server) serveSession(ctx context.Context, session *Session) {
	metrics.ActiveSessions.WithLabelValues(s.nodeLabel).Inc()
	defer metrics.ActiveSessions.WithLabelValues(s.nodeLabel).Dec()
	defer session.Close()

	// Cancelling ctx (the pool stopping once Serve returns) cuts short a
	// Receive that is waiting for the peer's next request.
	stopWatch := context.AfterFunc(ctx, func() { session.conn.SetReadDeadline(time.Now()) })
	defer stopWatch()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if s.shutdown.Load() {
			return
		}

		reqBody, err := session.Receive()
		if err != nil {
			if ctx.Err() == nil && !isExpectedSessionEnd(err) {
				reason := "read-error"
				if _, ok := err.(ErrMessageTooLarge); ok {
					reason = "message-too-large"
				} else if _, ok := err.(ErrBadVersion); ok {
					reason = "bad-version"
				}
				metrics.ProtocolErrorsTotal.WithLabelValues(s.nodeLabel, reason).Inc()
				s.log.Warn("session %s: %v", session.RemoteAddr(), err)
			}
			return
		}

		respBody, err := s.handler(reqBody)
		if err != nil {
			metrics.DispatchFailuresTotal.WithLabelValues(s.nodeLabel, "unknown").Inc()
			s.log.Error("session %s: dispatch failed: %v", session.RemoteAddr(), err)
			return
		}

		if err := session.Send(respBody); err != nil {
			s.log.Warn("session %s: send failed: %v", session.RemoteAddr(), err)
			return
		}
	}
}

// isExpectedSessionEnd reports whether err is an ordinary connection-closed
// condition that shouldn't be logged as a protocol error.
func isExpectedSessionEnd(err error) bool {
	return errors.Is(err, net.ErrClosed) || err.Error() == "EOF"
}

// Shutdown stops accepting new connections and directs session loops to
// exit at their next receive boundary. It does not roll back state already
// stored by in-flight discovery or requests.
func (s *Server) Shutdown() error {
	s.shutdown.Store(true)
	return s.listener.Close()
}
