package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/aptjitter/aptjitter/pkg/logger"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
)

// ErrServerClosed is returned by Start after Shutdown.
var ErrServerClosed = errors.New("server closed")

// Server accepts RPC connections from CLI clients on a Unix socket. Each
// connection gets its own jrpc2 server sharing one method table.
type Server struct {
	log      logger.Logger
	rpc      *RPCServer
	path     string
	listener net.Listener
	conns    map[io.Closer]struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool

	// done is closed once Shutdown has removed the socket file.
	done chan struct{}
}

// NewServer creates a Server that will listen on the socket at path.
func NewServer(l logger.Logger, rpc *RPCServer, path string) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Server{
		log:   l,
		rpc:   rpc,
		path:  path,
		conns: make(map[io.Closer]struct{}),
		done:  make(chan struct{}),
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Start listens on the socket and serves connections until ctx is
// cancelled or Shutdown is called. It returns once the socket file is gone.
func (s *Server) Start(ctx context.Context) error {
	if s.isClosed() {
		return ErrServerClosed
	}
	l, err := listen(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		_ = cleanupSocket(s.path)
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = s.Shutdown() })
	defer stop()

	s.log.Info("listening on %s", s.path)
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				s.wg.Wait()
				<-s.done
				return nil
			}
			s.log.Error("accept: %v", err)
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

// handleConnection serves JSON-RPC requests on conn until the peer
// disconnects.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	s.ServeConn(ctx, conn)
}

// ServeConn runs a jrpc2 server over rwc with line framing and blocks until
// the channel closes.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) {
	srv := jrpc2.NewServer(s.rpc.Methods(), &jrpc2.ServerOptions{
		NewContext: func() context.Context { return ctx },
	})
	srv.Start(channel.Line(rwc, rwc))
	if err := srv.Wait(); err != nil && !errors.Is(err, io.EOF) {
		s.log.Warning("connection closed: %v", err)
	}
}

// Shutdown stops accepting connections, closes open ones and removes the
// socket file if Start created it.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	l := s.listener
	s.listener = nil
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	defer close(s.done)
	if l == nil {
		return nil
	}
	if err := l.Close(); err != nil {
		s.log.Warning("closing listener: %v", err)
	}
	return cleanupSocket(s.path)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c io.Closer) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
}
