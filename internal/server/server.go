package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/worker"
)

// Server accepts framed connections and feeds their requests to a
// Dispatcher.
type Server struct {
	addr       string
	dispatcher *Dispatcher
	pool       *worker.Pool
	log        zerolog.Logger

	listener net.Listener
	closing  atomic.Bool
	serving  atomic.Bool
	accepted chan struct{}

	mu      sync.Mutex
	conns   map[*Conn]struct{}
	readers sync.WaitGroup
}

// New creates a Server for addr. pool is shut down with the server.
func New(addr string, dispatcher *Dispatcher, pool *worker.Pool, log zerolog.Logger) *Server {
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		pool:       pool,
		log:        log.With().Str("component", "server").Logger(),
		accepted:   make(chan struct{}),
		conns:      make(map[*Conn]struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.log.Info().Str("addr", ln.Addr().String()).Msg("Listening")
	return nil
}

// Addr is the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until Shutdown. It returns nil after a
// shutdown and the accept error otherwise.
func (s *Server) Serve() error {
	s.serving.Store(true)
	defer close(s.accepted)

	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		c := newConn(nc, s.log)
		if !s.track(c) {
			c.Close()
			continue
		}

		s.readers.Add(1)
		go func() {
			defer s.readers.Done()
			defer s.untrack(c)
			c.readLoop(s.dispatcher)
		}()
	}
}

// ListenAndServe binds and serves.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown stops accepting, closes every connection, waits for the readers
// and drains the worker pool.
func (s *Server) Shutdown() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}

	if s.listener != nil {
		_ = s.listener.Close()
		if s.serving.Load() {
			<-s.accepted
		}
	}

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.readers.Wait()
	s.pool.Shutdown()
	s.log.Info().Msg("Server stopped")
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	metrics.ConnectionOpened()
	c.log.Debug().Msg("Client connected")
	return true
}

func (s *Server) untrack(c *Conn) {
	c.Close()
	s.mu.Lock()
	if _, ok := s.conns[c]; ok {
		delete(s.conns, c)
		metrics.ConnectionClosed()
	}
	s.mu.Unlock()
}
