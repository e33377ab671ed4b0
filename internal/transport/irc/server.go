// Package irc serves the line protocol over plain TCP.
package irc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/core"
	"github.com/vovakirdan/wiregate/internal/utils"
)

const (
	defaultMaxLineBytes = 8192

	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Options configures a Server.
type Options struct {
	Addr              string
	MaxLineBytes      int
	CommandsPerMinute int
}

// Server accepts connections and runs one sequential line loop per
// connection against the gateway.
type Server struct {
	gateway *core.Gateway
	log     *zerolog.Logger
	opts    Options

	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.Mutex
	addr   net.Addr
	conns  map[string]net.Conn
	closed bool
	wg     sync.WaitGroup
}

// NewServer builds a server for gw. Nothing is bound until Serve.
func NewServer(gw *core.Gateway, opts Options, logger *zerolog.Logger) *Server {
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = defaultMaxLineBytes
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		gateway: gw,
		log:     logger,
		opts:    opts,
		ready:   make(chan struct{}),
		conns:   make(map[string]net.Conn),
	}
}

// Ready is closed once the listen address is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, nil before Ready is closed.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve binds the listen address and accepts connections until ctx is
// cancelled. On return every connection has been closed and its handler has
// finished. Failing to bind is the only error returned; accept failures are
// logged and retried.
func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	s.log.Info().Str("addr", ln.Addr().String()).Msg("irc listener started")

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		s.closeConns()
	}()
	defer func() {
		close(stop)
		s.wg.Wait()
		s.log.Info().Msg("irc listener stopped")
	}()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			delay = nextAcceptDelay(delay)
			s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		handle := utils.NewID()
		if !s.track(handle, conn) {
			_ = conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.serveConn(ctx, handle, conn)
	}
}

// nextAcceptDelay doubles the previous delay, starting at 5ms and capped at
// one second.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	if next := prev * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}

func (s *Server) track(handle string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[handle] = conn
	return true
}

func (s *Server) untrack(handle string) {
	s.mu.Lock()
	delete(s.conns, handle)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) serveConn(ctx context.Context, handle string, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(handle)
	defer conn.Close()
	defer s.gateway.Disconnect(handle)

	log := s.log.With().Str("handle", handle).Str("remote", conn.RemoteAddr().String()).Logger()
	log.Debug().Msg("connection accepted")

	c := core.NewConn(handle, core.NewLineSink(conn, s.gateway.ServerName()), s.opts.CommandsPerMinute)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 1024), s.opts.MaxLineBytes)

	for scanner.Scan() {
		err := s.gateway.HandleLine(ctx, c, scanner.Text())
		if err == nil {
			continue
		}
		if core.IsFatal(err) {
			if !errors.Is(err, core.ErrQuit) {
				log.Warn().Err(err).Msg("connection write failed")
			}
			log.Debug().Msg("connection closed")
			return
		}
		log.Warn().Err(err).Str("kind", string(core.KindOf(err))).Msg("line rejected")
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warn().Err(err).Msg("read failed")
	}
	log.Debug().Msg("connection closed")
}
