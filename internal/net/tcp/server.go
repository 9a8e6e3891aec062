// Package tcp implements the receiver: a deadline-polled accept loop plus
// per-connection framed read loops feeding the hub's inbound queue.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	server "planetfall/server"
	"planetfall/server/internal/net/proto"
)

// Config tunes the TCP receiver.
type Config struct {
	Addr string
	// AcceptInterval bounds the accept wait so worker liveness is
	// rechecked; it also paces the retry while the accept gate is closed.
	AcceptInterval time.Duration
	// ReadInterval bounds an idle read before liveness is rechecked.
	ReadInterval time.Duration
	WriteTimeout time.Duration
	// InboundRate and InboundBurst cap decoded events per connection;
	// events beyond the budget are dropped.
	InboundRate  rate.Limit
	InboundBurst int
	Logger       *log.Logger
}

// DefaultConfig returns the stock receiver settings.
func DefaultConfig() Config {
	return Config{
		Addr:           fmt.Sprintf("127.0.0.1:%d", server.DefaultPort),
		AcceptInterval: time.Second,
		ReadInterval:   10 * time.Second,
		WriteTimeout:   10 * time.Second,
		InboundRate:    20,
		InboundBurst:   40,
	}
}

// Server accepts game clients and reads their framed events.
type Server struct {
	cfg      Config
	hub      *server.Hub
	logger   *log.Logger
	listener *net.TCPListener
	wg       sync.WaitGroup
}

// NewServer constructs a receiver bound to the given hub.
func NewServer(hub *server.Hub, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, hub: hub, logger: logger}
}

// Listen opens the listening socket.
func (s *Server) Listen() error {
	addr, err := net.ResolveTCPAddr("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.cfg.Addr, err)
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	s.logger.Printf("listening on %s", listener.Addr())
	return nil
}

// Addr reports the bound listening address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the listening socket; pending connects are refused.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Run is the receiver worker body. While the accept gate is closed
// (readiness reached, game started, or capacity full) pending connects
// stay in the backlog and are not accepted.
func (s *Server) Run(ctx context.Context) {
	defer s.wg.Wait()

	for {
		if ctx.Err() != nil {
			return
		}

		if !s.hub.CanAccept() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.AcceptInterval):
			}
			continue
		}

		s.listener.SetDeadline(time.Now().Add(s.cfg.AcceptInterval))
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Printf("accept failed: %v", err)
			continue
		}

		s.admit(ctx, conn)
	}
}

func (s *Server) admit(ctx context.Context, conn *net.TCPConn) {
	sess := newSession(conn, s.cfg.WriteTimeout)
	player, id, ok := s.hub.Register(sess)
	if !ok {
		// The gate closed between the pre-accept check and now.
		conn.Close()
		return
	}

	limiter := rate.NewLimiter(s.cfg.InboundRate, s.cfg.InboundBurst)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.readLoop(ctx, sess, id, player, limiter)
	}()
}

// countingReader tracks how many bytes the current frame read consumed, so
// an idle timeout can be told apart from a frame stalled partway through.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// readLoop reads framed events until the peer disconnects or violates the
// protocol. A timeout on an idle connection just rechecks liveness; a
// timeout partway through a frame would desynchronize the stream, so the
// client is dropped instead.
func (s *Server) readLoop(ctx context.Context, sess *session, id uuid.UUID, player *server.Player, limiter *rate.Limiter) {
	reader := &countingReader{r: sess.conn}
	for {
		if ctx.Err() != nil {
			return
		}

		sess.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadInterval))
		reader.n = 0
		payload, err := proto.ReadFrame(reader)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if reader.n == 0 {
					continue
				}
				s.logger.Printf("dropping player %d: frame stalled after %d bytes", player.ID, reader.n)
			}
			// Peer closed, died mid-frame, or sent an oversized prefix.
			s.hub.Deregister(id)
			return
		}

		if !limiter.Allow() {
			s.logger.Printf("player %d exceeded inbound rate, dropping event", player.ID)
			continue
		}

		name, fields, err := proto.DecodeEnvelope(payload)
		if err != nil {
			s.logger.Printf("dropping player %d for protocol violation: %v", player.ID, err)
			s.hub.Deregister(id)
			return
		}

		s.hub.EnqueueInbound(player, name, fields)
	}
}
