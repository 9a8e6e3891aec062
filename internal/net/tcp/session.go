package tcp

import (
	"net"
	"sync"
	"time"

	"planetfall/server/internal/net/proto"
)

// session wraps a TCP connection as a hub connection. Writes are framed
// and serialized so the sender and a disconnect never interleave bytes.
type session struct {
	conn         net.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func newSession(conn net.Conn, writeTimeout time.Duration) *session {
	return &session{conn: conn, writeTimeout: writeTimeout}
}

func (s *session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return proto.WriteFrame(s.conn, data)
}

func (s *session) Close() error {
	return s.conn.Close()
}

func (s *session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
