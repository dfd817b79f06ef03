package sink

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

// UDPSink sends each snapshot as one best-effort JSON datagram. The row
// count is capped independently of the console/web cap to bound packet
// size. Send errors are returned for logging, never retried within the
// tick.
type UDPSink struct {
	conn    net.Conn
	target  string
	maxRows int
}

// NewUDPSink resolves the target ("host:port") and opens the socket.
func NewUDPSink(target string, maxRows int) (*UDPSink, error) {
	if maxRows < 1 {
		maxRows = 1
	}
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("dialing udp target %s: %w", target, err)
	}
	return &UDPSink{
		conn:    conn,
		target:  target,
		maxRows: maxRows,
	}, nil
}

func (u *UDPSink) Name() string { return "udp" }

// Publish serializes the capped wire form and fires the datagram. A short
// write deadline keeps a pathological socket from stalling the tick.
func (u *UDPSink) Publish(s *visibility.Snapshot) error {
	data, err := json.Marshal(s.Message(u.maxRows))
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	u.conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := u.conn.Write(data); err != nil {
		return fmt.Errorf("udp send to %s: %w", u.target, err)
	}
	return nil
}

// Close releases the socket.
func (u *UDPSink) Close() error {
	return u.conn.Close()
}
