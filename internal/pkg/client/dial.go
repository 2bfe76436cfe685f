package client

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/ziutek/telnet"
)

// Dialer establishes the transport connection. It attempts exactly one
// connection within the given timeout; retry policy lives in the receive
// loop, not here.
type Dialer interface {
	DialTimeout(network, addr string, timeout time.Duration) (net.Conn, error)
}

// telnetDialer is the default Dialer. Controllers expose a telnet-style
// listener, so the telnet conn is used to keep IAC negotiation bytes out of
// the line framer.
type telnetDialer struct{}

func (telnetDialer) DialTimeout(network, addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := telnet.DialTimeout(network, addr, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s failed", addr)
	}
	return conn, nil
}

// closeConn tears down the live socket: best-effort shutdown of the write
// side, then close, swallowing errors. Safe to call more than once and from
// either loop; a half-closed or already-dead socket must not fail teardown.
func (c *Client) closeConn() {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn == nil {
		return
	}
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := conn.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
	_ = conn.Close()
}

func (c *Client) setConn(conn net.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) currentConn() net.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}
