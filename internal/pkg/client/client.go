package client

import (
	"bytes"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fluidlink/internal/pkg/log"
	"fluidlink/internal/pkg/status"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// readChunk is the maximum number of bytes consumed from the socket per read.
const readChunk = 4096

// StatusFunc receives the machine and work coordinates of every parsed
// status frame. It runs on the receive loop's goroutine.
type StatusFunc func(mpos, wpos []float64)

// Timings are the fixed delays driving both loops. The defaults suit a local
// embedded controller with bounded recovery time, which is why the reconnect
// backoff is flat rather than exponential. Tests shrink them.
type Timings struct {
	// DialTimeout bounds a single connect attempt.
	DialTimeout time.Duration
	// ReconnectDelay is the pause between failed connect attempts.
	ReconnectDelay time.Duration
	// ReadRetryDelay is the pause after a mid-stream read failure before
	// the receive loop re-enters the dial branch.
	ReadRetryDelay time.Duration
	// QueuePoll bounds the transmit loop's wait for a queued command so it
	// observes session stop and connectivity changes promptly.
	QueuePoll time.Duration
	// SendStallDelay is the pause after pushing a command back while
	// disconnected.
	SendStallDelay time.Duration
	// JoinTimeout bounds the per-loop wait in Stop.
	JoinTimeout time.Duration
}

// DefaultTimings returns the production delays.
func DefaultTimings() Timings {
	return Timings{
		DialTimeout:    5 * time.Second,
		ReconnectDelay: 2 * time.Second,
		ReadRetryDelay: time.Second,
		QueuePoll:      200 * time.Millisecond,
		SendStallDelay: 500 * time.Millisecond,
		JoinTimeout:    time.Second,
	}
}

// Client streams G-Code to the controller and dispatches its status reports.
type Client struct {
	host   string
	port   uint16
	stat   StatusFunc
	dial   Dialer
	timing Timings

	running   atomic.Bool
	connected atomic.Bool
	auto      atomic.Bool

	connMu sync.Mutex
	conn   net.Conn

	cbMu         sync.Mutex
	onConnect    func()
	onDisconnect func()
	down         bool

	reportMu sync.Mutex
	report   status.Report

	queue *sendQueue

	lifeMu  sync.Mutex
	stopc   chan struct{}
	rxDone  chan struct{}
	txDone  chan struct{}
	session uuid.UUID
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithEndpoint sets the controller host and port.
func WithEndpoint(host string, port uint16) Cfg {
	return func(c *Client) error {
		c.host = host
		c.port = port
		return nil
	}
}

// WithStatusFunc sets the status report callback.
func WithStatusFunc(fn StatusFunc) Cfg {
	return func(c *Client) error {
		c.stat = fn
		return nil
	}
}

// WithDialer overrides the transport dialer.
func WithDialer(d Dialer) Cfg {
	return func(c *Client) error {
		c.dial = d
		return nil
	}
}

// WithTimings overrides the loop delays.
func WithTimings(t Timings) Cfg {
	return func(c *Client) error {
		c.timing = t
		return nil
	}
}

// WithAutoReconnect sets the initial auto-reconnect flag.
func WithAutoReconnect(enabled bool) Cfg {
	return func(c *Client) error {
		c.auto.Store(enabled)
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	client := &Client{
		dial:   telnetDialer{},
		timing: DefaultTimings(),
		queue:  newSendQueue(),
	}
	for _, cfg := range cfgs {
		if err := cfg(client); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if client.host == "" || client.port == 0 {
		return nil, ErrNoEndpoint
	}
	return client, nil
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(int(c.port)))
}

// SetEndpoint replaces the controller endpoint. The session must be stopped.
func (c *Client) SetEndpoint(host string, port uint16) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.running.Load() {
		return ErrSessionRunning
	}
	c.host = host
	c.port = port
	return nil
}

// OnConnect registers the connect notification callback.
func (c *Client) OnConnect(fn func()) {
	c.cbMu.Lock()
	c.onConnect = fn
	c.cbMu.Unlock()
}

// OnDisconnect registers the disconnect notification callback.
func (c *Client) OnDisconnect(fn func()) {
	c.cbMu.Lock()
	c.onDisconnect = fn
	c.cbMu.Unlock()
}

// SetAutoReconnect enables or disables reconnection attempts.
func (c *Client) SetAutoReconnect(enabled bool) {
	c.auto.Store(enabled)
}

// AutoReconnect reports whether reconnection attempts are enabled.
func (c *Client) AutoReconnect() bool {
	return c.auto.Load()
}

// Connected reports whether the link is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Running reports whether a session is active.
func (c *Client) Running() bool {
	return c.running.Load()
}

// Pending returns the number of queued commands not yet sent.
func (c *Client) Pending() int {
	return c.queue.len()
}

// Report returns the latest known position pair. Stale values are retained
// across a connection drop until the controller reports again.
func (c *Client) Report() status.Report {
	c.reportMu.Lock()
	defer c.reportMu.Unlock()
	return c.report
}

// SendGCodeLine appends the trimmed line to the outbound queue. It never
// blocks on connectivity; a command enqueued while disconnected waits until
// a connection exists. Blank lines are dropped.
func (c *Client) SendGCodeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	c.queue.push(line)
}

// Start launches the receive and transmit loops. It is idempotent: starting
// a running session is a no-op.
func (c *Client) Start() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.running.Load() {
		return
	}
	c.session = uuid.New()
	c.stopc = make(chan struct{})
	c.rxDone = make(chan struct{})
	c.txDone = make(chan struct{})
	c.cbMu.Lock()
	c.down = false // a fresh session gets its own first disconnect notice
	c.cbMu.Unlock()
	c.running.Store(true)
	go c.rxLoop(c.stopc, c.rxDone)
	go c.txLoop(c.stopc, c.txDone)
	logger.WithFields(logrus.Fields{
		"session": c.session.String(),
		"addr":    c.addr(),
	}).Info("session started")
}

// Stop ends the session: it force-closes any live socket to unblock a
// pending read and joins both loops with a bounded wait. Safe to call even
// if Start never ran. Queued commands are discarded with the session.
func (c *Client) Stop() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if !c.running.Load() {
		return
	}
	c.running.Store(false)
	close(c.stopc)
	c.closeConn()
	waitDone(c.rxDone, c.timing.JoinTimeout)
	waitDone(c.txDone, c.timing.JoinTimeout)
	c.connected.Store(false)
	c.queue.clear()
	logger.WithField("session", c.session.String()).Info("session stopped")
}

// rxLoop owns the socket while connected and drives reconnection otherwise.
func (c *Client) rxLoop(stopc <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, 0, readChunk)
	chunk := make([]byte, readChunk)
	for !stopped(stopc) {
		if !c.connected.Load() {
			if c.connect(stopc) {
				// partial line from the previous connection is garbage
				buf = buf[:0]
			}
			continue
		}
		conn := c.currentConn()
		if conn == nil {
			c.lostConnection(nil)
			continue
		}
		n, err := conn.Read(chunk)
		if err != nil || n == 0 {
			c.lostConnection(err)
			sleepOrStop(stopc, c.timing.ReadRetryDelay)
			continue
		}
		buf = append(buf, chunk[:n]...)
		for {
			i := bytes.IndexByte(buf, '\n')
			if i < 0 {
				break
			}
			line := decodeLine(buf[:i])
			buf = append(buf[:0], buf[i+1:]...)
			c.handleLine(line)
		}
	}
}

// connect runs one dial phase: it attempts connections on a fixed backoff
// until one succeeds, auto-reconnect is disabled, or the session stops.
// With auto-reconnect disabled it parks briefly so the receive loop does not
// spin while disconnected.
func (c *Client) connect(stopc <-chan struct{}) bool {
	for !stopped(stopc) {
		if !c.auto.Load() {
			sleepOrStop(stopc, c.timing.QueuePoll)
			return false
		}
		conn, err := c.dial.DialTimeout("tcp", c.addr(), c.timing.DialTimeout)
		if err == nil {
			c.setConn(conn)
			c.connected.Store(true)
			c.notifyConnect()
			logger.WithFields(logrus.Fields{
				"session": c.session.String(),
				"addr":    c.addr(),
			}).Info("connected")
			return true
		}
		logger.WithError(err).WithField("addr", c.addr()).Warn("connect failed")
		c.notifyDisconnect()
		// disabling auto-reconnect mid-backoff exits without sleeping
		if !c.auto.Load() || stopped(stopc) {
			return false
		}
		sleepOrStop(stopc, c.timing.ReconnectDelay)
	}
	return false
}

// txLoop drains the outbound queue. A command that cannot be sent is pushed
// back and retried; it lands behind commands enqueued in the meantime.
func (c *Client) txLoop(stopc <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for !stopped(stopc) {
		line, ok := c.queue.pop(c.timing.QueuePoll)
		if !ok {
			continue
		}
		if !c.connected.Load() {
			c.queue.push(line)
			sleepOrStop(stopc, c.timing.SendStallDelay)
			continue
		}
		conn := c.currentConn()
		if conn == nil {
			c.queue.push(line)
			continue
		}
		if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
			logger.WithError(err).WithField("line", line).Warn("send failed, command requeued")
			c.sendFailed()
			c.queue.push(line)
			continue
		}
		logger.WithField("line", line).Debug("sent command")
	}
}

// handleLine feeds one decoded line to the parser and dispatches the report.
func (c *Client) handleLine(line string) {
	c.reportMu.Lock()
	next, ok := status.Parse(line, c.report)
	if ok {
		c.report = next
	}
	c.reportMu.Unlock()
	if !ok {
		logger.WithField("line", line).Debug("non-status line")
		return
	}
	logger.WithFields(log.ReportToFields(next)).Trace("status report")
	if c.stat != nil {
		c.stat(next.MPos, next.WPos)
	}
}

// lostConnection transitions out of Connected from the receive loop and
// fires the disconnect notification.
func (c *Client) lostConnection(err error) {
	c.connected.Store(false)
	c.closeConn()
	if err != nil {
		logger.WithError(err).WithField("session", c.session.String()).Warn("connection lost")
	}
	c.notifyDisconnect()
}

// sendFailed mirrors a write failure into the shared connected flag. The
// transition is a single atomic change so only one loop tears the socket
// down. The notification is raised here too: the receive loop may be busy
// in a callback rather than blocked in Read, in which case it would redial
// without ever observing the failing read. The down flag keeps the two
// paths from double-firing.
func (c *Client) sendFailed() {
	if c.connected.CompareAndSwap(true, false) {
		c.closeConn()
		c.notifyDisconnect()
	}
}

// notifyConnect fires onConnect and re-arms the disconnect notification.
func (c *Client) notifyConnect() {
	c.cbMu.Lock()
	c.down = false
	fn := c.onConnect
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}

// notifyDisconnect fires onDisconnect at most once per transition out of
// Connected (or per unreachable-controller episode), so connect and
// disconnect notifications strictly alternate.
func (c *Client) notifyDisconnect() {
	c.cbMu.Lock()
	if c.down {
		c.cbMu.Unlock()
		return
	}
	c.down = true
	fn := c.onDisconnect
	c.cbMu.Unlock()
	if fn != nil {
		fn()
	}
}

// decodeLine turns a raw frame into a clean line: undecodable bytes are
// discarded rather than failing the whole line, and a trailing CR from
// controllers that emit CRLF is stripped.
func decodeLine(raw []byte) string {
	line := strings.ToValidUTF8(string(raw), "")
	return strings.TrimSuffix(line, "\r")
}

func stopped(stopc <-chan struct{}) bool {
	select {
	case <-stopc:
		return true
	default:
		return false
	}
}

func sleepOrStop(stopc <-chan struct{}, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stopc:
	case <-t.C:
	}
}

func waitDone(done <-chan struct{}, timeout time.Duration) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		logger.Warn("loop did not exit within join timeout")
	}
}
