package controller

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

var axisIndex = map[byte]int{'X': 0, 'Y': 1, 'Z': 2}

// Controller is the simulated machine.
type Controller struct {
	addr        string
	reportEvery time.Duration

	ln net.Listener

	mu    sync.Mutex
	state string
	mpos  [3]float64
	wco   [3]float64
}

// Cfg configures a Controller.
type Cfg func(*Controller) error

// WithAddr sets the listen address, e.g. "127.0.0.1:2323".
func WithAddr(addr string) Cfg {
	return func(c *Controller) error {
		c.addr = addr
		return nil
	}
}

// WithReportInterval sets the period between unsolicited status frames.
func WithReportInterval(d time.Duration) Cfg {
	return func(c *Controller) error {
		c.reportEvery = d
		return nil
	}
}

// NewController creates a new Controller with the given configuration.
func NewController(cfgs ...Cfg) (*Controller, error) {
	ctrl := &Controller{
		addr:        "127.0.0.1:2323",
		reportEvery: 250 * time.Millisecond,
		state:       "Idle",
	}
	for _, cfg := range cfgs {
		if err := cfg(ctrl); err != nil {
			return nil, errors.Wrap(err, "apply Controller cfg failed")
		}
	}
	return ctrl, nil
}

// Listen binds the TCP listener. Run calls it implicitly, but tests bind
// first so they can read the resolved port of a ":0" address.
func (c *Controller) Listen() error {
	if c.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s failed", c.addr)
	}
	c.ln = ln
	return nil
}

// Addr returns the bound listen address.
func (c *Controller) Addr() string {
	if c.ln == nil {
		return c.addr
	}
	return c.ln.Addr().String()
}

// Run accepts connections until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Listen(); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = c.ln.Close()
	}()
	logger.WithField("addr", c.Addr()).Info("controller listening")
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept failed")
		}
		go c.serveConn(ctx, conn)
	}
}

// serveConn pumps one client connection: a reader goroutine feeds received
// lines into a channel, and the select loop interleaves command replies with
// periodic status reports.
func (c *Controller) serveConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	logger.WithField("remote", conn.RemoteAddr().String()).Info("sender connected")

	in := make(chan string)
	go func() {
		defer close(in)
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			in <- strings.TrimSpace(sc.Text())
		}
	}()

	w := bufio.NewWriter(conn)
	writeLine := func(line string) bool {
		if _, err := w.WriteString(line + "\r\n"); err != nil {
			return false
		}
		return w.Flush() == nil
	}

	ticker := time.NewTicker(c.reportEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-in:
			if !ok {
				logger.WithField("remote", conn.RemoteAddr().String()).Info("sender disconnected")
				return
			}
			for _, reply := range c.handleLine(line) {
				if !writeLine(reply) {
					return
				}
			}
		case <-ticker.C:
			if !writeLine(c.statusLine()) {
				return
			}
		}
	}
}

// handleLine applies one command line to the simulated machine state and
// returns the reply lines.
func (c *Controller) handleLine(line string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case line == "":
		return nil
	case line == "?":
		return []string{c.statusLineLocked()}
	case line == "$H":
		c.mpos = [3]float64{}
		c.state = "Idle"
		return []string{"ok"}
	case strings.HasPrefix(line, "$H") && len(line) == 3:
		if i, ok := axisIndex[line[2]]; ok {
			c.mpos[i] = 0
		}
		return []string{"ok"}
	case strings.HasPrefix(line, "$J="):
		c.applyMove(line[len("$J="):], true)
		c.state = "Jog"
		return []string{"ok"}
	case strings.HasPrefix(line, "G0") || strings.HasPrefix(line, "G1"):
		c.applyMove(line, false)
		c.state = "Run"
		return []string{"ok"}
	default:
		// unknown commands are acknowledged, same as a permissive controller
		return []string{"ok"}
	}
}

// applyMove parses axis words out of a motion command. relative moves add to
// the current position, absolute moves set it. Feed and modal words are
// skipped.
func (c *Controller) applyMove(words string, relative bool) {
	for _, word := range strings.Fields(words) {
		if len(word) < 2 {
			continue
		}
		i, ok := axisIndex[word[0]]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(word[1:], 64)
		if err != nil {
			continue
		}
		if relative {
			c.mpos[i] += v
		} else {
			c.mpos[i] = v
		}
	}
}

func (c *Controller) statusLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLineLocked()
}

func (c *Controller) statusLineLocked() string {
	wpos := c.mpos
	for i := range wpos {
		wpos[i] -= c.wco[i]
	}
	return fmt.Sprintf("<%s|MPos:%.3f,%.3f,%.3f|WPos:%.3f,%.3f,%.3f>",
		c.state,
		c.mpos[0], c.mpos[1], c.mpos[2],
		wpos[0], wpos[1], wpos[2])
}
