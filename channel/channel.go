// Package channel implements the command/response session with the rig
// controller: one open transport, a read loop, strict one-in-flight
// request matching, and a broadcast of unsolicited status records.
package channel

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"photorig/proto"
	"photorig/transport"
)

const (
	// DefaultConnectWait is how long Connect lingers for a boot/ready
	// line. Not all firmware variants emit one, so expiry is not fatal.
	DefaultConnectWait = 300 * time.Millisecond

	readBufferSize   = 4096
	subscriberBuffer = 16
)

// Options tunes a channel. Zero values select the defaults.
type Options struct {
	// ConnectWait bounds the wait for the device's ready line during
	// Connect. Negative disables the wait entirely.
	ConnectWait time.Duration
}

type outcome struct {
	resp proto.Response
	err  error
}

// pendingRequest is the correlation record for the single in-flight
// command. The protocol carries no request id; the next complete record
// after a send answers it. A correlation key can be added here without
// touching the Send contract.
type pendingRequest struct {
	done chan outcome // buffered, written exactly once
}

// Channel orchestrates one transport session.
type Channel struct {
	tr          transport.Transport
	connectWait time.Duration

	mu       sync.Mutex
	state    State
	conn     transport.Conn
	pending  *pendingRequest
	stop     chan struct{}
	ready    chan struct{}
	sawReady bool
	faultErr error

	wg sync.WaitGroup

	subMu sync.RWMutex
	subs  map[string]chan proto.Response
}

// New creates a disconnected channel over the given transport.
func New(tr transport.Transport, opts Options) *Channel {
	wait := opts.ConnectWait
	if wait == 0 {
		wait = DefaultConnectWait
	}
	if wait < 0 {
		wait = 0
	}
	return &Channel{
		tr:          tr,
		connectWait: wait,
		subs:        make(map[string]chan proto.Response),
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the identified port, starts the read loop and waits
// briefly for the device's ready line. Absence of that line is
// tolerated; some firmware variants never announce readiness.
func (c *Channel) Connect(identifier string) error {
	c.mu.Lock()
	if c.state != Disconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrAlreadyConnected, state)
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.tr.Open(identifier)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		return err
	}

	stop := make(chan struct{})
	ready := make(chan struct{})
	c.mu.Lock()
	if c.state != Connecting {
		c.mu.Unlock()
		conn.Close()
		return ErrCancelled
	}
	c.conn = conn
	c.stop = stop
	c.ready = ready
	c.sawReady = false
	c.faultErr = nil
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn, stop)

	if c.connectWait > 0 {
		select {
		case <-ready:
			slog.Debug("Device announced readiness", "port", identifier)
		case <-stop:
		case <-time.After(c.connectWait):
			slog.Debug("No ready line from device, proceeding", "port", identifier)
		}
	}

	c.mu.Lock()
	switch c.state {
	case Connecting:
		c.state = Connected
		c.mu.Unlock()
		slog.Info("Connected", "port", identifier)
		return nil
	case Faulted:
		err := c.faultErr
		c.mu.Unlock()
		c.Disconnect()
		return err
	default:
		c.mu.Unlock()
		return ErrCancelled
	}
}

// Send writes the command and suspends the caller until the next
// complete record arrives, the timeout elapses, or the channel is torn
// down. The answering record is matched by order alone, never by its
// success value.
func (c *Channel) Send(cmd proto.Command, timeout time.Duration) (proto.Response, error) {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return proto.Response{}, ErrNotConnected
	}
	if c.pending != nil {
		c.mu.Unlock()
		return proto.Response{}, ErrBusy
	}
	p := &pendingRequest{done: make(chan outcome, 1)}
	c.pending = p
	conn := c.conn
	c.mu.Unlock()

	record, err := proto.EncodeCommand(cmd)
	if err != nil {
		c.clearPending(p)
		return proto.Response{}, err
	}
	if _, err := conn.Write(proto.Encode(record)); err != nil {
		c.clearPending(p)
		c.fault(err)
		return proto.Response{}, err
	}
	slog.Debug("Command sent", "kind", cmd.Kind)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-p.done:
		return out.resp, out.err
	case <-timer.C:
		if c.clearPending(p) {
			return proto.Response{}, fmt.Errorf("%w: no response to %s within %s", ErrTimeout, cmd.Kind, timeout)
		}
		// A resolution won the race against the timer.
		out := <-p.done
		return out.resp, out.err
	}
}

// Subscribe returns a stream of unsolicited status records and a cancel
// function. Slow subscribers lose records rather than stalling the read
// loop.
func (c *Channel) Subscribe() (<-chan proto.Response, func()) {
	id := uuid.NewString()
	ch := make(chan proto.Response, subscriberBuffer)

	c.subMu.Lock()
	c.subs[id] = ch
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

// Disconnect stops the read loop, cancels any pending request and
// closes the transport. Idempotent.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state == Disconnected && c.conn == nil {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	stop := c.stop
	p := c.pending
	c.conn = nil
	c.stop = nil
	c.pending = nil
	c.state = Disconnected
	c.faultErr = nil
	c.mu.Unlock()

	if p != nil {
		p.done <- outcome{err: ErrCancelled}
	}
	if stop != nil {
		close(stop)
	}
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
	slog.Info("Disconnected")
}

// clearPending removes p from the slot if it still owns it. Reports
// whether this caller won; the loser's action becomes a no-op.
func (c *Channel) clearPending(p *pendingRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == p {
		c.pending = nil
		return true
	}
	return false
}

// fault records a mid-session transport failure: the channel becomes
// Faulted and any pending request fails with the I/O error.
func (c *Channel) fault(err error) {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Faulted
	c.faultErr = err
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	slog.Error("Transport failure", "error", err)
	if p != nil {
		p.done <- outcome{err: err}
	}
}

func (c *Channel) readLoop(conn transport.Conn, stop chan struct{}) {
	defer c.wg.Done()

	framer := proto.NewFramer()
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			c.fault(err)
			return
		}
		if n == 0 {
			continue
		}
		for _, record := range framer.Feed(buf[:n]) {
			c.handleRecord(record)
		}
	}
}

func (c *Channel) handleRecord(record []byte) {
	resp, err := proto.DecodeResponse(record)

	c.mu.Lock()
	if !c.sawReady {
		c.sawReady = true
		close(c.ready)
	}
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p != nil {
		if err != nil {
			p.done <- outcome{err: fmt.Errorf("%w: %v", ErrProtocol, err)}
		} else {
			p.done <- outcome{resp: resp}
		}
		return
	}

	if err != nil {
		slog.Warn("Discarding malformed record", "error", err, "data", string(record))
		return
	}
	c.publish(resp)
}

func (c *Channel) publish(resp proto.Response) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for id, ch := range c.subs {
		select {
		case ch <- resp:
		default:
			slog.Debug("Dropping status record for slow subscriber", "subscriber", id)
		}
	}
}
