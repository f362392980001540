package discovery

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"photorig/transport"
)

// scriptedConn answers every written command with a canned record and
// tracks whether it was released.
type scriptedConn struct {
	reply string

	mu      sync.Mutex
	pending []string
	closed  bool
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		// Emulate the transport's polling quantum.
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return copy(p, line), nil
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reply != "" {
		c.pending = append(c.pending, c.reply+"\n")
	}
	return len(p), nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeTransport struct {
	ports map[string]*scriptedConn
	err   error
}

func (t *fakeTransport) Open(id string) (transport.Conn, error) {
	conn, ok := t.ports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnavailable, id)
	}
	return conn, nil
}

func (t *fakeTransport) Enumerate() ([]string, error) {
	if t.err != nil {
		return nil, t.err
	}
	// Deliberately unsorted to prove ListCandidates sorts.
	return []string{"/dev/ttyUSB1", "/dev/ttyACM0", "/dev/ttyUSB0"}, nil
}

func TestListCandidates_Sorted(t *testing.T) {
	d := New(&fakeTransport{})
	got, err := d.ListCandidates()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyUSB1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}

func TestListCandidates_Error(t *testing.T) {
	d := New(&fakeTransport{err: fmt.Errorf("usb subsystem down")})
	if _, err := d.ListCandidates(); err == nil {
		t.Error("expected error from enumerate, got nil")
	}
}

func TestProbe_PongAcknowledgment(t *testing.T) {
	conn := &scriptedConn{reply: `{"success":true,"message":"Pong","timestamp":12.3}`}
	d := New(&fakeTransport{ports: map[string]*scriptedConn{"/dev/ttyUSB0": conn}})

	if !d.Probe("/dev/ttyUSB0", time.Second) {
		t.Error("probe = false, want true for Pong reply")
	}
	if !conn.wasClosed() {
		t.Error("probe left the port open")
	}
}

func TestProbe_CaseInsensitivePong(t *testing.T) {
	conn := &scriptedConn{reply: `{"success":true,"message":"pong!"}`}
	d := New(&fakeTransport{ports: map[string]*scriptedConn{"/dev/ttyUSB0": conn}})
	if !d.Probe("/dev/ttyUSB0", time.Second) {
		t.Error("probe = false, want true for lowercase pong")
	}
}

func TestProbe_WrongAcknowledgment(t *testing.T) {
	conn := &scriptedConn{reply: `{"success":true,"message":"Hello"}`}
	d := New(&fakeTransport{ports: map[string]*scriptedConn{"/dev/ttyUSB0": conn}})

	if d.Probe("/dev/ttyUSB0", time.Second) {
		t.Error("probe = true for a non-Pong reply")
	}
	if !conn.wasClosed() {
		t.Error("probe left the port open after mismatch")
	}
}

func TestProbe_FailureReply(t *testing.T) {
	conn := &scriptedConn{reply: `{"success":false,"message":"Pong"}`}
	d := New(&fakeTransport{ports: map[string]*scriptedConn{"/dev/ttyUSB0": conn}})
	if d.Probe("/dev/ttyUSB0", time.Second) {
		t.Error("probe = true for success=false reply")
	}
}

func TestProbe_SilentDevice(t *testing.T) {
	conn := &scriptedConn{}
	d := New(&fakeTransport{ports: map[string]*scriptedConn{"/dev/ttyUSB0": conn}})

	if d.Probe("/dev/ttyUSB0", 50*time.Millisecond) {
		t.Error("probe = true for a silent device")
	}
	if !conn.wasClosed() {
		t.Error("probe left the port open after timeout")
	}
}

func TestProbe_MissingPort(t *testing.T) {
	d := New(&fakeTransport{ports: map[string]*scriptedConn{}})
	if d.Probe("COM5", 50*time.Millisecond) {
		t.Error("probe = true for a missing port")
	}
}
