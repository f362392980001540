package transport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the rig firmware's UART configuration.
	DefaultBaudRate = 115200

	// DefaultPollQuantum bounds how long a Read may block when the
	// device is silent.
	DefaultPollQuantum = 10 * time.Millisecond
)

// Serial is the production Transport over physical serial ports.
type Serial struct {
	BaudRate    int
	PollQuantum time.Duration
}

// NewSerial returns a Serial transport with the default port settings.
func NewSerial() *Serial {
	return &Serial{BaudRate: DefaultBaudRate, PollQuantum: DefaultPollQuantum}
}

func (s *Serial) Open(identifier string) (Conn, error) {
	baud := s.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	quantum := s.PollQuantum
	if quantum <= 0 {
		quantum = DefaultPollQuantum
	}

	port, err := serial.Open(identifier, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, identifier, err)
	}
	if err := port.SetReadTimeout(quantum); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, identifier, err)
	}
	return &serialConn{port: port, identifier: identifier}, nil
}

func (s *Serial) Enumerate() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: enumerate ports: %w", err)
	}
	return ports, nil
}

type serialConn struct {
	port       serial.Port
	identifier string

	mu     sync.Mutex
	closed bool
}

// Read relies on the port's read timeout: an idle quantum surfaces as
// (0, nil), matching the Conn contract.
func (c *serialConn) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	if err != nil {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return 0, fmt.Errorf("%w: %s: port closed", ErrIO, c.identifier)
		}
		return n, fmt.Errorf("%w: %s: %v", ErrIO, c.identifier, err)
	}
	return n, nil
}

func (c *serialConn) Write(p []byte) (int, error) {
	n, err := c.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %v", ErrIO, c.identifier, err)
	}
	return n, nil
}

func (c *serialConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.port.Close()
}
