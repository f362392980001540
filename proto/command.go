package proto

import (
	"fmt"
	"time"
)

// Kind identifies a command understood by the rig firmware. The set is
// closed on the outbound side: EncodeCommand rejects anything not listed
// here so typos never reach the wire.
type Kind string

const (
	KindPing          Kind = "ping"
	KindStatus        Kind = "status"
	KindLighting      Kind = "lighting"
	KindPhotoSequence Kind = "photo_sequence"
	KindLEDToggle     Kind = "led_toggle"

	// Device-variant kinds. Their payload shapes are opaque to the
	// channel and passed through unvalidated.
	KindMotor       Kind = "motor"
	KindWeight      Kind = "weight"
	KindSequence    Kind = "sequence"
	KindCalibration Kind = "calibration"
)

var kinds = map[Kind]struct{}{
	KindPing:          {},
	KindStatus:        {},
	KindLighting:      {},
	KindPhotoSequence: {},
	KindLEDToggle:     {},
	KindMotor:         {},
	KindWeight:        {},
	KindSequence:      {},
	KindCalibration:   {},
}

// Valid reports whether k is a recognized command kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// ParseKind converts an untrusted string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Kinds returns the full command set in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindPing, KindStatus, KindLighting, KindPhotoSequence,
		KindLEDToggle, KindMotor, KindWeight, KindSequence,
		KindCalibration,
	}
}

// Command is an outbound request. It is immutable once handed to a
// channel and consumed exactly once.
type Command struct {
	Kind     Kind
	Payload  map[string]any
	IssuedAt time.Time
}

// NewCommand creates a Command stamped with the current time.
func NewCommand(kind Kind, payload map[string]any) Command {
	return Command{Kind: kind, Payload: payload, IssuedAt: time.Now()}
}

// Response is an inbound reply, either matched to a pending command or
// treated as an unsolicited status push. Timestamp is device-reported
// seconds and is for display only, never for ordering.
type Response struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}
