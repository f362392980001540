package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when encoding a command whose kind is
	// not part of the protocol.
	ErrUnknownKind = errors.New("proto: unknown command kind")

	// ErrDecode is returned for records that are not valid JSON or lack
	// the required success field.
	ErrDecode = errors.New("proto: malformed record")
)

// wireRequest is the JSON shape sent to the device.
type wireRequest struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

// wireResponse mirrors Response but distinguishes a missing success key
// from an explicit false. Devices are inconsistent about including the
// optional fields, so everything else defaults.
type wireResponse struct {
	Success   *bool          `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

// EncodeCommand serializes a command into one wire record, without the
// trailing newline (the framer owns that).
func EncodeCommand(cmd Command) ([]byte, error) {
	if !cmd.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cmd.Kind)
	}
	data := cmd.Payload
	if data == nil {
		data = map[string]any{}
	}
	req := wireRequest{
		Type:      string(cmd.Kind),
		Data:      data,
		Timestamp: float64(cmd.IssuedAt.UnixNano()) / 1e9,
	}
	out, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("proto: encode %s: %w", cmd.Kind, err)
	}
	return out, nil
}

// DecodeResponse parses one wire record into a Response. Unknown
// top-level fields are dropped; anything nested under data survives.
func DecodeResponse(record []byte) (Response, error) {
	var w wireResponse
	if err := json.Unmarshal(record, &w); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if w.Success == nil {
		return Response{}, fmt.Errorf("%w: missing success field", ErrDecode)
	}
	data := w.Data
	if data == nil {
		data = map[string]any{}
	}
	return Response{
		Success:   *w.Success,
		Message:   w.Message,
		Data:      data,
		Timestamp: w.Timestamp,
	}, nil
}
