// Package session layers the typed rig operations over the raw command
// channel: lighting, photo sequences, device-variant pass-throughs,
// preset application and connection health.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"photorig/channel"
	"photorig/config"
	"photorig/discovery"
	"photorig/metrics"
	"photorig/proto"
	"photorig/transport"
)

// ErrValidation marks a command rejected locally before reaching the
// wire (bad lighting channel, out-of-range intensity, unknown preset).
var ErrValidation = errors.New("session: invalid command")

// Controller owns one channel to one device plus the session-side
// state: last-commanded lighting and connection health.
type Controller struct {
	cfg  config.Config
	ch   *channel.Channel
	disc *discovery.Discovery

	mu       sync.RWMutex
	port     string
	lighting map[string]int

	health *Health

	watchCancel func()
	watchDone   chan struct{}
}

// New builds a disconnected controller over the given transport.
func New(tr transport.Transport, cfg config.Config) *Controller {
	c := &Controller{
		cfg:      cfg,
		ch:       channel.New(tr, channel.Options{ConnectWait: cfg.ConnectWait()}),
		disc:     discovery.New(tr),
		lighting: make(map[string]int),
		health:   NewHealth(cfg.HeartbeatStale()),
	}
	for _, name := range cfg.LightingChannels {
		c.lighting[name] = 0
	}
	return c
}

// Connect opens the session and starts consuming the status stream.
func (c *Controller) Connect(port string) error {
	if err := c.ch.Connect(port); err != nil {
		return err
	}

	sub, cancel := c.ch.Subscribe()
	done := make(chan struct{})
	go c.watch(sub, done)

	c.mu.Lock()
	c.port = port
	c.watchCancel = cancel
	c.watchDone = done
	c.mu.Unlock()

	metrics.ConnectionState.Set(float64(c.ch.State()))
	return nil
}

// Disconnect tears the session down. Idempotent.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	cancel := c.watchCancel
	done := c.watchDone
	c.watchCancel = nil
	c.watchDone = nil
	c.port = ""
	c.mu.Unlock()

	c.ch.Disconnect()
	if cancel != nil {
		cancel()
		<-done
	}
	c.health.Reset()
	metrics.ConnectionState.Set(float64(channel.Disconnected))
}

func (c *Controller) watch(sub <-chan proto.Response, done chan struct{}) {
	defer close(done)
	for resp := range sub {
		metrics.UnsolicitedTotal.Inc()
		c.health.Observe(resp)
		slog.Debug("Status record", "message", resp.Message, "success", resp.Success)
	}
}

// State reports the channel state and refreshes the state gauge.
func (c *Controller) State() channel.State {
	state := c.ch.State()
	metrics.ConnectionState.Set(float64(state))
	return state
}

// Port returns the connected port identifier, empty when disconnected.
func (c *Controller) Port() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.port
}

// Health returns the current connection health snapshot.
func (c *Controller) Health() HealthSnapshot {
	return c.health.Snapshot()
}

// SubscribeStatus exposes the channel's status broadcast.
func (c *Controller) SubscribeStatus() (<-chan proto.Response, func()) {
	return c.ch.Subscribe()
}

// ListPorts returns the candidate ports in display order.
func (c *Controller) ListPorts() ([]string, error) {
	return c.disc.ListCandidates()
}

// Probe checks whether a compatible device answers on the port.
func (c *Controller) Probe(port string) bool {
	return c.disc.Probe(port, c.cfg.ProbeTimeout())
}

// Send issues one command with the configured timeout and records the
// outcome. Device-variant kinds pass through unvalidated.
func (c *Controller) Send(kind proto.Kind, payload map[string]any) (proto.Response, error) {
	resp, err := c.ch.Send(proto.NewCommand(kind, payload), c.cfg.CommandTimeout())
	metrics.CommandsTotal.WithLabelValues(kind.String(), outcomeLabel(err)).Inc()
	return resp, err
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, channel.ErrTimeout):
		return "timeout"
	case errors.Is(err, channel.ErrBusy):
		return "busy"
	default:
		return "error"
	}
}

// Ping checks device responsiveness.
func (c *Controller) Ping() (proto.Response, error) {
	return c.Send(proto.KindPing, nil)
}

// Status requests the device's status report.
func (c *Controller) Status() (proto.Response, error) {
	return c.Send(proto.KindStatus, nil)
}

// SetLighting drives one lighting channel. The channel name must be
// configured and the intensity within 0..max. The session's lighting
// state is updated only on a successful reply.
func (c *Controller) SetLighting(name string, intensity int) (proto.Response, error) {
	if !c.knownChannel(name) {
		return proto.Response{}, fmt.Errorf("%w: unknown lighting channel %q", ErrValidation, name)
	}
	if intensity < 0 || intensity > c.cfg.MaxIntensity {
		return proto.Response{}, fmt.Errorf("%w: intensity %d out of range 0-%d", ErrValidation, intensity, c.cfg.MaxIntensity)
	}

	resp, err := c.Send(proto.KindLighting, map[string]any{
		"channel":   name,
		"intensity": intensity,
	})
	if err == nil && resp.Success {
		c.recordLighting(name, intensity)
	}
	return resp, err
}

func (c *Controller) knownChannel(name string) bool {
	for _, ch := range c.cfg.LightingChannels {
		if ch == name {
			return true
		}
	}
	return false
}

func (c *Controller) recordLighting(name string, intensity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "all" {
		for ch := range c.lighting {
			c.lighting[ch] = intensity
		}
		return
	}
	c.lighting[name] = intensity
}

// LightingState returns the last successfully commanded intensities.
func (c *Controller) LightingState() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.lighting))
	for k, v := range c.lighting {
		out[k] = v
	}
	return out
}

// StartPhotoSequence launches an automated capture run. Non-positive
// arguments fall back to the configured defaults.
func (c *Controller) StartPhotoSequence(count int, delay float64) (proto.Response, error) {
	if count <= 0 {
		count = c.cfg.PhotoCount
	}
	if delay <= 0 {
		delay = c.cfg.PhotoDelayS
	}
	return c.Send(proto.KindPhotoSequence, map[string]any{
		"count": count,
		"delay": delay,
	})
}

// ToggleLED flips the board's test LED.
func (c *Controller) ToggleLED() (proto.Response, error) {
	return c.Send(proto.KindLEDToggle, nil)
}

// Motor, Weigh, RunSequence and Calibrate address device-variant
// features; their payload shapes belong to the firmware.
func (c *Controller) Motor(payload map[string]any) (proto.Response, error) {
	return c.Send(proto.KindMotor, payload)
}

func (c *Controller) Weigh(payload map[string]any) (proto.Response, error) {
	return c.Send(proto.KindWeight, payload)
}

func (c *Controller) RunSequence(payload map[string]any) (proto.Response, error) {
	return c.Send(proto.KindSequence, payload)
}

func (c *Controller) Calibrate(payload map[string]any) (proto.Response, error) {
	return c.Send(proto.KindCalibration, payload)
}

// Presets returns the configured presets, or the built-ins when the
// config carries none.
func (c *Controller) Presets() map[string]map[string]int {
	if len(c.cfg.Presets) > 0 {
		return c.cfg.Presets
	}
	return DefaultPresets()
}

// ApplyPreset drives every channel of the named preset in a stable
// order, stopping at the first failure.
func (c *Controller) ApplyPreset(name string) error {
	preset, ok := c.Presets()[name]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrValidation, name)
	}

	channels := make([]string, 0, len(preset))
	for ch := range preset {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	for _, ch := range channels {
		resp, err := c.SetLighting(ch, preset[ch])
		if err != nil {
			return fmt.Errorf("session: preset %s on %s: %w", name, ch, err)
		}
		if !resp.Success {
			return fmt.Errorf("session: preset %s rejected on %s: %s", name, ch, resp.Message)
		}
	}
	slog.Info("Preset applied", "preset", name, "channels", len(channels))
	return nil
}
