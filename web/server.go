// Package web is the HTTP control surface over the serial session: a
// JSON API for connection management and commands, a websocket stream
// of device status pushes, and the metrics endpoint.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photorig/channel"
	"photorig/proto"
	"photorig/session"
	"photorig/transport"
)

type Server struct {
	sess   *session.Controller
	router chi.Router
}

func NewServer(sess *session.Controller) *Server {
	s := &Server{sess: sess}

	r := chi.NewRouter()
	r.Get("/api/ports", s.handlePorts)
	r.Post("/api/connect", s.handleConnect)
	r.Post("/api/disconnect", s.handleDisconnect)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/command", s.handleCommand)
	r.Post("/api/lighting", s.handleLighting)
	r.Post("/api/photo-sequence", s.handlePhotoSequence)
	r.Get("/api/presets", s.handlePresets)
	r.Post("/api/presets/{name}", s.handleApplyPreset)
	r.Get("/ws", s.handleStatusStream)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	ports, err := s.sess.ListPorts()
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	if r.URL.Query().Get("probe") != "true" {
		writeJSON(w, http.StatusOK, map[string]any{"ports": ports})
		return
	}

	type probedPort struct {
		Port string `json:"port"`
		Live bool   `json:"live"`
	}
	probed := make([]probedPort, 0, len(ports))
	for _, port := range ports {
		probed = append(probed, probedPort{Port: port, Live: s.sess.Probe(port)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ports": probed})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Port string `json:"port"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Port == "" {
		writeError(w, http.StatusBadRequest, errors.New("body must carry a port"))
		return
	}
	if err := s.sess.Connect(req.Port); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": s.sess.State().String(), "port": req.Port})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.sess.Disconnect()
	writeJSON(w, http.StatusOK, map[string]any{"state": s.sess.State().String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    s.sess.State().String(),
		"port":     s.sess.Port(),
		"health":   s.sess.Health(),
		"lighting": s.sess.LightingState(),
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind    string         `json:"kind"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, err := proto.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := s.sess.Send(kind, req.Payload)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLighting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel   string `json:"channel"`
		Intensity int    `json:"intensity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := s.sess.SetLighting(req.Channel, req.Intensity)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePhotoSequence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int     `json:"count"`
		Delay float64 `json:"delay"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := s.sess.StartPhotoSequence(req.Count, req.Delay)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": s.sess.Presets()})
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.sess.ApplyPreset(name); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": name, "lighting": s.sess.LightingState()})
}

// statusFor maps the session's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrValidation), errors.Is(err, proto.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, channel.ErrNotConnected), errors.Is(err, channel.ErrAlreadyConnected), errors.Is(err, channel.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, channel.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, transport.ErrUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
