// Package web serves a small HTTP API for inspecting the camera session
// and triggering still captures.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/session"
)

// Controller is the part of the session controller the API needs.
type Controller interface {
	State() string
	Status() session.Status
	CaptureStill() error
	LastStill() ([]byte, bool)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events *Broadcaster
}

// NewHandlers creates handlers backed by ctrl. Nil events creates a broadcaster.
func NewHandlers(ctrl Controller, events *Broadcaster) *Handlers {
	if events == nil {
		events = NewBroadcaster()
	}
	return &Handlers{ctrl: ctrl, events: events}
}

// HandleHealth answers liveness probes.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK\n"))
}

// HandleStatus returns the session status as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// HandleCapture handles POST /capture. Only a previewing session can capture.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if state := h.ctrl.State(); state != session.StatePreviewing {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "not previewing",
			"state": state,
		})
		return
	}
	if err := h.ctrl.CaptureStill(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		log.Warn("capture request failed", "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "capture requested"})
}

// HandleStill returns the most recent still as JPEG.
func (h *Handlers) HandleStill(w http.ResponseWriter, r *http.Request) {
	data, ok := h.ctrl.LastStill()
	if !ok {
		http.Error(w, "no still captured yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("encode response", "error", err)
	}
}
