// Package camtest provides an in-memory camera backend for tests. Nothing
// happens on its own: tests drive every platform notification explicitly
// with the Emit methods, and inspect what the code under test asked for.
package camtest

import (
	"fmt"
	"sync"

	"github.com/intothevoid/prodcam/pkg/camera"
)

// Recorder keeps an ordered log of calls shared by a manager and everything
// it creates, so tests can assert on cross-object ordering.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

// Record appends a call.
func (r *Recorder) Record(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// Calls returns a copy of the log.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Manager is a fake camera.Manager.
type Manager struct {
	Rec *Recorder

	mu      sync.Mutex
	ids     []string
	chars   map[string]camera.Characteristics
	sinks   map[string]camera.Sink
	opens   []string
	OpenErr error
}

// NewManager returns an empty manager logging into rec (created if nil).
func NewManager(rec *Recorder) *Manager {
	if rec == nil {
		rec = &Recorder{}
	}
	return &Manager{
		Rec:   rec,
		chars: make(map[string]camera.Characteristics),
		sinks: make(map[string]camera.Sink),
	}
}

// Add registers a camera.
func (m *Manager) Add(id string, ch camera.Characteristics) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	m.chars[id] = ch
	return m
}

func (m *Manager) CameraIDs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out, nil
}

func (m *Manager) Characteristics(id string) (camera.Characteristics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.chars[id]
	if !ok {
		return camera.Characteristics{}, fmt.Errorf("camtest: unknown camera %q", id)
	}
	return ch, nil
}

func (m *Manager) OpenCamera(id string, sink camera.Sink) error {
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.mu.Lock()
	m.sinks[id] = sink
	m.opens = append(m.opens, id)
	m.mu.Unlock()
	m.Rec.Record("open:%s", id)
	return nil
}

// Opens returns the ids passed to OpenCamera, in order.
func (m *Manager) Opens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.opens))
	copy(out, m.opens)
	return out
}

func (m *Manager) sink(id string) camera.Sink {
	m.mu.Lock()
	defer m.mu.Unlock()
	sink, ok := m.sinks[id]
	if !ok {
		panic(fmt.Sprintf("camtest: camera %q was never opened", id))
	}
	return sink
}

// EmitOpened reports a successful open of id and returns the new handle.
func (m *Manager) EmitOpened(id string) *Device {
	sink := m.sink(id)
	d := &Device{id: id, rec: m.Rec, sink: sink}
	sink(camera.DeviceOpened{Device: d})
	return d
}

// EmitOpenError reports that opening id failed.
func (m *Manager) EmitOpenError(id string, code camera.ErrorCode) {
	m.sink(id)(camera.DeviceError{CameraID: id, Code: code})
}

// Device is a fake camera.Device.
type Device struct {
	id   string
	rec  *Recorder
	sink camera.Sink

	mu          sync.Mutex
	closed      int
	outputs     []camera.Surface
	sessionSink camera.Sink
	templates   []camera.Template
}

func (d *Device) ID() string { return d.id }

func (d *Device) CreateCaptureRequest(t camera.Template) *camera.RequestBuilder {
	d.mu.Lock()
	d.templates = append(d.templates, t)
	d.mu.Unlock()
	d.rec.Record("request:%s", t)
	return camera.NewRequestBuilder(t)
}

func (d *Device) CreateCaptureSession(outputs []camera.Surface, sink camera.Sink) error {
	if len(outputs) == 0 {
		return camera.ErrNoTargets
	}
	d.mu.Lock()
	d.outputs = append([]camera.Surface(nil), outputs...)
	d.sessionSink = sink
	d.mu.Unlock()
	d.rec.Record("create_session:%s", d.id)
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	d.rec.Record("close_device:%s", d.id)
	return nil
}

// CloseCount returns how many times Close was called.
func (d *Device) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Outputs returns the surfaces passed to CreateCaptureSession.
func (d *Device) Outputs() []camera.Surface {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]camera.Surface(nil), d.outputs...)
}

// Templates returns the templates passed to CreateCaptureRequest, in order.
func (d *Device) Templates() []camera.Template {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]camera.Template(nil), d.templates...)
}

// EmitDisconnected reports the device going away.
func (d *Device) EmitDisconnected() {
	d.sink(camera.DeviceDisconnected{Device: d})
}

// EmitError reports a fatal device error.
func (d *Device) EmitError(code camera.ErrorCode) {
	d.sink(camera.DeviceError{CameraID: d.id, Device: d, Code: code})
}

// EmitConfigured reports the pending session as configured.
func (d *Device) EmitConfigured() *Session {
	d.mu.Lock()
	sink := d.sessionSink
	outputs := append([]camera.Surface(nil), d.outputs...)
	d.mu.Unlock()
	if sink == nil {
		panic("camtest: no session was requested")
	}
	s := &Session{dev: d, rec: d.rec, outputs: outputs}
	sink(camera.SessionConfigured{Session: s})
	return s
}

// EmitConfigureFailed reports that the pending session failed.
func (d *Device) EmitConfigureFailed(err error) {
	d.mu.Lock()
	sink := d.sessionSink
	d.mu.Unlock()
	if sink == nil {
		panic("camtest: no session was requested")
	}
	sink(camera.SessionConfigureFailed{Device: d, Err: err})
}

// Session is a fake camera.Session.
type Session struct {
	dev     *Device
	rec     *Recorder
	outputs []camera.Surface

	mu        sync.Mutex
	repeating []camera.CaptureRequest
	captures  []camera.CaptureRequest
	stopped   int
	closed    int
}

func (s *Session) Device() camera.Device { return s.dev }

func (s *Session) SetRepeatingRequest(req camera.CaptureRequest) error {
	if err := camera.ValidateTargets(req, s.outputs); err != nil {
		return err
	}
	s.mu.Lock()
	s.repeating = append(s.repeating, req)
	s.mu.Unlock()
	s.rec.Record("repeating:%s", req.Template())
	return nil
}

func (s *Session) Capture(req camera.CaptureRequest) error {
	if err := camera.ValidateTargets(req, s.outputs); err != nil {
		return err
	}
	s.mu.Lock()
	s.captures = append(s.captures, req)
	s.mu.Unlock()
	s.rec.Record("capture:%s", req.Template())
	return nil
}

func (s *Session) StopRepeating() error {
	s.mu.Lock()
	s.stopped++
	s.mu.Unlock()
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.rec.Record("close_session:%s", s.dev.id)
	return nil
}

// Repeating returns every request passed to SetRepeatingRequest.
func (s *Session) Repeating() []camera.CaptureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]camera.CaptureRequest(nil), s.repeating...)
}

// Captures returns every request passed to Capture.
func (s *Session) Captures() []camera.CaptureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]camera.CaptureRequest(nil), s.captures...)
}

// CloseCount returns how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var (
	_ camera.Manager = (*Manager)(nil)
	_ camera.Device  = (*Device)(nil)
	_ camera.Session = (*Session)(nil)
)
