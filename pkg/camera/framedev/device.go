// Package framedev turns a blocking frame source into an asynchronous
// camera.Device: sessions are reported through the sink and a pump
// goroutine renders requests at a fixed interval.
package framedev

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera"
)

// Source produces frames on demand. Read may block for up to one frame time.
type Source interface {
	Read() (image.Image, error)
	Close() error
}

type device struct {
	id       string
	interval time.Duration
	stream   Source
	sink     camera.Sink
	logger   *slog.Logger

	mu      sync.Mutex
	session *session
	closed  bool
}

// New wraps src as device id. sink receives DeviceDisconnected once the
// source stops delivering frames. A nil logger uses the process logger.
func New(id string, interval time.Duration, src Source, sink camera.Sink, logger *slog.Logger) camera.Device {
	if logger == nil {
		logger = log.Component("framedev")
	}
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &device{id: id, interval: interval, stream: src, sink: sink, logger: logger.With("camera", id)}
}

func (d *device) ID() string { return d.id }

func (d *device) CreateCaptureRequest(t camera.Template) *camera.RequestBuilder {
	return camera.NewRequestBuilder(t)
}

// CreateCaptureSession replaces any previous session. The new one is
// reported on sink from another goroutine.
func (d *device) CreateCaptureSession(outputs []camera.Surface, sink camera.Sink) error {
	if len(outputs) == 0 {
		return camera.ErrNoTargets
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return camera.ErrClosed
	}
	prev := d.session
	s := newSession(d, outputs)
	d.session = s
	d.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	go sink(camera.SessionConfigured{Session: s})
	return nil
}

func (d *device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	s := d.session
	d.session = nil
	d.mu.Unlock()

	if s != nil {
		s.Close()
	}
	d.logger.Info("camera closed")
	return d.stream.Close()
}

// lost reports the device as gone unless it was closed on purpose.
func (d *device) lost() {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if !closed {
		d.sink(camera.DeviceDisconnected{Device: d})
	}
}

var _ camera.Device = (*device)(nil)
