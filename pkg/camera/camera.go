// Package camera defines the contracts between the capture session and a
// camera backend: devices, sessions, capture requests, target surfaces and
// the events a backend reports back.
//
// Backends never call into the session directly. They deliver Event values
// to a Sink, and the session decides on which goroutine to handle them.
package camera

import (
	"fmt"
	"image"
)

// LensFacing is the direction a camera points, relative to the screen.
type LensFacing int

const (
	LensFacingBack LensFacing = iota
	LensFacingFront
	LensFacingExternal
)

func (f LensFacing) String() string {
	switch f {
	case LensFacingBack:
		return "back"
	case LensFacingFront:
		return "front"
	case LensFacingExternal:
		return "external"
	default:
		return fmt.Sprintf("facing(%d)", int(f))
	}
}

// ParseLensFacing maps a config name to a LensFacing.
func ParseLensFacing(s string) (LensFacing, error) {
	switch s {
	case "back":
		return LensFacingBack, nil
	case "front":
		return LensFacingFront, nil
	case "external":
		return LensFacingExternal, nil
	}
	return 0, fmt.Errorf("camera: unknown lens facing %q", s)
}

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Characteristics describes a camera before it is opened.
type Characteristics struct {
	Facing      LensFacing
	OutputSizes []Size // preferred size first
}

// Surface consumes frames produced by a capture request.
// Render is called from backend goroutines and must not block for long.
type Surface interface {
	Render(img image.Image)
}

// SurfaceCallback receives lifecycle notifications for a view's surface.
type SurfaceCallback interface {
	SurfaceCreated(s Surface)
	SurfaceChanged(s Surface, size Size)
	SurfaceDestroyed(s Surface)
}

// Manager enumerates and opens cameras.
type Manager interface {
	CameraIDs() ([]string, error)
	Characteristics(id string) (Characteristics, error)
	// OpenCamera starts opening the camera and returns immediately.
	// The outcome arrives on sink as DeviceOpened or DeviceError.
	OpenCamera(id string, sink Sink) error
}

// Device is an opened camera handle.
type Device interface {
	ID() string
	CreateCaptureRequest(t Template) *RequestBuilder
	// CreateCaptureSession starts configuring a session over outputs and
	// returns immediately. The outcome arrives on sink as SessionConfigured
	// or SessionConfigureFailed.
	CreateCaptureSession(outputs []Surface, sink Sink) error
	Close() error
}

// Session binds a device to a fixed set of output surfaces.
type Session interface {
	Device() Device
	// SetRepeatingRequest replaces the repeating request. Frames are
	// delivered to its targets until replaced, stopped or closed.
	SetRepeatingRequest(req CaptureRequest) error
	// Capture delivers one frame to the request targets.
	Capture(req CaptureRequest) error
	StopRepeating() error
	Close() error
}

// FirstWithFacing returns the id of the first camera facing f.
func FirstWithFacing(m Manager, f LensFacing) (string, Characteristics, bool, error) {
	ids, err := m.CameraIDs()
	if err != nil {
		return "", Characteristics{}, false, fmt.Errorf("list cameras: %w", err)
	}
	for _, id := range ids {
		ch, err := m.Characteristics(id)
		if err != nil {
			return "", Characteristics{}, false, fmt.Errorf("characteristics of %s: %w", id, err)
		}
		if ch.Facing == f {
			return id, ch, true, nil
		}
	}
	return "", Characteristics{}, false, nil
}
