package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrClosed is returned by operations on a closed device, session or reader.
	ErrClosed = errors.New("camera: closed")

	// ErrMaxImages is returned when the frame buffer already holds its capacity.
	ErrMaxImages = errors.New("camera: frame buffer full")

	// ErrNoImage is returned when no image is queued.
	ErrNoImage = errors.New("camera: no image available")

	// ErrUnsupportedFormat is returned for image formats the reader cannot produce.
	ErrUnsupportedFormat = errors.New("camera: unsupported format")

	// ErrTargetNotConfigured is returned when a request targets a surface
	// that is not one of the session outputs.
	ErrTargetNotConfigured = errors.New("camera: request target not configured in session")

	// ErrNoTargets is returned for requests or sessions without any surface.
	ErrNoTargets = errors.New("camera: no target surfaces")
)

// ErrorCode is the reason carried by a DeviceError event.
type ErrorCode int

const (
	ErrorCameraInUse     ErrorCode = 1
	ErrorMaxCamerasInUse ErrorCode = 2
	ErrorCameraDisabled  ErrorCode = 3
	ErrorCameraDevice    ErrorCode = 4
	ErrorCameraService   ErrorCode = 5
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCameraInUse:
		return "camera in use"
	case ErrorMaxCamerasInUse:
		return "max cameras in use"
	case ErrorCameraDisabled:
		return "camera disabled"
	case ErrorCameraDevice:
		return "camera device"
	case ErrorCameraService:
		return "camera service"
	default:
		return fmt.Sprintf("error code %d", int(c))
	}
}
