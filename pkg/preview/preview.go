// Package preview binds an already-open camera to a view's surface and
// starts continuous preview once that surface exists.
package preview

import (
	"log/slog"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera"
)

// Camera is a camera handle that can render preview frames to one surface.
type Camera interface {
	SetPreviewDisplay(s camera.Surface) error
	StartPreview() error
}

// Host is a view that reports surface lifecycle changes.
type Host interface {
	AddCallback(cb camera.SurfaceCallback)
}

// Binder starts the camera preview when the host's surface is created.
type Binder struct {
	cam    Camera
	logger *slog.Logger
}

// New registers a Binder for cam on host.
func New(cam Camera, host Host) *Binder {
	b := &Binder{cam: cam, logger: log.Component("preview")}
	host.AddCallback(b)
	return b
}

// SurfaceCreated binds the camera output to s and starts preview.
// Failures are logged and otherwise ignored.
func (b *Binder) SurfaceCreated(s camera.Surface) {
	if err := b.cam.SetPreviewDisplay(s); err != nil {
		b.logger.Error("set preview display", "error", err)
		return
	}
	if err := b.cam.StartPreview(); err != nil {
		b.logger.Error("start preview", "error", err)
	}
}

// SurfaceChanged is a no-op: preview is not reconfigured on resize.
func (b *Binder) SurfaceChanged(camera.Surface, camera.Size) {}

// SurfaceDestroyed is a no-op.
func (b *Binder) SurfaceDestroyed(camera.Surface) {}
