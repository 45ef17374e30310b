// Package ui holds the Fyne widgets and dialogs of the camera window.
package ui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/intothevoid/prodcam/pkg/camera"
)

// PreviewView is a widget that displays camera frames. Its surface exists
// from the first non-empty layout until the renderer is destroyed.
type PreviewView struct {
	widget.BaseWidget

	// mu guards everything below; image itself is touched on the UI thread
	mu         sync.Mutex
	image      *canvas.Image
	available  bool
	size       camera.Size
	bufferSize camera.Size
	listener   func(camera.Surface)
	callbacks  []camera.SurfaceCallback
}

// NewPreviewView creates the widget.
func NewPreviewView() *PreviewView {
	v := &PreviewView{}
	v.ExtendBaseWidget(v)

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	return v
}

// previewSurface is the frame sink backed by a PreviewView.
type previewSurface PreviewView

// Render may be called from any goroutine.
func (s *previewSurface) Render(img image.Image) {
	(*PreviewView)(s).UpdateFrame(img)
}

// Surface returns the view's frame sink. The same value is returned for the
// life of the view.
func (v *PreviewView) Surface() camera.Surface { return (*previewSurface)(v) }

// IsAvailable reports whether the surface currently exists.
func (v *PreviewView) IsAvailable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.available
}

// SetSurfaceListener registers fn to run on the UI thread when the surface
// is created. A later call replaces the listener.
func (v *PreviewView) SetSurfaceListener(fn func(camera.Surface)) {
	v.mu.Lock()
	v.listener = fn
	v.mu.Unlock()
}

// AddCallback registers cb for surface lifecycle changes.
func (v *PreviewView) AddCallback(cb camera.SurfaceCallback) {
	v.mu.Lock()
	v.callbacks = append(v.callbacks, cb)
	v.mu.Unlock()
}

// SetDefaultBufferSize records the producer size and uses it as the
// widget's minimum size.
func (v *PreviewView) SetDefaultBufferSize(size camera.Size) {
	v.mu.Lock()
	v.bufferSize = size
	v.mu.Unlock()

	fyne.Do(func() {
		v.image.SetMinSize(fyne.NewSize(float32(size.Width)/2, float32(size.Height)/2))
		v.Refresh()
	})
}

// BufferSize returns the last size passed to SetDefaultBufferSize.
func (v *PreviewView) BufferSize() camera.Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bufferSize
}

// UpdateFrame is a thread safe way to send a new image
func (v *PreviewView) UpdateFrame(img image.Image) {
	fyne.Do(func() {
		v.image.Image = img
		v.image.Refresh()
	})
}

// CreateRenderer implements [fyne.Widget].
func (v *PreviewView) CreateRenderer() fyne.WidgetRenderer {
	return &previewRenderer{v}
}

// resized is called from Layout on the UI thread.
func (v *PreviewView) resized(s fyne.Size) {
	size := camera.Size{Width: int(s.Width), Height: int(s.Height)}
	if size.Width <= 0 || size.Height <= 0 {
		return
	}

	v.mu.Lock()
	created := !v.available
	changed := size != v.size
	v.available = true
	v.size = size
	listener := v.listener
	callbacks := append([]camera.SurfaceCallback(nil), v.callbacks...)
	v.mu.Unlock()

	surface := v.Surface()
	if created {
		if listener != nil {
			listener(surface)
		}
		for _, cb := range callbacks {
			cb.SurfaceCreated(surface)
		}
	}
	if changed {
		for _, cb := range callbacks {
			cb.SurfaceChanged(surface, size)
		}
	}
}

func (v *PreviewView) destroyed() {
	v.mu.Lock()
	was := v.available
	v.available = false
	v.size = camera.Size{}
	callbacks := append([]camera.SurfaceCallback(nil), v.callbacks...)
	v.mu.Unlock()

	if !was {
		return
	}
	for _, cb := range callbacks {
		cb.SurfaceDestroyed(v.Surface())
	}
}

// previewRenderer implements the logic to draw the widget
type previewRenderer struct {
	v *PreviewView
}

// Destroy implements [fyne.WidgetRenderer].
func (r *previewRenderer) Destroy() { r.v.destroyed() }

// MinSize implements [fyne.WidgetRenderer].
func (r *previewRenderer) MinSize() fyne.Size {
	return r.v.image.MinSize()
}

// Objects implements [fyne.WidgetRenderer].
func (r *previewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.v.image}
}

// Refresh implements [fyne.WidgetRenderer].
func (r *previewRenderer) Refresh() {
	r.v.image.Refresh()
}

func (r *previewRenderer) Layout(s fyne.Size) {
	r.v.image.Resize(s)
	r.v.resized(s)
}
