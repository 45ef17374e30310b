package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// StillView shows the most recent captured still.
type StillView struct {
	widget.BaseWidget

	image *canvas.Image
}

// NewStillView creates an empty still view of the given minimum size.
func NewStillView(width, height int) *StillView {
	v := &StillView{image: canvas.NewImageFromImage(nil)}
	v.image.FillMode = canvas.ImageFillContain
	v.image.SetMinSize(fyne.NewSize(float32(width), float32(height)))
	v.ExtendBaseWidget(v)
	return v
}

// SetImage replaces the displayed still. Call on the UI thread.
func (v *StillView) SetImage(img image.Image) {
	v.image.Image = img
	v.image.Refresh()
}

// Image returns the displayed still, or nil.
func (v *StillView) Image() image.Image { return v.image.Image }

func (v *StillView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.image)
}
