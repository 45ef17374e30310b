package camera

import (
	"fmt"
	"image"
)

// Template selects the intent of a capture request.
type Template int

const (
	TemplatePreview Template = iota + 1
	TemplateStillCapture
)

func (t Template) String() string {
	switch t {
	case TemplatePreview:
		return "preview"
	case TemplateStillCapture:
		return "still_capture"
	default:
		return fmt.Sprintf("template(%d)", int(t))
	}
}

// RequestBuilder collects targets for a CaptureRequest.
type RequestBuilder struct {
	template Template
	targets  []Surface
}

// NewRequestBuilder returns an empty builder for t.
func NewRequestBuilder(t Template) *RequestBuilder {
	return &RequestBuilder{template: t}
}

// AddTarget appends s. Adding the same surface twice has no effect.
func (b *RequestBuilder) AddTarget(s Surface) *RequestBuilder {
	for _, t := range b.targets {
		if t == s {
			return b
		}
	}
	b.targets = append(b.targets, s)
	return b
}

// Build returns an immutable request. Later builder changes do not affect it.
func (b *RequestBuilder) Build() CaptureRequest {
	targets := make([]Surface, len(b.targets))
	copy(targets, b.targets)
	return CaptureRequest{template: b.template, targets: targets}
}

// CaptureRequest is a built, read-only capture instruction.
type CaptureRequest struct {
	template Template
	targets  []Surface
}

// Template returns the request intent.
func (r CaptureRequest) Template() Template {
	return r.template
}

// Targets returns a copy of the request's target surfaces.
func (r CaptureRequest) Targets() []Surface {
	out := make([]Surface, len(r.targets))
	copy(out, r.targets)
	return out
}

// Render delivers img to every target.
func (r CaptureRequest) Render(img image.Image) {
	for _, t := range r.targets {
		t.Render(img)
	}
}

// ValidateTargets checks that req has targets and that each one is among outputs.
func ValidateTargets(req CaptureRequest, outputs []Surface) error {
	if len(req.targets) == 0 {
		return ErrNoTargets
	}
	for _, t := range req.targets {
		found := false
		for _, o := range outputs {
			if o == t {
				found = true
				break
			}
		}
		if !found {
			return ErrTargetNotConfigured
		}
	}
	return nil
}
