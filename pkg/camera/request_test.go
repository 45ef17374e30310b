package camera

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSurface struct {
	frames int
}

func (s *countingSurface) Render(image.Image) { s.frames++ }

func TestRequestBuilder_BuildIsImmutable(t *testing.T) {
	a, b := &countingSurface{}, &countingSurface{}

	builder := NewRequestBuilder(TemplatePreview).AddTarget(a).AddTarget(a)
	req := builder.Build()
	builder.AddTarget(b)

	assert.Equal(t, TemplatePreview, req.Template())
	require.Len(t, req.Targets(), 1)
	assert.Same(t, a, req.Targets()[0])

	targets := req.Targets()
	targets[0] = b
	assert.Same(t, a, req.Targets()[0], "Targets must return a copy")
}

func TestCaptureRequest_Render(t *testing.T) {
	a, b := &countingSurface{}, &countingSurface{}
	req := NewRequestBuilder(TemplatePreview).AddTarget(a).AddTarget(b).Build()

	req.Render(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Equal(t, 1, a.frames)
	assert.Equal(t, 1, b.frames)
}

func TestValidateTargets(t *testing.T) {
	a, b := &countingSurface{}, &countingSurface{}
	outputs := []Surface{a}

	assert.NoError(t, ValidateTargets(NewRequestBuilder(TemplatePreview).AddTarget(a).Build(), outputs))
	assert.ErrorIs(t, ValidateTargets(NewRequestBuilder(TemplatePreview).Build(), outputs), ErrNoTargets)
	assert.ErrorIs(t, ValidateTargets(NewRequestBuilder(TemplatePreview).AddTarget(b).Build(), outputs), ErrTargetNotConfigured)
}

func TestParseLensFacing(t *testing.T) {
	tests := []struct {
		in   string
		want LensFacing
	}{
		{"back", LensFacingBack},
		{"front", LensFacingFront},
		{"external", LensFacingExternal},
	}
	for _, tt := range tests {
		got, err := ParseLensFacing(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}

	_, err := ParseLensFacing("up")
	assert.Error(t, err)
}
