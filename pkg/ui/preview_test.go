package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intothevoid/prodcam/pkg/camera"
	"github.com/intothevoid/prodcam/pkg/permission"
)

type surfaceEvents struct {
	created   int
	changed   []camera.Size
	destroyed int
}

func (e *surfaceEvents) SurfaceCreated(camera.Surface) { e.created++ }
func (e *surfaceEvents) SurfaceChanged(_ camera.Surface, s camera.Size) {
	e.changed = append(e.changed, s)
}
func (e *surfaceEvents) SurfaceDestroyed(camera.Surface) { e.destroyed++ }

func TestPreviewView_SurfaceLifecycle(t *testing.T) {
	test.NewTempApp(t)

	v := NewPreviewView()
	events := &surfaceEvents{}
	v.AddCallback(events)

	var got camera.Surface
	v.SetSurfaceListener(func(s camera.Surface) { got = s })

	r := test.WidgetRenderer(v)
	assert.False(t, v.IsAvailable())

	r.Layout(fyne.NewSize(0, 0))
	assert.False(t, v.IsAvailable(), "an empty layout has no surface")
	assert.Equal(t, 0, events.created)

	r.Layout(fyne.NewSize(320, 240))
	require.True(t, v.IsAvailable())
	assert.Equal(t, 1, events.created)
	assert.Same(t, v.Surface(), got)

	r.Layout(fyne.NewSize(320, 240))
	r.Layout(fyne.NewSize(640, 480))
	assert.Equal(t, 1, events.created)
	assert.Equal(t, []camera.Size{{Width: 320, Height: 240}, {Width: 640, Height: 480}}, events.changed)

	r.Destroy()
	assert.False(t, v.IsAvailable())
	assert.Equal(t, 1, events.destroyed)
}

func TestPreviewView_SurfaceIsStable(t *testing.T) {
	test.NewTempApp(t)

	v := NewPreviewView()
	assert.Same(t, v.Surface(), v.Surface())
}

func TestPermissionPrompt_AnswerRecordsConsent(t *testing.T) {
	store := permission.NewStore(nil)

	var gotCode int
	var gotGrants []permission.Grant
	p := NewPermissionPrompt(nil, store, func(code int, _ []permission.Permission, grants []permission.Grant) {
		gotCode = code
		gotGrants = grants
	})

	p.answer([]permission.Permission{permission.Camera}, permission.RequestCode, false)
	assert.Equal(t, permission.RequestCode, gotCode)
	assert.Equal(t, []permission.Grant{permission.Denied}, gotGrants)
	assert.Equal(t, permission.Denied, store.CheckSelfPermission(permission.Camera))

	p.answer([]permission.Permission{permission.Camera}, permission.RequestCode, true)
	assert.Equal(t, []permission.Grant{permission.Granted}, gotGrants)
	assert.Equal(t, permission.Granted, store.CheckSelfPermission(permission.Camera))
}
