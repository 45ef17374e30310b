// Package session sequences the camera: permission check, camera open,
// session configuration, repeating preview, on-demand still capture and
// teardown.
//
// Every camera notification is handled on one looper goroutine. The fields
// describing the open camera are only touched there, so they need no lock.
// The only work sent elsewhere is showing a decoded still, which is handed
// to the UI thread.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera"
	"github.com/intothevoid/prodcam/pkg/looper"
	"github.com/intothevoid/prodcam/pkg/permission"
)

// States of the controller.
const (
	StateIdle               = "idle"
	StatePermissionCheck    = "permission_check"
	StateAwaitingPermission = "awaiting_permission"
	StateOpening            = "opening"
	StateConfiguring        = "configuring"
	StatePreviewing         = "previewing"
	StateClosed             = "closed"
)

const (
	evSurfaceAvailable  = "surface_available"
	evGranted           = "granted"
	evDenied            = "denied"
	evPermissionGranted = "permission_granted"
	evPermissionDenied  = "permission_denied"
	evOpened            = "opened"
	evConfigured        = "configured"
	evFailed            = "failed"
	evDestroy           = "destroy"
)

var (
	// ErrNoCamera is logged when no camera with the wanted facing exists.
	ErrNoCamera = errors.New("session: no matching camera")

	// ErrNotPreviewing is logged when a still is requested outside preview.
	ErrNotPreviewing = errors.New("session: not previewing")

	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("session: stopped")
)

// DefaultPermissionNotice is shown when the user refuses camera access.
const DefaultPermissionNotice = "Camera permission is required to show the preview."

// PreviewView hosts the preview surface.
type PreviewView interface {
	Surface() camera.Surface
	IsAvailable() bool
	// SetSurfaceListener registers fn to be called once the surface exists.
	SetSurfaceListener(fn func(camera.Surface))
	SetDefaultBufferSize(size camera.Size)
}

// StillView displays a captured still. Called on the UI thread only.
type StillView interface {
	SetImage(img image.Image)
}

// Notifier shows a short user-visible message.
type Notifier interface {
	Notice(msg string)
}

// Deps are the collaborators supplied by the host.
type Deps struct {
	Manager     camera.Manager
	Permissions permission.Checker
	Requester   permission.Requester
	Preview     PreviewView
	Still       StillView
	Notifier    Notifier

	// UI runs fn on the UI thread. Nil runs fn inline.
	UI func(fn func())

	// FrameBuffer receives still captures. Nil creates an ImageReader from Options.
	FrameBuffer camera.FrameBuffer

	// Looper runs all camera callbacks. Nil creates one.
	Looper *looper.Looper
}

// Options tune the controller. Zero values take the defaults.
type Options struct {
	Facing           camera.LensFacing
	StillSize        camera.Size
	MaxImages        int
	JPEGQuality      int
	OpenTimeout      time.Duration
	ConfigureTimeout time.Duration
	PermissionNotice string
}

func (o *Options) applyDefaults() {
	if o.StillSize.Width <= 0 || o.StillSize.Height <= 0 {
		o.StillSize = camera.Size{Width: 300, Height: 300}
	}
	if o.MaxImages <= 0 {
		o.MaxImages = 10
	}
	if o.PermissionNotice == "" {
		o.PermissionNotice = DefaultPermissionNotice
	}
}

// Status is a snapshot for display and the web API.
type Status struct {
	State       string    `json:"state"`
	CameraID    string    `json:"camera_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Stills      int       `json:"stills"`
	LastStillAt time.Time `json:"last_still_at,omitzero"`
}

// Controller owns the camera handle, the capture session, the preview request
// and the frame buffer.
type Controller struct {
	deps   Deps
	opts   Options
	helper permission.Helper
	frames camera.FrameBuffer
	looper *looper.Looper
	fsm    *fsm.FSM
	logger *slog.Logger

	// looper-owned
	surface        camera.Surface
	cameraID       string
	device         camera.Device
	builder        *camera.RequestBuilder
	session        camera.Session
	requestPending bool
	attempt        uint64
	timer          *time.Timer

	mu        sync.RWMutex
	status    Status
	lastStill []byte
	observers []func(state string)
}

// New builds a controller in the idle state.
func New(deps Deps, opts Options) (*Controller, error) {
	if deps.Manager == nil || deps.Preview == nil || deps.Still == nil {
		return nil, errors.New("session: manager, preview and still view are required")
	}
	if deps.Permissions == nil || deps.Requester == nil {
		return nil, errors.New("session: permission checker and requester are required")
	}
	opts.applyDefaults()

	c := &Controller{
		deps:   deps,
		opts:   opts,
		frames: deps.FrameBuffer,
		looper: deps.Looper,
		logger: log.Component("session"),
	}
	if c.frames == nil {
		var readerOpts []camera.ReaderOption
		if opts.JPEGQuality > 0 {
			readerOpts = append(readerOpts, camera.WithJPEGQuality(opts.JPEGQuality))
		}
		reader, err := camera.NewImageReader(opts.StillSize.Width, opts.StillSize.Height,
			camera.FormatJPEG, opts.MaxImages, readerOpts...)
		if err != nil {
			return nil, fmt.Errorf("create frame buffer: %w", err)
		}
		c.frames = reader
	}
	if c.looper == nil {
		c.looper = looper.New("camera_background_thread")
	}
	c.status.State = StateIdle

	live := []string{StateIdle, StatePermissionCheck, StateAwaitingPermission,
		StateOpening, StateConfiguring, StatePreviewing}
	c.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: evSurfaceAvailable, Src: []string{StateIdle}, Dst: StatePermissionCheck},
			{Name: evGranted, Src: []string{StatePermissionCheck}, Dst: StateOpening},
			{Name: evDenied, Src: []string{StatePermissionCheck}, Dst: StateAwaitingPermission},
			{Name: evPermissionGranted, Src: []string{StateAwaitingPermission}, Dst: StatePermissionCheck},
			{Name: evPermissionDenied, Src: []string{StateAwaitingPermission}, Dst: StateIdle},
			{Name: evOpened, Src: []string{StateOpening}, Dst: StateConfiguring},
			{Name: evConfigured, Src: []string{StateConfiguring}, Dst: StatePreviewing},
			{Name: evFailed, Src: []string{StateOpening, StateConfiguring, StatePreviewing}, Dst: StateClosed},
			{Name: evDestroy, Src: live, Dst: StateClosed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.entered(e.Event, e.Src, e.Dst)
			},
		},
	)
	return c, nil
}

// OnStateChange registers fn to run, on the looper, after every transition.
// Register observers before Start.
func (c *Controller) OnStateChange(fn func(state string)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Start wires the frame buffer and waits for the preview surface.
// The listener goes in first so a surface created during Start is not
// missed; the idle guard in surfaceAvailable drops the duplicate.
func (c *Controller) Start() {
	c.frames.SetOnImageAvailable(c.sink)
	c.deps.Preview.SetSurfaceListener(func(s camera.Surface) {
		c.looper.Post(func() { c.surfaceAvailable(s) })
	})
	if c.deps.Preview.IsAvailable() {
		s := c.deps.Preview.Surface()
		c.looper.Post(func() { c.surfaceAvailable(s) })
	}
}

// Resume prompts for missing permissions.
func (c *Controller) Resume() {
	c.looper.Post(func() {
		if c.helper.CheckAllGranted(c.deps.Permissions) {
			return
		}
		c.requestPermissions()
	})
}

// OnRequestPermissionsResult delivers the answer to a permission prompt.
// grants runs parallel to perms.
func (c *Controller) OnRequestPermissionsResult(code int, perms []permission.Permission, grants []permission.Grant) {
	grants = append([]permission.Grant(nil), grants...)
	c.looper.Post(func() { c.permissionResult(code, perms, grants) })
}

// CaptureStill asks for one still to be captured into the frame buffer.
// It is a no-op, logged, unless the controller is previewing.
func (c *Controller) CaptureStill() error {
	if !c.looper.Post(c.captureStill) {
		return ErrStopped
	}
	return nil
}

// Stop releases the session, the camera, the frame buffer and finally the
// looper, in that order. Safe to call more than once.
func (c *Controller) Stop() {
	c.looper.Post(c.teardown)
	c.looper.QuitSafely()
}

// State returns the current state name.
func (c *Controller) State() string {
	return c.fsm.Current()
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// LastStill returns a copy of the most recent still's JPEG bytes.
func (c *Controller) LastStill() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastStill == nil {
		return nil, false
	}
	out := make([]byte, len(c.lastStill))
	copy(out, c.lastStill)
	return out, true
}

// sink is handed to the backend and the frame buffer. Events arriving after
// Stop still get their handles closed.
func (c *Controller) sink(ev camera.Event) {
	if c.looper.Post(func() { c.handle(ev) }) {
		return
	}
	switch e := ev.(type) {
	case camera.DeviceOpened:
		c.closeDevice(e.Device)
	case camera.SessionConfigured:
		c.closeSession(e.Session)
	}
}

func (c *Controller) handle(ev camera.Event) {
	switch e := ev.(type) {
	case camera.DeviceOpened:
		c.deviceOpened(e.Device)
	case camera.DeviceDisconnected:
		c.logger.Warn("camera disconnected", "camera", e.Device.ID())
		c.deviceLost(e.Device)
	case camera.DeviceError:
		c.logger.Error("camera error", "camera", e.CameraID, "code", e.Code)
		if e.Device == nil {
			c.openFailed(e.CameraID)
			return
		}
		c.deviceLost(e.Device)
	case camera.SessionConfigured:
		c.sessionConfigured(e.Session)
	case camera.SessionConfigureFailed:
		c.sessionConfigureFailed(e.Device, e.Err)
	case camera.ImageAvailable:
		c.imageAvailable(e.Buffer)
	default:
		c.logger.Warn("unknown camera event", "event", fmt.Sprintf("%T", ev))
	}
}

func (c *Controller) surfaceAvailable(s camera.Surface) {
	c.surface = s
	if !c.fsm.Is(StateIdle) {
		return
	}
	c.fire(evSurfaceAvailable)
	c.checkPermissions()
}

func (c *Controller) checkPermissions() {
	if c.helper.CheckAllGranted(c.deps.Permissions) {
		c.fire(evGranted)
		c.openCamera()
		return
	}
	c.fire(evDenied)
	c.requestPermissions()
}

func (c *Controller) requestPermissions() {
	if c.requestPending {
		return
	}
	c.requestPending = true
	c.logger.Info("requesting permissions", "code", permission.RequestCode)
	c.helper.RequestPermissions(c.deps.Requester)
}

func (c *Controller) permissionResult(code int, perms []permission.Permission, grants []permission.Grant) {
	if code != permission.RequestCode {
		return
	}
	c.requestPending = false

	if permission.AnyDenied(grants) {
		c.logger.Warn("permission denied", "permissions", perms)
		c.notice(c.opts.PermissionNotice)
		if c.fsm.Is(StateAwaitingPermission) {
			c.fire(evPermissionDenied)
		}
		return
	}
	if len(grants) == 0 {
		// prompt dismissed without an answer
		return
	}
	if !c.fsm.Is(StateAwaitingPermission) {
		return
	}
	if !c.helper.CheckAllGranted(c.deps.Permissions) {
		// allowed by the user, refused by the platform
		c.logger.Warn("permission granted but still unavailable", "permissions", perms)
		c.notice(c.opts.PermissionNotice)
		c.fire(evPermissionDenied)
		return
	}
	c.fire(evPermissionGranted)
	c.checkPermissions()
}

func (c *Controller) openCamera() {
	id, ch, ok, err := camera.FirstWithFacing(c.deps.Manager, c.opts.Facing)
	if err != nil {
		c.fail("find camera", err)
		return
	}
	if !ok {
		c.fail("find camera", fmt.Errorf("%w: facing %s", ErrNoCamera, c.opts.Facing))
		return
	}
	if len(ch.OutputSizes) > 0 {
		c.deps.Preview.SetDefaultBufferSize(ch.OutputSizes[0])
	}

	c.cameraID = id
	c.setStatus(func(s *Status) { s.CameraID = id })
	c.logger.Info("opening camera", "camera", id, "facing", ch.Facing)
	if err := c.deps.Manager.OpenCamera(id, c.sink); err != nil {
		c.fail("open camera", err)
		return
	}
	c.armTimeout(c.opts.OpenTimeout, StateOpening)
}

func (c *Controller) openFailed(id string) {
	if !c.fsm.Is(StateOpening) || id != c.cameraID {
		return
	}
	c.release()
	c.fire(evFailed)
}

func (c *Controller) deviceOpened(dev camera.Device) {
	if !c.fsm.Is(StateOpening) || dev.ID() != c.cameraID {
		c.logger.Debug("closing unexpected device", "camera", dev.ID(), "state", c.fsm.Current())
		c.closeDevice(dev)
		return
	}
	c.cancelTimeout()
	c.device = dev
	c.builder = dev.CreateCaptureRequest(camera.TemplatePreview).AddTarget(c.surface)
	c.fire(evOpened)

	outputs := []camera.Surface{c.surface, c.frames.Surface()}
	if err := dev.CreateCaptureSession(outputs, c.sink); err != nil {
		c.fail("create capture session", err)
		return
	}
	c.armTimeout(c.opts.ConfigureTimeout, StateConfiguring)
}

func (c *Controller) deviceLost(dev camera.Device) {
	if c.device == nil || dev != c.device {
		c.closeDevice(dev)
		return
	}
	c.release()
	c.fire(evFailed)
}

func (c *Controller) sessionConfigured(s camera.Session) {
	if !c.fsm.Is(StateConfiguring) || c.device == nil || s.Device() != c.device {
		c.closeSession(s)
		return
	}
	c.cancelTimeout()
	c.session = s
	id := uuid.NewString()
	c.setStatus(func(st *Status) { st.SessionID = id })

	if err := s.SetRepeatingRequest(c.builder.Build()); err != nil {
		c.fail("set repeating request", err)
		return
	}
	c.logger.Info("preview started", "camera", c.cameraID, "session", id)
	c.fire(evConfigured)
}

func (c *Controller) sessionConfigureFailed(dev camera.Device, err error) {
	if !c.fsm.Is(StateConfiguring) || dev != c.device {
		return
	}
	c.fail("configure session", err)
}

func (c *Controller) captureStill() {
	if !c.fsm.Is(StatePreviewing) {
		c.logger.Warn("capture ignored", "error", ErrNotPreviewing, "state", c.fsm.Current())
		return
	}
	req := c.device.CreateCaptureRequest(camera.TemplateStillCapture).
		AddTarget(c.frames.Surface()).
		Build()
	if err := c.session.Capture(req); err != nil {
		c.logger.Error("capture still", "error", err)
	}
}

func (c *Controller) imageAvailable(buf camera.FrameBuffer) {
	img, err := buf.AcquireLatestImage()
	if err != nil {
		// an earlier notification already took the latest image
		c.logger.Debug("acquire image", "error", err)
		return
	}
	defer img.Close()

	planes := img.Planes()
	if len(planes) == 0 {
		return
	}
	data := make([]byte, planes[0].Len())
	copy(data, planes[0].Bytes())

	still, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		c.logger.Error("decode still", "error", err)
		return
	}

	c.mu.Lock()
	c.lastStill = data
	c.status.Stills++
	c.status.LastStillAt = img.Timestamp
	c.mu.Unlock()

	c.onUI(func() { c.deps.Still.SetImage(still) })
}

func (c *Controller) teardown() {
	if !c.fsm.Is(StateClosed) {
		c.fire(evDestroy)
	}
	c.release()
	if err := c.frames.Close(); err != nil {
		c.logger.Error("close frame buffer", "error", err)
	}
}

// release closes the session, then the device.
func (c *Controller) release() {
	c.cancelTimeout()
	if c.session != nil {
		c.closeSession(c.session)
		c.session = nil
	}
	if c.device != nil {
		c.closeDevice(c.device)
		c.device = nil
	}
	c.builder = nil
}

// fail logs err, releases the camera and moves to closed.
func (c *Controller) fail(op string, err error) {
	c.logger.Error(op, "error", err, "camera", c.cameraID)
	c.release()
	c.fire(evFailed)
}

func (c *Controller) armTimeout(d time.Duration, state string) {
	c.cancelTimeout()
	if d <= 0 {
		return
	}
	c.attempt++
	attempt := c.attempt
	c.timer = time.AfterFunc(d, func() {
		c.looper.Post(func() { c.timedOut(attempt, state, d) })
	})
}

func (c *Controller) cancelTimeout() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) timedOut(attempt uint64, state string, d time.Duration) {
	if attempt != c.attempt || !c.fsm.Is(state) {
		return
	}
	c.timer = nil
	c.fail("camera timeout", fmt.Errorf("no answer while %s after %s", state, d))
}

func (c *Controller) fire(event string) {
	if err := c.fsm.Event(context.Background(), event); err != nil {
		c.logger.Debug("transition rejected", "event", event, "state", c.fsm.Current(), "error", err)
	}
}

func (c *Controller) entered(event, from, to string) {
	c.logger.Debug("transition", "event", event, "from", from, "to", to)
	c.setStatus(func(s *Status) { s.State = to })

	c.mu.RLock()
	observers := c.observers
	c.mu.RUnlock()
	for _, fn := range observers {
		fn(to)
	}
}

func (c *Controller) setStatus(fn func(*Status)) {
	c.mu.Lock()
	fn(&c.status)
	c.mu.Unlock()
}

func (c *Controller) notice(msg string) {
	if c.deps.Notifier == nil {
		return
	}
	c.onUI(func() { c.deps.Notifier.Notice(msg) })
}

func (c *Controller) onUI(fn func()) {
	if c.deps.UI == nil {
		fn()
		return
	}
	c.deps.UI(fn)
}

func (c *Controller) closeDevice(dev camera.Device) {
	if err := dev.Close(); err != nil {
		c.logger.Error("close camera", "camera", dev.ID(), "error", err)
	}
}

func (c *Controller) closeSession(s camera.Session) {
	if err := s.Close(); err != nil {
		c.logger.Error("close session", "error", err)
	}
}
