package camera

// Event is a notification from a camera backend. The concrete types below
// are the only variants.
type Event interface {
	isEvent()
}

// DeviceOpened reports that OpenCamera succeeded.
type DeviceOpened struct {
	Device Device
}

// DeviceDisconnected reports that an open device is no longer usable.
type DeviceDisconnected struct {
	Device Device
}

// DeviceError reports that opening failed or an open device hit a fatal error.
// Device is nil when the open itself failed before a handle existed.
type DeviceError struct {
	CameraID string
	Device   Device
	Code     ErrorCode
}

// SessionConfigured reports a session ready to accept requests.
type SessionConfigured struct {
	Session Session
}

// SessionConfigureFailed reports that a session could not be configured.
type SessionConfigureFailed struct {
	Device Device
	Err    error
}

// ImageAvailable reports that a frame buffer has a new image queued.
type ImageAvailable struct {
	Buffer FrameBuffer
}

func (DeviceOpened) isEvent()           {}
func (DeviceDisconnected) isEvent()     {}
func (DeviceError) isEvent()            {}
func (SessionConfigured) isEvent()      {}
func (SessionConfigureFailed) isEvent() {}
func (ImageAvailable) isEvent()         {}

// Sink receives backend events. Implementations must not block.
type Sink func(Event)
