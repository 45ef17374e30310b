package gocvcam

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera"
	"github.com/intothevoid/prodcam/pkg/config"
)

// LegacyCamera is the single-call preview API: hand it a display, start
// it, and frames flow until Close.
type LegacyCamera struct {
	stream   *VideoStream
	interval time.Duration

	mu      sync.Mutex
	display camera.Surface
	cancel  context.CancelFunc
	done    chan struct{}
}

// OpenLegacy opens the device described by cc.
func OpenLegacy(cc config.CameraConfig) (*LegacyCamera, error) {
	stream, err := NewVideoStream(cc.DeviceIndex, cc.Width, cc.Height)
	if err != nil {
		return nil, err
	}
	return &LegacyCamera{stream: stream, interval: cc.FrameInterval()}, nil
}

func (c *LegacyCamera) SetPreviewDisplay(s camera.Surface) error {
	if s == nil {
		return errors.New("preview display is nil")
	}
	c.mu.Lock()
	c.display = s
	c.mu.Unlock()
	return nil
}

func (c *LegacyCamera) StartPreview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.display == nil {
		return errors.New("no preview display set")
	}
	if c.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.loop(ctx, c.done)
	return nil
}

func (c *LegacyCamera) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		img, err := c.stream.Read()
		if err != nil {
			continue
		}
		c.mu.Lock()
		display := c.display
		c.mu.Unlock()
		display.Render(img)
	}
}

// StopPreview stops delivering frames. The device stays open.
func (c *LegacyCamera) StopPreview() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *LegacyCamera) Close() error {
	c.StopPreview()
	log.Debug("legacy camera closed")
	return c.stream.Close()
}
