package framedev

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/intothevoid/prodcam/pkg/camera"
)

const (
	// maxPendingCaptures bounds one-shot requests waiting for a frame.
	maxPendingCaptures = 4
	// maxMissedFrames consecutive read failures count as a disconnect.
	maxMissedFrames = 30
)

type session struct {
	dev     *device
	outputs []camera.Surface

	mu        sync.Mutex
	repeating *camera.CaptureRequest
	pending   []camera.CaptureRequest
	closed    bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(d *device, outputs []camera.Surface) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		dev:     d,
		outputs: append([]camera.Surface(nil), outputs...),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.pump(ctx)
	return s
}

func (s *session) Device() camera.Device { return s.dev }

func (s *session) SetRepeatingRequest(req camera.CaptureRequest) error {
	if err := camera.ValidateTargets(req, s.outputs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return camera.ErrClosed
	}
	s.repeating = &req
	return nil
}

func (s *session) Capture(req camera.CaptureRequest) error {
	if err := camera.ValidateTargets(req, s.outputs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return camera.ErrClosed
	}
	if len(s.pending) >= maxPendingCaptures {
		return fmt.Errorf("capture queue full (%d pending)", len(s.pending))
	}
	s.pending = append(s.pending, req)
	return nil
}

func (s *session) StopRepeating() error {
	s.mu.Lock()
	s.repeating = nil
	s.mu.Unlock()
	return nil
}

// Close stops the frame pump and waits for it to exit.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.repeating = nil
	s.pending = nil
	s.mu.Unlock()

	s.cancel()
	<-s.done
	return nil
}

// take returns the work for the next frame.
func (s *session) take() (*camera.CaptureRequest, []camera.CaptureRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	return s.repeating, pending
}

func (s *session) pump(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.dev.interval)
	defer ticker.Stop()

	missed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		repeating, pending := s.take()
		if repeating == nil && len(pending) == 0 {
			continue
		}

		img, err := s.dev.stream.Read()
		if err != nil {
			missed++
			if missed == 1 {
				s.dev.logger.Warn("frame read failed", "error", err)
			}
			if missed >= maxMissedFrames {
				s.dev.logger.Error("camera stopped delivering frames", "missed", missed)
				go s.dev.lost()
				return
			}
			s.requeue(pending)
			continue
		}
		missed = 0

		if repeating != nil {
			repeating.Render(img)
		}
		for _, req := range pending {
			req.Render(img)
		}
	}
}

// requeue puts reqs back in front of newer captures, keeping the queue
// within maxPendingCaptures. The newest captures are dropped first.
func (s *session) requeue(reqs []camera.CaptureRequest) {
	if len(reqs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	merged := append(reqs, s.pending...)
	if len(merged) > maxPendingCaptures {
		s.dev.logger.Warn("dropping captures", "dropped", len(merged)-maxPendingCaptures)
		merged = merged[:maxPendingCaptures]
	}
	s.pending = merged
}

var _ camera.Session = (*session)(nil)
