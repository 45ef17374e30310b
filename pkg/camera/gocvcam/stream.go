// Package gocvcam is the OpenCV camera backend.
package gocvcam

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// VideoStream manages one webcam connection.
type VideoStream struct {
	deviceID int

	mu     sync.Mutex
	webcam *gocv.VideoCapture
	frame  *gocv.Mat // reused between reads
}

// NewVideoStream opens device id at the requested resolution.
func NewVideoStream(id, width, height int) (*VideoStream, error) {
	cam, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("open device %d: %w", id, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return nil, fmt.Errorf("open device %d: not opened", id)
	}

	// Drivers may pick the nearest supported size
	cam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(height))

	mat := gocv.NewMat()
	return &VideoStream{
		deviceID: id,
		webcam:   cam,
		frame:    &mat,
	}, nil
}

// Read returns the current frame as a standard Go image.
func (vs *VideoStream) Read() (image.Image, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.webcam == nil {
		return nil, fmt.Errorf("device %d: stream closed", vs.deviceID)
	}
	if !vs.webcam.Read(vs.frame) {
		return nil, fmt.Errorf("device %d: cannot read frame", vs.deviceID)
	}
	if vs.frame.Empty() {
		return nil, fmt.Errorf("device %d: frame is empty", vs.deviceID)
	}

	// ToImage copies, so the Mat can be reused
	return vs.frame.ToImage()
}

// Close releases the device and the frame buffer. Safe to call twice.
func (vs *VideoStream) Close() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.webcam == nil {
		return nil
	}
	err := vs.webcam.Close()
	vs.frame.Close()
	vs.webcam = nil
	return err
}
