package gocvcam

import (
	"fmt"
	"log/slog"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera"
	"github.com/intothevoid/prodcam/pkg/camera/framedev"
	"github.com/intothevoid/prodcam/pkg/config"
)

// Manager exposes the configured OpenCV devices as cameras.
type Manager struct {
	order  []string
	cams   map[string]config.CameraConfig
	facing map[string]camera.LensFacing
	logger *slog.Logger
}

// NewManager builds a manager from the cameras section of the config.
func NewManager(cams []config.CameraConfig) (*Manager, error) {
	m := &Manager{
		cams:   make(map[string]config.CameraConfig, len(cams)),
		facing: make(map[string]camera.LensFacing, len(cams)),
		logger: log.Component("gocvcam"),
	}
	for _, cc := range cams {
		f, err := camera.ParseLensFacing(cc.Facing)
		if err != nil {
			return nil, fmt.Errorf("camera %q: %w", cc.ID, err)
		}
		m.order = append(m.order, cc.ID)
		m.cams[cc.ID] = cc
		m.facing[cc.ID] = f
	}
	return m, nil
}

func (m *Manager) CameraIDs() ([]string, error) {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

func (m *Manager) Characteristics(id string) (camera.Characteristics, error) {
	cc, ok := m.cams[id]
	if !ok {
		return camera.Characteristics{}, fmt.Errorf("unknown camera %q", id)
	}
	return camera.Characteristics{
		Facing:      m.facing[id],
		OutputSizes: []camera.Size{{Width: cc.Width, Height: cc.Height}},
	}, nil
}

// OpenCamera opens the device in the background and reports to sink.
func (m *Manager) OpenCamera(id string, sink camera.Sink) error {
	cc, ok := m.cams[id]
	if !ok {
		return fmt.Errorf("unknown camera %q", id)
	}
	go func() {
		stream, err := NewVideoStream(cc.DeviceIndex, cc.Width, cc.Height)
		if err != nil {
			m.logger.Error("open camera", "camera", id, "error", err)
			sink(camera.DeviceError{CameraID: id, Code: camera.ErrorCameraDevice})
			return
		}
		m.logger.Info("camera opened", "camera", id, "device_index", cc.DeviceIndex)
		sink(camera.DeviceOpened{Device: framedev.New(id, cc.FrameInterval(), stream, sink, m.logger)})
	}()
	return nil
}

var _ camera.Manager = (*Manager)(nil)
