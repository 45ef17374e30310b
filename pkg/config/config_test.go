package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Still.Width)
	assert.Equal(t, 300, cfg.Still.Height)
	assert.Equal(t, 10, cfg.Still.MaxImages)
	require.Len(t, cfg.Cameras, 1)
	assert.Equal(t, FacingBack, cfg.Cameras[0].Facing)
	assert.Equal(t, "0", cfg.Cameras[0].ID)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodcam.yaml")
	body := `
log_level: debug
still:
  jpeg_quality: 75
timeouts:
  open_ms: 1500
cameras:
  - id: usb
    device_index: 2
    facing: external
    fps: 15
  - device_index: 0
web:
  enabled: true
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 75, cfg.Still.JPEGQuality)
	assert.Equal(t, 1500*time.Millisecond, cfg.OpenTimeout())
	assert.Equal(t, 5*time.Second, cfg.ConfigureTimeout())
	require.Len(t, cfg.Cameras, 2)
	assert.Equal(t, "usb", cfg.Cameras[0].ID)
	assert.Equal(t, FacingExternal, cfg.Cameras[0].Facing)
	assert.Equal(t, time.Second/15, cfg.Cameras[0].FrameInterval())
	assert.Equal(t, "0", cfg.Cameras[1].ID)
	assert.Equal(t, FacingBack, cfg.Cameras[1].Facing)
	assert.Equal(t, 640, cfg.Cameras[1].Width)
	assert.True(t, cfg.Web.Enabled)
	assert.Equal(t, ":9000", cfg.Web.Addr)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "still: [",
		"quality":        "still:\n  jpeg_quality: 101\n",
		"facing":         "cameras:\n  - facing: sideways\n",
		"negative index": "cameras:\n  - id: a\n    device_index: -1\n",
		"duplicate id":   "cameras:\n  - id: a\n  - id: a\n    device_index: 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}
