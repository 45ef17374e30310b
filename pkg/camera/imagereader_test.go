package camera

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return img
}

func TestNewImageReader_Validation(t *testing.T) {
	_, err := NewImageReader(300, 300, Format(0x23), 10)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewImageReader(0, 300, FormatJPEG, 10)
	assert.Error(t, err)

	_, err = NewImageReader(300, 300, FormatJPEG, 0)
	assert.Error(t, err)
}

func TestImageReader_ScalesAndEncodes(t *testing.T) {
	r, err := NewImageReader(300, 300, FormatJPEG, 10)
	require.NoError(t, err)

	var events []Event
	r.SetOnImageAvailable(func(ev Event) { events = append(events, ev) })

	r.Surface().Render(testFrame(640, 480))
	require.Len(t, events, 1)
	avail, ok := events[0].(ImageAvailable)
	require.True(t, ok)
	assert.Same(t, r, avail.Buffer)

	img, err := r.AcquireLatestImage()
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, FormatJPEG, img.Format)
	require.Len(t, img.Planes(), 1)
	data := img.Planes()[0].Bytes()
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2], "JPEG SOI marker")

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 300), decoded.Bounds())
}

func TestImageReader_BoundedCapacity(t *testing.T) {
	r, err := NewImageReader(16, 16, FormatJPEG, 10)
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		r.Surface().Render(testFrame(32, 32))
	}
	assert.Equal(t, 10, r.Queued())
	assert.Equal(t, uint64(5), r.Dropped())

	img, err := r.AcquireNextImage()
	require.NoError(t, err)
	assert.Equal(t, 9, r.Queued())
	assert.Equal(t, 1, r.Acquired())

	// still full: 9 queued + 1 acquired
	r.Surface().Render(testFrame(32, 32))
	assert.Equal(t, uint64(6), r.Dropped())

	img.Close()
	img.Close()
	assert.Equal(t, 0, r.Acquired())

	r.Surface().Render(testFrame(32, 32))
	assert.Equal(t, 10, r.Queued())
}

func TestImageReader_AcquireLatestDiscardsOlder(t *testing.T) {
	r, err := NewImageReader(8, 8, FormatJPEG, 10)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r.Surface().Render(testFrame(8, 8))
	}
	img, err := r.AcquireLatestImage()
	require.NoError(t, err)
	assert.Equal(t, 0, r.Queued())
	assert.Equal(t, 1, r.Acquired())
	img.Close()

	_, err = r.AcquireLatestImage()
	assert.ErrorIs(t, err, ErrNoImage)
	_, err = r.AcquireNextImage()
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestImageReader_Close(t *testing.T) {
	r, err := NewImageReader(8, 8, FormatJPEG, 2)
	require.NoError(t, err)

	notified := 0
	r.SetOnImageAvailable(func(Event) { notified++ })
	r.Surface().Render(testFrame(8, 8))
	img, err := r.AcquireNextImage()
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.True(t, r.Closed())

	// acquired images remain readable after the reader closes
	assert.NotEmpty(t, img.Planes()[0].Bytes())
	img.Close()

	r.Surface().Render(testFrame(8, 8))
	assert.Equal(t, 1, notified)
	_, err = r.AcquireLatestImage()
	assert.ErrorIs(t, err, ErrClosed)
}
