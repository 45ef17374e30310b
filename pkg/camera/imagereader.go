package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

// Format is the encoding of images produced by a frame buffer.
type Format int

// FormatJPEG is the only format the reader produces.
const FormatJPEG Format = 0x100

// FrameBuffer is a bounded queue of encoded images fed through its Surface.
type FrameBuffer interface {
	Surface() Surface
	// SetOnImageAvailable registers the single consumer. sink receives an
	// ImageAvailable event each time an image is queued.
	SetOnImageAvailable(sink Sink)
	AcquireLatestImage() (*Image, error)
	AcquireNextImage() (*Image, error)
	Close() error
}

// Plane is one block of image data. For JPEG there is exactly one.
type Plane struct {
	buf []byte
}

// Bytes returns the plane data. It is only valid until the image is closed.
func (p Plane) Bytes() []byte {
	return p.buf
}

// Len returns the number of bytes in the plane.
func (p Plane) Len() int {
	return len(p.buf)
}

// Image is one encoded frame owned by a frame buffer slot.
type Image struct {
	Width     int
	Height    int
	Format    Format
	Timestamp time.Time

	planes []Plane
	once   sync.Once
	reader *ImageReader
}

// Planes returns the image planes.
func (i *Image) Planes() []Plane {
	return i.planes
}

// Close returns the image's slot to its frame buffer.
func (i *Image) Close() {
	i.once.Do(func() {
		i.planes = nil
		if i.reader != nil {
			i.reader.release()
		}
	})
}

// ReaderOption configures an ImageReader.
type ReaderOption func(*ImageReader)

// WithJPEGQuality sets the encoder quality (1-100).
func WithJPEGQuality(q int) ReaderOption {
	return func(r *ImageReader) {
		if q > 0 && q <= 100 {
			r.quality = q
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ReaderOption {
	return func(r *ImageReader) {
		r.now = now
	}
}

// ImageReader scales every rendered frame to a fixed size, encodes it and
// queues it. Queued plus acquired images never exceed maxImages; frames that
// arrive while full are dropped.
type ImageReader struct {
	size      Size
	format    Format
	maxImages int
	quality   int
	now       func() time.Time

	mu       sync.Mutex
	queue    []*Image
	acquired int
	dropped  uint64
	closed   bool
	sink     Sink
}

// NewImageReader creates a reader producing width x height images.
func NewImageReader(width, height int, format Format, maxImages int, opts ...ReaderOption) (*ImageReader, error) {
	if format != FormatJPEG {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedFormat, int(format))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("camera: invalid reader size %dx%d", width, height)
	}
	if maxImages <= 0 {
		return nil, fmt.Errorf("camera: maxImages must be > 0, got %d", maxImages)
	}
	r := &ImageReader{
		size:      Size{Width: width, Height: height},
		format:    format,
		maxImages: maxImages,
		quality:   jpeg.DefaultQuality,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Size returns the fixed output size.
func (r *ImageReader) Size() Size {
	return r.size
}

// MaxImages returns the buffer capacity.
func (r *ImageReader) MaxImages() int {
	return r.maxImages
}

// Surface returns the surface feeding this reader.
func (r *ImageReader) Surface() Surface {
	return (*readerSurface)(r)
}

// SetOnImageAvailable implements FrameBuffer.
func (r *ImageReader) SetOnImageAvailable(sink Sink) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

// AcquireLatestImage returns the newest queued image and discards older ones.
func (r *ImageReader) AcquireLatestImage() (*Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if len(r.queue) == 0 {
		return nil, ErrNoImage
	}
	img := r.queue[len(r.queue)-1]
	for _, old := range r.queue[:len(r.queue)-1] {
		old.planes = nil
	}
	r.queue = r.queue[:0]
	r.acquired++
	return img, nil
}

// AcquireNextImage returns the oldest queued image.
func (r *ImageReader) AcquireNextImage() (*Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if len(r.queue) == 0 {
		return nil, ErrNoImage
	}
	img := r.queue[0]
	r.queue = r.queue[1:]
	r.acquired++
	return img, nil
}

// Queued returns the number of images waiting to be acquired.
func (r *ImageReader) Queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Acquired returns the number of images acquired and not yet closed.
func (r *ImageReader) Acquired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acquired
}

// Dropped returns how many frames were discarded because the buffer was full.
func (r *ImageReader) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Closed reports whether Close has been called.
func (r *ImageReader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close discards queued images and stops accepting frames. Images already
// acquired stay readable until they are closed.
func (r *ImageReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.queue = nil
	r.sink = nil
	return nil
}

func (r *ImageReader) release() {
	r.mu.Lock()
	if r.acquired > 0 {
		r.acquired--
	}
	r.mu.Unlock()
}

func (r *ImageReader) full() bool {
	return len(r.queue)+r.acquired >= r.maxImages
}

// enqueue encodes src and queues it.
func (r *ImageReader) enqueue(src image.Image) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.full() {
		r.dropped++
		r.mu.Unlock()
		return ErrMaxImages
	}
	r.mu.Unlock()

	scaled := resize.Resize(uint(r.size.Width), uint(r.size.Height), src, resize.Bilinear)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}

	img := &Image{
		Width:     r.size.Width,
		Height:    r.size.Height,
		Format:    r.format,
		Timestamp: r.now(),
		planes:    []Plane{{buf: buf.Bytes()}},
		reader:    r,
	}

	r.mu.Lock()
	// state may have changed while encoding
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.full() {
		r.dropped++
		r.mu.Unlock()
		return ErrMaxImages
	}
	r.queue = append(r.queue, img)
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink(ImageAvailable{Buffer: r})
	}
	return nil
}

// readerSurface is the Surface view of an ImageReader.
type readerSurface ImageReader

func (s *readerSurface) Render(img image.Image) {
	// Full and closed readers drop frames; nothing to report.
	_ = (*ImageReader)(s).enqueue(img)
}
