package opencv

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	learnrec "github.com/usr-ein/learn-n-recognize"
)

// MaxDroppedFrames is the number of consecutive empty reads after which a
// capture device is considered lost.
const MaxDroppedFrames = 30

// ErrFrameDropped is returned when a capture device delivered no frame.
var ErrFrameDropped = errors.New("frame dropped")

// Camera is a video source reading a capture device or a video file.
type Camera struct {
	vc    *gocv.VideoCapture
	frame gocv.Mat
	drops dropCounter
}

// OpenCamera opens the capture device with the given index.
func OpenCamera(device int) (*Camera, error) {
	vc, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", learnrec.ErrSourceUnavailable, device, err)
	}
	cam, err := newCamera(vc)
	if err != nil {
		return nil, err
	}
	cam.drops.limit = MaxDroppedFrames
	return cam, nil
}

// OpenFile opens a video file, played instead of a live stream.
func OpenFile(path string) (*Camera, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", learnrec.ErrSourceUnavailable, path, err)
	}
	return newCamera(vc)
}

func newCamera(vc *gocv.VideoCapture) (*Camera, error) {
	if !vc.IsOpened() {
		vc.Close()
		return nil, learnrec.ErrSourceUnavailable
	}
	return &Camera{vc: vc, frame: gocv.NewMat()}, nil
}

// Next blocks until the next frame has been grabbed. A video file is
// exhausted by its first empty read, a device only once it stopped
// delivering frames for MaxDroppedFrames reads in a row.
func (c *Camera) Next() (image.Image, error) {
	ok := c.vc.Read(&c.frame) && !c.frame.Empty()
	if err := c.drops.observe(ok, c.vc.IsOpened()); err != nil {
		return nil, err
	}
	return c.frame.ToImage()
}

func (c *Camera) Available() bool {
	return c.vc.IsOpened()
}

// Close releases the device.
func (c *Camera) Close() error {
	c.frame.Close()
	return c.vc.Close()
}

// dropCounter tells dropped frames of a live device from the end of the
// stream. A zero limit ends the stream on the first empty read.
type dropCounter struct {
	limit  int
	missed int
}

func (d *dropCounter) observe(ok, opened bool) error {
	if ok {
		d.missed = 0
		return nil
	}
	d.missed++
	if !opened || d.missed > d.limit {
		return learnrec.ErrSourceExhausted
	}
	return fmt.Errorf("%w (%d in a row)", ErrFrameDropped, d.missed)
}
