package opencv

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	learnrec "github.com/usr-ein/learn-n-recognize"
)

// Window is a display surface showing the annotated frames in a native
// window. The key pressed while a frame is displayed is reported by the
// next PollKey call.
type Window struct {
	win    *gocv.Window
	scale  float64
	key    int
	polled bool
}

// NewWindow opens a window. Frames are resized by scale before being shown.
func NewWindow(title string, scale float64) *Window {
	if scale <= 0 {
		scale = 1
	}
	return &Window{win: gocv.NewWindow(title), scale: scale, key: -1}
}

func (w *Window) Show(frame image.Image, o learnrec.Overlay) error {
	var img image.Image = learnrec.Annotate(frame, o)
	if w.scale != 1 {
		width := int(float64(img.Bounds().Dx()) * w.scale)
		img = imaging.Resize(img, width, 0, imaging.Linear)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("unable to convert the frame: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	// Waiting for one millisecond lets the window process its events.
	w.key = w.win.WaitKey(1)
	w.polled = false
	return nil
}

// PollKey waits for the keyboard itself when no frame was shown since the
// last call.
func (w *Window) PollKey() learnrec.Key {
	if w.polled {
		w.key = w.win.WaitKey(1)
	}
	k := learnrec.KeyFromCode(w.key)
	w.key, w.polled = -1, true
	return k
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
