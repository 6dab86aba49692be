package learnrec

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Recorder is a Surface saving every annotated frame as a JPEG file. It
// forwards the frames to an inner surface when one is given; without it the
// recorder runs headless and never reports a key.
type Recorder struct {
	dir   string
	inner Surface
	n     int
}

// NewRecorder creates the output folder and returns a recorder writing into it.
func NewRecorder(dir string, inner Surface) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create the recording folder: %w", err)
	}
	return &Recorder{dir: dir, inner: inner}, nil
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int { return r.n }

func (r *Recorder) Show(frame image.Image, o Overlay) error {
	path := filepath.Join(r.dir, fmt.Sprintf("frame-%06d.jpg", r.n))
	if err := imaging.Save(Annotate(frame, o), path, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("unable to record frame: %w", err)
	}
	r.n++
	if r.inner != nil {
		return r.inner.Show(frame, o)
	}
	return nil
}

func (r *Recorder) PollKey() Key {
	if r.inner != nil {
		return r.inner.PollKey()
	}
	return KeyNone
}
