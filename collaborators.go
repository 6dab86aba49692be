package learnrec

import (
	"context"
	"image"
	"time"
)

// VideoSource delivers the frames of the live stream.
// Next blocks until a frame is available and returns ErrSourceExhausted
// once the stream has ended.
type VideoSource interface {
	Next() (image.Image, error)
	Available() bool
}

// Detector locates the faces of a frame. The returned regions are expressed
// in the frame coordinate space; their order is not significant.
type Detector interface {
	Detect(frame image.Image) ([]image.Rectangle, error)
}

// Recognizer is a stateful face classification model. It starts either empty
// or loaded from a previous session. Train may only be called on an empty
// model, Update only on a trained one.
type Recognizer interface {
	Empty() bool
	Train(samples []image.Image, labels []int) error
	Update(samples []image.Image, labels []int) error
	Predict(sample image.Image) (label int, confidence float64, err error)
	Save(path string) error
}

// Loader is implemented by recognizers able to restore a saved model.
type Loader interface {
	Load(path string) error
}

// Registry maps subject ids to subject names.
type Registry interface {
	Insert(ctx context.Context, name string) (Subject, error)
	Name(ctx context.Context, id int) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Subjects(ctx context.Context) ([]Subject, error)
}

// Surface renders annotated frames and reports the key pressed since the
// last frame. PollKey must never block.
type Surface interface {
	Show(frame image.Image, o Overlay) error
	PollKey() Key
}

// Prompter asks the operator questions on the console.
type Prompter interface {
	Confirm(question string) (bool, error)
	Ask(question, def string) (string, error)
}

// Clock is the time source of the countdowns.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
