package learnrec

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"time"
)

// testFrame returns a uniform frame of the given size.
func testFrame(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img
}

type fakeSource struct {
	frames    int // frames left; negative for an endless source
	available bool
	err       error
}

func (s *fakeSource) Next() (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.frames == 0 {
		return nil, ErrSourceExhausted
	}
	if s.frames > 0 {
		s.frames--
	}
	return testFrame(160, 120), nil
}

func (s *fakeSource) Available() bool { return s.available }

// fakeDetector returns the next face count of the script, repeating the last one.
type fakeDetector struct {
	counts []int
	calls  int
	err    error
}

func (d *fakeDetector) Detect(frame image.Image) ([]image.Rectangle, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	n := 0
	if len(d.counts) > 0 {
		i := d.calls - 1
		if i >= len(d.counts) {
			i = len(d.counts) - 1
		}
		n = d.counts[i]
	}
	regions := make([]image.Rectangle, n)
	for i := range regions {
		regions[i] = image.Rect(10+i*40, 10, 40+i*40, 40)
	}
	return regions, nil
}

type batchCall struct {
	update bool
	size   int
	labels []int
}

type fakeRecognizer struct {
	trained    bool
	calls      []batchCall
	predicts   int
	label      int
	confidence float64
	predictErr error
	trainErr   error
	saveErr    error
	savedTo    []string
	savedState []bool
}

func (r *fakeRecognizer) Empty() bool { return !r.trained }

func (r *fakeRecognizer) Train(samples []image.Image, labels []int) error {
	r.calls = append(r.calls, batchCall{size: len(samples), labels: labels})
	if r.trainErr != nil {
		return r.trainErr
	}
	r.trained = true
	return nil
}

func (r *fakeRecognizer) Update(samples []image.Image, labels []int) error {
	r.calls = append(r.calls, batchCall{update: true, size: len(samples), labels: labels})
	if !r.trained {
		return ErrRecognizerNotInitialized
	}
	return nil
}

func (r *fakeRecognizer) Predict(sample image.Image) (int, float64, error) {
	r.predicts++
	return r.label, r.confidence, r.predictErr
}

func (r *fakeRecognizer) Save(path string) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.savedTo = append(r.savedTo, path)
	r.savedState = append(r.savedState, r.trained)
	return nil
}

type fakeRegistry struct {
	subjects  []Subject
	insertErr error
	listErr   error
}

func (r *fakeRegistry) Insert(ctx context.Context, name string) (Subject, error) {
	if r.insertErr != nil {
		return Subject{}, r.insertErr
	}
	for _, s := range r.subjects {
		if s.Name == name {
			return Subject{}, ErrSubjectExists
		}
	}
	s := Subject{ID: len(r.subjects) + 1, Name: name}
	r.subjects = append(r.subjects, s)
	return s, nil
}

func (r *fakeRegistry) Name(ctx context.Context, id int) (string, error) {
	for _, s := range r.subjects {
		if s.ID == id {
			return s.Name, nil
		}
	}
	return "", ErrSubjectNotFound
}

func (r *fakeRegistry) Exists(ctx context.Context, name string) (bool, error) {
	for _, s := range r.subjects {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistry) Subjects(ctx context.Context) ([]Subject, error) {
	return r.subjects, r.listErr
}

// fakeSurface records the overlays and replays a key script, one key per frame.
type fakeSurface struct {
	keys     []Key
	overlays []Overlay
	polls    int
	err      error
}

func (s *fakeSurface) Show(frame image.Image, o Overlay) error {
	s.overlays = append(s.overlays, o)
	return s.err
}

func (s *fakeSurface) PollKey() Key {
	defer func() { s.polls++ }()
	if s.polls < len(s.keys) {
		return s.keys[s.polls]
	}
	return KeyNone
}

func (s *fakeSurface) last() Overlay { return s.overlays[len(s.overlays)-1] }

// fakePrompter answers the questions from a script. An exhausted script
// behaves like a closed console.
type fakePrompter struct {
	confirms  []bool
	answers   []string
	questions []string
}

func (p *fakePrompter) Confirm(q string) (bool, error) {
	p.questions = append(p.questions, q)
	if len(p.confirms) == 0 {
		return false, io.EOF
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

func (p *fakePrompter) Ask(q, def string) (string, error) {
	p.questions = append(p.questions, q)
	if len(p.answers) == 0 {
		return def, io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	if a == "" {
		return def, nil
	}
	return a, nil
}

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var errBoom = errors.New("boom")

// fill returns n solid samples.
func fill(n int) []image.Image {
	s := make([]image.Image, n)
	for i := range s {
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		img.SetGray(0, 0, color.Gray{Y: uint8(i)})
		s[i] = img
	}
	return s
}
