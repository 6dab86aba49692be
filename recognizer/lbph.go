// Package recognizer implements a Local Binary Patterns Histograms face
// recognizer in pure Go.
//
// Every sample is normalized to a fixed size grayscale image, turned into its
// local binary pattern image and described by the concatenation of the
// pattern histograms of a grid of cells. Predictions return the label of the
// nearest training sample and the chi-square distance to it: the lower the
// distance, the closer the match.
package recognizer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	learnrec "github.com/usr-ein/learn-n-recognize"
	"github.com/usr-ein/learn-n-recognize/utils"
)

// NoLabel is returned by Predict when no sample is close enough.
const NoLabel = -1

const bins = 256

// ErrBatchMismatch is returned when the samples and labels of a batch differ in length.
var ErrBatchMismatch = errors.New("samples and labels count mismatch")

// Params configures the descriptor. Models can only be compared when they
// share the same grid and sample size.
type Params struct {
	GridX      int     `yaml:"grid_x"`
	GridY      int     `yaml:"grid_y"`
	SampleSize int     `yaml:"sample_size"`
	Threshold  float64 `yaml:"threshold"`
}

// DefaultParams mirrors the OpenCV defaults.
func DefaultParams() Params {
	return Params{GridX: 8, GridY: 8, SampleSize: 64, Threshold: math.Inf(1)}
}

func (p Params) validate() error {
	if p.GridX <= 0 || p.GridY <= 0 {
		return fmt.Errorf("invalid grid %dx%d", p.GridX, p.GridY)
	}
	if p.SampleSize-2 < utils.Max(p.GridX, p.GridY) {
		return fmt.Errorf("sample size %d too small for a %dx%d grid", p.SampleSize, p.GridX, p.GridY)
	}
	return nil
}

type sample struct {
	label     int
	histogram []float64
}

// LBPH is the recognizer model. It is not safe for concurrent use.
type LBPH struct {
	params  Params
	samples []sample
}

// NewLBPH creates an empty model.
func NewLBPH(p Params) (*LBPH, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &LBPH{params: p}, nil
}

// Params returns the descriptor parameters of the model.
func (r *LBPH) Params() Params { return r.params }

// Empty reports whether the model has never been trained.
func (r *LBPH) Empty() bool { return len(r.samples) == 0 }

// Len returns the number of training samples held by the model.
func (r *LBPH) Len() int { return len(r.samples) }

// Labels returns the distinct labels known to the model.
func (r *LBPH) Labels() []int {
	seen := make(map[int]bool)
	var labels []int
	for _, s := range r.samples {
		if !seen[s.label] {
			seen[s.label] = true
			labels = append(labels, s.label)
		}
	}
	return labels
}

// Train replaces the model with the given batch.
func (r *LBPH) Train(samples []image.Image, labels []int) error {
	described, err := r.describe(samples, labels)
	if err != nil {
		return err
	}
	if len(described) == 0 {
		return errors.New("empty training batch")
	}
	r.samples = described
	return nil
}

// Update adds the batch to a trained model, keeping the previous samples.
func (r *LBPH) Update(samples []image.Image, labels []int) error {
	if r.Empty() {
		return learnrec.ErrRecognizerNotInitialized
	}
	described, err := r.describe(samples, labels)
	if err != nil {
		return err
	}
	r.samples = append(r.samples, described...)
	return nil
}

// Predict returns the label of the nearest training sample and its distance.
// The label is NoLabel when the distance exceeds the model threshold.
func (r *LBPH) Predict(face image.Image) (int, float64, error) {
	if r.Empty() {
		return NoLabel, 0, learnrec.ErrRecognizerNotInitialized
	}
	query := r.histogram(face)

	label, best := NoLabel, math.Inf(1)
	for _, s := range r.samples {
		if d := chiSquare(query, s.histogram); d < best {
			label, best = s.label, d
		}
	}
	if best > r.params.Threshold {
		label = NoLabel
	}
	return label, best, nil
}

func (r *LBPH) describe(samples []image.Image, labels []int) ([]sample, error) {
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrBatchMismatch, len(samples), len(labels))
	}
	described := make([]sample, len(samples))
	for i, img := range samples {
		described[i] = sample{label: labels[i], histogram: r.histogram(img)}
	}
	return described, nil
}

// histogram computes the spatial LBP histogram of a face.
func (r *LBPH) histogram(face image.Image) []float64 {
	size := r.params.SampleSize
	gray := normalize(face, size)
	codes := lbp(gray, size)

	inner := size - 2
	gx, gy := r.params.GridX, r.params.GridY
	hist := make([]float64, gx*gy*bins)

	for cy := 0; cy < gy; cy++ {
		y0, y1 := cy*inner/gy, (cy+1)*inner/gy
		for cx := 0; cx < gx; cx++ {
			x0, x1 := cx*inner/gx, (cx+1)*inner/gx
			cell := hist[(cy*gx+cx)*bins : (cy*gx+cx+1)*bins]
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					cell[codes[y*inner+x]]++
				}
			}
			if n := float64((y1 - y0) * (x1 - x0)); n > 0 {
				for i := range cell {
					cell[i] /= n
				}
			}
		}
	}
	return hist
}

// normalize returns the luminance of the face resized to size x size.
func normalize(face image.Image, size int) []uint8 {
	img := imaging.Resize(imaging.Grayscale(face), size, size, imaging.Linear)
	gray := make([]uint8, size*size)
	for y := 0; y < size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < size; x++ {
			gray[y*size+x] = row[x*4]
		}
	}
	return gray
}

// neighbours lists the offsets of the 8 pixels around the center, clockwise
// from the top left one.
var neighbours = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}}

// lbp computes the local binary pattern of every pixel not on the border.
func lbp(gray []uint8, size int) []uint8 {
	inner := size - 2
	codes := make([]uint8, inner*inner)
	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			center := gray[y*size+x]
			var code uint8
			for bit, n := range neighbours {
				if gray[(y+n[1])*size+x+n[0]] >= center {
					code |= 1 << (7 - bit)
				}
			}
			codes[(y-1)*inner+x-1] = code
		}
	}
	return codes
}

// chiSquare is the alternative chi-square distance used by OpenCV.
func chiSquare(a, b []float64) float64 {
	var d float64
	for i := range a {
		if s := a[i] + b[i]; s > 0 {
			diff := a[i] - b[i]
			d += diff * diff / s
		}
	}
	return 2 * d
}
