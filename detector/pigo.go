// Package detector locates faces in video frames with the pigo pixel
// intensity comparison cascade.
package detector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/usr-ein/learn-n-recognize/utils"
)

// ErrInvalidCascade is returned when the cascade file cannot be unpacked.
var ErrInvalidCascade = errors.New("invalid cascade file")

// Params tunes the cascade run over every frame.
type Params struct {
	// MinSize and MaxSize bound the side of the detected faces, in pixels.
	MinSize int
	MaxSize int
	// ShiftFactor is the fraction of the window size the window moves by.
	ShiftFactor float64
	// ScaleFactor is the growth of the window between two scales.
	ScaleFactor float64
	// IoU is the intersection over union above which detections are merged.
	IoU float64
	// Angle is the in-plane rotation of the faces, as a fraction of 2π.
	Angle float64
	// Quality is the minimum detection score of a face.
	Quality float32
}

// DefaultParams returns parameters suited to a webcam stream.
func DefaultParams() Params {
	return Params{
		MinSize:     60,
		MaxSize:     1000,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		Quality:     5.0,
	}
}

// Pigo is a face detector backed by a pigo cascade classifier.
type Pigo struct {
	classifier *pigo.Pigo
	params     Params
}

// NewPigo unpacks the binary cascade.
func NewPigo(cascade []byte, p Params) (*Pigo, error) {
	classifier, err := unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCascade, err)
	}
	return &Pigo{classifier: classifier, params: p}, nil
}

// unpack guards the cascade decoder, which indexes the packet without
// checking its length.
func unpack(cascade []byte) (classifier *pigo.Pigo, err error) {
	// 8 bytes of header, the tree depth and the number of trees.
	if len(cascade) < 16 || binary.LittleEndian.Uint32(cascade[12:]) == 0 {
		return nil, errors.New("truncated cascade header")
	}
	defer func() {
		if r := recover(); r != nil {
			classifier, err = nil, fmt.Errorf("corrupted cascade: %v", r)
		}
	}()
	return pigo.NewPigo().Unpack(cascade)
}

// LoadPigo reads the cascade file at path.
func LoadPigo(path string, p Params) (*Pigo, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the cascade file: %w", err)
	}
	return NewPigo(cascade, p)
}

// Detect returns the bounding boxes of the faces found in the frame.
func (d *Pigo) Detect(frame image.Image) ([]image.Rectangle, error) {
	bounds := frame.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	params := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     utils.Min(d.params.MaxSize, utils.Max(cols, rows)),
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: rgbToGrayscale(frame),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.classifier.RunCascade(params, d.params.Angle)

	// Merge the overlapping detections of the same face.
	dets = d.classifier.ClusterDetections(dets, d.params.IoU)

	regions := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.params.Quality {
			continue
		}
		if r := detectionRect(det, bounds); !r.Empty() {
			regions = append(regions, r)
		}
	}
	return regions, nil
}

// detectionRect converts a detection centered on (Col, Row) into a square
// region in the frame coordinate space, clipped to the frame.
func detectionRect(det pigo.Detection, bounds image.Rectangle) image.Rectangle {
	half := int(math.Round(float64(det.Scale) / 2))
	x, y := bounds.Min.X+det.Col, bounds.Min.Y+det.Row
	return image.Rect(x-half, y-half, x+half, y+half).Intersect(bounds)
}

// rgbToGrayscale converts an image to grayscale mode and
// returns the pixel values as an one dimensional array.
func rgbToGrayscale(src image.Image) []uint8 {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	gray := make([]uint8, width*height)

	if g, ok := src.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			copy(gray[y*width:(y+1)*width], g.Pix[y*g.Stride:y*g.Stride+width])
		}
		return gray
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray[y*width+x] = uint8(
				(0.299*float64(r) +
					0.587*float64(g) +
					0.114*float64(b)) / 256,
			)
		}
	}
	return gray
}
