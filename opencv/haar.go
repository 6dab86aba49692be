package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// HaarParams tunes the multi scale detection.
type HaarParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
	MaxSize      int
}

// HaarDetector finds faces with an OpenCV Haar cascade classifier.
type HaarDetector struct {
	classifier gocv.CascadeClassifier
	params     HaarParams
}

// LoadHaar loads the XML cascade at path.
func LoadHaar(path string, p HaarParams) (*HaarDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("unable to load the cascade file %s", path)
	}
	if p.MinNeighbors <= 0 {
		p.MinNeighbors = 3
	}
	return &HaarDetector{classifier: classifier, params: p}, nil
}

// Detect returns the faces of the frame, in the frame coordinate space.
func (d *HaarDetector) Detect(frame image.Image) ([]image.Rectangle, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("unable to convert the frame: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)

	rects := d.classifier.DetectMultiScaleWithParams(gray,
		d.params.ScaleFactor, d.params.MinNeighbors, 0,
		image.Pt(d.params.MinSize, d.params.MinSize),
		image.Pt(d.params.MaxSize, d.params.MaxSize),
	)

	origin := frame.Bounds().Min
	for i := range rects {
		rects[i] = rects[i].Add(origin)
	}
	return rects, nil
}

// Close releases the classifier.
func (d *HaarDetector) Close() error {
	return d.classifier.Close()
}
