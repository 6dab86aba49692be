package opencv

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	learnrec "github.com/usr-ein/learn-n-recognize"
	"github.com/usr-ein/learn-n-recognize/recognizer"
)

// ArchiveName is the file name OpenCV models are saved under.
const ArchiveName = "LBPH_recognizer.xml"

// LBPHRecognizer is the OpenCV Local Binary Patterns Histograms recognizer.
// Samples are converted to grayscale and resized to a square of a fixed
// size before reaching the model.
//
// OpenCV aborts when an untrained model is asked for a prediction and does
// not tell whether a reloaded model is trained, so the number of samples is
// kept in a manifest saved next to the model.
type LBPHRecognizer struct {
	model   *contrib.LBPHFaceRecognizer
	size    int
	samples int
}

// NewLBPH creates an empty model. Predictions farther than threshold are
// reported with the label -1.
func NewLBPH(sampleSize int, threshold float64) *LBPHRecognizer {
	model := contrib.NewLBPHFaceRecognizer()
	if !math.IsInf(threshold, 1) && threshold > 0 {
		model.SetThreshold(float32(threshold))
	}
	return &LBPHRecognizer{model: model, size: sampleSize}
}

func (r *LBPHRecognizer) Empty() bool { return r.samples == 0 }

func (r *LBPHRecognizer) Train(samples []image.Image, labels []int) error {
	mats, err := r.mats(samples, labels)
	if err != nil {
		return err
	}
	defer closeAll(mats)

	r.model.Train(mats, labels)
	r.samples = len(mats)
	return nil
}

func (r *LBPHRecognizer) Update(samples []image.Image, labels []int) error {
	if r.Empty() {
		return learnrec.ErrRecognizerNotInitialized
	}
	mats, err := r.mats(samples, labels)
	if err != nil {
		return err
	}
	defer closeAll(mats)

	r.model.Update(mats, labels)
	r.samples += len(mats)
	return nil
}

func (r *LBPHRecognizer) Predict(face image.Image) (int, float64, error) {
	if r.Empty() {
		return -1, 0, learnrec.ErrRecognizerNotInitialized
	}
	mat, err := r.mat(face)
	if err != nil {
		return -1, 0, err
	}
	defer mat.Close()

	res := r.model.PredictExtendedResponse(mat)
	return int(res.Label), float64(res.Confidence), nil
}

func (r *LBPHRecognizer) Save(path string) error {
	r.model.SaveFile(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("the recognizer was not written: %w", err)
	}
	return recognizer.SaveManifest(path, recognizer.Manifest{Samples: r.samples})
}

// Load restores a model saved by Save. A model saved untrained is left out:
// the recognizer stays empty and is trained by the first flush.
func (r *LBPHRecognizer) Load(path string) error {
	m, err := recognizer.LoadManifest(path)
	if err != nil {
		return err
	}
	if m.Empty() {
		r.samples = 0
		return nil
	}
	// OpenCV aborts on missing files.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("unable to read the recognizer: %w", err)
	}
	r.model.LoadFile(path)
	r.samples = m.Samples
	return nil
}

func (r *LBPHRecognizer) mats(samples []image.Image, labels []int) ([]gocv.Mat, error) {
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("%d samples for %d labels", len(samples), len(labels))
	}
	mats := make([]gocv.Mat, 0, len(samples))
	for _, s := range samples {
		m, err := r.mat(s)
		if err != nil {
			closeAll(mats)
			return nil, err
		}
		mats = append(mats, m)
	}
	return mats, nil
}

func (r *LBPHRecognizer) mat(face image.Image) (gocv.Mat, error) {
	return gocv.ImageGrayToMatGray(grayscale(face, r.size))
}

// grayscale returns the face as a size x size grayscale image.
func grayscale(face image.Image, size int) *image.Gray {
	src := imaging.Resize(imaging.Grayscale(face), size, size, imaging.Linear)
	dst := image.NewGray(image.Rect(0, 0, size, size))
	for i := range dst.Pix {
		dst.Pix[i] = src.Pix[i*4]
	}
	return dst
}

func closeAll(mats []gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}
