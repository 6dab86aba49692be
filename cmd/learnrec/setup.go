package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
	"time"

	learnrec "github.com/usr-ein/learn-n-recognize"
	"github.com/usr-ein/learn-n-recognize/detector"
	"github.com/usr-ein/learn-n-recognize/internal/config"
	"github.com/usr-ein/learn-n-recognize/opencv"
	"github.com/usr-ein/learn-n-recognize/prompt"
	"github.com/usr-ein/learn-n-recognize/recognizer"
	"github.com/usr-ein/learn-n-recognize/utils"
)

const haarCascade = "haarcascade_frontalface_default.xml"

type closer interface {
	Close() error
}

type faceDetector interface {
	learnrec.Detector
	closer
}

type surface interface {
	learnrec.Surface
	closer
}

// pureDetector adapts the detectors holding no native resource.
type pureDetector struct{ learnrec.Detector }

func (pureDetector) Close() error { return nil }

// model is the recognizer of the session along with the file name it is
// saved under.
type model struct {
	learnrec.Recognizer
	archive string
}

// cascadeSource returns the local path of the cascade file of the detector
// kind and the location it is downloaded from when missing. A cascade given
// as a URL is stored in the default cascade folder.
func cascadeSource(c config.DetectorConfig) (path, uri string) {
	def := config.Default().Detector.Cascade
	switch {
	case utils.IsValidUrl(c.Cascade):
		u, err := url.Parse(c.Cascade)
		if err != nil {
			return c.Cascade, c.Cascade
		}
		return filepath.Join(filepath.Dir(def), pathpkg.Base(u.Path)), c.Cascade
	case c.Kind == "haar" && c.Cascade == def:
		return filepath.Join(filepath.Dir(def), haarCascade), c.CascadeURL()
	}
	return c.Cascade, c.CascadeURL()
}

// ensureCascade downloads the cascade file when it is missing.
func ensureCascade(ctx context.Context, path, uri string, download bool) error {
	_, err := os.Stat(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) || !download {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create the cascade folder: %w", err)
	}
	utils.Fprintf(os.Stderr, utils.StatusMessage, "Downloading the cascade file to %s\n", path)
	return utils.DownloadFile(ctx, uri, path, os.Stderr)
}

// checkCascade rejects a cascade of the wrong family: OpenCV cascades are
// XML documents while pigo cascades are binary.
func checkCascade(kind, path string) error {
	ctype, err := utils.DetectContentType(path)
	if err != nil {
		return err
	}
	xml := strings.Contains(ctype, "xml")
	if kind == "haar" && !xml {
		return fmt.Errorf("%s is not an OpenCV cascade (%s)", path, ctype)
	}
	if kind == "pigo" && xml {
		return fmt.Errorf("%s is an OpenCV cascade, use --detector haar", path)
	}
	return nil
}

func newDetector(ctx context.Context, c config.DetectorConfig, download bool) (faceDetector, error) {
	path, uri := cascadeSource(c)
	if err := ensureCascade(ctx, path, uri, download); err != nil {
		return nil, fmt.Errorf("missing cascade file: %w", err)
	}
	if err := checkCascade(c.Kind, path); err != nil {
		return nil, err
	}

	if c.Kind == "haar" {
		return opencv.LoadHaar(path, opencv.HaarParams{
			ScaleFactor: c.ScaleFactor,
			MinSize:     c.MinSize,
			MaxSize:     c.MaxSize,
		})
	}

	d, err := detector.LoadPigo(path, detector.Params{
		MinSize:     c.MinSize,
		MaxSize:     c.MaxSize,
		ShiftFactor: c.ShiftFactor,
		ScaleFactor: c.ScaleFactor,
		IoU:         c.IoU,
		Angle:       c.Angle,
		Quality:     float32(c.Quality),
	})
	if err != nil {
		return nil, err
	}
	return pureDetector{d}, nil
}

// newRecognizer creates the recognizer, restoring the saved model when a
// path is configured.
func newRecognizer(c config.RecognizerConfig) (*model, error) {
	var m *model
	switch c.Kind {
	case "opencv":
		r := opencv.NewLBPH(c.SampleSize, math.Inf(1))
		m = &model{Recognizer: r, archive: opencv.ArchiveName}
	default:
		r, err := recognizer.NewLBPH(recognizer.Params{
			GridX:      c.GridX,
			GridY:      c.GridY,
			SampleSize: c.SampleSize,
			Threshold:  math.Inf(1),
		})
		if err != nil {
			return nil, err
		}
		m = &model{Recognizer: r, archive: learnrec.DefaultArchiveName}
	}
	if c.Path == "" {
		return m, nil
	}

	loader, ok := m.Recognizer.(learnrec.Loader)
	if !ok {
		return nil, fmt.Errorf("the %s recognizer cannot be restored", c.Kind)
	}
	text := utils.DecorateText("Loading the recognizer from "+c.Path+"...", utils.DefaultMessage)
	spinner := utils.NewSpinner(os.Stderr, text, 100*time.Millisecond, true)
	spinner.Start()
	err := loader.Load(c.Path)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("unable to load the recognizer: %w", err)
	}
	return m, nil
}

func newSource(c config.CameraConfig) (*opencv.Camera, error) {
	if c.File != "" {
		return opencv.OpenFile(c.File)
	}
	return opencv.OpenCamera(c.Device)
}

// recorder adapts the recording surface, closing the window it forwards to.
type recorder struct {
	*learnrec.Recorder
	inner closer
}

func (r recorder) Close() error {
	if r.inner == nil {
		return nil
	}
	return r.inner.Close()
}

// newSurface opens the window, wrapped by a recorder when frames are
// recorded. Headless sessions only record.
func newSurface(c config.CameraConfig) (surface, error) {
	if c.Headless {
		rec, err := learnrec.NewRecorder(c.Record, nil)
		if err != nil {
			return nil, err
		}
		return recorder{Recorder: rec}, nil
	}

	win := opencv.NewWindow("learnrec", c.Scale)
	if c.Record == "" {
		return win, nil
	}
	rec, err := learnrec.NewRecorder(c.Record, win)
	if err != nil {
		win.Close()
		return nil, err
	}
	return recorder{Recorder: rec, inner: win}, nil
}

func newPrompter() learnrec.Prompter {
	return prompt.Stdio()
}
