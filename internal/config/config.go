// Package config loads the settings of the learnrec command.
//
// Settings are resolved in order: built-in defaults, the optional YAML file,
// the LEARNREC_* environment variables and finally the command line flags,
// which are applied by the command itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Cascade download locations.
const (
	PigoCascadeURL = "https://raw.githubusercontent.com/esimov/pigo/master/cascade/facefinder"
	HaarCascadeURL = "https://raw.githubusercontent.com/opencv/opencv/master/data/haarcascades/haarcascade_frontalface_default.xml"
)

type Config struct {
	Camera     CameraConfig     `yaml:"camera"`
	Detector   DetectorConfig   `yaml:"detector"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Registry   RegistryConfig   `yaml:"registry"`
	Controller ControllerConfig `yaml:"controller"`
	Log        LogConfig        `yaml:"log"`
}

type CameraConfig struct {
	Device   int     `yaml:"device"`
	File     string  `yaml:"file"`     // video file played instead of the camera
	Scale    float64 `yaml:"scale"`    // scaling factor of the displayed stream
	Headless bool    `yaml:"headless"` // no window; requires a video file
	Record   string  `yaml:"record"`   // folder receiving the annotated frames
}

type DetectorConfig struct {
	Kind        string  `yaml:"kind"` // pigo or haar
	Cascade     string  `yaml:"cascade"`
	MinSize     int     `yaml:"min_size"`
	MaxSize     int     `yaml:"max_size"`
	ShiftFactor float64 `yaml:"shift_factor"`
	ScaleFactor float64 `yaml:"scale_factor"`
	IoU         float64 `yaml:"iou"`
	Angle       float64 `yaml:"angle"`
	Quality     float64 `yaml:"quality"`
}

// CascadeURL returns the download location of the cascade of the detector kind.
func (c DetectorConfig) CascadeURL() string {
	if c.Kind == "haar" {
		return HaarCascadeURL
	}
	return PigoCascadeURL
}

type RecognizerConfig struct {
	Kind       string `yaml:"kind"` // lbph or opencv
	Path       string `yaml:"path"` // model loaded at startup
	SaveDir    string `yaml:"save_dir"`
	GridX      int    `yaml:"grid_x"`
	GridY      int    `yaml:"grid_y"`
	SampleSize int    `yaml:"sample_size"`
}

type RegistryConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

type ControllerConfig struct {
	FlushThreshold    int           `yaml:"flush_threshold"`
	ValidityThreshold float64       `yaml:"validity_threshold"`
	HigherIsBetter    bool          `yaml:"higher_is_better"`
	ScanCountdown     time.Duration `yaml:"scan_countdown"`
	LearnCountdown    time.Duration `yaml:"learn_countdown"`
	StopPolicy        string        `yaml:"stop_policy"` // discard or flush
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{Scale: 1},
		Detector: DetectorConfig{
			Kind:        "pigo",
			Cascade:     "cascade/facefinder",
			MinSize:     60,
			MaxSize:     1000,
			ShiftFactor: 0.1,
			ScaleFactor: 1.1,
			IoU:         0.2,
			Quality:     5,
		},
		Recognizer: RecognizerConfig{
			Kind:       "lbph",
			SaveDir:    ".",
			GridX:      8,
			GridY:      8,
			SampleSize: 64,
		},
		Registry: RegistryConfig{Driver: "sqlite", DSN: "subjects.db"},
		Controller: ControllerConfig{
			FlushThreshold:    30,
			ValidityThreshold: 65,
			ScanCountdown:     3 * time.Second,
			LearnCountdown:    7 * time.Second,
			StopPolicy:        "discard",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Camera.Device = envInt("LEARNREC_CAMERA", c.Camera.Device)
	c.Camera.File = envString("LEARNREC_VIDEO", c.Camera.File)
	c.Camera.Scale = envFloat("LEARNREC_SCALE", c.Camera.Scale)
	c.Camera.Record = envString("LEARNREC_RECORD", c.Camera.Record)

	c.Detector.Kind = envString("LEARNREC_DETECTOR", c.Detector.Kind)
	c.Detector.Cascade = envString("LEARNREC_CASCADE", c.Detector.Cascade)

	c.Recognizer.Kind = envString("LEARNREC_RECOGNIZER", c.Recognizer.Kind)
	c.Recognizer.Path = envString("LEARNREC_RECOGNIZER_PATH", c.Recognizer.Path)
	c.Recognizer.SaveDir = envString("LEARNREC_SAVE_DIR", c.Recognizer.SaveDir)

	c.Registry.Driver = envString("LEARNREC_REGISTRY_DRIVER", c.Registry.Driver)
	c.Registry.DSN = envString("LEARNREC_REGISTRY_DSN", c.Registry.DSN)

	c.Controller.FlushThreshold = envInt("LEARNREC_FLUSH_THRESHOLD", c.Controller.FlushThreshold)
	c.Controller.ValidityThreshold = envFloat("LEARNREC_VALIDITY_THRESHOLD", c.Controller.ValidityThreshold)
	c.Controller.StopPolicy = envString("LEARNREC_STOP_POLICY", c.Controller.StopPolicy)

	c.Log.Level = envString("LEARNREC_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envString("LEARNREC_LOG_FORMAT", c.Log.Format)
}

// Validate checks the consistency of the settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Camera.Device < 0 {
		errs = append(errs, fmt.Errorf("camera: invalid device %d", c.Camera.Device))
	}
	if c.Camera.Scale <= 0 {
		errs = append(errs, fmt.Errorf("camera: scale must be positive, got %v", c.Camera.Scale))
	}
	if c.Camera.Headless && c.Camera.File == "" {
		errs = append(errs, errors.New("camera: headless mode requires a video file"))
	}
	switch c.Detector.Kind {
	case "pigo", "haar":
	default:
		errs = append(errs, fmt.Errorf("detector: unknown kind %q", c.Detector.Kind))
	}
	if c.Detector.MinSize <= 0 || c.Detector.MaxSize < c.Detector.MinSize {
		errs = append(errs, fmt.Errorf("detector: invalid face size range [%d, %d]", c.Detector.MinSize, c.Detector.MaxSize))
	}
	if c.Detector.ScaleFactor <= 1 {
		errs = append(errs, fmt.Errorf("detector: scale factor must exceed 1, got %v", c.Detector.ScaleFactor))
	}
	switch c.Recognizer.Kind {
	case "lbph", "opencv":
	default:
		errs = append(errs, fmt.Errorf("recognizer: unknown kind %q", c.Recognizer.Kind))
	}
	switch c.Registry.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("registry: unknown driver %q", c.Registry.Driver))
	}
	if c.Registry.DSN == "" {
		errs = append(errs, errors.New("registry: missing database location"))
	}
	if c.Controller.FlushThreshold <= 0 {
		errs = append(errs, fmt.Errorf("controller: flush threshold must be positive, got %d", c.Controller.FlushThreshold))
	}
	if c.Controller.ScanCountdown < 0 || c.Controller.LearnCountdown < 0 {
		errs = append(errs, errors.New("controller: countdowns cannot be negative"))
	}
	switch c.Controller.StopPolicy {
	case "discard", "flush":
	default:
		errs = append(errs, fmt.Errorf("controller: unknown stop policy %q", c.Controller.StopPolicy))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// envInt reads an environment variable and parses it as a non negative integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}
