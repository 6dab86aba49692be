package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	learnrec "github.com/usr-ein/learn-n-recognize"
	"github.com/usr-ein/learn-n-recognize/internal/config"
	"github.com/usr-ein/learn-n-recognize/registry"
	"github.com/usr-ein/learn-n-recognize/utils"
)

const HelpBanner = `
┬  ┌─┐┌─┐┬─┐┌┐┌┬─┐┌─┐┌─┐
│  ├┤ ├─┤├┬┘│││├┬┘├┤ │
┴─┘└─┘┴ ┴┴└─┘└┘┴└─└─┘└─┘

Learn and recognize faces on a live video stream.
    Version: %s

`

const keyHelp = `  l        learn the faces of a subject
  s, space go back to scanning
  q, esc   save the recognizer and quit`

var configPath string

// printBanner writes the credits, the version and the key bindings shown
// when a session starts.
func printBanner(w io.Writer) {
	fmt.Fprint(w, utils.DecorateText(fmt.Sprintf(HelpBanner, Version), utils.StatusMessage))
	fmt.Fprintln(w, utils.DecorateText(keyHelp, utils.DefaultMessage))
	fmt.Fprintln(w)
}

var rootCmd = &cobra.Command{
	Use:   "learnrec",
	Short: "Learn and recognize faces on a live video stream",
	Long: fmt.Sprintf(HelpBanner, Version) + `Every face found on the stream is labeled with the name of the subject
recognized for it. While the stream is displayed:

` + keyHelp,
	SilenceUsage: true,
	RunE:         runLoop,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.String("registry-driver", "", "Subject registry driver: sqlite or postgres")
	pf.String("registry-dsn", "", "Subject registry data source name")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: text or json")

	f := rootCmd.Flags()
	f.Int("camera", 0, "Capture device index")
	f.String("video", "", "Video file played instead of the camera")
	f.Float64("scale", 1, "Scaling factor of the displayed stream")
	f.Bool("headless", false, "Run without window; requires --video")
	f.String("record", "", "Folder receiving the annotated frames")
	f.String("detector", "", "Face detector: pigo or haar")
	f.String("cascade", "", "Cascade file of the face detector")
	f.Bool("download", true, "Download the cascade file when it is missing")
	f.String("recognizer", "", "Face recognizer: lbph or opencv")
	f.String("model", "", "Recognizer file loaded at startup")
	f.String("save-dir", "", "Default folder the recognizer is saved in")
	f.Int("flush-threshold", 0, "Samples buffered before the recognizer is trained")
	f.Float64("threshold", 0, "Confidence threshold of a valid recognition")
	f.Bool("higher-is-better", false, "Treat the confidence as a similarity score")
	f.Duration("scan-countdown", 0, "Delay before scanning starts")
	f.Duration("learn-countdown", 0, "Delay before learning starts")
	f.String("stop-policy", "", "Fate of the buffered samples on stop: discard or flush")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig resolves the settings, the flags set on the command line
// taking precedence over the file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	str := func(name string, dst *string) {
		if changed(name) {
			*dst = mustGetString(cmd, name)
		}
	}
	str("registry-driver", &cfg.Registry.Driver)
	str("registry-dsn", &cfg.Registry.DSN)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)

	if changed("camera") {
		cfg.Camera.Device = mustGetInt(cmd, "camera")
	}
	str("video", &cfg.Camera.File)
	if changed("scale") {
		cfg.Camera.Scale = mustGetFloat64(cmd, "scale")
	}
	if changed("headless") {
		cfg.Camera.Headless = mustGetBool(cmd, "headless")
	}
	str("record", &cfg.Camera.Record)
	str("detector", &cfg.Detector.Kind)
	str("cascade", &cfg.Detector.Cascade)
	str("recognizer", &cfg.Recognizer.Kind)
	str("model", &cfg.Recognizer.Path)
	str("save-dir", &cfg.Recognizer.SaveDir)
	if changed("flush-threshold") {
		cfg.Controller.FlushThreshold = mustGetInt(cmd, "flush-threshold")
	}
	if changed("threshold") {
		cfg.Controller.ValidityThreshold = mustGetFloat64(cmd, "threshold")
	}
	if changed("higher-is-better") {
		cfg.Controller.HigherIsBetter = mustGetBool(cmd, "higher-is-better")
	}
	if changed("scan-countdown") {
		cfg.Controller.ScanCountdown = mustGetDuration(cmd, "scan-countdown")
	}
	if changed("learn-countdown") {
		cfg.Controller.LearnCountdown = mustGetDuration(cmd, "learn-countdown")
	}
	str("stop-policy", &cfg.Controller.StopPolicy)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates the process logger. Every record carries the session id.
func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h).With("session", uuid.NewString())
}

func policy(c config.ControllerConfig) learnrec.Policy {
	stop := learnrec.DiscardRemainder
	if c.StopPolicy == "flush" {
		stop = learnrec.FlushRemainder
	}
	return learnrec.Policy{
		FlushThreshold: c.FlushThreshold,
		StopPolicy:     stop,
		ScanCountdown:  c.ScanCountdown,
		LearnCountdown: c.LearnCountdown,
	}
}

func runLoop(cmd *cobra.Command, args []string) error {
	printBanner(cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Open(ctx, cfg.Registry.Driver, cfg.Registry.DSN)
	if err != nil {
		return err
	}
	defer reg.Close()

	det, err := newDetector(ctx, cfg.Detector, mustGetBool(cmd, "download"))
	if err != nil {
		return err
	}
	defer det.Close()

	rec, err := newRecognizer(cfg.Recognizer)
	if err != nil {
		return err
	}

	src, err := newSource(cfg.Camera)
	if err != nil {
		return err
	}
	defer src.Close()

	if cfg.Camera.Headless && cfg.Camera.Record == "" {
		cfg.Camera.Record = "frames"
	}
	surf, err := newSurface(cfg.Camera)
	if err != nil {
		return err
	}
	defer surf.Close()

	ctrl, err := learnrec.NewController(learnrec.Collaborators{
		Source:     src,
		Detector:   det,
		Recognizer: rec,
		Registry:   reg,
		Surface:    surf,
		Prompter:   newPrompter(),
	}, learnrec.Options{
		Policy: policy(cfg.Controller),
		Gate: learnrec.ConfidenceGate{
			Threshold:      cfg.Controller.ValidityThreshold,
			HigherIsBetter: cfg.Controller.HigherIsBetter,
		},
		SaveDir:     cfg.Recognizer.SaveDir,
		ArchiveName: rec.archive,
		Reporter:    learnrec.NewConsoleReporter(os.Stderr),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info("session started",
		"detector", cfg.Detector.Kind,
		"recognizer", cfg.Recognizer.Kind,
		"registry", cfg.Registry.Driver,
		"trained", !rec.Empty(),
	)
	if err := ctrl.Run(ctx); err != nil {
		return err
	}
	logger.Info("session ended", "saved", ctrl.SavedPath())
	if r, ok := surf.(recorder); ok {
		logger.Info("frames recorded", "count", r.Frames(), "dir", cfg.Camera.Record)
	}
	return nil
}
