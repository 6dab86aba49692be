package learnrec

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultArchiveName is the file name the recognizer is saved under.
const DefaultArchiveName = "LBPH_recognizer.yaml"

// Collaborators groups the external components driven by the controller.
type Collaborators struct {
	Source     VideoSource
	Detector   Detector
	Recognizer Recognizer
	Registry   Registry
	Surface    Surface
	Prompter   Prompter
}

func (c Collaborators) validate() error {
	switch {
	case c.Source == nil:
		return errors.New("missing video source")
	case c.Detector == nil:
		return errors.New("missing face detector")
	case c.Recognizer == nil:
		return errors.New("missing face recognizer")
	case c.Registry == nil:
		return errors.New("missing subject registry")
	case c.Surface == nil:
		return errors.New("missing display surface")
	case c.Prompter == nil:
		return errors.New("missing console prompter")
	}
	return nil
}

// Options customizes a Controller. The zero value of every field but Policy
// selects its default.
type Options struct {
	Policy      Policy
	Gate        ConfidenceGate
	SaveDir     string
	ArchiveName string
	Clock       Clock
	Reporter    Reporter
	Logger      *slog.Logger
}

// Controller drives the capture, learn and recognize loop, one frame per Tick.
// It is not safe for concurrent use.
type Controller struct {
	Collaborators
	opts     Options
	ident    identifier
	resolver Resolver

	state     State
	started   bool
	deadline  time.Time
	countdown time.Duration
	improved  bool
	saved     string
}

// NewController creates a controller in Scan mode. The recognizer may have
// been loaded already trained: the first flush then updates it.
func NewController(c Collaborators, o Options) (*Controller, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if o.Gate == (ConfidenceGate{}) {
		o.Gate = DefaultGate()
	}
	if o.SaveDir == "" {
		o.SaveDir = "."
	}
	if o.ArchiveName == "" {
		o.ArchiveName = DefaultArchiveName
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Reporter == nil {
		o.Reporter = NopReporter{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	return &Controller{
		Collaborators: c,
		opts:          o,
		ident:         identifier{rec: c.Recognizer, reg: c.Registry, gate: o.Gate, logger: o.Logger},
		resolver:      Resolver{Registry: c.Registry, Prompter: c.Prompter},
		state:         NewState(o.Policy, !c.Recognizer.Empty()),
	}, nil
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State { return c.state }

// SavedPath returns the location the recognizer was saved to by the exit
// protocol, or an empty string before it ran.
func (c *Controller) SavedPath() string { return c.saved }

// Run ticks until the exit protocol has completed. It fails only when the
// video source cannot deliver frames at all.
func (c *Controller) Run(ctx context.Context) error {
	if !c.Source.Available() {
		return ErrSourceUnavailable
	}
	for !c.Tick(ctx) {
	}
	return nil
}

// Tick runs a single iteration of the loop: it reads a frame, processes it
// according to the current phase, renders it and handles the key pressed.
// It returns true once the exit protocol has completed.
func (c *Controller) Tick(ctx context.Context) bool {
	if c.state.Done() {
		return true
	}
	if !c.started {
		c.started = true
		c.execute(ctx, c.state.Start())
	}
	if err := ctx.Err(); err != nil {
		c.dispatch(ctx, QuitRequested{Reason: err.Error()})
		return true
	}

	frame, err := c.Source.Next()
	if err != nil {
		if errors.Is(err, ErrSourceExhausted) || !c.Source.Available() {
			c.dispatch(ctx, QuitRequested{Reason: "video source exhausted"})
			return true
		}
		// The keyboard stays responsive while the source keeps failing.
		c.opts.Logger.Warn("could not read frame", "error", err)
		c.pollKey(ctx)
		return c.state.Done()
	}

	overlay := Overlay{}
	switch c.state.Phase() {
	case PhaseScanCountdown, PhaseLearnCountdown:
		remaining := c.deadline.Sub(c.opts.Clock.Now())
		c.opts.Reporter.Countdown(remaining, c.countdown)
		if remaining > 0 {
			overlay.Countdown = remaining
			break
		}
		// The frame which ends a countdown is only rendered.
		c.dispatch(ctx, CountdownElapsed{})
	case PhaseScanning:
		overlay.Labels = c.ident.identify(ctx, frame, c.detect(frame))
	case PhaseLearning:
		regions := c.detect(frame)
		for _, r := range regions {
			overlay.Labels = append(overlay.Labels, Label{Rect: r, Name: c.state.Subject().Name})
		}
		c.dispatch(ctx, SamplesCaptured{Samples: cropAll(frame, regions)})
	}

	overlay.Mode = c.state.Mode()
	overlay.Phase = c.state.Phase()
	overlay.Subject = c.state.Subject()
	overlay.Buffered = c.state.Buffered()
	if err := c.Surface.Show(frame, overlay); err != nil {
		c.opts.Logger.Warn("could not render frame", "error", err)
	}

	c.pollKey(ctx)
	return c.state.Done()
}

func (c *Controller) pollKey(ctx context.Context) {
	if ev := keyEvent(c.Surface.PollKey()); ev != nil {
		c.dispatch(ctx, ev)
	}
}

func (c *Controller) detect(frame image.Image) []image.Rectangle {
	regions, err := c.Detector.Detect(frame)
	if err != nil {
		c.opts.Logger.Warn("face detection failed", "error", err)
		return nil
	}
	return regions
}

func keyEvent(k Key) Event {
	switch k {
	case KeyLearn:
		return LearnRequested{}
	case KeyStop:
		return StopRequested{}
	case KeyQuit:
		return QuitRequested{Reason: "quit key pressed"}
	}
	return nil
}

// dispatch applies the event and runs the resulting commands in order.
func (c *Controller) dispatch(ctx context.Context, ev Event) {
	var cmds []Command
	c.state, cmds = c.state.Apply(ev)
	c.execute(ctx, cmds)
}

func (c *Controller) execute(ctx context.Context, cmds []Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case Announce:
			c.opts.Logger.Info("mode changed", "mode", cmd.Mode.String(), "subject", cmd.Subject.Name)
			c.opts.Reporter.ModeChanged(cmd.Mode, cmd.Subject)
		case StartCountdown:
			c.countdown = cmd.Duration
			c.deadline = c.opts.Clock.Now().Add(cmd.Duration)
			if cmd.Duration <= 0 {
				c.dispatch(ctx, CountdownElapsed{})
			}
		case ResolveSubject:
			s, err := c.resolver.Resolve(ctx)
			if err != nil {
				c.dispatch(ctx, SubjectRejected{Err: err})
			} else {
				c.dispatch(ctx, SubjectResolved{Subject: s})
			}
		case Train:
			c.submit(ctx, cmd.Batch, false)
		case Update:
			c.submit(ctx, cmd.Batch, true)
		case Discard:
			c.opts.Logger.Info("samples discarded", "count", cmd.Count)
			c.opts.Reporter.SamplesDiscarded(cmd.Count)
		case Report:
			c.opts.Logger.Warn(cmd.Message, "error", cmd.Err)
			c.opts.Reporter.Failure(cmd.Message, cmd.Err)
		case Persist:
			c.persist()
		case Exit:
			c.opts.Logger.Info("exiting", "reason", cmd.Reason)
		}
	}
}

// submit hands a batch to the recognizer. The call is synchronous: no frame
// is processed while the model is being trained.
func (c *Controller) submit(ctx context.Context, b Batch, update bool) {
	done := c.opts.Reporter.TrainingStarted(b.Len(), update)
	var err error
	if update {
		err = c.Recognizer.Update(b.Samples, b.Labels)
	} else {
		err = c.Recognizer.Train(b.Samples, b.Labels)
	}
	done(err)

	if err != nil {
		c.opts.Logger.Error("could not submit samples", "samples", b.Len(), "update", update, "error", err)
	} else {
		c.improved = true
		c.opts.Logger.Info("samples submitted", "samples", b.Len(), "update", update)
	}
	c.dispatch(ctx, BatchSubmitted{Trained: !update, Err: err})
}

// persist saves the recognizer in the folder chosen by the operator. A
// failure is reported and does not prevent the exit.
func (c *Controller) persist() {
	dir, err := c.Prompter.Ask("Folder to save the recognizer in", c.opts.SaveDir)
	if err != nil || dir == "" {
		dir = c.opts.SaveDir
	}
	path := filepath.Join(dir, c.opts.ArchiveName)

	err = os.MkdirAll(dir, 0755)
	if err == nil {
		err = c.Recognizer.Save(path)
	}
	if err != nil {
		err = fmt.Errorf("could not save recognizer to %s: %w", path, err)
		c.opts.Logger.Error("persist failed", "path", path, "error", err)
	} else {
		c.saved = path
		c.opts.Logger.Info("recognizer saved", "path", path, "improved", c.improved)
	}
	c.opts.Reporter.Saved(path, c.improved, err)
}
