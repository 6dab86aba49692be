package learnrec

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/usr-ein/learn-n-recognize/utils"
)

// Reporter tells the operator what the controller is doing. It is only
// called from the controller loop.
type Reporter interface {
	ModeChanged(m Mode, s Subject)
	Countdown(remaining, total time.Duration)
	// TrainingStarted is called right before a batch is submitted. The
	// returned function is called with the outcome of the submission.
	TrainingStarted(samples int, update bool) func(error)
	SamplesDiscarded(n int)
	Saved(path string, improved bool, err error)
	Failure(msg string, err error)
}

// NopReporter discards every notification.
type NopReporter struct{}

func (NopReporter) ModeChanged(Mode, Subject)              {}
func (NopReporter) Countdown(time.Duration, time.Duration) {}
func (NopReporter) TrainingStarted(int, bool) func(error)  { return func(error) {} }
func (NopReporter) SamplesDiscarded(int)                   {}
func (NopReporter) Saved(string, bool, error)              {}
func (NopReporter) Failure(string, error)                  {}

// ConsoleReporter prints colored notifications on a terminal.
type ConsoleReporter struct {
	w       io.Writer
	bar     *progressbar.ProgressBar
	barSize time.Duration
}

// NewConsoleReporter creates a reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (c *ConsoleReporter) ModeChanged(m Mode, s Subject) {
	c.finishCountdown()
	switch {
	case m == Learn && s.IsZero():
		utils.Fprintf(c.w, utils.StatusMessage, "\nLearning mode: get ready to face the camera.\n")
	case m == Learn:
		utils.Fprintf(c.w, utils.StatusMessage, "\nLearning %s. Press 's' or space to stop.\n", s)
	default:
		utils.Fprintf(c.w, utils.StatusMessage, "\nScanning mode. Press 'l' to learn a subject, 'q' to quit.\n")
	}
}

func (c *ConsoleReporter) Countdown(remaining, total time.Duration) {
	if c.bar == nil || c.barSize != total {
		c.finishCountdown()
		c.barSize = total
		c.bar = progressbar.NewOptions(int(total/time.Millisecond),
			progressbar.OptionSetWriter(c.w),
			progressbar.OptionSetDescription("Starting in"),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
		)
	}
	if remaining <= 0 {
		c.finishCountdown()
		return
	}
	_ = c.bar.Set(int((total - remaining) / time.Millisecond))
}

func (c *ConsoleReporter) finishCountdown() {
	if c.bar == nil {
		return
	}
	_ = c.bar.Finish()
	c.bar = nil
	c.barSize = 0
}

func (c *ConsoleReporter) TrainingStarted(samples int, update bool) func(error) {
	c.finishCountdown()
	verb := "Training"
	if update {
		verb = "Updating"
	}
	text := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ LEARNREC", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("%s the recognizer with %d samples...", verb, samples), utils.DefaultMessage))
	spinner := utils.NewSpinner(c.w, text, 100*time.Millisecond, true)
	start := time.Now()
	spinner.Start()

	return func(err error) {
		if err == nil {
			spinner.StopMsg = text + " " + utils.DecorateText("✔ "+utils.FormatTime(time.Since(start)), utils.SuccessMessage) + "\n"
		} else {
			spinner.StopMsg = text + " " + utils.DecorateText("✘ "+err.Error(), utils.ErrorMessage) + "\n"
		}
		spinner.Stop()
	}
}

func (c *ConsoleReporter) SamplesDiscarded(n int) {
	utils.Fprintf(c.w, utils.DefaultMessage, "%d unsubmitted samples were dropped.\n", n)
}

func (c *ConsoleReporter) Saved(path string, improved bool, err error) {
	c.finishCountdown()
	if err != nil {
		c.Failure("Could not save the recognizer", err)
		return
	}
	if !improved {
		utils.Fprintf(c.w, utils.DefaultMessage, "The recognizer has not been improved during this session.\n")
	}
	fmt.Fprintf(c.w, "The recognizer has been saved as: %s\n", utils.DecorateText(path, utils.SuccessMessage))
}

func (c *ConsoleReporter) Failure(msg string, err error) {
	c.finishCountdown()
	if err != nil {
		fmt.Fprintf(c.w, "%s %s\n",
			utils.DecorateText(msg+":", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage))
		return
	}
	utils.Fprintf(c.w, utils.ErrorMessage, "%s\n", msg)
}
