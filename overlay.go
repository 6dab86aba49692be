package learnrec

import (
	"image"
	"strconv"
	"time"
)

const (
	// UnknownName is rendered for faces which could not be identified.
	UnknownName = " ? "
	// FallbackName is rendered for identified labels missing from the registry.
	FallbackName = "unknown"
	noConfidence = "-"
)

// Label annotates one detected face.
type Label struct {
	Rect       image.Rectangle
	Name       string
	SubjectID  int
	Confidence float64
	Scored     bool
	Identified bool
}

// ConfidenceText formats the confidence the way it is overlaid on the frame.
func (l Label) ConfidenceText() string {
	if !l.Scored {
		return noConfidence
	}
	return strconv.FormatFloat(l.Confidence, 'f', 2, 64)
}

// Overlay holds everything drawn on top of a frame.
type Overlay struct {
	Mode      Mode
	Phase     Phase
	Subject   Subject
	Labels    []Label
	Buffered  int
	Countdown time.Duration
}

// Status is the single line summary printed in the frame corner.
func (o Overlay) Status() string {
	switch o.Phase {
	case PhaseScanCountdown:
		return "SCAN in " + countdownText(o.Countdown)
	case PhaseLearnCountdown:
		return "LEARN in " + countdownText(o.Countdown)
	case PhaseLearning:
		return "LEARN " + o.Subject.Name + " [" + strconv.Itoa(o.Buffered) + "]"
	case PhaseResolving:
		return "WAITING FOR SUBJECT"
	}
	return "SCAN"
}

func countdownText(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return strconv.Itoa(secs) + "s"
}
