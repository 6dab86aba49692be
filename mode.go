package learnrec

import "fmt"

// Mode is the operating mode of the controller.
type Mode int

const (
	// Scan identifies the detected faces.
	Scan Mode = iota
	// Learn collects the detected faces as training samples of the active subject.
	Learn
)

func (m Mode) String() string {
	switch m {
	case Scan:
		return "scan"
	case Learn:
		return "learn"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Phase refines a mode into the step the controller is currently executing.
type Phase int

const (
	// PhaseScanCountdown is the pause preceding scanning.
	PhaseScanCountdown Phase = iota
	// PhaseScanning classifies every detected face.
	PhaseScanning
	// PhaseLearnCountdown is the pause letting the subject position the face.
	PhaseLearnCountdown
	// PhaseResolving waits for the subject of the next learning session.
	PhaseResolving
	// PhaseLearning accumulates samples of the active subject.
	PhaseLearning
)

var phaseNames = [...]string{
	PhaseScanCountdown:  "scan-countdown",
	PhaseScanning:       "scanning",
	PhaseLearnCountdown: "learn-countdown",
	PhaseResolving:      "resolving",
	PhaseLearning:       "learning",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Mode returns the mode the phase belongs to. The learn countdown and the
// resolution step are still part of Scan: no subject is active until the
// resolution completes.
func (p Phase) Mode() Mode {
	if p == PhaseLearning {
		return Learn
	}
	return Scan
}

// Countdown reports whether the phase is a timed pause.
func (p Phase) Countdown() bool {
	return p == PhaseScanCountdown || p == PhaseLearnCountdown
}

// Subject is an enrolled identity.
type Subject struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

// IsZero reports whether s is the empty subject context.
func (s Subject) IsZero() bool {
	return s.ID == 0 && s.Name == ""
}

func (s Subject) String() string {
	return fmt.Sprintf("%s (#%d)", s.Name, s.ID)
}

// Key is an input event read from the display surface.
type Key int

const (
	KeyNone Key = iota
	KeyLearn
	KeyStop
	KeyQuit
)

// KeyFromCode maps a raw key code to a controller key. Learning starts with
// 'l', stops with 's' or space, and the program quits on 'q' or Escape.
func KeyFromCode(code int) Key {
	if code < 0 {
		return KeyNone
	}
	switch code & 0xff {
	case 'l', 'L':
		return KeyLearn
	case 's', 'S', ' ':
		return KeyStop
	case 'q', 'Q', 27:
		return KeyQuit
	}
	return KeyNone
}
