package learnrec

import (
	"image"
	"time"
)

// StopPolicy decides the fate of the unflushed samples when learning is stopped.
type StopPolicy int

const (
	// DiscardRemainder drops the samples buffered since the last flush.
	DiscardRemainder StopPolicy = iota
	// FlushRemainder submits them to the recognizer, whatever their number.
	FlushRemainder
)

func (p StopPolicy) String() string {
	if p == FlushRemainder {
		return "flush"
	}
	return "discard"
}

// Policy groups the tunables of the state machine.
type Policy struct {
	FlushThreshold int
	StopPolicy     StopPolicy
	ScanCountdown  time.Duration
	LearnCountdown time.Duration
}

// DefaultPolicy returns a 30 samples threshold, discards the remainder on stop
// and counts down 3s before scanning and 7s before learning.
func DefaultPolicy() Policy {
	return Policy{
		FlushThreshold: DefaultFlushThreshold,
		StopPolicy:     DiscardRemainder,
		ScanCountdown:  3 * time.Second,
		LearnCountdown: 7 * time.Second,
	}
}

// Event is an input of the state machine.
type Event interface{ event() }

type (
	// LearnRequested is raised by the learn key.
	LearnRequested struct{}
	// StopRequested is raised by the stop key.
	StopRequested struct{}
	// QuitRequested is raised by the quit key, a cancelled context or an
	// exhausted video source.
	QuitRequested struct{ Reason string }
	// CountdownElapsed is raised once the running countdown reaches its deadline.
	CountdownElapsed struct{}
	// SubjectResolved carries the subject of the learning session about to start.
	SubjectResolved struct{ Subject Subject }
	// SubjectRejected reports that no subject could be designated.
	SubjectRejected struct{ Err error }
	// SamplesCaptured carries the face crops of one learning frame.
	SamplesCaptured struct{ Samples []image.Image }
	// BatchSubmitted reports the outcome of a train or update command.
	BatchSubmitted struct {
		Trained bool
		Err     error
	}
)

func (LearnRequested) event()   {}
func (StopRequested) event()    {}
func (QuitRequested) event()    {}
func (CountdownElapsed) event() {}
func (SubjectResolved) event()  {}
func (SubjectRejected) event()  {}
func (SamplesCaptured) event()  {}
func (BatchSubmitted) event()   {}

// Command is a side effect requested by a transition.
type Command interface{ command() }

type (
	// Announce tells the operator which mode is starting. Subject is set once
	// the subject of a learning session has been resolved.
	Announce struct {
		Mode    Mode
		Subject Subject
	}
	// StartCountdown schedules a CountdownElapsed event after Duration.
	StartCountdown struct{ Duration time.Duration }
	// ResolveSubject asks the operator for the subject to learn.
	ResolveSubject struct{}
	// Train submits the first batch to an empty recognizer.
	Train struct{ Batch Batch }
	// Update submits a batch to a trained recognizer.
	Update struct{ Batch Batch }
	// Discard reports samples dropped without reaching the recognizer.
	Discard struct{ Count int }
	// Report tells the operator about a recoverable failure.
	Report struct {
		Message string
		Err     error
	}
	// Persist saves the recognizer.
	Persist struct{}
	// Exit terminates the loop.
	Exit struct{ Reason string }
)

func (Announce) command()       {}
func (StartCountdown) command() {}
func (ResolveSubject) command() {}
func (Train) command()          {}
func (Update) command()         {}
func (Discard) command()        {}
func (Report) command()         {}
func (Persist) command()        {}
func (Exit) command()           {}

// State is the working state of the controller. It is a value: Apply never
// mutates its receiver and returns the next state instead.
type State struct {
	policy  Policy
	phase   Phase
	subject Subject
	buffer  SampleBuffer
	trained bool
	done    bool
}

// NewState returns the initial state: Scan mode, counting down before the
// first scan. trained tells whether the recognizer was loaded already trained.
func NewState(p Policy, trained bool) State {
	if p.FlushThreshold <= 0 {
		p.FlushThreshold = DefaultFlushThreshold
	}
	return State{policy: p, phase: PhaseScanCountdown, trained: trained}
}

// Start returns the commands opening the session.
func (s State) Start() []Command {
	return []Command{Announce{Mode: Scan}, StartCountdown{Duration: s.policy.ScanCountdown}}
}

func (s State) Mode() Mode       { return s.phase.Mode() }
func (s State) Phase() Phase     { return s.phase }
func (s State) Subject() Subject { return s.subject }
func (s State) Buffered() int    { return s.buffer.Len() }
func (s State) Trained() bool    { return s.trained }
func (s State) Done() bool       { return s.done }
func (s State) Policy() Policy   { return s.policy }

// Apply computes the transition triggered by ev. Events which do not apply
// to the current phase leave the state unchanged.
func (s State) Apply(ev Event) (State, []Command) {
	if s.done {
		return s, nil
	}
	switch ev := ev.(type) {
	case QuitRequested:
		return s.quit(ev.Reason)
	case BatchSubmitted:
		if ev.Err == nil && ev.Trained {
			s.trained = true
		}
		return s, nil
	}

	switch s.phase {
	case PhaseScanCountdown:
		if _, ok := ev.(CountdownElapsed); ok {
			s.phase = PhaseScanning
		}
	case PhaseScanning:
		if _, ok := ev.(LearnRequested); ok {
			s.phase = PhaseLearnCountdown
			return s, []Command{
				Announce{Mode: Learn},
				StartCountdown{Duration: s.policy.LearnCountdown},
			}
		}
	case PhaseLearnCountdown:
		switch ev.(type) {
		case CountdownElapsed:
			s.phase = PhaseResolving
			return s, []Command{ResolveSubject{}}
		case StopRequested:
			return s.stop()
		}
	case PhaseResolving:
		switch ev := ev.(type) {
		case SubjectResolved:
			s.phase = PhaseLearning
			s.subject = ev.Subject
			return s, []Command{Announce{Mode: Learn, Subject: ev.Subject}}
		case SubjectRejected:
			s.subject = Subject{}
			return s.toScan(Report{Message: "could not start learning", Err: ev.Err})
		}
	case PhaseLearning:
		switch ev := ev.(type) {
		case SamplesCaptured:
			return s.capture(ev.Samples)
		case StopRequested:
			return s.stop()
		}
	}
	return s, nil
}

// capture appends the samples and flushes the buffer once it overflows.
func (s State) capture(samples []image.Image) (State, []Command) {
	s.buffer.Append(samples...)
	if !s.buffer.Exceeds(s.policy.FlushThreshold) {
		return s, nil
	}
	return s, []Command{s.submit(newBatch(s.buffer.Drain(), s.subject.ID))}
}

// submit picks train or update from the recognizer state.
func (s State) submit(b Batch) Command {
	if s.trained {
		return Update{Batch: b}
	}
	return Train{Batch: b}
}

func (s State) stop() (State, []Command) {
	var cmds []Command
	if n := s.buffer.Len(); n > 0 {
		remainder := s.buffer.Drain()
		if s.policy.StopPolicy == FlushRemainder {
			cmds = append(cmds, s.submit(newBatch(remainder, s.subject.ID)))
		} else {
			cmds = append(cmds, Discard{Count: n})
		}
	}
	s.subject = Subject{}
	s, next := s.toScan()
	return s, append(cmds, next...)
}

func (s State) toScan(prefix ...Command) (State, []Command) {
	s.phase = PhaseScanCountdown
	return s, append(prefix, Announce{Mode: Scan}, StartCountdown{Duration: s.policy.ScanCountdown})
}

// quit never flushes: the samples buffered since the last flush are lost.
func (s State) quit(reason string) (State, []Command) {
	var cmds []Command
	if n := s.buffer.Len(); n > 0 {
		s.buffer.Drain()
		cmds = append(cmds, Discard{Count: n})
	}
	s.done = true
	return s, append(cmds, Persist{}, Exit{Reason: reason})
}
