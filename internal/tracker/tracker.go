package tracker

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal state of a step.
type Outcome int

const (
	// OutcomeOpen marks a step that has not been closed yet.
	OutcomeOpen Outcome = iota
	// OutcomeDone marks a step that completed.
	OutcomeDone
	// OutcomeFailed marks a step that reached an expected negative result.
	OutcomeFailed
	// OutcomeErrored marks a step interrupted by an error.
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeFailed:
		return "failed"
	case OutcomeErrored:
		return "errored"
	default:
		return "open"
	}
}

// Step is one entry of a run.
type Step struct {
	Index       int // One-based position in the run
	Description string
	Tag         string // Glyph name used by renderers
	HasProgress bool
	Started     time.Time
	Total       int64
	Ticked      int64
	Outcome     Outcome
	Message     string
	Duration    time.Duration
}

// Tag names used for the opening and error steps.
const (
	TagBegin = "sunny"
	TagError = "x"
)

// Tracker tracks the steps of a single run. It is safe for concurrent use so
// progress may be ticked from transfer goroutines.
type Tracker struct {
	mu        sync.Mutex
	id        string
	label     string
	steps     []*Step
	open      *Step
	started   time.Time
	finished  bool
	observers []Observer
	now       func() time.Time
}

// New creates a tracker delivering events to observers.
func New(observers ...Observer) *Tracker {
	return &Tracker{
		id:        uuid.NewString(),
		observers: observers,
		now:       time.Now,
	}
}

// ID returns the unique run identifier.
func (t *Tracker) ID() string {
	return t.id
}

// StartRun records the run start time and opens the "Begin <label>" step.
func (t *Tracker) StartRun(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.label = label
	t.started = t.now()
	t.finished = false
	t.emit(Event{Type: EventRunStarted})
	t.startStep(false, "Begin "+label, TagBegin)
}

// StartStep opens a new step. A step left open is finished as done first.
func (t *Tracker) StartStep(hasProgress bool, description, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startStep(hasProgress, description, tag)
}

func (t *Tracker) startStep(hasProgress bool, description, tag string) {
	if t.open != nil {
		t.closeStep(OutcomeDone, "")
	}
	step := &Step{
		Index:       len(t.steps) + 1,
		Description: description,
		Tag:         tag,
		HasProgress: hasProgress,
		Started:     t.now(),
	}
	t.steps = append(t.steps, step)
	t.open = step
	t.emit(Event{Type: EventStepStarted, Step: *step})
}

// SetProgressTotal declares the total amount of work of the open step.
// It is a no-op when no step is open or the step has no progress.
func (t *Tracker) SetProgressTotal(total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open == nil || !t.open.HasProgress {
		return
	}
	t.open.Total = total
	t.emit(Event{Type: EventStepProgress, Step: *t.open})
}

// Tick adds n to the progress of the open step.
// It is a no-op when no step is open or the step has no progress.
func (t *Tracker) Tick(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open == nil || !t.open.HasProgress || n <= 0 {
		return
	}
	t.open.Ticked += n
	t.emit(Event{Type: EventStepProgress, Step: *t.open, Delta: n})
}

// FinishStep closes the open step as done with an optional message.
func (t *Tracker) FinishStep(message ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open != nil {
		t.closeStep(OutcomeDone, joinMessage(message))
	}
}

// FinishStepFailed closes the open step as failed with an optional message.
func (t *Tracker) FinishStepFailed(message ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open != nil {
		t.closeStep(OutcomeFailed, joinMessage(message))
	}
}

// ReportError closes the open step as errored. With no open step a synthetic
// errored step is recorded so the error is never lost.
func (t *Tracker) ReportError(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open == nil {
		step := &Step{
			Index:       len(t.steps) + 1,
			Description: "Error",
			Tag:         TagError,
			Started:     t.now(),
		}
		t.steps = append(t.steps, step)
		t.open = step
	}
	t.closeStep(OutcomeErrored, text)
}

// FinishRun closes any open step and reports the elapsed run time.
// Calling it more than once has no effect.
func (t *Tracker) FinishRun() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}
	if t.open != nil {
		t.closeStep(OutcomeDone, "")
	}
	t.finished = true
	t.emit(Event{Type: EventRunFinished, Elapsed: t.now().Sub(t.started)})
}

// Steps returns a snapshot of all steps recorded so far.
func (t *Tracker) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Step, len(t.steps))
	for i, s := range t.steps {
		out[i] = *s
	}
	return out
}

// Current returns a snapshot of the open step, if any.
func (t *Tracker) Current() (Step, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open == nil {
		return Step{}, false
	}
	return *t.open, true
}

// Failed reports whether any step closed as failed.
func (t *Tracker) Failed() bool {
	return t.any(OutcomeFailed)
}

// Errored reports whether any step closed as errored.
func (t *Tracker) Errored() bool {
	return t.any(OutcomeErrored)
}

func (t *Tracker) any(o Outcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.steps {
		if s.Outcome == o {
			return true
		}
	}
	return false
}

func (t *Tracker) closeStep(outcome Outcome, message string) {
	step := t.open
	step.Outcome = outcome
	step.Message = message
	step.Duration = t.now().Sub(step.Started)
	t.open = nil

	typ := EventStepFinished
	switch outcome {
	case OutcomeFailed:
		typ = EventStepFailed
	case OutcomeErrored:
		typ = EventStepErrored
	}
	t.emit(Event{Type: typ, Step: *step})
}

func (t *Tracker) emit(e Event) {
	e.RunID = t.id
	e.Label = t.label
	e.Timestamp = t.now()
	for _, o := range t.observers {
		o.OnEvent(e)
	}
}

func joinMessage(parts []string) string {
	return strings.Join(parts, " ")
}
