package tracker

import "time"

// EventType identifies a tracker transition.
type EventType string

const (
	// EventRunStarted is emitted by StartRun before the opening step.
	EventRunStarted EventType = "run.started"
	// EventStepStarted is emitted when a step opens.
	EventStepStarted EventType = "step.started"
	// EventStepProgress is emitted when an open step sets its total or ticks.
	EventStepProgress EventType = "step.progress"
	// EventStepFinished is emitted when a step closes successfully.
	EventStepFinished EventType = "step.finished"
	// EventStepFailed is emitted when a step closes with an expected failure.
	EventStepFailed EventType = "step.failed"
	// EventStepErrored is emitted when a step closes on an error.
	EventStepErrored EventType = "step.errored"
	// EventRunFinished is emitted by FinishRun.
	EventRunFinished EventType = "run.finished"
)

// Event is delivered to every observer on each transition.
type Event struct {
	Type      EventType
	RunID     string
	Label     string        // Run label given to StartRun
	Step      Step          // Snapshot of the affected step, zero for run events
	Delta     int64         // Ticked amount for progress events
	Elapsed   time.Duration // Run duration, set on run.finished
	Timestamp time.Time
}

// Observer receives tracker events. Observers are called synchronously and
// must not call back into the tracker.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Discard is an observer that drops every event.
var Discard Observer = ObserverFunc(func(Event) {})
