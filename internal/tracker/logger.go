package tracker

import (
	"errors"

	"github.com/go-logr/logr"
)

// Logger emits each event as a structured log line. Progress events are
// logged at V(2).
type Logger struct {
	log logr.Logger
}

// NewLogger creates a logging observer.
func NewLogger(log logr.Logger) *Logger {
	return &Logger{log: log}
}

// OnEvent implements Observer.
func (l *Logger) OnEvent(e Event) {
	log := l.log.WithValues("run", e.RunID)

	switch e.Type {
	case EventRunStarted:
		log.Info("run started", "label", e.Label)
	case EventRunFinished:
		log.Info("run finished", "label", e.Label, "elapsed", e.Elapsed.String())
	case EventStepStarted:
		log.V(1).Info("step started", stepValues(e.Step)...)
	case EventStepProgress:
		log.V(2).Info("step progress", append(stepValues(e.Step), "ticked", e.Step.Ticked, "total", e.Step.Total)...)
	case EventStepFinished, EventStepFailed:
		log.Info("step "+e.Step.Outcome.String(), append(stepValues(e.Step), "message", e.Step.Message, "duration", e.Step.Duration.String())...)
	case EventStepErrored:
		log.Error(errors.New(e.Step.Message), "step errored", stepValues(e.Step)...)
	}
}

func stepValues(s Step) []any {
	return []any{"step", s.Index, "description", s.Description}
}
