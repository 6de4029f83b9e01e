package sequencer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relforge/relgate/pkg/telemetry"
)

// State is the sequencer's lifecycle state.
type State int

const (
	Pending State = iota
	Running
	AllPassed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case AllPassed:
		return "all-passed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Step is one named, ordered quality gate. Each step is a black-box
// pass/fail operation with no intermediate state exposed.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// EventType identifies a state transition reported to the observer.
type EventType int

const (
	StepStarted EventType = iota
	StepPassed
	StepFailed
	RunFinished
)

// Event is one transition of the gate run, streamed to the observer as it
// happens so a UI can render progress live.
type Event struct {
	Type     EventType
	Step     string
	Err      error
	Duration time.Duration
}

// Observer receives events synchronously, in order.
type Observer func(Event)

// Result records one executed step.
type Result struct {
	Step     string        `json:"step"`
	Passed   bool          `json:"passed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Outcome is the terminal state of one gate run.
type Outcome struct {
	State      State
	FailedStep string
	Cause      error
	Results    []Result
}

// Sequencer runs quality gates in a fixed order with fail-fast semantics.
// Cheap checks are expected first in the list so feedback latency stays low;
// no step runs after the first failure.
type Sequencer struct {
	steps    []Step
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(steps []Step, observer Observer, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if observer == nil {
		observer = func(Event) {}
	}
	return &Sequencer{
		steps:    steps,
		observer: observer,
		logger:   logger,
		tracer:   telemetry.Tracer("relgate/sequencer"),
	}
}

// Run executes the steps in order. The returned outcome is AllPassed iff
// every step passed; otherwise Aborted with the failing step and cause.
func (s *Sequencer) Run(ctx context.Context) *Outcome {
	out := &Outcome{State: Running}

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			out.State = Aborted
			out.FailedStep = step.Name
			out.Cause = err
			s.observer(Event{Type: RunFinished, Step: step.Name, Err: err})
			return out
		}

		s.logger.Info("step started", "step", step.Name)
		s.observer(Event{Type: StepStarted, Step: step.Name})

		stepCtx, span := s.tracer.Start(ctx, "gate."+step.Name,
			trace.WithAttributes(attribute.String("gate.step", step.Name)))
		start := time.Now()
		err := step.Run(stepCtx)
		elapsed := time.Since(start)
		span.End()

		if err != nil {
			s.logger.Error("step failed", "step", step.Name, "error", err, "duration", elapsed)
			out.Results = append(out.Results, Result{Step: step.Name, Passed: false, Error: err.Error(), Duration: elapsed})
			out.State = Aborted
			out.FailedStep = step.Name
			out.Cause = err
			s.observer(Event{Type: StepFailed, Step: step.Name, Err: err, Duration: elapsed})
			s.observer(Event{Type: RunFinished, Step: step.Name, Err: err})
			return out
		}

		s.logger.Info("step passed", "step", step.Name, "duration", elapsed)
		out.Results = append(out.Results, Result{Step: step.Name, Passed: true, Duration: elapsed})
		s.observer(Event{Type: StepPassed, Step: step.Name, Duration: elapsed})
	}

	out.State = AllPassed
	s.observer(Event{Type: RunFinished})
	return out
}
