package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"appforge"
	"appforge/internal/check"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// settleDelay separates a step's completion from the next step's start
	// so screens render the completed state before a new running entry
	// appears.
	settleDelay = 400 * time.Millisecond

	// completionDelay holds the finished checklist on screen before the
	// completion callback fires and the result screen takes over.
	completionDelay = 1200 * time.Millisecond
)

// Sequencer executes the step catalog strictly in order, one step at a
// time, appending and completing log entries as it goes. Exactly one
// timer is outstanding while a run is active.
//
// Re-activation while a run is in flight cancels and restarts: the
// pending timer is stopped and a generation counter invalidates any
// callback that still fires from the abandoned run.
type Sequencer struct {
	catalog Catalog
	store   *LogStore

	clock      Clock
	scheduler  Scheduler
	builder    ResultBuilder
	onComplete func(appforge.Result)
	tracer     trace.Tracer

	mu       sync.Mutex
	phase    RunPhase
	gen      uint64
	step     int // monotonically increasing completed-step count per run
	prompt   string
	pending  Timer
	runCtx   context.Context
	runSpan  trace.Span
	stepSpan trace.Span
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithScheduler replaces the timer scheduler.
func WithScheduler(sch Scheduler) Option {
	return func(s *Sequencer) { s.scheduler = sch }
}

// WithResultBuilder replaces the completion payload strategy.
func WithResultBuilder(b ResultBuilder) Option {
	return func(s *Sequencer) { s.builder = b }
}

// WithOnComplete sets the callback invoked exactly once per completed run.
func WithOnComplete(fn func(appforge.Result)) Option {
	return func(s *Sequencer) { s.onComplete = fn }
}

// WithTracer enables run and step spans on the given tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Sequencer) { s.tracer = t }
}

// New creates a sequencer over the catalog and store.
func New(catalog Catalog, store *LogStore, opts ...Option) *Sequencer {
	check.Assert(store != nil, "pipeline.New: store must not be nil")

	s := &Sequencer{
		catalog:   catalog,
		store:     store,
		clock:     RealClock{},
		scheduler: RealScheduler{},
		builder:   StaticBuilder{Result: DefaultResult()},
		tracer:    noop.NewTracerProvider().Tracer("pipeline"),
		phase:     RunIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Activate starts a run. The prompt is opaque to the engine: it is kept
// for display and trace attributes only and never affects step content or
// timing. Calling Activate while a run is in flight abandons that run
// cleanly (cancel-and-restart); the new run begins from a reset log.
func (s *Sequencer) Activate(ctx context.Context, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.endSpansLocked()

	s.gen++
	s.prompt = prompt
	s.step = 0
	s.phase = s.phase.Transition(RunActive)
	s.store.Reset()

	s.runCtx, s.runSpan = s.tracer.Start(ctx, "deploy", trace.WithAttributes(
		attribute.Int("appforge.steps", s.catalog.Len()),
		attribute.Int("appforge.prompt_chars", len(prompt)),
	))

	slog.Debug("run activated", "gen", s.gen, "steps", s.catalog.Len())
	s.beginStepLocked(s.gen, 0)
}

// Phase returns the current lifecycle state.
func (s *Sequencer) Phase() RunPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Progress returns the completed-step count and the catalog length.
// The first value increases monotonically within a run and equals the
// second once the run is terminal.
func (s *Sequencer) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step, s.catalog.Len()
}

// Prompt returns the prompt of the current run, for display only.
func (s *Sequencer) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// beginStepLocked appends the running entry for step i and schedules its
// completion after the step's nominal duration. Caller must hold s.mu.
func (s *Sequencer) beginStepLocked(gen uint64, i int) {
	def := s.catalog.Step(i)
	entry := LogEntry{
		ID:        stepID(i),
		Message:   def.Message,
		Detail:    def.Detail,
		Status:    EntryRunning,
		CreatedAt: s.clock.Now(),
	}
	s.store.Append(entry)

	_, s.stepSpan = s.tracer.Start(s.runCtx, def.Message)

	s.pending = s.scheduler.AfterFunc(def.Duration, func() {
		s.completeStep(gen, i)
	})
}

// completeStep fires when step i's duration elapses. Stale generations
// are no-ops so timers from an abandoned run can never touch a newer one.
func (s *Sequencer) completeStep(gen uint64, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	s.pending = nil

	if err := s.store.MarkCompleted(stepID(i)); err != nil {
		check.Assertf(false, "complete step %d: %v", i, err)
		slog.Error("mark step completed", "step", i, "err", err)
		return
	}
	s.step = i + 1

	if s.stepSpan != nil {
		s.stepSpan.End()
		s.stepSpan = nil
	}

	if i+1 < s.catalog.Len() {
		s.phase = s.phase.Transition(RunSettling)
		s.pending = s.scheduler.AfterFunc(settleDelay, func() {
			s.nextStep(gen, i+1)
		})
		return
	}

	s.phase = s.phase.Transition(RunCompleted)
	s.pending = s.scheduler.AfterFunc(completionDelay, func() {
		s.finish(gen)
	})
}

// nextStep fires after the settle delay and begins step i.
func (s *Sequencer) nextStep(gen uint64, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	s.pending = nil
	s.phase = s.phase.Transition(RunActive)
	s.beginStepLocked(gen, i)
}

// finish fires after the completion delay and invokes the callback once,
// outside the lock.
func (s *Sequencer) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	result := s.builder.Build(s.prompt)
	s.endSpansLocked()
	cb := s.onComplete
	slog.Debug("run completed", "gen", gen, "steps", s.step)
	s.mu.Unlock()

	if cb != nil {
		cb(result)
	}
}

// endSpansLocked closes any open step and run spans. Caller must hold s.mu.
func (s *Sequencer) endSpansLocked() {
	if s.stepSpan != nil {
		s.stepSpan.End()
		s.stepSpan = nil
	}
	if s.runSpan != nil {
		s.runSpan.End()
		s.runSpan = nil
	}
}

// stepID derives the stable entry id for a step index.
func stepID(i int) string {
	return fmt.Sprintf("step-%d", i+1)
}
