package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"appforge"
	"appforge/internal/adapter/fake"
	"appforge/internal/pipeline"
)

type completionRecorder struct {
	mu      sync.Mutex
	results []appforge.Result
}

func (r *completionRecorder) record(result appforge.Result) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
}

func (r *completionRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

type testEngine struct {
	clock    *fake.Clock
	sched    *fake.Scheduler
	store    *pipeline.LogStore
	seq      *pipeline.Sequencer
	complete *completionRecorder
}

func newTestEngine(t *testing.T, steps []pipeline.StepDefinition, opts ...pipeline.Option) *testEngine {
	t.Helper()

	clock := fake.NewClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := fake.NewScheduler(clock)
	store := pipeline.NewLogStore()
	complete := &completionRecorder{}

	catalog, err := pipeline.NewCatalog(steps)
	if err != nil {
		t.Fatalf("create catalog: %v", err)
	}

	opts = append([]pipeline.Option{
		pipeline.WithClock(clock),
		pipeline.WithScheduler(sched),
		pipeline.WithOnComplete(complete.record),
	}, opts...)

	return &testEngine{
		clock:    clock,
		sched:    sched,
		store:    store,
		seq:      pipeline.New(catalog, store, opts...),
		complete: complete,
	}
}

func threeSteps() []pipeline.StepDefinition {
	return []pipeline.StepDefinition{
		{Message: "Provisioning", Detail: "allocating compute", Duration: 100 * time.Millisecond},
		{Message: "Deploying", Detail: "rolling out containers", Duration: 50 * time.Millisecond},
		{Message: "Health checks", Detail: "probing endpoints", Duration: 10 * time.Millisecond},
	}
}

// drain pulls every buffered change without blocking.
func drain(changes <-chan pipeline.LogChange) []pipeline.LogChange {
	var out []pipeline.LogChange
	for {
		select {
		case change := <-changes:
			out = append(out, change)
		default:
			return out
		}
	}
}

func TestRun_ThreeSteps_AllCompleteThenSingleCallback(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, threeSteps())
	e.seq.Activate(context.Background(), "deploy a blog with comments")

	if got := e.store.Len(); got != 1 {
		t.Fatalf("entries after activation = %d, want 1", got)
	}

	// Drive every timer; check the single in-flight invariant at each
	// quiescent point, and that a running entry is always the last one.
	for e.sched.RunNext() {
		entries := e.store.Entries()
		running := 0
		for i, entry := range entries {
			if entry.Status != pipeline.EntryRunning {
				continue
			}
			running++
			if i != len(entries)-1 {
				t.Fatalf("entry %s running with later entries present", entry.ID)
			}
		}
		if running > 1 {
			t.Fatalf("%d entries running at once", running)
		}
	}

	entries := e.store.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	wantIDs := []string{"step-1", "step-2", "step-3"}
	for i, entry := range entries {
		if entry.ID != wantIDs[i] {
			t.Fatalf("entry %d id = %q, want %q", i, entry.ID, wantIDs[i])
		}
		if entry.Status != pipeline.EntryCompleted {
			t.Fatalf("entry %s status = %q, want completed", entry.ID, entry.Status)
		}
	}

	if got := e.complete.count(); got != 1 {
		t.Fatalf("onComplete called %d times, want 1", got)
	}
	if phase := e.seq.Phase(); phase != pipeline.RunCompleted {
		t.Fatalf("phase = %s, want completed", phase)
	}
	if current, total := e.seq.Progress(); current != 3 || total != 3 {
		t.Fatalf("progress = %d/%d, want 3/3", current, total)
	}
}

func TestRun_OrderingInvariant(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newTestEngine(t, threeSteps())
	_, changes := e.store.Subscribe(ctx)

	e.seq.Activate(context.Background(), "")
	for e.sched.RunNext() {
	}

	var got []pipeline.LogChangeKind
	var ids []string
	for _, change := range drain(changes) {
		got = append(got, change.Kind)
		if change.Kind != pipeline.LogReset {
			ids = append(ids, change.Entry.ID)
		}
	}

	want := []pipeline.LogChangeKind{
		pipeline.LogReset,
		pipeline.EntryAppended, pipeline.EntryMarkedCompleted,
		pipeline.EntryAppended, pipeline.EntryMarkedCompleted,
		pipeline.EntryAppended, pipeline.EntryMarkedCompleted,
	}
	if len(got) != len(want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change %d = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}

	wantIDs := []string{"step-1", "step-1", "step-2", "step-2", "step-3", "step-3"}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] {
			t.Fatalf("change %d entry = %q, want %q", i, ids[i], wantIDs[i])
		}
	}
}

func TestRun_CallbackOnlyAfterLastStepCompleted(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, threeSteps())
	e.seq.Activate(context.Background(), "")

	// Fire timers until all three entries are completed.
	for {
		entries := e.store.Entries()
		done := 0
		for _, entry := range entries {
			if entry.Status == pipeline.EntryCompleted {
				done++
			}
		}
		if done == 3 {
			break
		}
		if !e.sched.RunNext() {
			t.Fatal("scheduler exhausted before all steps completed")
		}
	}

	// The completion delay is still pending: no callback yet.
	if got := e.complete.count(); got != 0 {
		t.Fatalf("onComplete called %d times before completion delay", got)
	}
	if e.sched.Pending() != 1 {
		t.Fatalf("pending timers = %d, want 1 (completion delay)", e.sched.Pending())
	}

	if !e.sched.RunNext() {
		t.Fatal("completion timer missing")
	}
	if got := e.complete.count(); got != 1 {
		t.Fatalf("onComplete called %d times, want 1", got)
	}
	if e.sched.Pending() != 0 {
		t.Fatalf("pending timers after completion = %d, want 0", e.sched.Pending())
	}
}

func TestRun_StepTimingFollowsCatalog(t *testing.T) {
	t.Parallel()

	steps := threeSteps()
	e := newTestEngine(t, steps)
	e.seq.Activate(context.Background(), "")
	e.sched.Advance(10 * time.Second)

	if got := e.complete.count(); got != 1 {
		t.Fatalf("onComplete called %d times, want 1", got)
	}

	entries := e.store.Entries()
	for i := 1; i < len(entries); i++ {
		gap := entries[i].CreatedAt.Sub(entries[i-1].CreatedAt)
		if gap <= steps[i-1].Duration {
			t.Fatalf("step %d began %v after step %d; want more than the %v step duration (settle pause missing)",
				i, gap, i-1, steps[i-1].Duration)
		}
	}
}

func TestActivate_PromptDoesNotAffectRun(t *testing.T) {
	t.Parallel()

	run := func(prompt string) []pipeline.LogEntry {
		e := newTestEngine(t, threeSteps())
		e.seq.Activate(context.Background(), prompt)
		for e.sched.RunNext() {
		}
		return e.store.Entries()
	}

	empty := run("")
	nonEmpty := run("an online store with search")

	if len(empty) != len(nonEmpty) {
		t.Fatalf("entry counts differ: %d vs %d", len(empty), len(nonEmpty))
	}
	for i := range empty {
		if empty[i].ID != nonEmpty[i].ID || empty[i].Message != nonEmpty[i].Message ||
			empty[i].Status != nonEmpty[i].Status || !empty[i].CreatedAt.Equal(nonEmpty[i].CreatedAt) {
			t.Fatalf("entry %d differs between prompts: %+v vs %+v", i, empty[i], nonEmpty[i])
		}
	}
}

func TestActivate_WhileRunningRestartsCleanly(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, threeSteps())
	e.seq.Activate(context.Background(), "first attempt")

	// Let the first step complete and the second begin.
	if !e.sched.RunNext() || !e.sched.RunNext() {
		t.Fatal("scheduler exhausted mid-run")
	}
	if got := e.store.Len(); got != 2 {
		t.Fatalf("entries mid-run = %d, want 2", got)
	}

	// Restart: the in-flight run is abandoned, its timer cancelled.
	e.seq.Activate(context.Background(), "second attempt")
	if got := e.store.Len(); got != 1 {
		t.Fatalf("entries after restart = %d, want 1", got)
	}
	if got := e.seq.Prompt(); got != "second attempt" {
		t.Fatalf("prompt = %q, want second attempt", got)
	}

	for e.sched.RunNext() {
	}

	entries := e.store.Entries()
	if len(entries) != 3 {
		t.Fatalf("final entries = %d, want exactly one run's worth (3)", len(entries))
	}
	for _, entry := range entries {
		if entry.Status != pipeline.EntryCompleted {
			t.Fatalf("entry %s status = %q, want completed", entry.ID, entry.Status)
		}
	}
	if got := e.complete.count(); got != 1 {
		t.Fatalf("onComplete called %d times across restart, want 1", got)
	}
}

func TestActivate_StaleTimerCannotTouchNewRun(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, threeSteps())
	e.seq.Activate(context.Background(), "first")

	// Re-activate without letting any timer fire. The first run's step
	// timer must be gone, not merely reordered.
	e.seq.Activate(context.Background(), "second")
	if got := e.sched.Pending(); got != 1 {
		t.Fatalf("pending timers after restart = %d, want 1", got)
	}

	for e.sched.RunNext() {
	}
	if got := e.store.Len(); got != 3 {
		t.Fatalf("final entries = %d, want 3", got)
	}
	if got := e.complete.count(); got != 1 {
		t.Fatalf("onComplete called %d times, want 1", got)
	}
}

func TestActivate_AfterCompletionStartsFresh(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, threeSteps())
	e.seq.Activate(context.Background(), "")
	for e.sched.RunNext() {
	}
	if got := e.complete.count(); got != 1 {
		t.Fatalf("first run onComplete = %d, want 1", got)
	}

	e.seq.Activate(context.Background(), "again")
	if got := e.store.Len(); got != 1 {
		t.Fatalf("entries after re-activation = %d, want 1", got)
	}
	if current, total := e.seq.Progress(); current != 0 || total != 3 {
		t.Fatalf("progress after re-activation = %d/%d, want 0/3", current, total)
	}

	for e.sched.RunNext() {
	}
	if got := e.complete.count(); got != 2 {
		t.Fatalf("onComplete across two runs = %d, want 2", got)
	}
}

type promptEchoBuilder struct{}

func (promptEchoBuilder) Build(prompt string) appforge.Result {
	return appforge.Result{LiveURL: "https://example.dev", Status: appforge.StatusLive, SourceRepo: prompt}
}

func TestRun_ResultComesFromInjectedBuilder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, threeSteps(), pipeline.WithResultBuilder(promptEchoBuilder{}))
	e.seq.Activate(context.Background(), "a wiki")
	for e.sched.RunNext() {
	}

	e.complete.mu.Lock()
	defer e.complete.mu.Unlock()
	if len(e.complete.results) != 1 {
		t.Fatalf("results = %d, want 1", len(e.complete.results))
	}
	got := e.complete.results[0]
	if got.SourceRepo != "a wiki" {
		t.Fatalf("builder did not receive the prompt: %+v", got)
	}
	if !got.IsLive() {
		t.Fatalf("result not live: %+v", got)
	}
}
