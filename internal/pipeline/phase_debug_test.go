//go:build debug

package pipeline

import "testing"

// With assertions compiled in, an invalid transition is a panic, not a
// silent refusal.
func TestRunPhaseTransition_InvalidPanicsWithAssertions(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("Transition should panic on an invalid change under the debug tag")
		}
	}()
	RunIdle.Transition(RunCompleted)
}
