package pipeline

import "testing"

func TestRunPhaseString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		phase RunPhase
		want  string
	}{
		{RunIdle, "idle"},
		{RunActive, "active"},
		{RunSettling, "settling"},
		{RunCompleted, "completed"},
		{RunPhase(0), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.phase.String(); got != tc.want {
			t.Fatalf("String(%d) = %q, want %q", tc.phase, got, tc.want)
		}
	}
}

func TestRunPhaseTransition(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		from RunPhase
		to   RunPhase
		want RunPhase
	}{
		{name: "idle to active", from: RunIdle, to: RunActive, want: RunActive},
		{name: "active to settling", from: RunActive, to: RunSettling, want: RunSettling},
		{name: "settling to active", from: RunSettling, to: RunActive, want: RunActive},
		{name: "active to completed", from: RunActive, to: RunCompleted, want: RunCompleted},
		{name: "completed to active restart", from: RunCompleted, to: RunActive, want: RunActive},
		{name: "active restart", from: RunActive, to: RunActive, want: RunActive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.Transition(tc.to); got != tc.want {
				t.Fatalf("Transition(%s -> %s) = %s, want %s", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
