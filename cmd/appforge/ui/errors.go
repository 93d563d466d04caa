package ui

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user aborts a prompt with ctrl+c/esc.
var ErrCancelled = errors.New("cancelled")

// NoInteractionError is returned when a prompt is required but the
// terminal is non-interactive. Hint tells the user how to bypass the
// prompt (a flag or argument).
type NoInteractionError struct {
	Hint string
}

func (e *NoInteractionError) Error() string {
	if e.Hint == "" {
		return "terminal is not interactive"
	}
	return fmt.Sprintf("terminal is not interactive (%s)", e.Hint)
}

// RequireInteraction returns a *NoInteractionError carrying bypassHint
// when interactive screens are unavailable.
func RequireInteraction(bypassHint string) error {
	if IsNoInteraction() {
		return &NoInteractionError{Hint: bypassHint}
	}
	return nil
}
