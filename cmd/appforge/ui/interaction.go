package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoInteraction = "NO_INTERACTION"
	envCI            = "CI"
	envTerm          = "TERM"
)

type interactionConfig struct {
	initialized bool
	interactive bool
}

var interactionState struct {
	mu  sync.RWMutex
	cfg interactionConfig
}

// ConfigureInteraction decides whether screens may take over the terminal.
// noInput forces non-interactive mode (the --no-input flag); otherwise CI
// environments, dumb terminals, and non-tty stderr all disable it.
func ConfigureInteraction(noInput bool) {
	interactive := detectInteractiveMode(noInput)

	interactionState.mu.Lock()
	interactionState.cfg = interactionConfig{
		initialized: true,
		interactive: interactive,
	}
	interactionState.mu.Unlock()

	if interactive {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// IsInteractive reports whether interactive screens are allowed,
// configuring defaults on first use.
func IsInteractive() bool {
	interactionState.mu.RLock()
	if interactionState.cfg.initialized {
		interactive := interactionState.cfg.interactive
		interactionState.mu.RUnlock()
		return interactive
	}
	interactionState.mu.RUnlock()

	ConfigureInteraction(false)
	return IsInteractive()
}

func IsNoInteraction() bool {
	return !IsInteractive()
}

func detectInteractiveMode(noInput bool) bool {
	if noInput {
		return false
	}
	if envTruthy(envNoInteraction) || envTruthy(envCI) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	return stderrIsTerminal()
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func envTruthy(key string) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
