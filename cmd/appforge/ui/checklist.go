package ui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"appforge/internal/pipeline"
)

var spinFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Checklist renders the deployment log as an in-place terminal checklist
// on stderr. Completed entries show a checkmark, the running entry a
// braille spinner, and a footer tracks overall progress.
type Checklist struct {
	total         int
	entries       []pipeline.LogEntry
	started       bool
	renderedLines int
	mu            sync.Mutex
	stop          chan struct{}
	frame         int
	once          sync.Once
}

// NewChecklist creates a Checklist for a run of total steps.
func NewChecklist(total int) *Checklist {
	return &Checklist{total: total, stop: make(chan struct{})}
}

// OnEntries replaces the rendered entries with the given log snapshot.
func (c *Checklist) OnEntries(entries []pipeline.LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = entries
	if !c.started {
		c.started = true
		c.redraw()
		go c.spin()
		return
	}
	c.redraw()
}

// Close stops the spinner and leaves the final render in place.
func (c *Checklist) Close() {
	c.once.Do(func() {
		close(c.stop)
	})
}

func (c *Checklist) spin() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.frame = (c.frame + 1) % len(spinFrames)
			c.redraw()
			c.mu.Unlock()
		}
	}
}

// redraw reprints all lines in place. Caller must hold c.mu.
func (c *Checklist) redraw() {
	if c.renderedLines > 0 {
		fmt.Fprintf(os.Stderr, "\033[%dA", c.renderedLines)
	}

	done := 0
	for _, e := range c.entries {
		if e.Status == pipeline.EntryCompleted {
			done++
		}
		fmt.Fprintf(os.Stderr, "\r%s\033[K\n", c.entryLine(e))
	}
	footer := Muted(fmt.Sprintf("  %d/%d steps", done, c.total))
	fmt.Fprintf(os.Stderr, "\r%s\033[K\n", footer)

	lines := len(c.entries) + 1
	for i := lines; i < c.renderedLines; i++ {
		fmt.Fprint(os.Stderr, "\r\033[K\n")
	}
	c.renderedLines = lines
}

func (c *Checklist) entryLine(e pipeline.LogEntry) string {
	switch e.Status {
	case pipeline.EntryRunning:
		line := "  " + Accent(spinFrames[c.frame]) + " " + e.Message
		if e.Detail != "" {
			line += " " + Muted(e.Detail)
		}
		return line
	case pipeline.EntryCompleted:
		return "  " + Success("✓") + " " + e.Message
	default:
		return "  " + Muted("●") + " " + Muted(e.Message)
	}
}
