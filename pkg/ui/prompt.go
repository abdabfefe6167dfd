package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultPromptText is shown while no marker is visible.
const DefaultPromptText = "Point the camera at the marker"

// Label is the pre-laid-out instruction widget. Only call it on the UI context.
type Label interface {
	SetHidden(hidden bool)
}

// Prompt projects target visibility onto a Label on the UI context.
// It keeps no state of its own.
type Prompt struct {
	ui    Dispatcher
	label Label
}

// NewPrompt binds label to the UI context d.
func NewPrompt(d Dispatcher, label Label) *Prompt {
	return &Prompt{ui: d, label: label}
}

// SetVisible shows or hides the prompt. Safe from any goroutine.
func (p *Prompt) SetVisible(visible bool) {
	hidden := !visible
	p.ui.Dispatch(func() {
		p.label.SetHidden(hidden)
	})
}

// LogLabel is a Label that writes a line each time its visibility changes.
type LogLabel struct {
	mu     sync.Mutex
	w      io.Writer
	text   string
	hidden bool
	set    bool
	start  time.Time
}

// NewLogLabel creates a label writing to w.
func NewLogLabel(w io.Writer, text string) *LogLabel {
	return &LogLabel{w: w, text: text, start: time.Now()}
}

// SetHidden records the change if it differs from the last one.
func (l *LogLabel) SetHidden(hidden bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set && l.hidden == hidden {
		return
	}
	l.set = true
	l.hidden = hidden

	state := "shown"
	if hidden {
		state = "hidden"
	}
	fmt.Fprintf(l.w, "%8s  prompt %-6s %q\n",
		time.Since(l.start).Truncate(time.Millisecond), state, l.text)
}

// Hidden reports the last applied visibility.
func (l *LogLabel) Hidden() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hidden
}
