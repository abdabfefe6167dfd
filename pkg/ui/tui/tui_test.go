package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestModel_ApplyRunsInUpdate(t *testing.T) {
	b := NewBanner("find the poster")
	var m tea.Model = model{banner: b}

	m, _ = m.Update(applyMsg{fn: func() { b.SetHidden(true) }})
	assert.True(t, b.Hidden())
	assert.NotContains(t, m.View(), "find the poster")

	m, _ = m.Update(applyMsg{fn: func() { b.SetHidden(false) }})
	assert.Contains(t, m.View(), "find the poster")
}

func TestModel_StatusPolling(t *testing.T) {
	b := NewBanner("prompt")
	var m tea.Model = model{banner: b, status: func() (string, bool) { return "locked visible=true", true }}

	m, cmd := m.Update(statusMsg{})
	assert.NotNil(t, cmd, "polling stopped")
	assert.Contains(t, m.View(), "locked visible=true")
}

func TestModel_Quit(t *testing.T) {
	var m tea.Model = model{banner: NewBanner("prompt")}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if assert.NotNil(t, cmd) {
		assert.Equal(t, tea.Quit(), cmd())
	}
}
