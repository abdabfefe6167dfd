// Package tui is the terminal rendition of the overlay screen. The bubbletea
// event loop is the UI-owning context: dispatched tasks run inside Update.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/teslashibe/go-marker/pkg/ui"
)

const statusInterval = 250 * time.Millisecond

var (
	promptStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 2).
			Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Banner is the instruction prompt widget. It is only touched from Update.
type Banner struct {
	Text   string
	hidden bool
}

// NewBanner creates a shown banner.
func NewBanner(text string) *Banner {
	return &Banner{Text: text}
}

// SetHidden implements ui.Label.
func (b *Banner) SetHidden(hidden bool) { b.hidden = hidden }

// Hidden reports whether the banner is hidden.
func (b *Banner) Hidden() bool { return b.hidden }

type applyMsg struct{ fn func() }

type statusMsg struct{}

type model struct {
	banner *Banner
	status func() (string, bool)

	line   string
	locked bool
	width  int
	height int
}

func (m model) Init() tea.Cmd {
	return pollStatus()
}

func pollStatus() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg { return statusMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case applyMsg:
		msg.fn()
		return m, nil

	case statusMsg:
		if m.status != nil {
			m.line, m.locked = m.status()
		}
		return m, pollStatus()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	body := lockedStyle.Render("● overlay locked")
	if !m.banner.Hidden() {
		body = promptStyle.Render(m.banner.Text)
	}
	if m.width > 0 && m.height > 2 {
		body = lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		statusStyle.Render(m.line),
		hintStyle.Render("q quit"),
	)
}

// App runs the terminal UI. It is both the ui.Dispatcher and, through its
// Banner, the ui.Label of the view.
type App struct {
	program *tea.Program
	banner  *Banner
	fwd     *ui.Executor // keeps Send calls in dispatch order

	done chan struct{}
}

// Option configures an App.
type Option func(*model)

// WithStatus sets a function polled for the status line. The bool marks
// the overlay as locked for styling.
func WithStatus(fn func() (string, bool)) Option {
	return func(m *model) { m.status = fn }
}

// New creates an App showing text as its prompt. Extra program options are
// passed to bubbletea (tests use tea.WithInput/tea.WithOutput).
func New(text string, opts []Option, progOpts ...tea.ProgramOption) *App {
	b := NewBanner(text)
	m := model{banner: b}
	for _, opt := range opts {
		opt(&m)
	}
	return &App{
		program: tea.NewProgram(m, progOpts...),
		banner:  b,
		fwd:     ui.NewExecutor(64),
		done:    make(chan struct{}),
	}
}

// Banner returns the prompt widget for view wiring.
func (a *App) Banner() *Banner { return a.banner }

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, a.program.Quit)
	defer stop()
	defer close(a.done)
	defer a.fwd.Close()

	_, err := a.program.Run()
	return err
}

// Done is closed once Run returns.
func (a *App) Done() <-chan struct{} { return a.done }

// Dispatch implements ui.Dispatcher by running fn inside Update.
func (a *App) Dispatch(fn func()) bool {
	return a.fwd.Dispatch(func() {
		a.program.Send(applyMsg{fn: fn})
	})
}

var (
	_ ui.Dispatcher = (*App)(nil)
	_ ui.Label      = (*Banner)(nil)
)
