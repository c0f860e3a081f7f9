package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"studyhall/internal/review"
)

type cachedMsg struct {
	painted bool
}

type refreshedMsg struct {
	err error
}

type settledMsg struct {
	kind review.Mutation
	err  error
}

type deletedMsg struct {
	setID string
	err   error
}

// Model is the bubbletea model of one document's review session.
type Model struct {
	ctx     context.Context
	ctrl    *review.Controller
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	initialSetID string
	cursor       int
	loading      bool
	loadErr      error
	confirming   string
	status       string
	quitting     bool
}

// New builds a model over ctrl. When setID is set the session opens that set
// as soon as it is loaded.
func New(ctx context.Context, ctrl *review.Controller, setID string) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:          ctx,
		ctrl:         ctrl,
		keys:         defaultKeys(),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		initialSetID: setID,
		loading:      true,
	}
}

// Run starts a full-screen program and blocks until the user quits.
func Run(ctx context.Context, ctrl *review.Controller, setID string) error {
	program := tea.NewProgram(New(ctx, ctrl, setID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	ctrl.Wait()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCached())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case cachedMsg:
		if msg.painted {
			m.loading = false
			m.openInitial()
		}
		return m, m.refresh()

	case refreshedMsg:
		m.loading = false
		m.loadErr = msg.err
		m.openInitial()
		m.clampCursor()
		return m, nil

	case settledMsg:
		// Failures surface through the controller's notices.
		return m, nil

	case deletedMsg:
		m.status = ""
		if msg.err == nil {
			m.status = "Flashcard set deleted"
		}
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.confirming != "" {
			return m.updateConfirm(msg)
		}
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Dismiss) {
			if notices := m.ctrl.Notices(); len(notices) > 0 {
				m.ctrl.DismissNotice(notices[0].ID)
			}
			return m, nil
		}
		if m.ctrl.Snapshot().State == review.StateViewing {
			return m.updateReview(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sets := m.ctrl.Snapshot().Sets
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(sets)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(sets) {
			_ = m.ctrl.Open(sets[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(sets) {
			m.confirming = sets[m.cursor].ID
		}
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	}
	return m, nil
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Flip):
		pending, err := m.ctrl.Flip()
		if errors.Is(err, review.ErrCardBusy) {
			m.status = "Still saving this card"
		}
		if pending != nil {
			return m, waitFor(pending)
		}
	case key.Matches(msg, m.keys.Next):
		m.ctrl.Next()
	case key.Matches(msg, m.keys.Prev):
		m.ctrl.Previous()
	case key.Matches(msg, m.keys.Star):
		pending, err := m.ctrl.ToggleCurrentStar()
		if errors.Is(err, review.ErrCardBusy) {
			m.status = "Still saving this card"
		}
		if pending != nil {
			return m, waitFor(pending)
		}
	case key.Matches(msg, m.keys.Delete):
		m.confirming = m.ctrl.Snapshot().Set.ID
	case key.Matches(msg, m.keys.Back):
		m.ctrl.Close()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	setID := m.confirming
	switch msg.String() {
	case "y", "Y":
		m.confirming = ""
		m.status = "Deleting…"
		return m, m.deleteSet(setID)
	case "n", "N", "esc", "q":
		m.confirming = ""
	}
	return m, nil
}

func (m *Model) openInitial() {
	if m.initialSetID == "" {
		return
	}
	if err := m.ctrl.Open(m.initialSetID); err == nil {
		m.initialSetID = ""
	}
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Snapshot().Sets)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) loadCached() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return cachedMsg{painted: ctrl.LoadCached(ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return refreshedMsg{err: ctrl.Refresh(ctx)}
	}
}

func (m Model) deleteSet(setID string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return deletedMsg{setID: setID, err: ctrl.DeleteSet(ctx, setID, review.Confirmed)}
	}
}

func waitFor(p *review.Pending) tea.Cmd {
	return func() tea.Msg {
		return settledMsg{kind: p.Kind, err: p.Wait()}
	}
}
