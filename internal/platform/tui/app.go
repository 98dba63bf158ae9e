package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-pong/internal/registry"
	"github.com/vovakirdan/tui-pong/internal/storage"
)

type appScreen int

const (
	screenMenu appScreen = iota
	screenMatch
	screenHistory
)

// AppModel manages the full flow: menu -> match -> menu, plus the history
// screen. It is the top-level model of the menu command and of SSH sessions.
type AppModel struct {
	env      registry.Env
	store    *storage.Store
	screen   appScreen
	menu     MenuModel
	match    *Model
	history  HistoryModel
	err      string
	quitting bool
}

// NewAppModel creates the app model. store may be nil, in which case
// nothing is recorded and the history stays empty.
func NewAppModel(env registry.Env, store *storage.Store) AppModel {
	if store != nil && env.Recorder == nil {
		env.Recorder = store
	}
	return AppModel{
		env:   env,
		store: store,
		menu:  NewMenuModel(store, env.Runtime),
	}
}

// Init initializes the app.
func (m AppModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update routes messages to the active screen.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.env.Runtime.ScreenW = wsm.Width
		m.env.Runtime.ScreenH = wsm.Height
	}

	switch m.screen {
	case screenMatch:
		return m.updateMatch(msg)
	case screenHistory:
		return m.updateHistory(msg)
	default:
		return m.updateMenu(msg)
	}
}

func (m AppModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if mm, ok := next.(MenuModel); ok {
		m.menu = mm
	}

	switch {
	case m.menu.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.menu.WantsHistory():
		m.screen = screenHistory
		m.history = NewHistoryModel(m.store, m.env.Runtime.ScreenW, m.env.Runtime.ScreenH)
		return m, m.history.Init()

	case m.menu.Selected() != nil:
		mode := m.menu.Selected().Mode
		match, err := NewModel(mode, m.env)
		if err != nil {
			m.err = err.Error()
			m.resetMenu()
			return m, nil
		}
		m.err = ""
		m.match = &match
		m.screen = screenMatch
		return m, m.match.Init()
	}

	return m, cmd
}

func (m AppModel) updateMatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.match.Update(msg)
	if mm, ok := next.(Model); ok {
		m.match = &mm
	}

	if m.match.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.match.BackToMenu() {
		m.match = nil
		m.resetMenu()
		return m, m.menu.Init()
	}
	return m, cmd
}

func (m AppModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.history.Update(msg)
	if hm, ok := next.(HistoryModel); ok {
		m.history = hm
	}

	if m.history.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.history.IsGoingBack() {
		m.resetMenu()
		return m, m.menu.Init()
	}
	return m, cmd
}

func (m *AppModel) resetMenu() {
	m.screen = screenMenu
	m.menu = NewMenuModel(m.store, m.env.Runtime)
}

// View renders the active screen.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenMatch:
		return m.match.View()
	case screenHistory:
		return m.history.View()
	}
	v := m.menu.View()
	if m.err != "" {
		v += "\n" + centerText(errorStyle.Render(m.err), m.env.Runtime.ScreenW)
	}
	return v
}

// RunApp runs the menu-driven app until the user quits.
func RunApp(env registry.Env, store *storage.Store) error {
	p := tea.NewProgram(NewAppModel(env, store), tea.WithAltScreen())
	final, err := p.Run()
	if am, ok := final.(AppModel); ok && am.match != nil {
		am.match.sess.Stop()
	}
	return err
}
