package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/realtime"
	"github.com/vovakirdan/tui-pong/internal/registry"
	"github.com/vovakirdan/tui-pong/internal/session"
)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Model is the Bubble Tea model of one match screen. It owns a session and
// replaces it when the player asks for a rematch.
type Model struct {
	mode session.Mode
	env  registry.Env
	sess *session.Session
	keys *KeyMapper

	view      string
	notice    string
	noticeErr bool
	noticeSeq int
	over      bool
	result    session.Result
	err       error

	quitting   bool
	backToMenu bool
}

// NewModel creates the session for mode and a model hosting it.
// The env's Encoder defaults to RenderScreen; its screen size is reserved
// for the court, one row is kept for notices.
func NewModel(mode session.Mode, env registry.Env) (Model, error) {
	if env.Encoder == nil {
		env.Encoder = RenderScreen
	}
	m := Model{mode: mode, env: env, keys: NewKeyMapper()}
	if err := m.start(); err != nil {
		return m, err
	}
	return m, nil
}

func (m *Model) start() error {
	env := m.env
	env.Runtime.ScreenH = courtHeight(env.Runtime.ScreenH)
	s, err := registry.Create(m.mode, env)
	if err != nil {
		return err
	}
	m.sess = s
	m.view = ""
	m.over = false
	m.result = session.Result{}
	m.err = nil
	return nil
}

func courtHeight(h int) int {
	if h > 1 {
		return h - 1
	}
	return h
}

// Init starts the session and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(runSession(context.Background(), m.sess), waitForEvent(m.sess))
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.env.Runtime.ScreenW = msg.Width
		m.env.Runtime.ScreenH = msg.Height
		m.sess.Resize(msg.Width, courtHeight(msg.Height))
		return m, nil

	case SessionEventMsg:
		if msg.Session != m.sess {
			return m, nil // from a replaced session
		}
		return m.handleEvent(msg.Event)

	case SessionDoneMsg:
		if msg.Session == m.sess && msg.Err != nil {
			m.err = msg.Err
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.MapKey(msg) {
	case core.ActionQuit:
		m.sess.Quit()
		m.quitting = true
		return m, tea.Quit

	case core.ActionBack:
		m.sess.Quit()
		m.backToMenu = true
		return m, nil

	case core.ActionForfeit:
		if m.online() && !m.over {
			m.sess.Quit()
			return m.setNotice("match forfeited", false)
		}

	case core.ActionRestart:
		if m.over && m.mode != session.ModeDemo {
			m.sess.Stop()
			if err := m.start(); err != nil {
				return m.setNotice(err.Error(), true)
			}
			return m, m.Init()
		}
	}

	m.sess.HandleKey(msg.String())
	return m, nil
}

func (m Model) online() bool {
	info, _ := registry.Info(m.mode)
	return info.Online
}

func (m Model) handleEvent(evt session.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.sess)

	switch evt := evt.(type) {
	case session.FrameEvent:
		m.view = evt.View

	case session.MatchOverEvent:
		m.over = true
		m.result = evt.Result

	case session.NoticeEvent:
		mm, cmd := m.setNotice(evt.Message, evt.IsError)
		return mm, tea.Batch(next, cmd)

	case session.ScoreEvent:
		if evt.Err == nil && evt.Result.HighScore > 0 {
			mm, cmd := m.setNotice(fmt.Sprintf("best online score: %d", evt.Result.HighScore), false)
			return mm, tea.Batch(next, cmd)
		}

	case session.StoppedEvent:
		if evt.Err != nil {
			m.err = evt.Err
		}
		return m, nil
	}

	return m, next
}

func (m Model) setNotice(text string, isErr bool) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeErr = isErr
	return m, expireNoticeCmd(m.noticeSeq)
}

// View renders the last frame and the notice line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.view)
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(errorText(m.err)))
	case m.notice != "" && m.noticeErr:
		b.WriteString(errorStyle.Render(m.notice))
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice))
	default:
		b.WriteString(noticeStyle.Render(m.footer()))
	}
	return b.String()
}

func (m Model) footer() string {
	switch {
	case m.over:
		return "r: rematch  b: menu  q: quit"
	case m.mode == session.ModeLocal:
		return "W/S and ↑/↓ move  b: menu  q: quit"
	case m.mode == session.ModeDemo:
		return "b: menu  q: quit"
	case m.online():
		return "W/S or ↑/↓ move  f: forfeit  q: quit"
	default:
		return "W/S or ↑/↓ move  b: menu  q: quit"
	}
}

func errorText(err error) string {
	if errors.Is(err, realtime.ErrUnauthorized) {
		return "Error: the server rejected your token (set PONG_TOKEN)"
	}
	return "Error: " + err.Error()
}

// Result returns the last finished match, if any.
func (m Model) Result() (session.Result, bool) {
	return m.result, m.over
}

// Err returns the error that ended the session, if any.
func (m Model) Err() error {
	return m.err
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run plays one mode in its own Bubble Tea program.
func Run(mode session.Mode, env registry.Env) error {
	model, err := NewModel(mode, env)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		fm.sess.Stop()
		return fm.Err()
	}
	return nil
}
