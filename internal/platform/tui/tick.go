// Package tui hosts match sessions in Bubble Tea: the mode menu, the match
// screen, the history table and the SSH server.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-pong/internal/session"
)

// noticeTTL is how long a notice stays under the court.
const noticeTTL = 4 * time.Second

// SessionEventMsg carries one session event into the Bubble Tea loop.
type SessionEventMsg struct {
	Session *session.Session
	Event   session.Event
}

// SessionDoneMsg is sent when a session's Run returns.
type SessionDoneMsg struct {
	Session *session.Session
	Err     error
}

// noticeExpiredMsg clears the notice with the same sequence number.
type noticeExpiredMsg struct {
	seq int
}

// runSession runs s until it stops.
func runSession(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return SessionDoneMsg{Session: s, Err: s.Run(ctx)}
	}
}

// waitForEvent delivers the next event of s. Each delivery schedules the next
// wait, so exactly one reader is pending per session.
func waitForEvent(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-s.Events():
			return SessionEventMsg{Session: s, Event: evt}
		case <-s.Done():
			// Run has returned; drain what is left, ending with StoppedEvent.
			select {
			case evt := <-s.Events():
				return SessionEventMsg{Session: s, Event: evt}
			default:
				return nil
			}
		}
	}
}

// expireNoticeCmd returns a command that expires notice seq after noticeTTL.
func expireNoticeCmd(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
