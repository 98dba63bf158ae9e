package session

import (
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
	"github.com/vovakirdan/tui-pong/internal/realtime"
	"github.com/vovakirdan/tui-pong/internal/scores"
)

// Event is something the host should know about.
type Event interface {
	sessionEvent()
}

// FrameEvent carries a freshly encoded frame.
type FrameEvent struct {
	View string
}

func (FrameEvent) sessionEvent() {}

// GoalEvent is sent when a point is scored.
type GoalEvent struct {
	Scorer core.Side
	Score  pong.Score
}

func (GoalEvent) sessionEvent() {}

// MatchOverEvent is sent once when the match ends.
type MatchOverEvent struct {
	Result Result
}

func (MatchOverEvent) sessionEvent() {}

// ConnectionEvent reports a change of the remote connection.
type ConnectionEvent struct {
	State realtime.State
}

func (ConnectionEvent) sessionEvent() {}

// NoticeEvent is a message for the user.
type NoticeEvent struct {
	Message string
	IsError bool
}

func (NoticeEvent) sessionEvent() {}

// ScoreEvent reports the outcome of a score submission.
type ScoreEvent struct {
	Score  int
	Result scores.Result
	Err    error
}

func (ScoreEvent) sessionEvent() {}

// StoppedEvent is the last event of a session.
type StoppedEvent struct {
	Err error
}

func (StoppedEvent) sessionEvent() {}

// EndReason describes why a match ended.
type EndReason int

const (
	EndCompleted    EndReason = iota // a side reached the winning score
	EndOpponentLeft                  // the opponent forfeited
	EndQuit                          // the local player left
	EndCancelled                     // the authority cancelled it
	EndError                         // a fatal error
)

func (r EndReason) String() string {
	switch r {
	case EndCompleted:
		return "completed"
	case EndOpponentLeft:
		return "opponent left"
	case EndQuit:
		return "quit"
	case EndCancelled:
		return "cancelled"
	case EndError:
		return "error"
	default:
		return "unknown"
	}
}
