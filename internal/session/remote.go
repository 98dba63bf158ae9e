package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
	"github.com/vovakirdan/tui-pong/internal/realtime"
)

const outboundBuffer = 8

func (s *Session) attachRemote() {
	r := s.opts.Remote
	r.OnState(s.onState)
	r.OnFrame(s.onFrame)

	s.outbound = make(chan core.Direction, outboundBuffer)
	unsub := s.opts.Capture.Subscribe(func(_ core.Side, dir core.Direction) {
		s.queueInput(dir)
	})
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()
}

// queueInput hands dir to the writer without blocking the key handler. When
// the writer is behind, the oldest direction is dropped.
func (s *Session) queueInput(dir core.Direction) {
	select {
	case s.outbound <- dir:
		return
	default:
	}
	select {
	case <-s.outbound:
	default:
	}
	select {
	case s.outbound <- dir:
	default:
	}
}

// forward writes queued directions to the authority until ctx ends.
func (s *Session) forward(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case dir := <-s.outbound:
			if err := s.opts.Remote.SendInput(dir); err != nil && !errors.Is(err, realtime.ErrNotConnected) {
				s.log.Warn("send input", "err", err)
			}
		}
	}
}

// connect dials once. A rejected token ends the session; any other failure
// leaves the client retrying in the background.
func (s *Session) connect(ctx context.Context) error {
	err := s.opts.Remote.Connect(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, realtime.ErrUnauthorized):
		s.rejected()
		return err
	case errors.Is(err, realtime.ErrNotConnected), ctx.Err() != nil:
		return nil
	default:
		s.log.Warn("connect", "err", err)
		s.notice("server unreachable, retrying", true)
		return nil
	}
}

// rejected ends the session once the authority refuses the token, whether on
// the first dial or on a reconnect.
func (s *Session) rejected() {
	s.mu.Lock()
	over := s.over
	s.mu.Unlock()
	if over {
		return
	}
	s.notice("login rejected by the server", true)
	s.finish(Result{Reason: EndError})
}

func (s *Session) onState(st realtime.State) {
	s.emit(ConnectionEvent{State: st})
	switch st {
	case realtime.StateConnecting:
		s.setStatus("connecting")
	case realtime.StateDisconnected:
		s.setStatus("reconnecting")
	case realtime.StateUnauthorized:
		s.rejected()
	case realtime.StateConnected:
		s.mu.Lock()
		if s.status == "connecting" || s.status == "reconnecting" {
			s.status = "connected"
		}
		s.mu.Unlock()
	}
}

func (s *Session) onFrame(f realtime.Frame) {
	switch f := f.(type) {
	case realtime.StateFrame:
		s.trackScore(f.Snapshot.Score)

	case realtime.MatchCreated:
		s.mu.Lock()
		s.matchID = f.MatchID
		s.banner, s.hint = "", ""
		s.status = "playing"
		if f.Opponent != "" {
			s.status = "vs " + f.Opponent
		}
		s.mu.Unlock()
		s.notice("match found", false)

	case realtime.Waiting:
		msg := f.Message
		if msg == "" {
			msg = "waiting for an opponent"
		}
		if f.QueuePosition > 0 {
			msg = fmt.Sprintf("%s (#%d in queue)", msg, f.QueuePosition)
		}
		s.setStatus(msg)

	case realtime.GameOver:
		if s.opts.Persistent {
			s.endRound()
			s.notice(fmt.Sprintf("%s won the match", orDefault(f.Winner, "nobody")), false)
			return
		}
		s.finish(Result{Reason: EndCompleted, WinnerName: f.Winner})

	case realtime.PlayerLeft:
		if s.opts.Persistent {
			s.endRound()
			s.notice(orDefault(f.Message, "your opponent left"), false)
			return
		}
		s.finish(Result{Reason: EndOpponentLeft, WinnerName: "you"})

	case realtime.MatchResult:
		winner := orDefault(f.WinnerDisplay, f.Winner)
		s.notice(orDefault(f.Message, winner+" wins the match"), false)

	case realtime.TournamentState:
		s.setStatus(lobbyStatus(f))
		s.notice(f.Message, false)

	case realtime.TournamentRankings:
		s.notice(rankingText(f), false)
		if f.Complete {
			res := Result{Reason: EndCompleted}
			if len(f.Rankings) > 0 {
				res.WinnerName = f.Rankings[0].Player
			}
			s.finish(res)
		}

	case realtime.Notice:
		s.notice(f.Message, f.IsError)
		switch f.Kind {
		case "tournament_cancelled", "matchmaking_cancelled":
			s.finish(Result{Reason: EndCancelled})
		case "finals_starting", "third_place_starting":
			s.setStatus(strings.ReplaceAll(f.Kind, "_", " "))
		}
	}
}

// endRound clears the match between rounds of a persistent session.
func (s *Session) endRound() {
	s.mu.Lock()
	s.matchID = ""
	s.lastScore = pong.Score{}
	s.status = "waiting for next match"
	s.mu.Unlock()
}

func (s *Session) trackScore(score pong.Score) {
	s.mu.Lock()
	prev := s.lastScore
	s.lastScore = score
	s.mu.Unlock()

	switch {
	case score.Left > prev.Left:
		s.emit(GoalEvent{Scorer: core.SideLeft, Score: score})
	case score.Right > prev.Right:
		s.emit(GoalEvent{Scorer: core.SideRight, Score: score})
	}
}

func lobbyStatus(t realtime.TournamentState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "lobby %d players", len(t.Players))
	if t.Waiting > 0 {
		fmt.Fprintf(&b, ", waiting for %d", t.Waiting)
	}
	if t.YourPosition > 0 {
		fmt.Fprintf(&b, ", you are #%d", t.YourPosition)
	}
	return b.String()
}

func rankingText(r realtime.TournamentRankings) string {
	if len(r.Rankings) == 0 {
		return r.Message
	}
	parts := make([]string, 0, len(r.Rankings))
	for _, rk := range r.Rankings {
		parts = append(parts, fmt.Sprintf("%d. %s", rk.Position, rk.Player))
	}
	return "standings: " + strings.Join(parts, "  ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
