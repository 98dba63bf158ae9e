// Package render paints match snapshots into a character screen and drives
// the frame timer that pushes encoded frames to the host.
package render

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

// Visual characters.
const (
	PaddleChar = '█'
	BallChar   = '●'
	NetChar    = '┊'
)

// Minimum screen size that fits a court.
const (
	MinWidth  = 20
	MinHeight = 8
)

// Labels is the text drawn around the court.
type Labels struct {
	Left   string // left player name
	Right  string // right player name
	Banner string // centred message box, e.g. "LEFT WINS"
	Hint   string // second line of the banner
	Status string // drawn in the bottom border
}

// LabelsFor builds player labels from a snapshot, falling back to the
// given names when the snapshot carries none.
func LabelsFor(snap pong.Snapshot, left, right string) Labels {
	return Labels{
		Left:  playerLabel(snap.Players[0], left),
		Right: playerLabel(snap.Players[1], right),
	}
}

func playerLabel(p pong.Player, fallback string) string {
	name := p.Name
	if name == "" {
		name = fallback
	}
	if p.Elo > 0 {
		return fmt.Sprintf("%s (%d)", name, p.Elo)
	}
	return name
}

// viewport maps court units to screen cells. Row 0 is the header; the court
// is framed by a box below it.
type viewport struct {
	box    core.Rect
	sx, sy float64
}

func newViewport(dst *core.Screen, c pong.Court) viewport {
	box := core.NewRect(0, 1, dst.Width(), dst.Height()-1)
	return viewport{
		box: box,
		sx:  float64(box.W-2) / c.Width,
		sy:  float64(box.H-2) / c.Height,
	}
}

// cells converts a court-space span to a screen span of at least one cell.
func (v viewport) cells(pos, size, scale float64, origin, limit int) (int, int) {
	start := origin + int(math.Floor(pos*scale))
	end := origin + int(math.Ceil((pos+size)*scale))
	if end <= start {
		end = start + 1
	}
	start = core.Clamp(start, origin, origin+limit-1)
	end = core.Clamp(end, start+1, origin+limit)
	return start, end - start
}

func (v viewport) rect(x, y, w, h float64) core.Rect {
	cx, cw := v.cells(x, w, v.sx, v.box.X+1, v.box.W-2)
	cy, ch := v.cells(y, h, v.sy, v.box.Y+1, v.box.H-2)
	return core.NewRect(cx, cy, cw, ch)
}

// Draw paints snap into dst. The screen is cleared first.
func Draw(dst *core.Screen, snap pong.Snapshot, labels Labels) {
	dst.Clear()
	if dst.Width() < MinWidth || dst.Height() < MinHeight {
		dst.DrawTextCentered(dst.Height()/2, "terminal too small", core.ColorRed)
		return
	}
	c := snap.Court
	if c.Width <= 0 || c.Height <= 0 {
		return
	}
	v := newViewport(dst, c)

	dst.DrawBox(v.box, core.ColorGray)
	mid := v.box.X + v.box.W/2
	for y := v.box.Y + 1; y < v.box.Bottom()-1; y += 2 {
		dst.SetColor(mid, y, NetChar, core.ColorGray)
	}

	for i, side := range []core.Side{core.SideLeft, core.SideRight} {
		p := snap.Paddles[i]
		dst.DrawRect(v.rect(p.X, p.Y, c.PaddleWidth, c.PaddleHeight), PaddleChar, core.SideColor(side))
	}

	if snap.Phase != pong.PhaseFinished {
		b := v.rect(snap.Ball.X, snap.Ball.Y, c.BallSize, c.BallSize)
		dst.SetColor(b.X+b.W/2, b.Y+b.H/2, BallChar, core.ColorWhite)
	}

	drawHeader(dst, snap, labels)
	if labels.Status != "" {
		status := " " + labels.Status + " "
		x := (dst.Width() - utf8.RuneCountInString(status)) / 2
		dst.DrawTextColor(x, dst.Height()-1, status, core.ColorGray)
	}
	if labels.Banner != "" {
		drawBanner(dst, labels.Banner, labels.Hint)
	}
}

func drawHeader(dst *core.Screen, snap pong.Snapshot, labels Labels) {
	dst.DrawTextCentered(0, fmt.Sprintf("%d : %d", snap.Score.Left, snap.Score.Right), core.ColorYellow)
	if labels.Left != "" {
		dst.DrawTextColor(1, 0, labels.Left, core.SideColor(core.SideLeft))
	}
	if labels.Right != "" {
		x := dst.Width() - 1 - utf8.RuneCountInString(labels.Right)
		dst.DrawTextColor(x, 0, labels.Right, core.SideColor(core.SideRight))
	}
}

func drawBanner(dst *core.Screen, title, hint string) {
	w := max(utf8.RuneCountInString(title), utf8.RuneCountInString(hint)) + 4
	h := 3
	if hint != "" {
		h = 5
	}
	box := core.NewRect((dst.Width()-w)/2, (dst.Height()-h)/2, w, h)
	dst.DrawRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, core.ColorWhite)
	dst.DrawTextCentered(box.Y+1, title, core.ColorYellow)
	if hint != "" {
		dst.DrawTextCentered(box.Y+3, hint, core.ColorGray)
	}
}
