package core

// Direction is the tri-state paddle signal: -1 moves up, +1 moves down, 0 holds.
type Direction int

const (
	DirUp   Direction = -1
	DirNone Direction = 0
	DirDown Direction = 1
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "Up"
	case DirDown:
		return "Down"
	case DirNone:
		return "None"
	default:
		return "Invalid"
	}
}

// Valid reports whether d is one of the three legal signals.
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirDown
}

// Side identifies one half of the court.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

// String returns a human-readable name for the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	default:
		return "None"
	}
}

// Opponent returns the other side. SideNone maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

// Index maps a side to a 0/1 array slot. SideNone returns -1.
func (s Side) Index() int {
	switch s {
	case SideLeft:
		return 0
	case SideRight:
		return 1
	default:
		return -1
	}
}

// Action represents a semantic UI action, abstracted from physical key presses.
// Paddle motion does not go through actions; see Direction.
type Action int

const (
	ActionNone    Action = iota
	ActionConfirm        // Enter - confirm selection in menu
	ActionBack           // B, Escape - go back to menu
	ActionRestart        // R key - restart after the match is over
	ActionQuit           // Q, Ctrl+C - exit
	ActionForfeit        // F key - leave an online match, conceding it
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	case ActionForfeit:
		return "Forfeit"
	default:
		return "Unknown"
	}
}
