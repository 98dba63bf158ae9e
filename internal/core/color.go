package core

// Color is the foreground color of a screen cell.
// The platform layer maps it to terminal colors.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorGray
	ColorOrange
)

// SideColor is the paddle color used for each side of the court.
func SideColor(s Side) Color {
	switch s {
	case SideLeft:
		return ColorCyan
	case SideRight:
		return ColorMagenta
	default:
		return ColorWhite
	}
}
