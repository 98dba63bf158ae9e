package pong

// Court holds the fixed geometry of a match in court units.
// Paddles are inset from the side walls; the ball is a square.
type Court struct {
	Width        float64
	Height       float64
	PaddleWidth  float64
	PaddleHeight float64
	PaddleInset  float64
	BallSize     float64
}

// LocalCourt is the geometry used by local and bot matches.
func LocalCourt() Court {
	return Court{
		Width:        800,
		Height:       600,
		PaddleWidth:  20,
		PaddleHeight: 90,
		PaddleInset:  10,
		BallSize:     15,
	}
}

// ServerCourt is the geometry the remote match authority simulates.
func ServerCourt() Court {
	c := LocalCourt()
	c.Height = 550
	return c
}

// DemoCourt is the geometry of the attract-mode demo.
func DemoCourt() Court {
	c := LocalCourt()
	c.PaddleHeight = 100
	return c
}

// LeftPaddleX returns the x of the left paddle's top-left corner.
func (c Court) LeftPaddleX() float64 {
	return c.PaddleInset
}

// RightPaddleX returns the x of the right paddle's top-left corner.
func (c Court) RightPaddleX() float64 {
	return c.Width - c.PaddleInset - c.PaddleWidth
}

// CenteredPaddleY is the paddle y that centres it vertically.
func (c Court) CenteredPaddleY() float64 {
	return (c.Height - c.PaddleHeight) / 2
}

// MaxPaddleY is the largest legal paddle y.
func (c Court) MaxPaddleY() float64 {
	return max(c.Height-c.PaddleHeight, 0)
}

// Settings configures an Engine. Speeds are in court units per second.
type Settings struct {
	Court       Court
	PaddleSpeed float64
	ServeSpeed  float64 // ball speed right after a serve
	HitSpeed    float64 // ball speed after the first paddle contact
	RallyBoost  float64 // added to HitSpeed per contact in the rally
	FlatServe   bool    // no vertical motion until the first contact
	WinScore    int     // 0 plays forever
	FirstServe  int     // +1 serves right, -1 serves left, 0 picks at random
}

// LocalSettings returns the two-player settings: first to 10.
func LocalSettings() Settings {
	return Settings{
		Court:       LocalCourt(),
		PaddleSpeed: 420,
		ServeSpeed:  180,
		HitSpeed:    240,
		RallyBoost:  18,
		FlatServe:   true,
		WinScore:    10,
	}
}

// BotSettings returns the settings for a match against the bot: first to 3.
func BotSettings() Settings {
	s := LocalSettings()
	s.WinScore = 3
	return s
}

// DemoSettings returns the settings of the endless demo rally.
func DemoSettings() Settings {
	return Settings{
		Court:       DemoCourt(),
		PaddleSpeed: 420,
		ServeSpeed:  240,
		HitSpeed:    240,
		RallyBoost:  0,
		FlatServe:   false,
		WinScore:    0,
	}
}

// Normalize fills zero fields with the local defaults.
func (s Settings) Normalize() Settings {
	def := LocalSettings()
	if s.Court.Width <= 0 || s.Court.Height <= 0 {
		s.Court = def.Court
	}
	if s.PaddleSpeed <= 0 {
		s.PaddleSpeed = def.PaddleSpeed
	}
	if s.ServeSpeed <= 0 {
		s.ServeSpeed = def.ServeSpeed
	}
	if s.HitSpeed <= 0 {
		s.HitSpeed = def.HitSpeed
	}
	if s.WinScore < 0 {
		s.WinScore = 0
	}
	return s
}
