package core

// RuntimeConfig contains the host parameters a match is started with.
type RuntimeConfig struct {
	ScreenW   int   // Screen width in characters
	ScreenH   int   // Screen height in characters
	TickRate  int   // Simulation ticks per second (default 60)
	RenderFPS int   // Frames painted per second, independent of TickRate
	Seed      int64 // RNG seed for deterministic play
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:   80,
		ScreenH:   24,
		TickRate:  60,
		RenderFPS: 30,
		Seed:      0, // 0 means use current time in platform layer
	}
}

// Normalize fills zero fields with defaults.
func (c RuntimeConfig) Normalize() RuntimeConfig {
	def := DefaultConfig()
	if c.ScreenW <= 0 {
		c.ScreenW = def.ScreenW
	}
	if c.ScreenH <= 0 {
		c.ScreenH = def.ScreenH
	}
	if c.TickRate <= 0 {
		c.TickRate = def.TickRate
	}
	if c.RenderFPS <= 0 {
		c.RenderFPS = def.RenderFPS
	}
	return c
}
