// Package input turns key events into per-side paddle directions.
//
// Terminals report key presses and auto-repeats but never releases, so a
// Capture also synthesizes a release for any key that has not repeated within
// the hold window.
package input

import (
	"sync"
	"time"

	"github.com/vovakirdan/tui-pong/internal/core"
)

// DefaultHold is how long a key counts as held after its last press or repeat.
const DefaultHold = 150 * time.Millisecond

// Key is what a bound key does: push one side's paddle one way.
type Key struct {
	Side core.Side
	Dir  core.Direction
}

// Bindings maps key names, as Bubble Tea reports them, to paddle keys.
type Bindings map[string]Key

// DefaultBindings are the two-player bindings: w/z and s for the left paddle,
// the arrow keys for the right one.
func DefaultBindings() Bindings {
	return Bindings{
		"w":    {Side: core.SideLeft, Dir: core.DirUp},
		"z":    {Side: core.SideLeft, Dir: core.DirUp},
		"s":    {Side: core.SideLeft, Dir: core.DirDown},
		"up":   {Side: core.SideRight, Dir: core.DirUp},
		"down": {Side: core.SideRight, Dir: core.DirDown},
	}
}

// SingleSide binds every default key to one side, for matches with a
// single human player.
func SingleSide(side core.Side) Bindings {
	b := DefaultBindings()
	for k, v := range b {
		v.Side = side
		b[k] = v
	}
	return b
}

// Listener is told about every change of a side's direction.
type Listener func(side core.Side, dir core.Direction)

// Capture tracks the held direction of each side. It is safe for concurrent use.
type Capture struct {
	mu        sync.Mutex
	bindings  Bindings
	hold      time.Duration
	dirs      [2]core.Direction
	lastSeen  map[string]time.Time
	listeners map[int]Listener
	nextID    int
	detached  bool
}

// NewCapture creates a Capture. A hold of zero or less uses DefaultHold.
func NewCapture(b Bindings, hold time.Duration) *Capture {
	if b == nil {
		b = DefaultBindings()
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Capture{
		bindings:  b,
		hold:      hold,
		lastSeen:  make(map[string]time.Time),
		listeners: make(map[int]Listener),
	}
}

// Handles reports whether key is bound to a paddle.
func (c *Capture) Handles(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bindings[key]
	return ok
}

// KeyDown records a press or auto-repeat of key at now.
// It reports whether the key is bound.
func (c *Capture) KeyDown(key string, now time.Time) bool {
	c.mu.Lock()
	k, ok := c.bindings[key]
	if !ok || c.detached {
		c.mu.Unlock()
		return ok
	}
	c.lastSeen[key] = now
	notify := c.setLocked(k.Side, k.Dir)
	c.mu.Unlock()

	notify()
	return true
}

// KeyUp releases key. Releasing either key of a side resets that side to
// DirNone, even if its other key is still down.
func (c *Capture) KeyUp(key string) {
	c.mu.Lock()
	k, ok := c.bindings[key]
	if !ok || c.detached {
		c.mu.Unlock()
		return
	}
	delete(c.lastSeen, key)
	notify := c.setLocked(k.Side, core.DirNone)
	c.mu.Unlock()

	notify()
}

// Expire releases every key not pressed or repeated within the hold window.
func (c *Capture) Expire(now time.Time) {
	c.mu.Lock()
	var stale []string
	for key, seen := range c.lastSeen {
		if now.Sub(seen) >= c.hold {
			stale = append(stale, key)
		}
	}
	c.mu.Unlock()

	for _, key := range stale {
		c.KeyUp(key)
	}
}

// Direction returns the current direction of side.
func (c *Capture) Direction(side core.Side) core.Direction {
	i := side.Index()
	if i < 0 {
		return core.DirNone
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirs[i]
}

// Subscribe registers fn for direction changes and returns a function that
// removes it.
func (c *Capture) Subscribe(fn Listener) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Detach drops all listeners and makes the Capture ignore further key events.
// Both sides return to DirNone.
func (c *Capture) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	c.dirs = [2]core.Direction{}
	clear(c.lastSeen)
	clear(c.listeners)
}

// setLocked stores dir for side and returns the notification to run once the
// lock is released.
func (c *Capture) setLocked(side core.Side, dir core.Direction) func() {
	i := side.Index()
	if i < 0 || c.dirs[i] == dir {
		return func() {}
	}
	c.dirs[i] = dir
	fns := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(side, dir)
		}
	}
}
