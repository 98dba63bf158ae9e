// Package registry is the catalog of match modes.
// Modes register themselves in init() functions, allowing the platform
// to list and start them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-pong/internal/clock"
	"github.com/vovakirdan/tui-pong/internal/config"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/render"
	"github.com/vovakirdan/tui-pong/internal/session"
)

// Env is what the host hands to a mode factory.
type Env struct {
	Config   config.Config
	Runtime  core.RuntimeConfig // screen size, tick rate, render fps and seed
	Encoder  render.Encoder
	Sink     render.Sink
	Recorder session.Recorder
	Logger   *log.Logger
	Clock    clock.Clock
}

// ModeInfo contains metadata about a registered mode.
type ModeInfo struct {
	ID      session.Mode
	Title   string
	Summary string
	Online  bool // needs the match authority
}

// Factory builds a ready-to-run session for one match.
type Factory func(env Env) (*session.Session, error)

type entry struct {
	info    ModeInfo
	factory Factory
}

var (
	modes = make(map[session.Mode]entry)
	mu    sync.RWMutex
)

// Register adds a mode to the registry.
// Typically called from an init() function.
// Panics if a mode with the same ID is already registered.
func Register(info ModeInfo, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := modes[info.ID]; exists {
		panic(fmt.Sprintf("registry: mode %q already registered", info.ID))
	}
	modes[info.ID] = entry{info: info, factory: f}
}

// List returns information about all registered modes, sorted by ID.
func List() []ModeInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ModeInfo, 0, len(modes))
	for _, e := range modes {
		result = append(result, e.info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Info returns the metadata of a mode.
func Info(id session.Mode) (ModeInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := modes[id]
	return e.info, ok
}

// Create builds a session for the mode id.
// Returns an error if the mode is not registered.
func Create(id session.Mode, env Env) (*session.Session, error) {
	mu.RLock()
	e, ok := modes[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown mode %q", id)
	}
	return e.factory(env)
}

// Exists checks if a mode with the given ID is registered.
func Exists(id session.Mode) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := modes[id]
	return ok
}
