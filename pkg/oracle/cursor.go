package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qnkhuat/termground/pkg/ground"
)

const FetchDelay = 50 * time.Millisecond

// Cursor remembers which ply the board shows and every situation received so
// far. Answers for other plies are kept but never reach the board.
type Cursor struct {
	path  string
	store map[string]Situation
	fetch *ground.Deferred
	log   zerolog.Logger

	sync.Mutex
}

func NewCursor(sched ground.Scheduler, log zerolog.Logger) *Cursor {
	return &Cursor{
		store: make(map[string]Situation),
		fetch: ground.NewDeferred(sched),
		log:   log,
	}
}

func (c *Cursor) Path() string {
	c.Lock()
	defer c.Unlock()

	return c.path
}

// Jump moves the cursor to path.
func (c *Cursor) Jump(path string) {
	c.Lock()
	defer c.Unlock()

	c.path = path
}

// Current tells whether path is the ply on display.
func (c *Cursor) Current(path string) bool {
	c.Lock()
	defer c.Unlock()

	return c.path == path
}

// Store records sit and reports whether it belongs to the current ply.
func (c *Cursor) Store(sit Situation) bool {
	c.Lock()
	defer c.Unlock()

	c.store[sit.Path] = sit
	current := sit.Path == c.path
	if !current {
		c.log.Warn().Str("path", sit.Path).Str("current", c.path).Msg("stale situation stored")
	}
	return current
}

func (c *Cursor) Get(path string) (Situation, bool) {
	c.Lock()
	defer c.Unlock()

	sit, ok := c.store[path]
	return sit, ok
}

// Apply stores sit and calls view only when sit is for the current ply.
// It returns ErrStalePath otherwise.
func (c *Cursor) Apply(sit Situation, view func(Situation)) error {
	if !c.Store(sit) {
		return ErrStalePath
	}
	if view != nil {
		view(sit)
	}
	return nil
}

// Fetch asks o for the situation of fen at path after a short delay. A newer
// Fetch replaces a pending one. The answer is always stored; view only runs if
// the cursor still points at path.
func (c *Cursor) Fetch(ctx context.Context, o Oracle, fen, path string, view func(Situation)) {
	if sit, ok := c.Get(path); ok {
		c.Apply(sit, view)
		return
	}
	c.fetch.Schedule(FetchDelay, func() {
		sit, err := o.Situation(ctx, fen, path)
		if err != nil {
			c.log.Error().Err(err).Str("path", path).Msg("fetch situation")
			return
		}
		c.Apply(sit, view)
	})
}

// Reset forgets every stored situation, for a new game.
func (c *Cursor) Reset() {
	c.fetch.Cancel()

	c.Lock()
	defer c.Unlock()

	c.path = ""
	c.store = make(map[string]Situation)
}

func (c *Cursor) Cancel() {
	c.fetch.Cancel()
}
