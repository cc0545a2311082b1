package ground

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	ResizeDelay  = 100 * time.Millisecond
	ExplodeDelay = 120 * time.Millisecond
)

// Ground owns one board: its state, its geometry and its timers. Input
// events, animation frames and oracle callbacks all go through its lock.
type Ground struct {
	state    *State
	bounds   Bounds
	attached bool

	sched         Scheduler
	frameInterval time.Duration
	framePending  bool
	resize        *Deferred
	explode       *Deferred
	redraws       chan struct{}
	log           zerolog.Logger

	sync.Mutex
}

// New builds a detached board. An unparsable FEN leaves the board empty.
func New(cfg Config) *Ground {
	sched := cfg.Scheduler
	if sched == nil {
		sched = RealScheduler
	}
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = time.Second / 60
	}

	g := &Ground{
		state:         NewState(),
		sched:         sched,
		frameInterval: interval,
		resize:        NewDeferred(sched),
		explode:       NewDeferred(sched),
		redraws:       make(chan struct{}, 1),
		log:           cfg.Logger,
	}
	if err := Configure(g.state, cfg); err != nil {
		g.log.Warn().Err(err).Msg("invalid initial placement")
		g.state.Pieces = make(Pieces)
	}
	g.state.Drain()
	return g
}

// unlock releases the board and runs the hooks queued while it was held.
func (g *Ground) unlock() {
	q := g.state.Drain()
	g.Unlock()

	for _, f := range q {
		f()
	}
}

// Redraws delivers a notification whenever the frame changed. Notifications
// are coalesced: a slow reader sees one pending signal.
func (g *Ground) Redraws() <-chan struct{} {
	return g.redraws
}

func (g *Ground) redrawL() {
	select {
	case g.redraws <- struct{}{}:
	default:
	}
}

// Attach binds the board to a drawing area and enables pointer input.
func (g *Ground) Attach(b Bounds) {
	g.Lock()
	defer g.unlock()

	g.attached = true
	g.bounds = b
	g.log.Debug().Float64("width", b.Width).Float64("height", b.Height).Msg("attached")
	g.redrawL()
}

// Detach cancels every pending timer. The state is kept.
func (g *Ground) Detach() {
	g.resize.Cancel()
	g.explode.Cancel()

	g.Lock()
	defer g.unlock()

	g.attached = false
	g.cancelDragL()
	g.state.clearAnimation()
	g.state.Exploding = nil
	g.bounds = Bounds{}
}

func (g *Ground) SetBounds(b Bounds) {
	g.Lock()
	defer g.unlock()

	if g.state.Fixed && !g.bounds.Empty() {
		return
	}
	g.bounds = b
	g.redrawL()
}

func (g *Ground) Bounds() Bounds {
	g.Lock()
	defer g.Unlock()

	return g.bounds
}

// OnResize applies new bounds once resizing settles. Each call replaces the
// pending one.
func (g *Ground) OnResize(b Bounds) {
	g.resize.Schedule(ResizeDelay, func() {
		g.SetBounds(b)
	})
}

// View runs fn with the state locked. fn must not keep the state.
func (g *Ground) View(fn func(s *State)) {
	g.Lock()
	defer g.Unlock()

	fn(g.state)
}

func (g *Ground) Selected() Key {
	g.Lock()
	defer g.Unlock()

	return g.state.Selected()
}

func (g *Ground) Mode() Mode {
	g.Lock()
	defer g.Unlock()

	return g.state.Mode()
}

func (g *Ground) Pieces() Pieces {
	g.Lock()
	defer g.Unlock()

	return g.state.Pieces.Clone()
}

func (g *Ground) Path() string {
	g.Lock()
	defer g.Unlock()

	return g.state.Path
}

func (g *Ground) FEN() string {
	g.Lock()
	defer g.Unlock()

	return WriteFEN(g.state.Pieces)
}

func (g *Ground) MaterialDiff() Material {
	g.Lock()
	defer g.Unlock()

	return MaterialDiff(g.state.Pieces)
}

// Frame renders the current state.
func (g *Ground) Frame() Frame {
	g.Lock()
	defer g.Unlock()

	return Render(g.state, g.bounds)
}

// animL runs mutation and, when pieces moved, starts a motion plan that
// replaces any plan in flight.
func (g *Ground) animL(mutation func(s *State)) {
	s := g.state
	if !s.Animation.Enabled || !g.attached {
		g.skipL(mutation)
		return
	}

	prev := s.Pieces.Clone()
	s.clearAnimation()
	mutation(s)

	plan := ComputePlan(prev, s.Pieces, s.Orientation, g.bounds, s.Animation.MaxSquares)
	if !plan.Empty() {
		s.startAnimation(&Animation{Duration: s.Animation.Duration, Plan: plan})
		g.log.Debug().Int("anims", len(plan.Anims)).Int("fadings", len(plan.Fadings)).Msg("animation started")
		g.requestFrameL()
	}
	g.redrawL()
}

func (g *Ground) skipL(mutation func(s *State)) {
	g.state.clearAnimation()
	mutation(g.state)
	g.redrawL()
}

func (g *Ground) requestFrameL() {
	if g.framePending {
		return
	}
	g.framePending = true
	g.sched.AfterFunc(g.frameInterval, func() {
		g.frame(g.sched.Now())
	})
}

// frame advances the animation. A frame finding no animation only redraws:
// the plan was replaced or cancelled since the frame was requested.
func (g *Ground) frame(now time.Time) {
	g.Lock()
	defer g.unlock()

	g.framePending = false
	a := g.state.CurrentAnimation()
	if a == nil {
		g.redrawL()
		return
	}
	if a.Step(now) {
		g.requestFrameL()
	} else {
		g.state.clearAnimation()
	}
	g.redrawL()
}

// Set applies a per-ply update and animates the placement change.
func (g *Ground) Set(cfg SetConfig) error {
	g.Lock()
	defer g.unlock()

	var err error
	g.animL(func(s *State) { err = SetNewBoardState(s, cfg) })
	if err != nil {
		g.log.Warn().Err(err).Msg("set rejected")
	}
	return err
}

// Reconfigure replaces the whole construction config.
func (g *Ground) Reconfigure(cfg Config) error {
	g.Lock()
	defer g.unlock()

	var err error
	g.animL(func(s *State) { err = Configure(s, cfg) })
	return err
}

func (g *Ground) ToggleOrientation() {
	g.Lock()
	defer g.unlock()

	g.skipL(ToggleOrientation)
}

func (g *Ground) SetPieces(diff PiecesDiff) {
	g.Lock()
	defer g.unlock()

	g.skipL(func(s *State) { SetPieces(s, diff) })
}

func (g *Ground) SelectSquare(key Key) {
	g.Lock()
	defer g.unlock()

	if g.state.Drag() != nil {
		return
	}
	g.animL(func(s *State) { SelectSquare(s, key) })
}

// APIMove moves a piece as instructed by the caller, then applies diff and
// cfg in the same animated step.
func (g *Ground) APIMove(orig, dest Key, diff PiecesDiff, cfg *SetConfig) bool {
	g.Lock()
	defer g.unlock()

	var ok bool
	g.animL(func(s *State) {
		ok = APIMove(s, orig, dest)
		if !ok {
			return
		}
		if diff != nil {
			SetPieces(s, diff)
		}
		if cfg != nil {
			if err := SetNewBoardState(s, *cfg); err != nil {
				g.log.Warn().Err(err).Msg("api move update rejected")
			}
		}
	})
	return ok
}

func (g *Ground) APINewPiece(piece Piece, key Key) bool {
	g.Lock()
	defer g.unlock()

	var ok bool
	g.animL(func(s *State) { ok = APINewPiece(s, piece, key) })
	return ok
}

func (g *Ground) PlayPremove() bool {
	g.Lock()
	defer g.unlock()

	pm := g.state.Premovable.Current
	if pm == nil {
		return false
	}
	var ok bool
	g.animL(func(s *State) { ok = PlayPremove(s) })
	g.log.Debug().Str("orig", string(pm.Orig)).Str("dest", string(pm.Dest)).Bool("played", ok).Msg("premove")
	return ok
}

func (g *Ground) PlayPredrop(validate func(Drop) bool) bool {
	g.Lock()
	defer g.unlock()

	if g.state.Predroppable.Current == nil {
		return false
	}
	var ok bool
	g.animL(func(s *State) { ok = PlayPredrop(s, validate) })
	return ok
}

func (g *Ground) CancelPremove() {
	g.Lock()
	defer g.unlock()

	g.skipL(unsetPremove)
}

func (g *Ground) CancelPredrop() {
	g.Lock()
	defer g.unlock()

	g.skipL(unsetPredrop)
}

// SetCheck marks the king of color. ColorNone clears the marker.
func (g *Ground) SetCheck(color Color) {
	g.Lock()
	defer g.unlock()

	g.skipL(func(s *State) { SetCheck(s, color) })
}

func (g *Ground) CancelMove() {
	g.Lock()
	defer g.unlock()

	g.cancelDragL()
	g.skipL(CancelMove)
}

// Stop ends interaction in one step: drag, animation, selection, premove and
// predrop are all dropped and nothing stays movable.
func (g *Ground) Stop() {
	g.Lock()
	defer g.unlock()

	g.skipL(Stop)
	g.log.Info().Msg("board stopped")
}

// Explode flashes keys through two stages, then clears them.
func (g *Ground) Explode(keys []Key) {
	g.Lock()
	defer g.unlock()

	if !g.attached {
		return
	}
	g.state.Exploding = &Exploding{Stage: 1, Keys: keys}
	g.redrawL()
	g.explode.Schedule(ExplodeDelay, func() {
		g.Lock()
		defer g.unlock()

		if g.state.Exploding != nil {
			g.state.Exploding.Stage = 2
			g.redrawL()
		}
		g.explode.Schedule(ExplodeDelay, func() {
			g.Lock()
			defer g.unlock()

			g.state.Exploding = nil
			g.redrawL()
		})
	})
}
