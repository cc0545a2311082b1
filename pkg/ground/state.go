package ground

import (
	"time"
)

// Mode names the variant of Interaction currently held by the state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeSelecting
	ModeDragging
	ModeAnimating
)

func (m Mode) String() string {
	switch m {
	case ModeSelecting:
		return "selecting"
	case ModeDragging:
		return "dragging"
	case ModeAnimating:
		return "animating"
	default:
		return "idle"
	}
}

// Interaction is the board's pointer/animation mode. Exactly one variant is
// active at a time, so a selection, a drag and an animation can never drive
// the same piece at once.
type Interaction interface {
	Mode() Mode
}

type Idle struct{}

type Selecting struct {
	Key Key
}

// Dragging may carry a motion plan that started before or during the drag.
// Only the dragged piece ignores it.
type Dragging struct {
	Session   *DragSession
	Animation *Animation
}

// Animating carries the selection that was active when the animation
// started so it survives the animation.
type Animating struct {
	Animation *Animation
	Resume    Key
}

func (Idle) Mode() Mode      { return ModeIdle }
func (Selecting) Mode() Mode { return ModeSelecting }
func (Dragging) Mode() Mode  { return ModeDragging }
func (Animating) Mode() Mode { return ModeAnimating }

type Movable struct {
	Color Color
	// Dests is nil when moves are unknown
	Dests Dests
}

type Premovable struct {
	Enabled bool
	// Castle allows premoving the king onto castling squares
	Castle  bool
	Dests   []Key
	Current *Premove
}

type Predroppable struct {
	Enabled bool
	Current *Predrop
}

type Draggable struct {
	Enabled bool
	// Distance in pixels the pointer must travel before a drag starts
	Distance float64
	// AutoDistance starts dragging at once when the previous gesture was a drag
	AutoDistance bool
	ShowGhost    bool
}

type AnimationConfig struct {
	Enabled  bool
	Duration time.Duration
	// MaxSquares skips the animation of moves longer than this many king
	// steps. Zero disables the cap.
	MaxSquares int
}

type Exploding struct {
	Stage int
	Keys  []Key
}

type Stats struct {
	// Dragged is true when the last user move was made by dragging
	Dragged bool
}

// Events are invoked after the engine has finished the operation that
// triggered them, outside of the engine lock.
type Events struct {
	// Move is called for every piece move, user or api
	Move func(orig, dest Key, captured *Piece)
	// UserMove is called when the user makes a move on the board
	UserMove func(orig, dest Key, meta MoveMetadata)
	// UserNewPiece is called when the user drops a new piece
	UserNewPiece func(piece Piece, key Key, meta MoveMetadata)
	Select       func(key Key)
	Change       func()
	PremoveSet   func(orig, dest Key)
	PremoveUnset func()
	PredropSet   func(role Role, key Key)
	PredropUnset func()
}

// State is the single source of truth of one board. It is owned by exactly
// one Ground and mutated in place.
type State struct {
	Pieces      Pieces
	Orientation Color
	TurnColor   Color
	Check       Key
	LastMove    *Move
	Coordinates CoordsMode
	ViewOnly    bool
	// Fixed boards never read their bounds
	Fixed      bool
	AutoCastle bool
	// Path identifies the ply currently shown
	Path string

	Movable      Movable
	Premovable   Premovable
	Predroppable Predroppable
	Draggable    Draggable
	Animation    AnimationConfig
	Exploding    *Exploding
	Stats        Stats
	Events       Events

	interaction Interaction
	queue       []func()
}

func NewState() *State {
	return &State{
		Pieces:      make(Pieces),
		Orientation: White,
		TurnColor:   White,
		Coordinates: CoordsStandard,
		AutoCastle:  true,
		Movable:     Movable{Color: Both},
		Premovable:  Premovable{Enabled: true, Castle: true},
		Draggable: Draggable{
			Enabled:      true,
			Distance:     3,
			AutoDistance: true,
			ShowGhost:    true,
		},
		Animation: AnimationConfig{
			Enabled:  true,
			Duration: 200 * time.Millisecond,
		},
		interaction: Idle{},
	}
}

func (s *State) Interaction() Interaction {
	if s.interaction == nil {
		return Idle{}
	}
	return s.interaction
}

func (s *State) Mode() Mode {
	return s.Interaction().Mode()
}

// Selected returns the armed origin square, or "".
func (s *State) Selected() Key {
	switch i := s.Interaction().(type) {
	case Selecting:
		return i.Key
	case Dragging:
		return i.Session.Selected
	case Animating:
		return i.Resume
	}
	return ""
}

// Drag returns the active drag session, if any.
func (s *State) Drag() *DragSession {
	if d, ok := s.Interaction().(Dragging); ok {
		return d.Session
	}
	return nil
}

// CurrentAnimation returns the in-flight motion plan, if any.
func (s *State) CurrentAnimation() *Animation {
	switch i := s.Interaction().(type) {
	case Animating:
		return i.Animation
	case Dragging:
		return i.Animation
	}
	return nil
}

func (s *State) select_(key Key) {
	switch i := s.Interaction().(type) {
	case Dragging:
		i.Session.Selected = key
	case Animating:
		s.interaction = Animating{Animation: i.Animation, Resume: key}
	default:
		if key == "" {
			s.interaction = Idle{}
		} else {
			s.interaction = Selecting{Key: key}
		}
	}
}

func (s *State) startAnimation(a *Animation) {
	switch i := s.Interaction().(type) {
	case Dragging:
		s.interaction = Dragging{Session: i.Session, Animation: a}
	case Animating:
		s.interaction = Animating{Animation: a, Resume: i.Resume}
	default:
		s.interaction = Animating{Animation: a, Resume: s.Selected()}
	}
}

func (s *State) clearAnimation() {
	switch i := s.Interaction().(type) {
	case Animating:
		s.interaction = Idle{}
		s.select_(i.Resume)
	case Dragging:
		s.interaction = Dragging{Session: i.Session}
	}
}

// startDrag keeps a plan in flight running around the dragged piece.
func (s *State) startDrag(d *DragSession) {
	a := s.CurrentAnimation()
	d.Selected = s.Selected()
	s.interaction = Dragging{Session: d, Animation: a}
}

// endDrag hands a plan still in flight back to Animating.
func (s *State) endDrag() *DragSession {
	i, ok := s.Interaction().(Dragging)
	if !ok {
		return nil
	}
	if i.Animation != nil {
		s.interaction = Animating{Animation: i.Animation}
	} else {
		s.interaction = Idle{}
	}
	s.select_(i.Session.Selected)
	return i.Session
}

// emit queues a hook call. Hooks run when the queue is drained.
func (s *State) emit(f func()) {
	s.queue = append(s.queue, f)
}

// Drain returns and clears the queued hook calls.
func (s *State) Drain() []func() {
	q := s.queue
	s.queue = nil
	return q
}

// Flush runs the queued hook calls. Used when driving a State without a Ground.
func (s *State) Flush() {
	for _, f := range s.Drain() {
		f()
	}
}
