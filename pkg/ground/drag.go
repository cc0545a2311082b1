package ground

type DragPhase int

const (
	// DragArmed waits for the pointer to travel past the threshold
	DragArmed DragPhase = iota
	DragActive
)

type DragOutcome int

const (
	DragIgnored DragOutcome = iota
	DragDropped
	DragCancelled
)

func (o DragOutcome) String() string {
	switch o {
	case DragDropped:
		return "dropped"
	case DragCancelled:
		return "cancelled"
	default:
		return "ignored"
	}
}

type PointerEvent struct {
	ID   int
	X, Y float64
}

func (e PointerEvent) Point() Point {
	return Point{e.X, e.Y}
}

type DragSession struct {
	Phase     DragPhase
	PointerID int
	// Orig is empty for new pieces
	Orig  Key
	Piece Piece
	// Rel is where the pointer went down
	Rel Point
	// EPos is the latest pointer position
	EPos Point
	// Pos is the offset of the piece from its square
	Pos                Point
	PreviouslySelected Key
	// Selected is the board selection while the session runs
	Selected Key
	NewPiece bool
	Force    bool
}

// PointerDown starts a gesture. It reports whether the event was consumed.
func (g *Ground) PointerDown(ev PointerEvent) bool {
	g.Lock()
	defer g.unlock()

	return g.pointerDownL(ev)
}

func (g *Ground) pointerDownL(ev PointerEvent) bool {
	s := g.state
	if s.ViewOnly || g.bounds.Empty() {
		return false
	}
	if d := s.Drag(); d != nil {
		g.log.Debug().Int("pointer", ev.ID).Int("active", d.PointerID).Msg("ignoring pointer, drag in progress")
		return false
	}
	orig, ok := PixelToSquare(ev.X, ev.Y, s.Orientation, g.bounds)
	if !ok {
		return false
	}

	s.clearAnimation()
	piece, hasPiece := s.Pieces[orig]
	previouslySelected := s.Selected()
	hadPremove := s.Premovable.Current != nil
	hadPredrop := s.Predroppable.Current != nil

	if previouslySelected != "" && previouslySelected != orig &&
		(canMove(s, previouslySelected, orig) || canPremove(s, previouslySelected, orig)) {
		g.animL(func(s *State) { SelectSquare(s, orig) })
		return true
	}
	if previouslySelected != orig {
		SelectSquare(s, orig)
	}

	if hasPiece && isDraggable(s, orig) {
		d := &DragSession{
			Phase:              DragArmed,
			PointerID:          ev.ID,
			Orig:               orig,
			Piece:              piece,
			Rel:                ev.Point(),
			EPos:               ev.Point(),
			PreviouslySelected: previouslySelected,
		}
		if s.Draggable.AutoDistance && s.Stats.Dragged {
			d.Phase = DragActive
		}
		s.startDrag(d)
		g.log.Debug().Str("orig", string(orig)).Str("piece", piece.String()).Msg("drag armed")
	} else {
		if hadPremove {
			unsetPremove(s)
		}
		if hadPredrop {
			unsetPredrop(s)
		}
	}
	g.redrawL()
	return true
}

// DragNewPiece starts dragging a piece that is not on the board yet, such as
// a piece from a reserve. The drag is active from the start.
func (g *Ground) DragNewPiece(piece Piece, ev PointerEvent, force bool) bool {
	g.Lock()
	defer g.unlock()

	s := g.state
	if s.ViewOnly || g.bounds.Empty() || s.Drag() != nil {
		return false
	}
	Unselect(s)
	s.startDrag(&DragSession{
		Phase:     DragActive,
		PointerID: ev.ID,
		Piece:     piece,
		Rel:       ev.Point(),
		EPos:      ev.Point(),
		NewPiece:  true,
		Force:     force,
	})
	g.redrawL()
	return true
}

// PointerMove tracks the pointer of the active session.
func (g *Ground) PointerMove(ev PointerEvent) bool {
	g.Lock()
	defer g.unlock()

	d := g.state.Drag()
	if d == nil || d.PointerID != ev.ID {
		return false
	}
	d.EPos = ev.Point()
	if d.Phase == DragArmed {
		dist := g.state.Draggable.Distance
		if d.EPos.DistanceSq(d.Rel) < dist*dist {
			return true
		}
		d.Phase = DragActive
		g.log.Debug().Str("orig", string(d.Orig)).Msg("drag started")
	}
	d.Pos = Point{RoundBy(d.EPos.X - d.Rel.X), RoundBy(d.EPos.Y - d.Rel.Y)}
	g.redrawL()
	return true
}

// PointerUp ends the session and commits the move under the pointer.
func (g *Ground) PointerUp(ev PointerEvent) DragOutcome {
	g.Lock()
	defer g.unlock()

	s := g.state
	d := s.Drag()
	if d == nil || d.PointerID != ev.ID {
		return DragIgnored
	}

	unsetPremove(s)
	unsetPredrop(s)

	dest, onBoard := PixelToSquare(ev.X, ev.Y, s.Orientation, g.bounds)
	if onBoard && d.Phase == DragActive && d.Orig != dest {
		if d.NewPiece {
			dropNewPiece(s, d.Piece, dest, d.Force)
		} else if userMove(s, d.Orig, dest) {
			s.Stats.Dragged = true
		}
		g.log.Debug().Str("orig", string(d.Orig)).Str("dest", string(dest)).Msg("drag dropped")
	}
	if !d.NewPiece && d.Orig == d.PreviouslySelected && (d.Orig == dest || !onBoard) {
		Unselect(s)
	}
	s.endDrag()
	g.redrawL()
	return DragDropped
}

// PointerCancel discards the active session whatever its pointer.
func (g *Ground) PointerCancel() DragOutcome {
	g.Lock()
	defer g.unlock()

	return g.cancelDragL()
}

func (g *Ground) cancelDragL() DragOutcome {
	if g.state.endDrag() == nil {
		return DragIgnored
	}
	Unselect(g.state)
	g.redrawL()
	return DragCancelled
}
