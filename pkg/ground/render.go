package ground

import (
	"fmt"
)

// PieceView is one piece as it must appear on screen.
type PieceView struct {
	// Key is the settled square, empty for pieces dragged in from outside
	Key   Key
	Piece Piece
	// Pos is the absolute top-left corner, offsets included
	Pos Point
	// Offset is the translation from the settled square
	Offset   Point
	Anim     bool
	Dragging bool
	Fading   bool
	// Ghost marks the faded copy left on the origin of a dragged piece
	Ghost bool
}

func (v PieceView) Transform() string {
	return fmt.Sprintf("translate(%gpx,%gpx)", v.Pos.X, v.Pos.Y)
}

// Square highlight classes.
const (
	ClassLastMove       = "last-move"
	ClassSelected       = "selected"
	ClassCheck          = "check"
	ClassMoveDest       = "move-dest"
	ClassPremoveDest    = "premove-dest"
	ClassCurrentPremove = "current-premove"
	ClassOccupied       = "oc"
	ClassDragOver       = "drag-over"
)

type SquareView struct {
	Key     Key
	Pos     Point
	Classes []string
}

func (v SquareView) Has(class string) bool {
	for _, c := range v.Classes {
		if c == class {
			return true
		}
	}
	return false
}

func (v SquareView) Transform() string {
	return fmt.Sprintf("translate(%gpx,%gpx)", v.Pos.X, v.Pos.Y)
}

// Frame is everything a display layer needs to draw one board.
type Frame struct {
	Bounds      Bounds
	Orientation Color
	Mode        Mode
	Pieces      []PieceView
	// Squares holds highlighted squares only
	Squares []SquareView
	Coords  Coords
	// DragOver is the square under a dragged piece
	DragOver Key
}

// Square returns the highlight layers of key.
func (f Frame) Square(key Key) (SquareView, bool) {
	for _, sq := range f.Squares {
		if sq.Key == key {
			return sq, true
		}
	}
	return SquareView{}, false
}

// Piece returns the settled, non ghost view of the piece on key.
func (f Frame) Piece(key Key) (PieceView, bool) {
	for _, p := range f.Pieces {
		if p.Key == key && !p.Ghost && !p.Fading {
			return p, true
		}
	}
	return PieceView{}, false
}

// screenKeys lists squares from the top-left corner of the screen, row by row.
func screenKeys(orientation Color) []Key {
	keys := make([]Key, 0, 64)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if orientation == Black {
				keys = append(keys, KeyAt(7-col, row))
			} else {
				keys = append(keys, KeyAt(col, 7-row))
			}
		}
	}
	return keys
}

func squareClasses(s *State) map[Key][]string {
	classes := make(map[Key][]string)
	add := func(k Key, c string) {
		if k != "" {
			classes[k] = append(classes[k], c)
		}
	}

	if s.LastMove != nil {
		for _, k := range s.LastMove.Keys() {
			add(k, ClassLastMove)
		}
	}
	if s.Check != "" {
		add(s.Check, ClassCheck)
	}
	if sel := s.Selected(); sel != "" {
		add(sel, ClassSelected)
		for _, k := range s.Movable.Dests[sel] {
			if isMovable(s, sel) {
				add(k, ClassMoveDest)
				if _, ok := s.Pieces[k]; ok {
					add(k, ClassOccupied)
				}
			}
		}
		for _, k := range s.Premovable.Dests {
			add(k, ClassPremoveDest)
			if _, ok := s.Pieces[k]; ok {
				add(k, ClassOccupied)
			}
		}
	}
	if pm := s.Premovable.Current; pm != nil {
		add(pm.Orig, ClassCurrentPremove)
		add(pm.Dest, ClassCurrentPremove)
	}
	if pd := s.Predroppable.Current; pd != nil {
		add(pd.Key, ClassCurrentPremove)
	}
	if e := s.Exploding; e != nil {
		for _, k := range e.Keys {
			add(k, fmt.Sprintf("exploding%d", e.Stage))
		}
	}
	return classes
}

// Render computes the frame of s drawn inside b.
func Render(s *State, b Bounds) Frame {
	f := Frame{
		Bounds:      b,
		Orientation: s.Orientation,
		Mode:        s.Mode(),
		Coords:      CoordLabels(s.Orientation, s.Coordinates),
	}
	if b.Empty() {
		return f
	}

	var plan Plan
	if a := s.CurrentAnimation(); a != nil {
		plan = a.Plan
	}
	drag := s.Drag()
	if drag != nil && drag.Phase == DragActive {
		if k, ok := PixelToSquare(drag.EPos.X, drag.EPos.Y, s.Orientation, b); ok {
			f.DragOver = k
		}
	}

	classes := squareClasses(s)
	if f.DragOver != "" {
		classes[f.DragOver] = append(classes[f.DragOver], ClassDragOver)
	}

	var dragged *PieceView
	sliding := make(map[Key]PieceView, len(plan.Anims))
	for _, k := range screenKeys(s.Orientation) {
		pos := SquareToPixel(k, s.Orientation, b)
		if c, ok := classes[k]; ok {
			f.Squares = append(f.Squares, SquareView{Key: k, Pos: pos, Classes: c})
		}
		if fading, ok := plan.Fadings[k]; ok {
			f.Pieces = append(f.Pieces, PieceView{Key: k, Piece: fading, Pos: pos, Fading: true})
		}

		piece, ok := s.Pieces[k]
		if !ok {
			continue
		}
		v := PieceView{Key: k, Piece: piece, Pos: pos}
		if vec, ok := plan.Anims[k]; ok {
			v.Anim = true
			v.Offset = vec.Current
		}
		if drag != nil && !drag.NewPiece && drag.Orig == k && drag.Phase == DragActive {
			if s.Draggable.ShowGhost {
				f.Pieces = append(f.Pieces, PieceView{Key: k, Piece: piece, Pos: pos, Ghost: true})
			}
			v.Dragging = true
			v.Offset = drag.Pos
			dragged = &v
			continue
		}
		v.Pos = Point{RoundBy(pos.X + v.Offset.X), RoundBy(pos.Y + v.Offset.Y)}
		if v.Anim {
			sliding[k] = v
			continue
		}
		f.Pieces = append(f.Pieces, v)
	}
	for _, k := range plan.AnimatedKeys() {
		if v, ok := sliding[k]; ok {
			f.Pieces = append(f.Pieces, v)
		}
	}

	if drag != nil && drag.NewPiece && drag.Phase == DragActive {
		w, h := b.SquareSize()
		dragged = &PieceView{
			Piece:    drag.Piece,
			Pos:      Point{RoundBy(drag.EPos.X - w/2), RoundBy(drag.EPos.Y - h/2)},
			Dragging: true,
		}
	} else if dragged != nil {
		dragged.Pos = Point{RoundBy(dragged.Pos.X + dragged.Offset.X), RoundBy(dragged.Pos.Y + dragged.Offset.Y)}
	}
	// dragged piece is drawn last, above everything
	if dragged != nil {
		f.Pieces = append(f.Pieces, *dragged)
	}
	return f
}
