package ground

// Board mutators. Each takes the state it mutates and either applies the
// change or leaves the state untouched. Hooks are queued on the state.

func callUserMove(s *State, orig, dest Key, meta MoveMetadata) {
	if f := s.Events.UserMove; f != nil {
		s.emit(func() { f(orig, dest, meta) })
	}
}

func callChange(s *State) {
	if f := s.Events.Change; f != nil {
		s.emit(f)
	}
}

func ToggleOrientation(s *State) {
	s.Orientation = s.Orientation.Opposite()
	s.clearAnimation()
	s.endDrag()
	Unselect(s)
}

func Reset(s *State) {
	s.LastMove = nil
	Unselect(s)
	unsetPremove(s)
	unsetPredrop(s)
}

// SetPieces applies additions (non-nil) and removals (nil).
func SetPieces(s *State, diff PiecesDiff) {
	for k, p := range diff {
		if !k.Valid() {
			continue
		}
		if p != nil {
			s.Pieces[k] = *p
		} else {
			delete(s.Pieces, k)
		}
	}
}

// SetCheck marks the king of color as checked. ColorNone clears the marker.
func SetCheck(s *State, color Color) {
	s.Check = ""
	if color != White && color != Black {
		return
	}
	for k, p := range s.Pieces {
		if p.Role == King && p.Color == color {
			s.Check = k
			return
		}
	}
}

func setPremove(s *State, orig, dest Key) {
	unsetPredrop(s)
	s.Premovable.Current = &Premove{Orig: orig, Dest: dest}
	if f := s.Events.PremoveSet; f != nil {
		s.emit(func() { f(orig, dest) })
	}
}

func unsetPremove(s *State) {
	if s.Premovable.Current == nil {
		return
	}
	s.Premovable.Current = nil
	if f := s.Events.PremoveUnset; f != nil {
		s.emit(f)
	}
}

func setPredrop(s *State, role Role, key Key) {
	unsetPremove(s)
	s.Predroppable.Current = &Predrop{Role: role, Key: key}
	if f := s.Events.PredropSet; f != nil {
		s.emit(func() { f(role, key) })
	}
}

func unsetPredrop(s *State) {
	if s.Predroppable.Current == nil {
		return
	}
	s.Predroppable.Current = nil
	if f := s.Events.PredropUnset; f != nil {
		s.emit(f)
	}
}

// tryAutoCastle moves both king and rook when the king is moved two files
// along its back rank or onto one of its own rooks.
func tryAutoCastle(s *State, orig, dest Key) bool {
	if !s.AutoCastle {
		return false
	}
	king, ok := s.Pieces[orig]
	if !ok || king.Role != King {
		return false
	}
	from, to := orig.Pos(), dest.Pos()
	if (from.Rank != 0 && from.Rank != 7) || from.Rank != to.Rank {
		return false
	}
	if _, occupied := s.Pieces[dest]; from.File == 4 && !occupied {
		switch to.File {
		case 6:
			dest = KeyAt(7, to.Rank)
		case 2:
			dest = KeyAt(0, to.Rank)
		}
	}
	rook, ok := s.Pieces[dest]
	if !ok || rook.Color != king.Color || rook.Role != Rook {
		return false
	}

	delete(s.Pieces, orig)
	delete(s.Pieces, dest)
	if from.File < dest.Pos().File {
		s.Pieces[KeyAt(6, to.Rank)] = king
		s.Pieces[KeyAt(5, to.Rank)] = rook
	} else {
		s.Pieces[KeyAt(2, to.Rank)] = king
		s.Pieces[KeyAt(3, to.Rank)] = rook
	}
	return true
}

func baseMove(s *State, orig, dest Key) (*Piece, bool) {
	if orig == dest {
		return nil, false
	}
	origPiece, ok := s.Pieces[orig]
	if !ok {
		return nil, false
	}

	var captured *Piece
	if destPiece, ok := s.Pieces[dest]; ok && destPiece.Color != origPiece.Color {
		captured = &destPiece
	}
	if dest == s.Selected() {
		Unselect(s)
	}
	if f := s.Events.Move; f != nil {
		s.emit(func() { f(orig, dest, captured) })
	}
	if !tryAutoCastle(s, orig, dest) {
		s.Pieces[dest] = origPiece
		delete(s.Pieces, orig)
	}
	s.LastMove = &Move{Orig: orig, Dest: dest}
	s.Check = ""
	callChange(s)
	return captured, true
}

func placePiece(s *State, piece Piece, key Key) {
	s.Pieces[key] = piece
	s.LastMove = &Move{Dest: key}
	s.Check = ""
	callChange(s)
}

func baseNewPiece(s *State, piece Piece, key Key, force bool) bool {
	if _, occupied := s.Pieces[key]; occupied && !force {
		return false
	}
	if !key.Valid() {
		return false
	}
	placePiece(s, piece, key)
	s.Movable.Dests = nil
	s.TurnColor = s.TurnColor.Opposite()
	return true
}

func baseUserMove(s *State, orig, dest Key) (*Piece, bool) {
	captured, ok := baseMove(s, orig, dest)
	if ok {
		s.Movable.Dests = nil
		s.TurnColor = s.TurnColor.Opposite()
		s.clearAnimation()
	}
	return captured, ok
}

// APIMove relocates the piece on orig without checking legality. It fails
// when orig is empty or equals dest.
func APIMove(s *State, orig, dest Key) bool {
	if !orig.Valid() || !dest.Valid() {
		return false
	}
	if _, ok := baseMove(s, orig, dest); !ok {
		return false
	}
	Unselect(s)
	return true
}

// APINewPiece places piece on key, replacing any occupant.
func APINewPiece(s *State, piece Piece, key Key) bool {
	if !key.Valid() {
		return false
	}
	placePiece(s, piece, key)
	return true
}

// userMove applies a move made on the board. Moves that are not legal yet
// but fit the premove geometry are armed as premoves instead.
func userMove(s *State, orig, dest Key) bool {
	defer Unselect(s)

	if canMove(s, orig, dest) {
		captured, ok := baseUserMove(s, orig, dest)
		if ok {
			callUserMove(s, orig, dest, MoveMetadata{Captured: captured})
			return true
		}
	} else if canPremove(s, orig, dest) {
		setPremove(s, orig, dest)
		return true
	}
	return false
}

// dropNewPiece commits a piece dragged from outside the board.
func dropNewPiece(s *State, piece Piece, dest Key, force bool) bool {
	defer Unselect(s)

	if canDrop(s, piece, dest) || force {
		if baseNewPiece(s, piece, dest, force) {
			if f := s.Events.UserNewPiece; f != nil {
				s.emit(func() { f(piece, dest, MoveMetadata{}) })
			}
			return true
		}
	} else if canPredrop(s, piece, dest) {
		setPredrop(s, piece.Role, dest)
		return true
	}
	unsetPremove(s)
	unsetPredrop(s)
	return false
}

// SelectSquare arms key as origin, or when an origin is armed, tries to move
// it to key. Selecting the armed square again clears the selection.
func SelectSquare(s *State, key Key) {
	if f := s.Events.Select; f != nil {
		s.emit(func() { f(key) })
	}

	if selected := s.Selected(); selected != "" {
		if selected == key {
			Unselect(s)
			return
		}
		if userMove(s, selected, key) {
			s.Stats.Dragged = false
			return
		}
	}
	if (isMovable(s, key) && len(s.Movable.Dests[key]) > 0) || isPremovable(s, key) {
		setSelected(s, key)
	}
}

func setSelected(s *State, key Key) {
	s.select_(key)
	if isPremovable(s, key) {
		s.Premovable.Dests = PremoveDests(s.Pieces, key, s.Premovable.Castle)
	} else {
		s.Premovable.Dests = nil
	}
}

func Unselect(s *State) {
	s.select_("")
	s.Premovable.Dests = nil
}

func isMovable(s *State, orig Key) bool {
	piece, ok := s.Pieces[orig]
	if !ok {
		return false
	}
	return s.Movable.Color == Both ||
		(s.Movable.Color == piece.Color && s.TurnColor == piece.Color)
}

func canMove(s *State, orig, dest Key) bool {
	return orig != dest && isMovable(s, orig) && s.Movable.Dests.Contains(orig, dest)
}

func canDrop(s *State, piece Piece, dest Key) bool {
	if _, occupied := s.Pieces[dest]; occupied {
		return false
	}
	return s.Movable.Color == Both ||
		(s.Movable.Color == piece.Color && s.TurnColor == piece.Color)
}

func isPremovable(s *State, orig Key) bool {
	piece, ok := s.Pieces[orig]
	if !ok {
		return false
	}
	return s.Premovable.Enabled &&
		s.Movable.Color == piece.Color &&
		s.TurnColor != piece.Color
}

func canPremove(s *State, orig, dest Key) bool {
	if orig == dest || !isPremovable(s, orig) {
		return false
	}
	for _, k := range PremoveDests(s.Pieces, orig, s.Premovable.Castle) {
		if k == dest {
			return true
		}
	}
	return false
}

func canPredrop(s *State, piece Piece, dest Key) bool {
	if destPiece, ok := s.Pieces[dest]; ok && destPiece.Color == s.Movable.Color {
		return false
	}
	if piece.Role == Pawn && (dest.Rank() == '1' || dest.Rank() == '8') {
		return false
	}
	return s.Predroppable.Enabled &&
		s.Movable.Color == piece.Color &&
		s.TurnColor != piece.Color
}

func isDraggable(s *State, orig Key) bool {
	piece, ok := s.Pieces[orig]
	if !ok || !s.Draggable.Enabled {
		return false
	}
	return s.Movable.Color == Both ||
		(s.Movable.Color == piece.Color &&
			(s.TurnColor == piece.Color || s.Premovable.Enabled))
}

// PlayPremove executes the armed premove if it has become legal. The slot is
// cleared either way.
func PlayPremove(s *State) bool {
	pm := s.Premovable.Current
	if pm == nil {
		return false
	}

	played := false
	if canMove(s, pm.Orig, pm.Dest) {
		if captured, ok := baseUserMove(s, pm.Orig, pm.Dest); ok {
			callUserMove(s, pm.Orig, pm.Dest, MoveMetadata{Premove: true, Captured: captured})
			played = true
		}
	}
	unsetPremove(s)
	return played
}

// PlayPredrop executes the armed predrop when validate accepts it. The slot is
// cleared either way.
func PlayPredrop(s *State, validate func(Drop) bool) bool {
	pd := s.Predroppable.Current
	if pd == nil {
		return false
	}

	played := false
	drop := Drop{Role: pd.Role, Key: pd.Key}
	if validate != nil && validate(drop) {
		piece := Piece{Role: pd.Role, Color: s.Movable.Color}
		if baseNewPiece(s, piece, pd.Key, false) {
			if f := s.Events.UserNewPiece; f != nil {
				s.emit(func() { f(piece, drop.Key, MoveMetadata{Predrop: true}) })
			}
			played = true
		}
	}
	unsetPredrop(s)
	return played
}

func CancelMove(s *State) {
	unsetPremove(s)
	unsetPredrop(s)
	Unselect(s)
}

// Stop disables interaction: nothing is movable, and any pending drag,
// animation, selection, premove or predrop is dropped.
func Stop(s *State) {
	s.Movable.Color = ColorNone
	s.Movable.Dests = nil
	s.endDrag()
	s.clearAnimation()
	CancelMove(s)
}
