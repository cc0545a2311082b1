package ground

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, fen string) *State {
	t.Helper()

	s := NewState()
	pieces, err := ReadFEN(fen)
	require.NoError(t, err)
	s.Pieces = pieces
	return s
}

func TestSelectSquareTapMove(t *testing.T) {
	s := newTestState(t, "4k3/8/8/8/8/8/4P3/4K3")
	s.Movable = Movable{Color: White, Dests: Dests{"e2": {"e3", "e4"}}}

	var moves []Move
	s.Events.UserMove = func(orig, dest Key, meta MoveMetadata) {
		moves = append(moves, Move{orig, dest})
	}

	SelectSquare(s, "e2")
	assert.Equal(t, Key("e2"), s.Selected())
	assert.Equal(t, ModeSelecting, s.Mode())

	SelectSquare(s, "e4")
	s.Flush()

	assert.Equal(t, Piece{Pawn, White}, s.Pieces["e4"])
	assert.NotContains(t, s.Pieces, Key("e2"))
	assert.Equal(t, &Move{Orig: "e2", Dest: "e4"}, s.LastMove)
	assert.Equal(t, Key(""), s.Selected())
	assert.Equal(t, Black, s.TurnColor)
	assert.Nil(t, s.Movable.Dests)
	assert.Equal(t, []Move{{"e2", "e4"}}, moves)
}

func TestSelectSquareTwiceToggles(t *testing.T) {
	s := newTestState(t, InitialFEN)
	s.Movable = Movable{Color: White, Dests: Dests{"g1": {"f3", "h3"}}}

	SelectSquare(s, "g1")
	require.Equal(t, Key("g1"), s.Selected())
	SelectSquare(s, "g1")
	assert.Equal(t, Key(""), s.Selected())
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestSelectSquareIgnoresUnmovable(t *testing.T) {
	s := newTestState(t, InitialFEN)
	s.Movable = Movable{Color: White, Dests: Dests{"g1": {"f3", "h3"}}}

	// no dests
	SelectSquare(s, "e2")
	assert.Equal(t, Key(""), s.Selected())

	// wrong color, premoves disabled
	s.Premovable.Enabled = false
	SelectSquare(s, "e7")
	assert.Equal(t, Key(""), s.Selected())

	// empty square
	SelectSquare(s, "e4")
	assert.Equal(t, Key(""), s.Selected())
}

func TestSelectSquareIllegalTargetReselects(t *testing.T) {
	s := newTestState(t, InitialFEN)
	s.Movable = Movable{Color: White, Dests: Dests{
		"g1": {"f3", "h3"},
		"b1": {"a3", "c3"},
	}}

	SelectSquare(s, "g1")
	SelectSquare(s, "b1")
	assert.Equal(t, Key("b1"), s.Selected())

	SelectSquare(s, "b5")
	assert.Equal(t, Key(""), s.Selected())
	assert.Equal(t, Piece{Knight, White}, s.Pieces["b1"])
}

func TestAPIMoveFromEmptySquareIsNoop(t *testing.T) {
	s := newTestState(t, InitialFEN)
	before := s.Pieces.Clone()

	for _, k := range AllKeys {
		if _, ok := s.Pieces[k]; ok {
			continue
		}
		for _, dest := range []Key{"e4", "a1", "h8"} {
			assert.False(t, APIMove(s, k, dest), "%s-%s", k, dest)
		}
	}
	assert.Equal(t, before, s.Pieces)
	assert.Nil(t, s.LastMove)
}

func TestAPIMoveRoundTrip(t *testing.T) {
	s := newTestState(t, "4k3/8/8/8/8/2n5/8/R3K3")
	s.AutoCastle = false

	before := s.Pieces.Clone()
	require.True(t, APIMove(s, "a1", "a5"))
	require.True(t, APIMove(s, "a5", "a1"))
	assert.Equal(t, before, s.Pieces)
	assert.Equal(t, &Move{Orig: "a5", Dest: "a1"}, s.LastMove)
}

func TestAPIMoveCapture(t *testing.T) {
	s := newTestState(t, "4k3/8/8/8/8/2n5/8/R3K3")

	var captured *Piece
	s.Events.Move = func(orig, dest Key, c *Piece) { captured = c }
	s.Check = "e1"
	require.True(t, APIMove(s, "e1", "d2"))
	require.True(t, APIMove(s, "a1", "c3"))
	s.Flush()

	require.NotNil(t, captured)
	assert.Equal(t, Piece{Knight, Black}, *captured)
	assert.Equal(t, Piece{Rook, White}, s.Pieces["c3"])
	assert.Equal(t, Key(""), s.Check)
	assert.Len(t, s.Pieces, 3)
}

func TestAPIMoveAutoCastle(t *testing.T) {
	s := newTestState(t, "4k3/8/8/8/8/8/8/4K2R")

	require.True(t, APIMove(s, "e1", "g1"))
	assert.Equal(t, Piece{King, White}, s.Pieces["g1"])
	assert.Equal(t, Piece{Rook, White}, s.Pieces["f1"])
	assert.NotContains(t, s.Pieces, Key("h1"))
	assert.NotContains(t, s.Pieces, Key("e1"))
}

func TestAPINewPieceOverwrites(t *testing.T) {
	s := newTestState(t, InitialFEN)

	require.True(t, APINewPiece(s, Piece{Queen, Black}, "e2"))
	assert.Equal(t, Piece{Queen, Black}, s.Pieces["e2"])
	assert.Equal(t, &Move{Dest: "e2"}, s.LastMove)
	assert.Equal(t, White, s.TurnColor)
	assert.False(t, APINewPiece(s, Piece{Queen, Black}, "z9"))
}

func TestSetPieces(t *testing.T) {
	s := newTestState(t, InitialFEN)

	SetPieces(s, PiecesDiff{
		"e2": nil,
		"e4": {Role: Pawn, Color: White},
		"i9": {Role: Pawn, Color: White},
	})
	assert.NotContains(t, s.Pieces, Key("e2"))
	assert.NotContains(t, s.Pieces, Key("i9"))
	assert.Equal(t, Piece{Pawn, White}, s.Pieces["e4"])
	assert.Len(t, s.Pieces, 32)
}

func premoveState(t *testing.T) *State {
	s := newTestState(t, "4k3/8/8/8/8/8/8/R3K3")
	s.Movable = Movable{Color: White}
	s.TurnColor = Black
	return s
}

func TestPremovePlayed(t *testing.T) {
	s := premoveState(t)

	var unset int
	s.Events.PremoveUnset = func() { unset++ }

	SelectSquare(s, "a1")
	require.Equal(t, Key("a1"), s.Selected())
	assert.Contains(t, s.Premovable.Dests, Key("a8"))
	SelectSquare(s, "a8")
	require.Equal(t, &Premove{Orig: "a1", Dest: "a8"}, s.Premovable.Current)
	assert.Equal(t, Piece{Rook, White}, s.Pieces["a1"])

	direct := s.Pieces.Clone()
	direct["a8"] = direct["a1"]
	delete(direct, "a1")

	s.TurnColor = White
	s.Movable.Dests = Dests{"a1": {"a2", "a8"}}
	assert.True(t, PlayPremove(s))
	s.Flush()

	assert.Equal(t, direct, s.Pieces)
	assert.Nil(t, s.Premovable.Current)
	assert.Equal(t, 1, unset)
}

func TestReset(t *testing.T) {
	s := premoveState(t)
	s.LastMove = &Move{Orig: "e2", Dest: "e1"}
	SelectSquare(s, "a1")
	SelectSquare(s, "a8")
	require.NotNil(t, s.Premovable.Current)
	SelectSquare(s, "e1")
	require.Equal(t, Key("e1"), s.Selected())

	Reset(s)
	assert.Nil(t, s.LastMove)
	assert.Nil(t, s.Premovable.Current)
	assert.Nil(t, s.Premovable.Dests)
	assert.Equal(t, Key(""), s.Selected())
	assert.Len(t, s.Pieces, 3)
}

func TestPremoveStale(t *testing.T) {
	s := premoveState(t)

	SelectSquare(s, "a1")
	SelectSquare(s, "a8")
	require.NotNil(t, s.Premovable.Current)
	before := s.Pieces.Clone()

	s.TurnColor = White
	s.Movable.Dests = Dests{"a1": {"a2"}}
	assert.False(t, PlayPremove(s))
	assert.Nil(t, s.Premovable.Current)
	assert.Equal(t, before, s.Pieces)
}

func TestPremoveMatchesAPIMove(t *testing.T) {
	cases := []struct {
		fen        string
		orig, dest Key
	}{
		{"4k3/8/8/8/8/8/8/R3K3", "a1", "a8"},
		{"4k3/8/8/8/8/8/4P3/4K3", "e2", "e4"},
		{"4k3/8/8/8/8/8/8/4K1N1", "g1", "f3"},
		{"r3k3/8/8/8/8/8/8/B3K3", "a1", "h8"},
	}
	for _, c := range cases {
		s := newTestState(t, c.fen)
		s.Movable = Movable{Color: White}
		s.TurnColor = Black
		require.True(t, userMove(s, c.orig, c.dest), c.fen)
		require.NotNil(t, s.Premovable.Current, c.fen)

		s.TurnColor = White
		s.Movable.Dests = Dests{c.orig: {c.dest}}
		require.True(t, PlayPremove(s), c.fen)

		direct := newTestState(t, c.fen)
		require.True(t, APIMove(direct, c.orig, c.dest))
		assert.Equal(t, direct.Pieces, s.Pieces, c.fen)
	}
}

func TestPremoveGeometry(t *testing.T) {
	pieces, err := ReadFEN("r3k2r/8/8/8/3N4/8/4P3/R3K2R")
	require.NoError(t, err)

	assert.ElementsMatch(t, []Key{"e3", "e4", "d3", "f3"}, PremoveDests(pieces, "e2", true))
	assert.ElementsMatch(t, []Key{"b3", "b5", "c2", "c6", "e2", "e6", "f5", "f3"}, PremoveDests(pieces, "d4", true))
	// king: neighbours, castling squares and own rooks
	assert.ElementsMatch(t,
		[]Key{"d1", "d2", "e2", "f2", "f1", "c1", "g1", "a1", "h1"},
		PremoveDests(pieces, "e1", true))
	assert.ElementsMatch(t,
		[]Key{"d1", "d2", "e2", "f2", "f1"},
		PremoveDests(pieces, "e1", false))
	assert.Nil(t, PremoveDests(pieces, "e5", true))
}

func TestPremoveAndPredropExclusive(t *testing.T) {
	s := premoveState(t)
	s.Predroppable.Enabled = true

	setPremove(s, "a1", "a8")
	setPredrop(s, Knight, "d4")
	assert.Nil(t, s.Premovable.Current)
	assert.Equal(t, &Predrop{Role: Knight, Key: "d4"}, s.Predroppable.Current)

	setPremove(s, "a1", "a8")
	assert.Nil(t, s.Predroppable.Current)
	assert.NotNil(t, s.Premovable.Current)
}

func TestPredrop(t *testing.T) {
	s := premoveState(t)
	s.Predroppable.Enabled = true

	// pawns never go to the back ranks
	assert.False(t, dropNewPiece(s, Piece{Pawn, White}, "d8", false))
	assert.Nil(t, s.Predroppable.Current)

	require.True(t, dropNewPiece(s, Piece{Knight, White}, "d4", false))
	require.Equal(t, &Predrop{Role: Knight, Key: "d4"}, s.Predroppable.Current)

	s.TurnColor = White
	var validated []Drop
	played := PlayPredrop(s, func(d Drop) bool {
		validated = append(validated, d)
		return true
	})
	assert.True(t, played)
	assert.Equal(t, []Drop{{Knight, "d4"}}, validated)
	assert.Equal(t, Piece{Knight, White}, s.Pieces["d4"])
	assert.Equal(t, Black, s.TurnColor)
	assert.Nil(t, s.Predroppable.Current)
}

func TestPredropRejected(t *testing.T) {
	s := premoveState(t)
	s.Predroppable.Current = &Predrop{Role: Knight, Key: "d4"}
	before := s.Pieces.Clone()

	assert.False(t, PlayPredrop(s, func(Drop) bool { return false }))
	assert.Nil(t, s.Predroppable.Current)
	assert.Equal(t, before, s.Pieces)
}

func TestDropNewPiece(t *testing.T) {
	s := newTestState(t, "4k3/8/8/8/8/8/8/4K3")
	s.Movable = Movable{Color: White}

	var drops []Key
	s.Events.UserNewPiece = func(p Piece, k Key, meta MoveMetadata) { drops = append(drops, k) }

	assert.False(t, dropNewPiece(s, Piece{Knight, White}, "e1", false))
	assert.True(t, dropNewPiece(s, Piece{Knight, White}, "d4", false))
	s.Flush()
	assert.Equal(t, []Key{"d4"}, drops)
	assert.Equal(t, Black, s.TurnColor)
}

func TestSetCheck(t *testing.T) {
	s := newTestState(t, InitialFEN)

	SetCheck(s, Black)
	assert.Equal(t, Key("e8"), s.Check)
	SetCheck(s, White)
	assert.Equal(t, Key("e1"), s.Check)
	SetCheck(s, ColorNone)
	assert.Equal(t, Key(""), s.Check)
}

func TestStopClearsEverything(t *testing.T) {
	s := premoveState(t)
	s.Movable.Dests = Dests{"a1": {"a8"}}
	SelectSquare(s, "a1")
	SelectSquare(s, "a8")
	require.NotNil(t, s.Premovable.Current)
	SelectSquare(s, "a1")
	require.Equal(t, Key("a1"), s.Selected())
	before := s.Pieces.Clone()

	Stop(s)
	assert.Equal(t, ColorNone, s.Movable.Color)
	assert.Nil(t, s.Movable.Dests)
	assert.Nil(t, s.Premovable.Current)
	assert.Equal(t, Key(""), s.Selected())
	assert.Equal(t, ModeIdle, s.Mode())
	assert.Equal(t, before, s.Pieces)

	SelectSquare(s, "a1")
	assert.Equal(t, Key(""), s.Selected())
}

func TestToggleOrientation(t *testing.T) {
	s := newTestState(t, InitialFEN)
	before := s.Pieces.Clone()

	ToggleOrientation(s)
	assert.Equal(t, Black, s.Orientation)
	ToggleOrientation(s)
	assert.Equal(t, White, s.Orientation)
	assert.Equal(t, before, s.Pieces)
}

func TestSetNewBoardState(t *testing.T) {
	s := newTestState(t, InitialFEN)
	s.Movable = Movable{Color: White, Dests: Dests{"e2": {"e4"}}}
	SelectSquare(s, "e2")

	err := SetNewBoardState(s, SetConfig{
		FEN:          "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		TurnColor:    Ref(Black),
		MovableColor: Ref(Black),
		Dests:        &Dests{"e7": {"e5"}},
		Check:        Ref(false),
		LastMove:     &Move{Orig: "e2", Dest: "e4"},
		Path:         Ref("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, Key(""), s.Selected())
	assert.Equal(t, Black, s.TurnColor)
	assert.Equal(t, "1", s.Path)
	assert.Equal(t, &Move{Orig: "e2", Dest: "e4"}, s.LastMove)
	assert.Equal(t, Piece{Pawn, White}, s.Pieces["e4"])

	require.NoError(t, SetNewBoardState(s, SetConfig{LastMove: &Move{}}))
	assert.Nil(t, s.LastMove)

	assert.Error(t, SetNewBoardState(s, SetConfig{FEN: "not a fen"}))
	assert.Equal(t, Piece{Pawn, White}, s.Pieces["e4"])
}

func TestIsDraggable(t *testing.T) {
	s := premoveState(t)

	assert.True(t, isDraggable(s, "a1"))
	s.Premovable.Enabled = false
	assert.False(t, isDraggable(s, "a1"))
	assert.False(t, isDraggable(s, "e8"))
	s.Movable.Color = Both
	assert.True(t, isDraggable(s, "e8"))
	s.Draggable.Enabled = false
	assert.False(t, isDraggable(s, "e8"))
}
