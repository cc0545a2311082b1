package ground

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

var chessPieces = map[Piece]chess.Piece{
	{King, White}:   chess.WhiteKing,
	{Queen, White}:  chess.WhiteQueen,
	{Rook, White}:   chess.WhiteRook,
	{Bishop, White}: chess.WhiteBishop,
	{Knight, White}: chess.WhiteKnight,
	{Pawn, White}:   chess.WhitePawn,
	{King, Black}:   chess.BlackKing,
	{Queen, Black}:  chess.BlackQueen,
	{Rook, Black}:   chess.BlackRook,
	{Bishop, Black}: chess.BlackBishop,
	{Knight, Black}: chess.BlackKnight,
	{Pawn, Black}:   chess.BlackPawn,
}

var chessRoles = map[chess.PieceType]Role{
	chess.King:   King,
	chess.Queen:  Queen,
	chess.Rook:   Rook,
	chess.Bishop: Bishop,
	chess.Knight: Knight,
	chess.Pawn:   Pawn,
}

// FromChessPiece converts a notnil/chess piece. NoPiece yields ok == false.
func FromChessPiece(p chess.Piece) (Piece, bool) {
	role, ok := chessRoles[p.Type()]
	if !ok {
		return Piece{}, false
	}
	switch p.Color() {
	case chess.White:
		return Piece{Role: role, Color: White}, true
	case chess.Black:
		return Piece{Role: role, Color: Black}, true
	}
	return Piece{}, false
}

func ToChessPiece(p Piece) chess.Piece {
	if cp, ok := chessPieces[p]; ok {
		return cp
	}
	return chess.NoPiece
}

func SquareKey(sq chess.Square) Key {
	return KeyAt(int(sq.File()), int(sq.Rank()))
}

func KeySquare(k Key) chess.Square {
	p := k.Pos()
	return chess.Square(p.Rank*8 + p.File)
}

// placement strips everything but the piece placement field. Crazyhouse
// pockets ("[Qn]" or a ninth rank) and promoted markers ("~") are dropped.
func placement(fen string) string {
	if fen == "start" {
		return InitialFEN
	}
	board := strings.TrimSpace(fen)
	if i := strings.IndexByte(board, ' '); i >= 0 {
		board = board[:i]
	}
	if i := strings.IndexByte(board, '['); i >= 0 {
		board = board[:i]
	}
	if ranks := strings.Split(board, "/"); len(ranks) > 8 {
		board = strings.Join(ranks[:8], "/")
	}
	return strings.ReplaceAll(board, "~", "")
}

// ReadFEN parses the placement part of a FEN string.
func ReadFEN(fen string) (Pieces, error) {
	board := placement(fen)
	if board == "" {
		return nil, fmt.Errorf("read fen %q: empty placement", fen)
	}

	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(board + " w - - 0 1")); err != nil {
		return nil, fmt.Errorf("read fen %q: %w", fen, err)
	}

	pieces := make(Pieces)
	for sq, cp := range pos.Board().SquareMap() {
		if p, ok := FromChessPiece(cp); ok {
			pieces[SquareKey(sq)] = p
		}
	}
	return pieces, nil
}

// WriteFEN renders the placement field of pieces.
func WriteFEN(pieces Pieces) string {
	m := make(map[chess.Square]chess.Piece, len(pieces))
	for k, p := range pieces {
		if !k.Valid() {
			continue
		}
		if cp := ToChessPiece(p); cp != chess.NoPiece {
			m[KeySquare(k)] = cp
		}
	}
	return chess.NewBoard(m).String()
}

var pieceScores = map[Role]int{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0,
}

// MaterialSide counts the roles one side is up by.
type MaterialSide map[Role]int

type Material struct {
	White MaterialSide
	Black MaterialSide
	// Score is white's material minus black's
	Score int
}

// MaterialDiff cancels out equal pieces of both sides and reports what is left.
func MaterialDiff(pieces Pieces) Material {
	m := Material{White: make(MaterialSide), Black: make(MaterialSide)}
	for _, p := range pieces {
		switch p.Color {
		case White:
			m.Score += pieceScores[p.Role]
			if m.Black[p.Role] > 0 {
				m.Black[p.Role]--
			} else {
				m.White[p.Role]++
			}
		case Black:
			m.Score -= pieceScores[p.Role]
			if m.White[p.Role] > 0 {
				m.White[p.Role]--
			} else {
				m.Black[p.Role]++
			}
		}
	}
	for _, side := range []MaterialSide{m.White, m.Black} {
		for r, n := range side {
			if n == 0 {
				delete(side, r)
			}
		}
	}
	return m
}
