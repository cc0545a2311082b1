package oracle

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/termground/pkg/ground"
)

// Local computes situations in process with notnil/chess.
type Local struct {
	log zerolog.Logger
}

var _ Oracle = (*Local)(nil)

func NewLocal(log zerolog.Logger) *Local {
	return &Local{log: log}
}

func colorOf(c chess.Color) ground.Color {
	switch c {
	case chess.White:
		return ground.White
	case chess.Black:
		return ground.Black
	}
	return ground.ColorNone
}

func fenColor(c ground.Color) string {
	if c == ground.Black {
		return "b"
	}
	return "w"
}

// normalizeFEN completes a bare placement into a full FEN.
func normalizeFEN(fen string) string {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "start" {
		return ground.InitialFEN + " w KQkq - 0 1"
	}
	if len(strings.Fields(fen)) == 1 {
		return fen + " w - - 0 1"
	}
	return fen
}

func newGame(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(normalizeFEN(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFEN, fen, err)
	}
	return chess.NewGame(opt, chess.UseNotation(chess.UCINotation{})), nil
}

// plyOf counts half moves from the FEN move counter.
func plyOf(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 0
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 0
	}
	ply := (n - 1) * 2
	if fields[1] == "b" {
		ply++
	}
	return ply
}

func kingSquare(pos *chess.Position, c chess.Color) (chess.Square, bool) {
	for sq, p := range pos.Board().SquareMap() {
		if p.Type() == chess.King && p.Color() == c {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

var (
	knightSteps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	bishopRays  = [][2]int{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
)

func onBoard(f, r int) bool {
	return f >= 0 && f < 8 && r >= 0 && r < 8
}

// attacked reports whether a piece of the other side hits the king of c.
// Pinned attackers count, so squares are scanned instead of generating moves.
func attacked(pos *chess.Position, c chess.Color) bool {
	king, ok := kingSquare(pos, c)
	if !ok {
		return false
	}
	board := pos.Board()
	k := ground.SquareKey(king).Pos()
	hits := func(f, r int, types ...chess.PieceType) bool {
		if !onBoard(f, r) {
			return false
		}
		p := board.Piece(ground.KeySquare(ground.KeyAt(f, r)))
		if p == chess.NoPiece || p.Color() == c {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}
	slides := func(rays [][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			f, r := k.File+d[0], k.Rank+d[1]
			for onBoard(f, r) && board.Piece(ground.KeySquare(ground.KeyAt(f, r))) == chess.NoPiece {
				f, r = f+d[0], r+d[1]
			}
			if hits(f, r, types...) {
				return true
			}
		}
		return false
	}

	for _, d := range knightSteps {
		if hits(k.File+d[0], k.Rank+d[1], chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if hits(k.File+d[0], k.Rank+d[1], chess.King) {
			return true
		}
	}
	// pawns take towards the king's side of the board
	ahead := 1
	if c == chess.Black {
		ahead = -1
	}
	if hits(k.File-1, k.Rank+ahead, chess.Pawn) || hits(k.File+1, k.Rank+ahead, chess.Pawn) {
		return true
	}
	return slides(rookRays, chess.Rook, chess.Queen) || slides(bishopRays, chess.Bishop, chess.Queen)
}

func inCheck(pos *chess.Position) bool {
	return pos.Status() == chess.Checkmate || attacked(pos, pos.Turn())
}

// destsOf groups the legal moves by origin. Castling also lists the rook
// square, so the king can be dropped onto its rook.
func destsOf(pos *chess.Position) ground.Dests {
	dests := make(ground.Dests)
	seen := make(map[ground.Move]bool)
	add := func(orig, dest ground.Key) {
		mv := ground.Move{Orig: orig, Dest: dest}
		if !seen[mv] {
			seen[mv] = true
			dests[orig] = append(dests[orig], dest)
		}
	}
	for _, m := range pos.ValidMoves() {
		orig, dest := ground.SquareKey(m.S1()), ground.SquareKey(m.S2())
		add(orig, dest)
		switch {
		case m.HasTag(chess.KingSideCastle):
			add(orig, ground.KeyAt(7, orig.Pos().Rank))
		case m.HasTag(chess.QueenSideCastle):
			add(orig, ground.KeyAt(0, orig.Pos().Rank))
		}
	}
	return dests
}

func situationOf(game *chess.Game, path string) Situation {
	pos := game.Position()
	fen := pos.String()
	sit := Situation{
		Path: path,
		FEN:  fen,
		Ply:  plyOf(fen),
		Turn: colorOf(pos.Turn()),
	}

	status := pos.Status()
	outcome := game.Outcome()
	switch {
	case outcome != chess.NoOutcome:
		sit.End = true
		sit.Outcome = outcome.String()
		sit.Method = game.Method().String()
	case status == chess.Checkmate:
		sit.End = true
		sit.Outcome = string(chess.WhiteWon)
		if pos.Turn() == chess.White {
			sit.Outcome = string(chess.BlackWon)
		}
		sit.Method = status.String()
	case status == chess.Stalemate:
		sit.End = true
		sit.Outcome = string(chess.Draw)
		sit.Method = status.String()
	default:
		sit.Dests = destsOf(pos)
	}
	return sit
}

func (l *Local) Situation(ctx context.Context, fen, path string) (Situation, error) {
	if err := ctx.Err(); err != nil {
		return Situation{}, err
	}
	game, err := newGame(fen)
	if err != nil {
		return Situation{}, err
	}
	sit := situationOf(game, path)
	sit.Check = inCheck(game.Position())
	return sit, nil
}

// castleDest turns a king move onto its own rook into the castling move.
func castleDest(pos *chess.Position, orig, dest ground.Key) ground.Key {
	board := pos.Board()
	king := board.Piece(ground.KeySquare(orig))
	rook := board.Piece(ground.KeySquare(dest))
	if king.Type() != chess.King || rook.Type() != chess.Rook || king.Color() != rook.Color() {
		return dest
	}
	if orig.Pos().Rank != dest.Pos().Rank {
		return dest
	}
	if dest.Pos().File > orig.Pos().File {
		return ground.KeyAt(6, dest.Pos().Rank)
	}
	return ground.KeyAt(2, dest.Pos().Rank)
}

func isPromotion(pos *chess.Position, orig, dest ground.Key) bool {
	p := pos.Board().Piece(ground.KeySquare(orig))
	if p.Type() != chess.Pawn {
		return false
	}
	r := dest.Pos().Rank
	return (p.Color() == chess.White && r == 7) || (p.Color() == chess.Black && r == 0)
}

// Move plays orig-dest on fen. Promotions default to a queen.
func (l *Local) Move(ctx context.Context, req MoveRequest) (Situation, error) {
	if err := ctx.Err(); err != nil {
		return Situation{}, err
	}
	if !req.Orig.Valid() || !req.Dest.Valid() {
		return Situation{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, req.Orig, req.Dest)
	}
	game, err := newGame(req.FEN)
	if err != nil {
		return Situation{}, err
	}
	pos := game.Position()
	if pos.Status() != chess.NoMethod || game.Outcome() != chess.NoOutcome {
		return Situation{}, ErrGameFinished
	}

	dest := castleDest(pos, req.Orig, req.Dest)
	promo := ground.NoRole
	if isPromotion(pos, req.Orig, dest) {
		promo = req.Promotion
		if promo == ground.NoRole {
			promo = ground.Queen
		}
	}
	uci := UCI(req.Orig, dest, promo)
	m, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return Situation{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	san := chess.AlgebraicNotation{}.Encode(pos, m)
	if err := game.Move(m); err != nil {
		return Situation{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	sit := situationOf(game, ChildPath(req.Path, uci))
	sit.Check = inCheck(game.Position())
	sit.LastMove = &ground.Move{Orig: req.Orig, Dest: dest}
	sit.SAN = san
	l.log.Debug().Str("path", sit.Path).Str("san", san).Msg("move")
	return sit, nil
}

func validateDrop(pos *chess.Position, piece ground.Piece, key ground.Key) error {
	if !key.Valid() {
		return fmt.Errorf("%w: bad square %q", ErrInvalidDrop, key)
	}
	if colorOf(pos.Turn()) != piece.Color {
		return fmt.Errorf("%w: not %s's turn", ErrInvalidDrop, piece.Color)
	}
	if pos.Board().Piece(ground.KeySquare(key)) != chess.NoPiece {
		return fmt.Errorf("%w: %s is occupied", ErrInvalidDrop, key)
	}
	if piece.Role == ground.Pawn && (key.Rank() == '1' || key.Rank() == '8') {
		return fmt.Errorf("%w: pawn on back rank", ErrInvalidDrop)
	}
	if piece.Role == ground.King || piece.Role == ground.NoRole {
		return fmt.Errorf("%w: cannot drop a %s", ErrInvalidDrop, piece.Role)
	}
	return nil
}

// Drop places piece on key for the side to move, crazyhouse style.
func (l *Local) Drop(ctx context.Context, req DropRequest) (Situation, error) {
	if err := ctx.Err(); err != nil {
		return Situation{}, err
	}
	game, err := newGame(req.FEN)
	if err != nil {
		return Situation{}, err
	}
	pos := game.Position()
	if err := validateDrop(pos, req.Piece, req.Key); err != nil {
		return Situation{}, err
	}

	squares := pos.Board().SquareMap()
	squares[ground.KeySquare(req.Key)] = ground.ToChessPiece(req.Piece)
	fields := strings.Fields(pos.String())
	fields[0] = chess.NewBoard(squares).String()
	fields[1] = fenColor(req.Piece.Color.Opposite())
	fields[3] = "-"
	fields[4] = "0"
	if req.Piece.Color == ground.Black {
		if n, err := strconv.Atoi(fields[5]); err == nil {
			fields[5] = strconv.Itoa(n + 1)
		}
	}

	next, err := newGame(strings.Join(fields, " "))
	if err != nil {
		return Situation{}, err
	}
	if attacked(next.Position(), pos.Turn()) {
		return Situation{}, fmt.Errorf("%w: king left in check", ErrInvalidDrop)
	}

	uci := DropUCI(req.Piece.Role, req.Key)
	sit := situationOf(next, ChildPath(req.Path, uci))
	sit.Check = inCheck(next.Position())
	sit.LastMove = &ground.Move{Dest: req.Key}
	sit.SAN = uci
	l.log.Debug().Str("path", sit.Path).Str("drop", uci).Msg("drop")
	return sit, nil
}

// ValidateDrop tells whether the side to move on fen may drop d. It fits
// ground.PlayPredrop.
func (l *Local) ValidateDrop(fen string) func(ground.Drop) bool {
	return func(d ground.Drop) bool {
		game, err := newGame(fen)
		if err != nil {
			return false
		}
		pos := game.Position()
		piece := ground.Piece{Role: d.Role, Color: colorOf(pos.Turn())}
		_, err = l.Drop(context.Background(), DropRequest{FEN: fen, Piece: piece, Key: d.Key})
		return err == nil
	}
}
