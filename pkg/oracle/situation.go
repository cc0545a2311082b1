// Package oracle answers legality questions for the board: legal
// destinations, check, game end, and the position after a move or drop.
package oracle

import (
	"context"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/qnkhuat/termground/pkg/ground"
)

// Situation is the oracle's view of one position, tagged with the path of the
// ply it was computed for.
type Situation struct {
	Path     string       `json:"path"`
	FEN      string       `json:"fen"`
	Ply      int          `json:"ply"`
	Turn     ground.Color `json:"turn"`
	Dests    ground.Dests `json:"dests,omitempty"`
	Check    bool         `json:"check,omitempty"`
	End      bool         `json:"end,omitempty"`
	Outcome  string       `json:"outcome,omitempty"`
	Method   string       `json:"method,omitempty"`
	LastMove *ground.Move `json:"lastMove,omitempty"`
	SAN      string       `json:"san,omitempty"`
}

type MoveRequest struct {
	Path      string
	FEN       string
	Orig      ground.Key
	Dest      ground.Key
	Promotion ground.Role
}

type DropRequest struct {
	Path  string
	FEN   string
	Piece ground.Piece
	Key   ground.Key
}

// Oracle is the external source of legality. Every answer carries the path of
// its request.
type Oracle interface {
	Situation(ctx context.Context, fen, path string) (Situation, error)
	Move(ctx context.Context, req MoveRequest) (Situation, error)
	Drop(ctx context.Context, req DropRequest) (Situation, error)
}

// ChildPath is the path of the ply reached from path by the move uci.
func ChildPath(path, uci string) string {
	if path == "" {
		return uci
	}
	return path + "/" + uci
}

// ParentPath strips the last ply of path.
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

func PathPly(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}

// UCI encodes a board move, with an optional promotion.
func UCI(orig, dest ground.Key, promotion ground.Role) string {
	uci := string(orig) + string(dest)
	if l := promotion.Letter(); l != 0 && promotion != ground.Pawn && promotion != ground.King {
		uci += strings.ToLower(string(l))
	}
	return uci
}

// DropUCI encodes a drop the way crazyhouse does ("N@f3").
func DropUCI(role ground.Role, key ground.Key) string {
	return string(role.Letter()) + "@" + string(key)
}

// MovableColor is the side allowed to move on the board showing s for the
// player playing as.
func (s Situation) MovableColor(as ground.Color) ground.Color {
	if s.End {
		return ground.ColorNone
	}
	if as == ground.Both {
		return s.Turn
	}
	return as
}

// BoardConfig turns s into the per-ply board update.
func (s Situation) BoardConfig(as ground.Color) ground.SetConfig {
	dests := s.Dests
	lastMove := ground.Move{}
	if s.LastMove != nil {
		lastMove = *s.LastMove
	}
	return ground.SetConfig{
		FEN:          s.FEN,
		TurnColor:    ground.Ref(s.Turn),
		MovableColor: ground.Ref(s.MovableColor(as)),
		Dests:        &dests,
		Check:        ground.Ref(s.Check),
		LastMove:     &lastMove,
		Path:         ground.Ref(s.Path),
	}
}

// Origins lists the squares with at least one legal move, in board order.
func (s Situation) Origins() []ground.Key {
	keys := maps.Keys(s.Dests)
	slices.Sort(keys)
	return keys
}
