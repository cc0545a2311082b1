package ground

import (
	"math"
)

const (
	Files = "abcdefgh"
	Ranks = "12345678"
)

// Key names one board cell, file letter then rank digit ("e4").
type Key string

// Pos is a zero based file/rank pair.
type Pos struct {
	File, Rank int
}

// AllKeys lists the 64 squares file by file (a1, a2 ... h8).
var AllKeys = func() []Key {
	keys := make([]Key, 0, 64)
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			keys = append(keys, KeyAt(f, r))
		}
	}
	return keys
}()

func KeyAt(file, rank int) Key {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return ""
	}
	return Key([]byte{Files[file], Ranks[rank]})
}

func (k Key) Valid() bool {
	return len(k) == 2 && k[0] >= 'a' && k[0] <= 'h' && k[1] >= '1' && k[1] <= '8'
}

func (k Key) Pos() Pos {
	return Pos{File: int(k[0] - 'a'), Rank: int(k[1] - '1')}
}

func (k Key) File() byte { return k[0] }
func (k Key) Rank() byte { return k[1] }

func (p Pos) Key() Key { return KeyAt(p.File, p.Rank) }

// DistanceSq is the squared euclidean distance in squares.
func (p Pos) DistanceSq(o Pos) int {
	dx, dy := p.File-o.File, p.Rank-o.Rank
	return dx*dx + dy*dy
}

// Chebyshev is the number of king steps between two squares.
func (p Pos) Chebyshev(o Pos) int {
	dx, dy := p.File-o.File, p.Rank-o.Rank
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

type Point struct {
	X, Y float64
}

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Zero() bool        { return p.X == 0 && p.Y == 0 }

func (p Point) DistanceSq(o Point) float64 {
	dx, dy := p.X-o.X, p.Y-o.Y
	return dx*dx + dy*dy
}

// Bounds is the board rectangle on the drawing surface.
type Bounds struct {
	Left, Top, Width, Height float64
}

func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b Bounds) SquareSize() (float64, float64) {
	return b.Width / 8, b.Height / 8
}

func (b Bounds) Contains(x, y float64) bool {
	return x >= b.Left && x < b.Left+b.Width && y >= b.Top && y < b.Top+b.Height
}

// RoundBy is the single rounding policy for every pixel value the engine
// hands out: one decimal.
func RoundBy(v float64) float64 {
	return math.Round(v*10) / 10
}

// PosToTranslate returns the offset of a square from the board's top-left
// corner.
func PosToTranslate(pos Pos, orientation Color, b Bounds) Point {
	w, h := b.SquareSize()
	if orientation == Black {
		return Point{RoundBy(float64(7-pos.File) * w), RoundBy(float64(pos.Rank) * h)}
	}
	return Point{RoundBy(float64(pos.File) * w), RoundBy(float64(7-pos.Rank) * h)}
}

// SquareToPixel returns the absolute top-left corner of a square.
func SquareToPixel(k Key, orientation Color, b Bounds) Point {
	t := PosToTranslate(k.Pos(), orientation, b)
	return Point{RoundBy(b.Left + t.X), RoundBy(b.Top + t.Y)}
}

// SquareCenter returns the absolute center of a square.
func SquareCenter(k Key, orientation Color, b Bounds) Point {
	p := SquareToPixel(k, orientation, b)
	w, h := b.SquareSize()
	return Point{RoundBy(p.X + w/2), RoundBy(p.Y + h/2)}
}

// PixelToSquare maps an absolute position to the square under it.
func PixelToSquare(x, y float64, orientation Color, b Bounds) (Key, bool) {
	if b.Empty() || !b.Contains(x, y) {
		return "", false
	}

	file := int(math.Floor(8 * (x - b.Left) / b.Width))
	rank := 7 - int(math.Floor(8*(y-b.Top)/b.Height))
	if orientation == Black {
		file = 7 - file
		rank = 7 - rank
	}
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return "", false
	}
	return KeyAt(file, rank), true
}

type CoordsMode int

const (
	CoordsNone CoordsMode = iota
	// CoordsStandard labels ranks on the left and files at the bottom
	CoordsStandard
	// CoordsSymmetric labels all four sides
	CoordsSymmetric
)

// Coords holds labels in screen order: files left to right, ranks top to bottom.
type Coords struct {
	Mode  CoordsMode
	Files []string
	Ranks []string
}

func CoordLabels(orientation Color, mode CoordsMode) Coords {
	if mode == CoordsNone {
		return Coords{Mode: mode}
	}

	c := Coords{Mode: mode, Files: make([]string, 8), Ranks: make([]string, 8)}
	for i := 0; i < 8; i++ {
		if orientation == Black {
			c.Files[i] = string(Files[7-i])
			c.Ranks[i] = string(Ranks[i])
		} else {
			c.Files[i] = string(Files[i])
			c.Ranks[i] = string(Ranks[7-i])
		}
	}
	return c
}
