package gui

import (
	"math"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/qnkhuat/termground/pkg/ground"
)

// A square is drawn CellRatio cells wide for every row it is tall, which
// keeps it roughly square on a terminal.
const CellRatio = 2

// drawText places text at the specified coordinates with the provided style
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// highlights are blended over the square color in this order
var highlights = []struct {
	class  string
	weight float64
	color  func(t Theme) tcell.Color
}{
	{ground.ClassLastMove, 0.45, func(t Theme) tcell.Color { return t.LastMove }},
	{ground.ClassCurrentPremove, 0.55, func(t Theme) tcell.Color { return t.Premove }},
	{ground.ClassSelected, 0.6, func(t Theme) tcell.Color { return t.Selected }},
	{ground.ClassOccupied, 0.35, func(t Theme) tcell.Color { return t.MoveDest }},
	{ground.ClassDragOver, 0.3, func(t Theme) tcell.Color { return t.Selected }},
	{ground.ClassCheck, 0.7, func(t Theme) tcell.Color { return t.Check }},
	{"exploding1", 0.6, func(t Theme) tcell.Color { return t.Explode }},
	{"exploding2", 0.9, func(t Theme) tcell.Color { return t.Explode }},
}

// squareBg returns the theme's color for key with its highlight layers
func squareBg(key ground.Key, sq ground.SquareView, t Theme) tcell.Color {
	pos := key.Pos()
	bg := t.SquareLight
	if (pos.File+pos.Rank)%2 == 0 {
		bg = t.SquareDark
	}
	for _, h := range highlights {
		if sq.Has(h.class) {
			bg = Blend(bg, h.color(t), h.weight)
		}
	}
	return bg
}

func cell(v float64) int {
	return int(math.Floor(v + 0.5))
}

// anchor is the cell a piece glyph is drawn in for a square whose top-left
// corner is at p.
func anchor(p ground.Point, b ground.Bounds) (int, int) {
	w, h := b.SquareSize()
	return cell(p.X + w/2 - 1), cell(p.Y + h/2 - 0.5)
}

func drawSquare(s tcell.Screen, f ground.Frame, key ground.Key, t Theme) {
	sq, _ := f.Square(key)
	bg := squareBg(key, sq, t)
	p := ground.SquareToPixel(key, f.Orientation, f.Bounds)
	w, h := f.Bounds.SquareSize()
	x0, y0 := cell(p.X), cell(p.Y)
	x1, y1 := cell(p.X+w), cell(p.Y+h)
	style := tcell.StyleDefault.Background(bg)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}

	// destination dots, like a hint on an empty square
	var dot tcell.Color
	switch {
	case sq.Has(ground.ClassMoveDest) && !sq.Has(ground.ClassOccupied):
		dot = t.MoveDest
	case sq.Has(ground.ClassPremoveDest) && !sq.Has(ground.ClassOccupied):
		dot = t.Premove
	default:
		return
	}
	x, y := anchor(p, f.Bounds)
	s.SetContent(x, y, '•', nil, style.Foreground(dot))
}

// stylePiece applies the theme's style to a piece over whatever is drawn
// below it
func stylePiece(s tcell.Screen, x, y int, v ground.PieceView, t Theme) tcell.Style {
	_, _, under, _ := s.GetContent(x, y)
	_, bg, _ := under.Decompose()

	fg := t.Black
	if v.Piece.Color == ground.White {
		fg = t.White
	}
	if v.Ghost || v.Fading {
		fg = Blend(fg, bg, 0.6)
	}
	style := tcell.StyleDefault.Background(bg).Foreground(fg)
	if v.Dragging {
		style = style.Bold(true)
	}
	return style
}

func drawPiece(s tcell.Screen, v ground.PieceView, b ground.Bounds, t Theme) {
	x, y := anchor(v.Pos, b)
	glyph, _ := utf8.DecodeRuneInString(ground.ToChessPiece(v.Piece).String())
	s.SetContent(x, y, glyph, nil, stylePiece(s, x, y, v, t))
}

// drawCoords puts rank labels left of the board and file labels below it.
// Symmetric labels are repeated on the right and on top.
func drawCoords(s tcell.Screen, f ground.Frame, t Theme) {
	if f.Coords.Mode == ground.CoordsNone {
		return
	}
	b := f.Bounds
	w, h := b.SquareSize()
	style := tcell.StyleDefault.Foreground(t.Coords)
	left, top := cell(b.Left), cell(b.Top)
	right, bottom := cell(b.Left+b.Width), cell(b.Top+b.Height)

	for i, r := range f.Coords.Ranks {
		y := cell(b.Top + float64(i)*h + h/2 - 0.5)
		drawText(s, left-2, y, style, r)
		if f.Coords.Mode == ground.CoordsSymmetric {
			drawText(s, right+1, y, style, r)
		}
	}
	for i, file := range f.Coords.Files {
		x := cell(b.Left + float64(i)*w + w/2 - 1)
		drawText(s, x, bottom, style, file)
		if f.Coords.Mode == ground.CoordsSymmetric {
			drawText(s, x, top-1, style, file)
		}
	}
}

// Draw paints f on s. Positions in f are screen cells.
func Draw(s tcell.Screen, f ground.Frame, t Theme) {
	if f.Bounds.Empty() {
		return
	}
	for _, key := range ground.AllKeys {
		drawSquare(s, f, key, t)
	}
	for _, v := range f.Pieces {
		drawPiece(s, v, f.Bounds, t)
	}
	drawCoords(s, f, t)
}
