// Package gui draws boards on a terminal and turns mouse input into pointer
// events.
package gui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/qnkhuat/termground/pkg/ground"
)

const mouseId = 1

// BoardView is a tview primitive showing one board. The board follows the
// size of the view; a new size is applied once resizing settles.
type BoardView struct {
	*tview.Box

	ground   *ground.Ground
	theme    Theme
	bounds   ground.Bounds
	attached bool
	pressed  bool
}

func NewBoardView(g *ground.Ground, theme Theme) *BoardView {
	return &BoardView{
		Box:    tview.NewBox(),
		ground: g,
		theme:  theme,
	}
}

func (v *BoardView) SetTheme(t Theme) *BoardView {
	v.theme = t
	return v
}

// layout fits the largest board into the view, leaving room for labels.
func (v *BoardView) layout() ground.Bounds {
	x, y, width, height := v.GetInnerRect()
	var mode ground.CoordsMode
	v.ground.View(func(s *ground.State) { mode = s.Coordinates })

	left, top, right, bottom := 0, 0, 0, 0
	if mode != ground.CoordsNone {
		left, bottom = 2, 1
	}
	if mode == ground.CoordsSymmetric {
		top, right = 1, 2
	}
	rows := (height - top - bottom) / 8
	if cols := (width - left - right) / (8 * CellRatio); cols < rows {
		rows = cols
	}
	if rows < 1 {
		return ground.Bounds{}
	}
	return ground.Bounds{
		Left:   float64(x + left),
		Top:    float64(y + top),
		Width:  float64(8 * CellRatio * rows),
		Height: float64(8 * rows),
	}
}

func (v *BoardView) Draw(screen tcell.Screen) {
	v.Box.Draw(screen)

	b := v.layout()
	switch {
	case !v.attached:
		v.ground.Attach(b)
		v.attached = true
	case b != v.bounds:
		v.ground.OnResize(b)
	}
	v.bounds = b
	Draw(screen, v.ground.Frame(), v.theme)
}

func pointer(event *tcell.EventMouse) ground.PointerEvent {
	x, y := event.Position()
	return ground.PointerEvent{ID: mouseId, X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

// MouseHandler drives the board gestures. The view captures the mouse while
// a button is held so a drag can leave the board.
func (v *BoardView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return v.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		switch action {
		case tview.MouseLeftDown:
			if !v.InRect(event.Position()) {
				return false, nil
			}
			setFocus(v)
			v.ground.PointerDown(pointer(event))
			v.pressed = true
			return true, v
		case tview.MouseMove:
			if v.pressed {
				v.ground.PointerMove(pointer(event))
				return true, v
			}
		case tview.MouseLeftUp:
			if v.pressed {
				v.pressed = false
				v.ground.PointerUp(pointer(event))
				return true, nil
			}
		case tview.MouseRightDown:
			if v.InRect(event.Position()) {
				v.pressed = false
				v.ground.PointerCancel()
				v.ground.CancelPremove()
				return true, nil
			}
		}
		return false, nil
	})
}
