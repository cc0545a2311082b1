package pkg

import (
	"github.com/gdamore/tcell/v2"
)

type Action string

const (
	ActionUnknown       Action = ""
	ActionFlip          Action = "Flip"
	ActionCancelPremove Action = "Cancel premove"
	ActionPrevious      Action = "Previous"
	ActionNext          Action = "Next"
	ActionNextPiece     Action = "Next piece"
	ActionResign        Action = "Resign"
	ActionExit          Action = "Exit"
)

type Keybinding struct {
	k tcell.Key
	r rune

	a Action
}

var Keybindings = []*Keybinding{
	{r: 'f', a: ActionFlip},
	{r: 'F', a: ActionFlip},
	{k: tcell.KeyEscape, a: ActionCancelPremove},
	{k: tcell.KeyLeft, a: ActionPrevious},
	{r: 'h', a: ActionPrevious},
	{k: tcell.KeyRight, a: ActionNext},
	{r: 'l', a: ActionNext},
	{k: tcell.KeyTab, a: ActionNextPiece},
	{r: 'R', a: ActionResign},
	{r: 'q', a: ActionExit},
	{k: tcell.KeyCtrlC, a: ActionExit},
}

// ActionFor looks up the action bound to ev.
func ActionFor(ev *tcell.EventKey) Action {
	for _, bind := range Keybindings {
		if bind.k == tcell.KeyRune || bind.k == 0 {
			if ev.Key() == tcell.KeyRune && ev.Rune() == bind.r {
				return bind.a
			}
			continue
		}
		if ev.Key() == bind.k {
			return bind.a
		}
	}
	return ActionUnknown
}

// Do runs a board action. Exit is left to the caller.
func (cl *Client) Do(a Action) bool {
	switch a {
	case ActionFlip:
		cl.Ground.ToggleOrientation()
	case ActionCancelPremove:
		cl.Ground.CancelPremove()
		cl.Ground.CancelPredrop()
		cl.Ground.CancelMove()
	case ActionPrevious:
		return cl.Step(-1)
	case ActionNext:
		return cl.Step(1)
	case ActionNextPiece:
		return cl.NextOrigin()
	case ActionResign:
		cl.Resign()
	default:
		return false
	}
	return true
}
