package gui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/qnkhuat/termground/pkg"
)

// App is the terminal client: the board above a status line.
type App struct {
	*tview.Application
	Board  *BoardView
	Status *tview.TextView

	client *pkg.Client
}

func NewApp(cl *pkg.Client, theme Theme) *App {
	a := &App{
		Application: tview.NewApplication(),
		Board:       NewBoardView(cl.Ground, theme),
		Status:      tview.NewTextView().SetTextColor(theme.Status),
		client:      cl,
	}
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.Board, 0, 1, true).
		AddItem(a.Status, 1, 0, false)

	a.SetRoot(layout, true).
		EnableMouse(true).
		SetInputCapture(a.handleKey).
		SetBeforeDrawFunc(func(screen tcell.Screen) bool {
			a.Status.SetText(cl.Status())
			return false
		})
	return a
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	switch action := pkg.ActionFor(ev); action {
	case pkg.ActionUnknown:
		return ev
	case pkg.ActionExit:
		a.Stop()
	default:
		a.client.Do(action)
	}
	return nil
}

// Watch redraws whenever the board changes, and every second for the clocks.
func (a *App) Watch(ctx context.Context) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.client.Ground.Redraws():
		case <-tick.C:
		}
		a.Draw()
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.Watch(ctx)
	return a.Application.Run()
}
