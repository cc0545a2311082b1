package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/termground/pkg/ground"
	"github.com/qnkhuat/termground/pkg/ground/groundtest"
	"github.com/qnkhuat/termground/pkg/oracle"
)

type refusingOracle struct {
	*oracle.Local
}

func (refusingOracle) Move(ctx context.Context, req oracle.MoveRequest) (oracle.Situation, error) {
	return oracle.Situation{}, oracle.ErrIllegalMove
}

func newLocalClient(t *testing.T, o oracle.Oracle) *Client {
	t.Helper()

	cfg := ground.DefaultConfig()
	cfg.Scheduler = groundtest.NewScheduler()
	cl := NewClient(ClientConfig{Board: cfg, Color: ground.Both, Logger: zerolog.Nop()})
	require.NoError(t, cl.Play(context.Background(), o, ""))
	return cl
}

func play(cl *Client, orig, dest ground.Key) {
	cl.Ground.SelectSquare(orig)
	cl.Ground.SelectSquare(dest)
}

func TestClientLocalPlay(t *testing.T) {
	cl := newLocalClient(t, oracle.NewLocal(zerolog.Nop()))

	play(cl, "e2", "e4")
	assert.Equal(t, "e2e4", cl.Ground.Path())
	play(cl, "e7", "e5")
	assert.Equal(t, "e2e4/e7e5", cl.Ground.Path())

	var turn ground.Color
	var dests ground.Dests
	cl.Ground.View(func(s *ground.State) { turn, dests = s.TurnColor, s.Movable.Dests })
	assert.Equal(t, ground.White, turn)
	assert.Contains(t, dests["g1"], ground.Key("f3"))
}

func TestClientBrowsesAndBranches(t *testing.T) {
	cl := newLocalClient(t, oracle.NewLocal(zerolog.Nop()))
	play(cl, "e2", "e4")
	play(cl, "e7", "e5")

	require.True(t, cl.Do(ActionPrevious))
	assert.Equal(t, "e2e4", cl.Ground.Path())
	assert.Equal(t, ground.Piece{}, cl.Ground.Pieces()["e5"])

	// a move from an earlier ply replaces the rest of the line
	play(cl, "c7", "c5")
	assert.Equal(t, "e2e4/c7c5", cl.Ground.Path())
	assert.False(t, cl.Do(ActionNext))

	require.True(t, cl.Do(ActionPrevious))
	require.True(t, cl.Do(ActionPrevious))
	assert.Equal(t, "", cl.Ground.Path())
	assert.False(t, cl.Do(ActionPrevious))
	require.True(t, cl.Do(ActionNext))
	require.True(t, cl.Do(ActionNext))
	assert.Equal(t, "e2e4/c7c5", cl.Ground.Path())
}

func TestClientRevertsRefusedMove(t *testing.T) {
	cl := newLocalClient(t, refusingOracle{oracle.NewLocal(zerolog.Nop())})

	play(cl, "e2", "e4")
	assert.Equal(t, "", cl.Ground.Path())
	pieces := cl.Ground.Pieces()
	assert.Equal(t, ground.Piece{Role: ground.Pawn, Color: ground.White}, pieces["e2"])
	_, ok := pieces["e4"]
	assert.False(t, ok)
	assert.Contains(t, cl.Status(), "illegal move")
}

func TestClientActions(t *testing.T) {
	cl := newLocalClient(t, oracle.NewLocal(zerolog.Nop()))

	require.True(t, cl.Do(ActionFlip))
	var orientation ground.Color
	cl.Ground.View(func(s *ground.State) { orientation = s.Orientation })
	assert.Equal(t, ground.Black, orientation)

	cl.Ground.SelectSquare("e2")
	require.True(t, cl.Do(ActionCancelPremove))
	assert.Equal(t, ground.Key(""), cl.Ground.Selected())

	assert.False(t, cl.Do(ActionExit))

	cl.Do(ActionResign)
	assert.Equal(t, "| resigned", cl.Status())
	cl.Ground.SelectSquare("e2")
	assert.Equal(t, ground.Key(""), cl.Ground.Selected())
}

func TestClientNextOrigin(t *testing.T) {
	cl := newLocalClient(t, oracle.NewLocal(zerolog.Nop()))

	require.True(t, cl.Do(ActionNextPiece))
	assert.Equal(t, ground.Key("a2"), cl.Ground.Selected())
	require.True(t, cl.Do(ActionNextPiece))
	assert.Equal(t, ground.Key("b1"), cl.Ground.Selected())
	for i := 0; i < 9; i++ {
		require.True(t, cl.Do(ActionNextPiece))
	}
	assert.Equal(t, ground.Key("a2"), cl.Ground.Selected(), "wraps around")

	// only the side to move is cycled
	cl.Ground.SelectSquare("e2")
	cl.Ground.SelectSquare("e4")
	require.True(t, cl.Do(ActionNextPiece))
	assert.Equal(t, ground.Key("a7"), cl.Ground.Selected())
}

func TestClientMaterialInStatus(t *testing.T) {
	cl := newLocalClient(t, oracle.NewLocal(zerolog.Nop()))
	assert.Equal(t, "", cl.Status())

	play(cl, "e2", "e4")
	play(cl, "d7", "d5")
	play(cl, "e4", "d5")
	assert.Equal(t, "white +1", cl.Status())

	play(cl, "d8", "d5")
	assert.Equal(t, "", cl.Status())
}

func TestClientPromotion(t *testing.T) {
	cfg := ground.DefaultConfig()
	cfg.Scheduler = groundtest.NewScheduler()
	cl := NewClient(ClientConfig{Board: cfg, Color: ground.Both, Promotion: ground.Knight, Logger: zerolog.Nop()})
	require.NoError(t, cl.Play(context.Background(), oracle.NewLocal(zerolog.Nop()), "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"))

	play(cl, "a7", "a8")
	assert.Equal(t, "a7a8n", cl.Ground.Path())
	assert.Equal(t, ground.Piece{Role: ground.Knight, Color: ground.White}, cl.Ground.Pieces()["a8"])
	assert.Equal(t, "white +3", cl.Status())

	play(cl, "e8", "d8")
	assert.Equal(t, "a7a8n/e8d8", cl.Ground.Path())
}

func TestClientNewGame(t *testing.T) {
	o := oracle.NewLocal(zerolog.Nop())
	cl := newLocalClient(t, o)
	play(cl, "e2", "e4")
	cl.Ground.SelectSquare("e7")

	require.NoError(t, cl.Play(context.Background(), o, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"))
	assert.Equal(t, "", cl.Ground.Path())
	assert.Equal(t, ground.Key(""), cl.Ground.Selected())
	assert.Len(t, cl.Ground.Pieces(), 3)
	cl.Ground.View(func(s *ground.State) { assert.Nil(t, s.LastMove) })
	assert.False(t, cl.Do(ActionPrevious))

	// stored plies of the old game are not reused
	play(cl, "e2", "e4")
	assert.Equal(t, "e2e4", cl.Ground.Path())
	assert.Len(t, cl.Ground.Pieces(), 3)
}

func TestClientClockFlag(t *testing.T) {
	sched := groundtest.NewScheduler()
	cfg := ground.DefaultConfig()
	cfg.Scheduler = sched
	cl := NewClient(ClientConfig{Board: cfg, Color: ground.White, Logger: zerolog.Nop()})

	sit, err := oracle.NewLocal(zerolog.Nop()).Situation(context.Background(), "", "")
	require.NoError(t, err)
	cl.update(MessageGame{Situation: sit, White: 3 * time.Second, Black: time.Minute, Running: ground.White})
	assert.True(t, movable(cl, ground.White))
	assert.Equal(t, "playing white white 0:03 black 1:00", cl.Status())

	sched.Advance(3 * time.Second)
	assert.False(t, movable(cl, ground.White))
	assert.Contains(t, cl.Status(), "white ran out of time")
}

func TestActionFor(t *testing.T) {
	for _, tc := range []struct {
		ev   *tcell.EventKey
		want Action
	}{
		{tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone), ActionFlip},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), ActionPrevious},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), ActionNext},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionCancelPremove},
		{tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), ActionNextPiece},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionExit},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionUnknown},
	} {
		assert.Equal(t, tc.want, ActionFor(tc.ev), tc.ev.Name())
	}
}
