package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/termground/pkg/ground"
	"github.com/qnkhuat/termground/pkg/ground/groundtest"
	"github.com/qnkhuat/termground/pkg/oracle"
)

func newTestMatch(t *testing.T, clock time.Duration) (*Match, *groundtest.Scheduler) {
	t.Helper()

	sched := groundtest.NewScheduler()
	m, err := NewMatch(context.Background(), "quiet-fox", oracle.NewLocal(zerolog.Nop()), MatchConfig{
		Clock:     clock,
		Scheduler: sched,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return m, sched
}

// drain empties the outgoing queue of p.
func drain(p *Player) []Outgoing {
	var out []Outgoing
	for {
		select {
		case o := <-p.Out:
			out = append(out, o)
		default:
			return out
		}
	}
}

func lastGame(t *testing.T, p *Player) MessageGame {
	t.Helper()

	out := drain(p)
	for i := len(out) - 1; i >= 0; i-- {
		if g, ok := out[i].Message.(MessageGame); ok {
			return g
		}
	}
	t.Fatalf("no game update for %s", p.Name)
	return MessageGame{}
}

func seat(t *testing.T, m *Match, id int, name string) *Player {
	t.Helper()

	p := NewPlayer(nil, id, zerolog.Nop())
	p.Name = name
	_, err := m.AddPlayer(p)
	require.NoError(t, err)
	return p
}

func TestMatchSeats(t *testing.T) {
	m, _ := newTestMatch(t, 0)

	white := seat(t, m, 1, "alice")
	black := seat(t, m, 2, "bob")
	viewer := seat(t, m, 3, "")

	assert.Equal(t, White, white.Color)
	assert.Equal(t, Black, black.Color)
	assert.Equal(t, Viewer, viewer.Color)
	assert.NotEmpty(t, viewer.Name)

	out := drain(viewer)
	require.NotEmpty(t, out)
	connect, ok := out[0].Message.(MessageConnect)
	require.True(t, ok)
	assert.Equal(t, "quiet-fox", connect.MatchId)
	assert.Equal(t, Viewer, connect.Color)
	assert.Equal(t, ground.White, connect.Game.Situation.Turn)
	assert.Len(t, connect.Game.Situation.Dests, 10)

	m.RemovePlayer(black)
	assert.Nil(t, m.Players[1])
	assert.False(t, m.Empty())
	m.RemovePlayer(white)
	m.RemovePlayer(viewer)
	assert.True(t, m.Empty())
}

func TestMatchMoves(t *testing.T) {
	m, _ := newTestMatch(t, 0)
	ctx := context.Background()
	white := seat(t, m, 1, "alice")
	black := seat(t, m, 2, "bob")
	viewer := seat(t, m, 3, "carol")
	drain(white)
	drain(black)

	m.Handle(ctx, white, MessageTransport{RequestId: "r1"}, MessageMove{Path: "", Orig: "e2", Dest: "e4"})
	for _, p := range []*Player{white, black, viewer} {
		g := lastGame(t, p)
		assert.Equal(t, "e2e4", g.Situation.Path, p.Name)
		assert.Equal(t, ground.Black, g.Situation.Turn, p.Name)
	}
	assert.Len(t, m.History(), 2)

	// white again, out of turn
	m.Handle(ctx, white, MessageTransport{RequestId: "r2"}, MessageMove{Path: "e2e4", Orig: "d2", Dest: "d4"})
	out := drain(white)
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].RequestId)
	reject := out[0].Message.(MessageReject)
	assert.Equal(t, "e2e4", reject.Path)
	assert.Contains(t, reject.Reason, ErrNotYourTurn.Error())

	// black answering an older ply
	m.Handle(ctx, black, MessageTransport{RequestId: "r3"}, MessageMove{Path: "", Orig: "e7", Dest: "e5"})
	out = drain(black)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Message.(MessageReject).Reason, oracle.ErrStalePath.Error())

	m.Handle(ctx, black, MessageTransport{}, MessageMove{Path: "e2e4", Orig: "e7", Dest: "e4"})
	assert.Contains(t, drain(black)[0].Message.(MessageReject).Reason, oracle.ErrIllegalMove.Error())

	m.Handle(ctx, viewer, MessageTransport{}, MessageMove{Path: "e2e4", Orig: "e7", Dest: "e5"})
	assert.Contains(t, drain(viewer)[0].Message.(MessageReject).Reason, ErrNotPlaying.Error())
	assert.Empty(t, drain(white))

	m.Handle(ctx, black, MessageTransport{}, MessageMove{Path: "e2e4", Orig: "e7", Dest: "e5"})
	assert.Equal(t, "e2e4/e7e5", m.Situation().Path)
	assert.Equal(t, "e5", lastGame(t, white).Situation.SAN)
}

func TestMatchResign(t *testing.T) {
	m, _ := newTestMatch(t, 0)
	ctx := context.Background()
	white := seat(t, m, 1, "alice")
	black := seat(t, m, 2, "bob")

	m.Handle(ctx, black, MessageTransport{}, MessageResign{})
	g := lastGame(t, white)
	assert.True(t, g.Situation.End)
	assert.Equal(t, "1-0", g.Situation.Outcome)
	assert.Equal(t, "resignation", g.Situation.Method)
	assert.Empty(t, g.Situation.Dests)
	drain(black)

	m.Handle(ctx, white, MessageTransport{}, MessageMove{Path: "", Orig: "e2", Dest: "e4"})
	assert.Contains(t, drain(white)[0].Message.(MessageReject).Reason, oracle.ErrGameFinished.Error())
}

func TestMatchClocks(t *testing.T) {
	m, sched := newTestMatch(t, time.Minute)
	ctx := context.Background()
	white := seat(t, m, 1, "alice")
	black := seat(t, m, 2, "bob")

	// nothing runs before the first move
	sched.Advance(time.Hour)
	assert.False(t, m.Situation().End)

	m.Handle(ctx, white, MessageTransport{}, MessageMove{Path: "", Orig: "e2", Dest: "e4"})
	g := lastGame(t, black)
	assert.Equal(t, ground.Black, g.Running)
	assert.Equal(t, time.Minute, g.Black)

	sched.Advance(20 * time.Second)
	m.Handle(ctx, black, MessageTransport{}, MessageMove{Path: "e2e4", Orig: "e7", Dest: "e5"})
	g = lastGame(t, white)
	assert.Equal(t, ground.White, g.Running)
	assert.Equal(t, 40*time.Second, g.Black)

	sched.Advance(time.Minute)
	g = lastGame(t, black)
	assert.True(t, g.Situation.End)
	assert.Equal(t, "0-1", g.Situation.Outcome)
	assert.Equal(t, "timeout", g.Situation.Method)
	assert.Equal(t, ground.ColorNone, g.Running)
}

func TestMatchIdle(t *testing.T) {
	m, sched := newTestMatch(t, 0)
	assert.False(t, m.Idle(time.Minute))
	sched.Advance(2 * time.Minute)
	assert.True(t, m.Idle(time.Minute))

	viewer := NewPlayer(nil, 3, zerolog.Nop())
	m.Viewers = append(m.Viewers, viewer)
	assert.True(t, m.Idle(time.Minute), "viewers do not keep a match alive")
}

func TestMatchSeatedPlayersAreNeverIdle(t *testing.T) {
	m, sched := newTestMatch(t, 0)
	white := seat(t, m, 1, "alice")
	seat(t, m, 2, "bob")

	// a long think in an untimed game
	sched.Advance(time.Hour)
	assert.False(t, m.Idle(time.Minute))

	m.RemovePlayer(white)
	assert.False(t, m.Idle(time.Minute))
}
