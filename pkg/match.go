package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/termground/pkg/ground"
	"github.com/qnkhuat/termground/pkg/oracle"
)

const MaxViewers = 16

type MatchConfig struct {
	FEN       string
	Clock     time.Duration
	Increment time.Duration
	Scheduler ground.Scheduler
	Logger    zerolog.Logger
}

// Match is one game on the server. The oracle is the only judge of legality;
// every accepted ply is broadcast to players and viewers.
type Match struct {
	Id      string
	Players [2]*Player
	Viewers []*Player
	Clocks  [2]*Clock

	oracle     oracle.Oracle
	sit        oracle.Situation
	history    []oracle.Situation
	sched      ground.Scheduler
	lastActive time.Time
	log        zerolog.Logger

	sync.Mutex
}

func NewMatch(ctx context.Context, id string, o oracle.Oracle, cfg MatchConfig) (*Match, error) {
	sched := cfg.Scheduler
	if sched == nil {
		sched = ground.RealScheduler
	}
	sit, err := o.Situation(ctx, cfg.FEN, "")
	if err != nil {
		return nil, err
	}
	m := &Match{
		Id:         id,
		oracle:     o,
		sit:        sit,
		history:    []oracle.Situation{sit},
		sched:      sched,
		lastActive: sched.Now(),
		log:        cfg.Logger.With().Str("match", id).Logger(),
	}
	m.Clocks[0] = NewClock(cfg.Clock, cfg.Increment, sched, func() { m.flag(ground.White) })
	m.Clocks[1] = NewClock(cfg.Clock, cfg.Increment, sched, func() { m.flag(ground.Black) })
	return m, nil
}

func clockIndex(c ground.Color) int {
	if c == ground.Black {
		return 1
	}
	return 0
}

func (m *Match) Situation() oracle.Situation {
	m.Lock()
	defer m.Unlock()

	return m.sit
}

func (m *Match) History() []oracle.Situation {
	m.Lock()
	defer m.Unlock()

	return append([]oracle.Situation(nil), m.history...)
}

func (m *Match) gameL(msg string) MessageGame {
	g := MessageGame{
		Situation: m.sit,
		White:     m.Clocks[0].Remaining(),
		Black:     m.Clocks[1].Remaining(),
		Msg:       msg,
	}
	switch {
	case m.Clocks[0].Running():
		g.Running = ground.White
	case m.Clocks[1].Running():
		g.Running = ground.Black
	}
	return g
}

func (m *Match) broadcastL(message MessageInterface) {
	for _, p := range m.Players {
		if p != nil {
			p.Send(message, "")
		}
	}
	for _, v := range m.Viewers {
		v.Send(message, "")
	}
}

// AddPlayer seats p: white first, then black, then viewers.
func (m *Match) AddPlayer(p *Player) (PlayerColor, error) {
	m.Lock()
	defer m.Unlock()

	switch {
	case m.Players[0] == nil:
		p.Color = White
		m.Players[0] = p
	case m.Players[1] == nil:
		p.Color = Black
		m.Players[1] = p
	case len(m.Viewers) < MaxViewers:
		p.Color = Viewer
		m.Viewers = append(m.Viewers, p)
	default:
		return Unknown, ErrMatchFull
	}
	if p.Name == "" {
		p.Name = petname.Generate(2, "-")
	}
	m.lastActive = m.sched.Now()
	m.log.Info().Str("name", p.Name).Stringer("color", p.Color).Msg("player joined")

	p.Send(MessageConnect{MatchId: m.Id, Color: p.Color, Name: p.Name, Game: m.gameL("")}, "")
	m.broadcastL(m.gameL(fmt.Sprintf("%s joined as %s", p.Name, p.Color)))
	return p.Color, nil
}

func (m *Match) RemovePlayer(p *Player) {
	m.Lock()
	defer m.Unlock()

	for i, seated := range m.Players {
		if seated == p {
			m.Players[i] = nil
		}
	}
	for i, v := range m.Viewers {
		if v == p {
			m.Viewers = append(m.Viewers[:i], m.Viewers[i+1:]...)
			break
		}
	}
	p.Disconnect()
	m.log.Info().Str("name", p.Name).Msg("player left")
	m.broadcastL(m.gameL(fmt.Sprintf("%s left", p.Name)))
}

func (m *Match) Empty() bool {
	m.Lock()
	defer m.Unlock()

	return m.Players[0] == nil && m.Players[1] == nil && len(m.Viewers) == 0
}

// Idle reports whether the match can be dropped: no seat is taken, no clock
// runs and nothing happened for timeout. Viewers alone do not keep it alive.
func (m *Match) Idle(timeout time.Duration) bool {
	m.Lock()
	defer m.Unlock()

	if m.Players[0] != nil || m.Players[1] != nil {
		return false
	}
	if m.Clocks[0].Running() || m.Clocks[1].Running() {
		return false
	}
	return m.sched.Now().Sub(m.lastActive) > timeout
}

// Handle processes one message from p.
func (m *Match) Handle(ctx context.Context, p *Player, t MessageTransport, message MessageInterface) {
	m.Lock()
	defer m.Unlock()

	m.lastActive = m.sched.Now()
	var err error
	switch msg := message.(type) {
	case MessageMove:
		err = m.moveL(ctx, p, msg)
	case MessageDrop:
		err = m.dropL(ctx, p, msg)
	case MessageResign:
		err = m.resignL(p)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownMessage, t.MsgType)
	}
	if err != nil {
		m.log.Debug().Err(err).Str("request", t.RequestId).Str("name", p.Name).Msg("rejected")
		p.Send(MessageReject{Path: m.sit.Path, Reason: err.Error()}, t.RequestId)
	}
}

func (m *Match) checkTurnL(p *Player, path string) error {
	if p.Color != White && p.Color != Black {
		return ErrNotPlaying
	}
	if m.sit.End {
		return oracle.ErrGameFinished
	}
	if p.Color.Side() != m.sit.Turn {
		return ErrNotYourTurn
	}
	if path != m.sit.Path {
		return fmt.Errorf("%w: %q, at %q", oracle.ErrStalePath, path, m.sit.Path)
	}
	return nil
}

func (m *Match) moveL(ctx context.Context, p *Player, msg MessageMove) error {
	if err := m.checkTurnL(p, msg.Path); err != nil {
		return err
	}
	sit, err := m.oracle.Move(ctx, oracle.MoveRequest{
		Path:      m.sit.Path,
		FEN:       m.sit.FEN,
		Orig:      msg.Orig,
		Dest:      msg.Dest,
		Promotion: msg.Promotion,
	})
	if err != nil {
		return err
	}
	m.advanceL(sit)
	return nil
}

func (m *Match) dropL(ctx context.Context, p *Player, msg MessageDrop) error {
	if err := m.checkTurnL(p, msg.Path); err != nil {
		return err
	}
	sit, err := m.oracle.Drop(ctx, oracle.DropRequest{
		Path:  m.sit.Path,
		FEN:   m.sit.FEN,
		Piece: ground.Piece{Role: msg.Role, Color: p.Color.Side()},
		Key:   msg.Key,
	})
	if err != nil {
		return err
	}
	m.advanceL(sit)
	return nil
}

// advanceL records sit and hands the clock to the other side.
func (m *Match) advanceL(sit oracle.Situation) {
	mover := m.sit.Turn
	m.sit = sit
	m.history = append(m.history, sit)

	m.Clocks[clockIndex(mover)].Tick()
	if sit.End {
		m.Clocks[clockIndex(sit.Turn)].Pause()
	} else {
		m.Clocks[clockIndex(sit.Turn)].Start()
	}
	m.log.Info().Str("path", sit.Path).Str("san", sit.SAN).Msg("ply")
	m.broadcastL(m.gameL(""))
}

func (m *Match) endL(outcome, method string) {
	m.sit.End = true
	m.sit.Outcome = outcome
	m.sit.Method = method
	m.sit.Dests = nil
	m.Clocks[0].Pause()
	m.Clocks[1].Pause()
	m.history[len(m.history)-1] = m.sit
	m.log.Info().Str("outcome", outcome).Str("method", method).Msg("game over")
	m.broadcastL(m.gameL(fmt.Sprintf("%s by %s", outcome, method)))
}

func winner(loser ground.Color) string {
	if loser == ground.White {
		return "0-1"
	}
	return "1-0"
}

func (m *Match) resignL(p *Player) error {
	if p.Color != White && p.Color != Black {
		return ErrNotPlaying
	}
	if m.sit.End {
		return oracle.ErrGameFinished
	}
	m.endL(winner(p.Color.Side()), "resignation")
	return nil
}

func (m *Match) flag(c ground.Color) {
	m.Lock()
	defer m.Unlock()

	if m.sit.End {
		return
	}
	m.endL(winner(c), "timeout")
}

