package pkg

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/qnkhuat/termground/pkg/ground"
	"github.com/qnkhuat/termground/pkg/oracle"
)

type ClientConfig struct {
	// Board is the construction config; its user hooks are taken over
	Board ground.Config
	// Color is the side played locally. Both plays either side.
	Color ground.Color
	// Promotion is the piece pawns promote to, a queen when unset
	Promotion ground.Role
	Logger    zerolog.Logger
}

// Client drives one board. Moves made on the board go to the oracle (local
// play) or to the match server; answers come back tagged with the path of the
// ply they belong to and only reach the board while that ply is on display.
type Client struct {
	Ground *ground.Ground
	Cursor *oracle.Cursor
	Clocks [2]*Clock

	matchId string
	name    string
	color   ground.Color
	promote ground.Role
	board   ground.Config
	oracle  oracle.Oracle
	rules   *oracle.Local
	player  *Player
	history []string
	live    bool
	msg     string
	ctx     context.Context
	log     zerolog.Logger

	sync.Mutex
}

func NewClient(cfg ClientConfig) *Client {
	cl := &Client{
		color:   cfg.Color,
		promote: cfg.Promotion,
		rules:   oracle.NewLocal(cfg.Logger),
		live:    true,
		ctx:     context.Background(),
		log:     cfg.Logger,
	}
	board := cfg.Board
	board.Logger = cfg.Logger
	board.Movable.Color = ground.ColorNone
	board.Events.UserMove = cl.onUserMove
	board.Events.UserNewPiece = cl.onUserNewPiece
	if cfg.Color == ground.Black {
		board.Orientation = ground.Black
	}

	cl.board = board
	cl.Ground = ground.New(board)
	cl.Cursor = oracle.NewCursor(board.Scheduler, cfg.Logger)
	cl.Clocks[0] = NewClock(0, 0, board.Scheduler, func() { cl.flag(ground.White) })
	cl.Clocks[1] = NewClock(0, 0, board.Scheduler, func() { cl.flag(ground.Black) })
	return cl
}

func (cl *Client) MatchId() string {
	cl.Lock()
	defer cl.Unlock()

	return cl.matchId
}

func (cl *Client) Name() string {
	cl.Lock()
	defer cl.Unlock()

	return cl.name
}

func (cl *Client) Color() ground.Color {
	cl.Lock()
	defer cl.Unlock()

	return cl.color
}

// Play starts a local game judged by o from fen. A game already on the
// board is thrown away.
func (cl *Client) Play(ctx context.Context, o oracle.Oracle, fen string) error {
	sit, err := o.Situation(ctx, fen, "")
	if err != nil {
		return err
	}
	cl.Lock()
	cl.ctx = ctx
	cl.oracle = o
	cl.history = nil
	cl.msg = ""
	board := cl.board
	cl.Unlock()

	cl.Cursor.Reset()
	board.FEN = sit.FEN
	if err := cl.Ground.Reconfigure(board); err != nil {
		return err
	}
	cl.receive(sit, true)
	return nil
}

// Connect dials a match server and joins matchId.
func (cl *Client) Connect(ctx context.Context, addr, matchId, name string) error {
	cl.log.Info().Str("addr", addr).Msg("connecting")
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	cl.Join(ctx, conn, matchId, name)
	return nil
}

// Join speaks the match protocol over conn.
func (cl *Client) Join(ctx context.Context, conn net.Conn, matchId, name string) {
	p := NewPlayer(conn, 0, cl.log)
	cl.Lock()
	cl.ctx = ctx
	cl.player = p
	cl.name = name
	cl.Unlock()

	go p.HandleWrite()
	p.Send(MessageJoin{MatchId: matchId, Name: name}, NewRequestId())
	go func() {
		if err := p.HandleRead(cl.handle); err != nil {
			cl.log.Debug().Err(err).Msg("read")
		}
		cl.setMsg("disconnected")
		cl.Ground.Stop()
	}()
}

func (cl *Client) handle(t MessageTransport, message MessageInterface) {
	switch msg := message.(type) {
	case MessageConnect:
		cl.Lock()
		cl.matchId = msg.MatchId
		cl.name = msg.Name
		cl.color = msg.Color.Side()
		cl.Unlock()

		orientation := ground.White
		if msg.Color == Black {
			orientation = ground.Black
		}
		cl.Ground.Set(ground.SetConfig{Orientation: &orientation})
		cl.log.Info().Str("match", msg.MatchId).Stringer("color", msg.Color).Msg("joined")
		cl.update(msg.Game)
	case MessageGame:
		cl.update(msg)
	case MessageReject:
		cl.log.Warn().Str("request", t.RequestId).Str("reason", msg.Reason).Msg("move rejected")
		cl.setMsg(msg.Reason)
		cl.revert(msg.Path)
	default:
		cl.log.Warn().Stringer("type", t.MsgType).Msg("unexpected message")
	}
}

func (cl *Client) update(g MessageGame) {
	cl.Clocks[0].Set(g.White)
	cl.Clocks[1].Set(g.Black)
	if g.Running != ground.ColorNone && !g.Situation.End {
		cl.Clocks[clockIndex(g.Running)].Start()
	}
	if g.Msg != "" {
		cl.setMsg(g.Msg)
	}

	// a ply older than the one on display is only stored
	cl.Lock()
	follow := cl.live && oracle.PathPly(g.Situation.Path) >= oracle.PathPly(cl.Cursor.Path())
	cl.Unlock()
	cl.receive(g.Situation, follow)
}

// receive records sit in the history and shows it when jump is set or when
// sit is the ply already on display.
func (cl *Client) receive(sit oracle.Situation, jump bool) {
	cl.Lock()
	cl.recordL(sit.Path)
	if jump {
		cl.live = true
	}
	cl.Unlock()

	if jump {
		cl.Cursor.Jump(sit.Path)
	}
	if err := cl.Cursor.Apply(sit, cl.show); err != nil {
		cl.log.Debug().Err(err).Str("path", sit.Path).Msg("situation kept off the board")
	}
}

// recordL appends path to the line of plies, cutting off a variation it
// does not continue.
func (cl *Client) recordL(path string) {
	for _, p := range cl.history {
		if p == path {
			return
		}
	}
	for i, p := range cl.history {
		if p == oracle.ParentPath(path) {
			cl.history = append(cl.history[:i+1], path)
			return
		}
	}
	cl.history = append(cl.history, path)
}

func (cl *Client) show(sit oracle.Situation) {
	cl.Lock()
	color := cl.color
	browsing := cl.player != nil && !cl.live
	cl.Unlock()

	cfg := sit.BoardConfig(color)
	if browsing {
		cfg.MovableColor = ground.Ref(ground.ColorNone)
	}
	cl.Ground.Set(cfg)

	if sit.End {
		cl.Ground.Stop()
		cl.Clocks[0].Pause()
		cl.Clocks[1].Pause()
		cl.setMsg(strings.TrimSpace(sit.Outcome + " " + sit.Method))
		return
	}
	if browsing || color == ground.Both || color != sit.Turn {
		return
	}
	if !cl.Ground.PlayPremove() {
		cl.Ground.PlayPredrop(cl.rules.ValidateDrop(sit.FEN))
	}
}

// revert puts the board back on path after a refused move.
func (cl *Client) revert(path string) {
	if !cl.Cursor.Current(path) {
		return
	}
	if sit, ok := cl.Cursor.Get(path); ok {
		cl.show(sit)
	}
}

func (cl *Client) onUserMove(orig, dest ground.Key, meta ground.MoveMetadata) {
	path := cl.Ground.Path()
	cl.Lock()
	o, p, ctx, promote := cl.oracle, cl.player, cl.ctx, cl.promote
	cl.Unlock()

	if p != nil {
		p.Send(MessageMove{Path: path, Orig: orig, Dest: dest, Promotion: promote, Premove: meta.Premove}, NewRequestId())
		return
	}
	sit, ok := cl.Cursor.Get(path)
	if o == nil || !ok {
		return
	}
	next, err := o.Move(ctx, oracle.MoveRequest{Path: path, FEN: sit.FEN, Orig: orig, Dest: dest, Promotion: promote})
	if err != nil {
		cl.log.Warn().Err(err).Str("path", path).Msg("move refused")
		cl.setMsg(err.Error())
		cl.revert(path)
		return
	}
	cl.receive(next, true)
}

func (cl *Client) onUserNewPiece(piece ground.Piece, key ground.Key, meta ground.MoveMetadata) {
	path := cl.Ground.Path()
	cl.Lock()
	o, p, ctx := cl.oracle, cl.player, cl.ctx
	cl.Unlock()

	if p != nil {
		p.Send(MessageDrop{Path: path, Role: piece.Role, Key: key, Predrop: meta.Predrop}, NewRequestId())
		return
	}
	sit, ok := cl.Cursor.Get(path)
	if o == nil || !ok {
		return
	}
	next, err := o.Drop(ctx, oracle.DropRequest{Path: path, FEN: sit.FEN, Piece: piece, Key: key})
	if err != nil {
		cl.log.Warn().Err(err).Str("path", path).Msg("drop refused")
		cl.setMsg(err.Error())
		cl.revert(path)
		return
	}
	cl.receive(next, true)
}

func (cl *Client) flag(c ground.Color) {
	cl.log.Info().Stringer("color", c).Msg("flag fell")
	cl.setMsg(fmt.Sprintf("%s ran out of time", c))
	cl.Ground.Stop()
}

// Step moves the displayed ply by delta along the line of plies.
func (cl *Client) Step(delta int) bool {
	cl.Lock()
	idx := -1
	current := cl.Cursor.Path()
	for i, p := range cl.history {
		if p == current {
			idx = i
		}
	}
	next := idx + delta
	if idx < 0 || next < 0 || next >= len(cl.history) {
		cl.Unlock()
		return false
	}
	path := cl.history[next]
	cl.live = next == len(cl.history)-1
	o, ctx := cl.oracle, cl.ctx
	cl.Unlock()

	cl.Ground.CancelPremove()
	cl.Cursor.Jump(path)
	if o != nil {
		cl.Cursor.Fetch(ctx, o, "", path, cl.show)
	} else if sit, ok := cl.Cursor.Get(path); ok {
		cl.show(sit)
	}
	return true
}

// NextOrigin selects the next piece with a legal move, in board order.
func (cl *Client) NextOrigin() bool {
	cl.Lock()
	color := cl.color
	browsing := cl.player != nil && !cl.live
	cl.Unlock()

	sit, ok := cl.Cursor.Get(cl.Cursor.Path())
	if !ok || browsing || sit.MovableColor(color) != sit.Turn {
		return false
	}
	origins := sit.Origins()
	if len(origins) == 0 {
		return false
	}
	selected := cl.Ground.Selected()
	next := origins[0]
	if i := slices.Index(origins, selected); i >= 0 {
		next = origins[(i+1)%len(origins)]
	}
	if next == selected {
		return false
	}
	// a king may castle onto its rook, so never move from the old selection
	if selected != "" {
		cl.Ground.CancelMove()
	}
	cl.Ground.SelectSquare(next)
	return true
}

// Resign gives up the game, or just stops the board in local play.
func (cl *Client) Resign() {
	cl.Lock()
	p := cl.player
	cl.Unlock()

	if p != nil {
		p.Send(MessageResign{}, NewRequestId())
		return
	}
	cl.setMsg("resigned")
	cl.Ground.Stop()
}

func (cl *Client) setMsg(msg string) {
	cl.Lock()
	defer cl.Unlock()

	cl.msg = msg
}

// Status is the one line summary shown under the board.
func (cl *Client) Status() string {
	cl.Lock()
	msg, color, match := cl.msg, cl.color, cl.matchId
	cl.Unlock()

	var b strings.Builder
	if match != "" {
		fmt.Fprintf(&b, "[%s] ", match)
	}
	if color != ground.ColorNone && color != ground.Both {
		fmt.Fprintf(&b, "playing %s ", color)
	}
	if cl.Clocks[0].Remaining() > 0 || cl.Clocks[1].Remaining() > 0 {
		fmt.Fprintf(&b, "white %s black %s ", cl.Clocks[0], cl.Clocks[1])
	}
	switch m := cl.Ground.MaterialDiff(); {
	case m.Score > 0:
		fmt.Fprintf(&b, "white +%d ", m.Score)
	case m.Score < 0:
		fmt.Fprintf(&b, "black +%d ", -m.Score)
	}
	if msg != "" {
		b.WriteString("| " + msg)
	}
	return strings.TrimSpace(b.String())
}

func (cl *Client) Close() {
	cl.Cursor.Cancel()
	cl.Clocks[0].Pause()
	cl.Clocks[1].Pause()
	cl.Lock()
	p := cl.player
	cl.Unlock()
	if p != nil {
		p.Disconnect()
	}
	cl.Ground.Detach()
}
