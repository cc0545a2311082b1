package pkg

import (
	"bufio"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/qnkhuat/termground/pkg/ground"
)

type PlayerColor int

const (
	White PlayerColor = iota
	Black
	Viewer
	Unknown
)

func (pc PlayerColor) String() string {
	switch pc {
	case White:
		return "White"
	case Black:
		return "Black"
	case Viewer:
		return "Viewer"
	default:
		return "Unknown"
	}
}

// Side is the board color a seat moves for. Viewers move for nobody.
func (pc PlayerColor) Side() ground.Color {
	switch pc {
	case White:
		return ground.White
	case Black:
		return ground.Black
	default:
		return ground.ColorNone
	}
}

func colorOfSide(c ground.Color) PlayerColor {
	switch c {
	case ground.White:
		return White
	case ground.Black:
		return Black
	default:
		return Unknown
	}
}

type Outgoing struct {
	Message   MessageInterface
	RequestId string
}

type Player struct {
	Conn  net.Conn
	Color PlayerColor
	Out   chan Outgoing
	Id    int
	Name  string

	log    zerolog.Logger
	closed bool

	sync.Mutex
}

func NewPlayer(conn net.Conn, id int, log zerolog.Logger) *Player {
	return &Player{
		Conn:  conn,
		Color: Unknown,
		Out:   make(chan Outgoing, ConnQueueSize),
		Id:    id,
		log:   log.With().Int("player", id).Logger(),
	}
}

// Send queues message without blocking. A player too slow to drain its queue
// misses the message.
func (p *Player) Send(message MessageInterface, requestId string) {
	p.Lock()
	defer p.Unlock()

	if p.closed {
		return
	}
	select {
	case p.Out <- Outgoing{Message: message, RequestId: requestId}:
	default:
		p.log.Warn().Stringer("type", message.Type()).Msg("outgoing queue full, message dropped")
	}
}

// HandleRead decodes every line from the connection and hands it to handle,
// stamped with the player id. It returns when the connection ends.
func (p *Player) HandleRead(handle func(MessageTransport, MessageInterface)) error {
	scanner := bufio.NewScanner(p.Conn)
	for scanner.Scan() {
		t, message, err := DecodeLine(scanner.Bytes())
		if err != nil {
			p.log.Warn().Err(err).Msg("bad message")
			continue
		}
		t.PlayerId = p.Id
		handle(t, message)
	}
	return scanner.Err()
}

func (p *Player) HandleWrite() {
	for out := range p.Out {
		b, err := Encode(out.Message, out.RequestId)
		if err != nil {
			p.log.Error().Err(err).Msg("encode")
			continue
		}
		if _, err := p.Conn.Write(b); err != nil {
			p.log.Error().Err(err).Stringer("type", out.Message.Type()).Msg("failed to write")
			return
		}
	}
}

func (p *Player) Disconnect() {
	p.Lock()
	defer p.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.Out)
	if p.Conn != nil {
		p.Conn.Close()
	}
}
