package pkg

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qnkhuat/termground/pkg/ground"
	"github.com/qnkhuat/termground/pkg/oracle"
)

type MessageType int

const (
	TypeMessageGame MessageType = iota
	TypeMessageMove
	TypeMessageTransport
	TypeMessageConnect
	TypeMessageJoin
	TypeMessageDrop
	TypeMessageReject
	TypeMessageResign
)

func (m MessageType) String() string {
	switch m {
	case TypeMessageGame:
		return "TypeMessageGame"
	case TypeMessageMove:
		return "TypeMessageMove"
	case TypeMessageTransport:
		return "TypeMessageTransport"
	case TypeMessageConnect:
		return "TypeMessageConnect"
	case TypeMessageJoin:
		return "TypeMessageJoin"
	case TypeMessageDrop:
		return "TypeMessageDrop"
	case TypeMessageReject:
		return "TypeMessageReject"
	case TypeMessageResign:
		return "TypeMessageResign"
	default:
		return "Unknown MessageType"
	}
}

type MessageInterface interface {
	Type() MessageType
}

// MessageTransport is the envelope written on the wire, one JSON object per
// line. RequestId ties a reject to the move that caused it.
type MessageTransport struct {
	MsgType   MessageType
	Data      json.RawMessage
	PlayerId  int    `json:",omitempty"`
	RequestId string `json:",omitempty"`
}

func (m MessageTransport) Type() MessageType {
	return TypeMessageTransport
}

// MessageJoin is the first message of a client. An empty MatchId asks for a
// new match.
type MessageJoin struct {
	MatchId string
	Name    string
}

func (m MessageJoin) Type() MessageType {
	return TypeMessageJoin
}

// MessageConnect answers a join with the seat and the current position.
type MessageConnect struct {
	MatchId string
	Color   PlayerColor
	Name    string
	Game    MessageGame
}

func (m MessageConnect) Type() MessageType {
	return TypeMessageConnect
}

// MessageMove asks to play Orig-Dest on the ply identified by Path.
type MessageMove struct {
	Path      string
	Orig      ground.Key
	Dest      ground.Key
	Promotion ground.Role `json:",omitempty"`
	Premove   bool        `json:",omitempty"`
}

func (m MessageMove) Type() MessageType {
	return TypeMessageMove
}

type MessageDrop struct {
	Path    string
	Role    ground.Role
	Key     ground.Key
	Predrop bool `json:",omitempty"`
}

func (m MessageDrop) Type() MessageType {
	return TypeMessageDrop
}

// MessageGame is the per ply update broadcast to everyone in a match.
type MessageGame struct {
	Situation oracle.Situation
	White     time.Duration
	Black     time.Duration
	// Running is the side whose clock is ticking
	Running ground.Color `json:",omitempty"`
	Msg     string       `json:",omitempty"`
}

func (m MessageGame) Type() MessageType {
	return TypeMessageGame
}

// MessageReject tells a player their move was refused. Path is the ply the
// board should go back to.
type MessageReject struct {
	Path   string
	Reason string
}

func (m MessageReject) Type() MessageType {
	return TypeMessageReject
}

type MessageResign struct{}

func (m MessageResign) Type() MessageType {
	return TypeMessageResign
}

// NewRequestId tags an outgoing request.
func NewRequestId() string {
	return uuid.NewString()
}

// Encode wraps message into a transport line terminated by a newline.
func Encode(message MessageInterface, requestId string) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", message.Type(), err)
	}
	b, err := json.Marshal(MessageTransport{MsgType: message.Type(), Data: data, RequestId: requestId})
	if err != nil {
		return nil, fmt.Errorf("encode transport: %w", err)
	}
	return append(b, '\n'), nil
}

// Decode parses the payload of a transport into its message type.
func Decode(t MessageTransport) (MessageInterface, error) {
	var (
		message MessageInterface
		err     error
	)
	switch t.MsgType {
	case TypeMessageGame:
		var m MessageGame
		err = json.Unmarshal(t.Data, &m)
		message = m
	case TypeMessageMove:
		var m MessageMove
		err = json.Unmarshal(t.Data, &m)
		message = m
	case TypeMessageConnect:
		var m MessageConnect
		err = json.Unmarshal(t.Data, &m)
		message = m
	case TypeMessageJoin:
		var m MessageJoin
		err = json.Unmarshal(t.Data, &m)
		message = m
	case TypeMessageDrop:
		var m MessageDrop
		err = json.Unmarshal(t.Data, &m)
		message = m
	case TypeMessageReject:
		var m MessageReject
		err = json.Unmarshal(t.Data, &m)
		message = m
	case TypeMessageResign:
		message = MessageResign{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, t.MsgType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.MsgType, err)
	}
	return message, nil
}

// DecodeLine parses one wire line.
func DecodeLine(line []byte) (MessageTransport, MessageInterface, error) {
	var t MessageTransport
	if err := json.Unmarshal(line, &t); err != nil {
		return t, nil, fmt.Errorf("decode transport: %w", err)
	}
	m, err := Decode(t)
	return t, m, err
}
