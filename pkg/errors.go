package pkg

import "errors"

var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrMatchFull      = errors.New("match is full")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotPlaying     = errors.New("viewers cannot play")
)
