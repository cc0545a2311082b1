package oracle

import "errors"

var (
	ErrInvalidFEN   = errors.New("invalid fen")
	ErrIllegalMove  = errors.New("illegal move")
	ErrInvalidDrop  = errors.New("invalid drop")
	ErrStalePath    = errors.New("stale path")
	ErrGameFinished = errors.New("game finished")
)
