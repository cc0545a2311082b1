package ground

import (
	"time"

	"github.com/rs/zerolog"
)

// Config is the construction config of a board. DefaultConfig fills in the
// interactive defaults.
type Config struct {
	// FEN placement; empty means the initial position
	FEN          string
	Orientation  Color
	TurnColor    Color
	// Check marks the king of TurnColor
	Check        bool
	LastMove     *Move
	Coordinates  CoordsMode
	ViewOnly     bool
	Fixed        bool
	AutoCastle   bool
	Path         string
	Movable      Movable
	Premovable   Premovable
	Predroppable Predroppable
	Draggable    Draggable
	Animation    AnimationConfig
	Events       Events

	Logger    zerolog.Logger
	Scheduler Scheduler
	// FrameInterval is the delay between animation frames
	FrameInterval time.Duration
}

func DefaultConfig() Config {
	s := NewState()
	return Config{
		Orientation:   s.Orientation,
		TurnColor:     s.TurnColor,
		Coordinates:   s.Coordinates,
		AutoCastle:    s.AutoCastle,
		Movable:       s.Movable,
		Premovable:    s.Premovable,
		Draggable:     s.Draggable,
		Animation:     s.Animation,
		Logger:        zerolog.Nop(),
		FrameInterval: time.Second / 60,
	}
}

// Configure starts over on s from cfg: selection, premove and predrop are
// dropped. Nothing changes when the placement does not parse.
func Configure(s *State, cfg Config) error {
	fen := cfg.FEN
	if fen == "" {
		fen = InitialFEN
	}
	pieces, err := ReadFEN(fen)
	if err != nil {
		return err
	}

	Reset(s)
	s.Pieces = pieces
	s.Orientation = cfg.Orientation
	s.TurnColor = cfg.TurnColor
	s.LastMove = cfg.LastMove
	s.Coordinates = cfg.Coordinates
	s.ViewOnly = cfg.ViewOnly
	s.Fixed = cfg.Fixed
	s.AutoCastle = cfg.AutoCastle
	s.Path = cfg.Path
	s.Movable = cfg.Movable
	s.Premovable.Enabled = cfg.Premovable.Enabled
	s.Premovable.Castle = cfg.Premovable.Castle
	s.Predroppable.Enabled = cfg.Predroppable.Enabled
	s.Draggable = cfg.Draggable
	s.Animation = cfg.Animation
	s.Events = cfg.Events
	if cfg.Check {
		SetCheck(s, s.TurnColor)
	} else {
		s.Check = ""
	}
	return nil
}

// SetConfig is the per-ply update pushed after every validated ply. Nil
// fields are left unchanged.
type SetConfig struct {
	FEN          string
	Orientation  *Color
	TurnColor    *Color
	MovableColor *Color
	// Dests replaces the destination map. A pointer to a nil map means
	// moves are unknown.
	Dests *Dests
	// Check marks the king of the turn color
	Check *bool
	// LastMove sets the highlight. A pointer to the zero Move clears it.
	LastMove *Move
	Path     *string
}

func Ref[T any](v T) *T {
	return &v
}

// SetNewBoardState applies a per-ply update.
func SetNewBoardState(s *State, cfg SetConfig) error {
	if cfg.FEN != "" {
		pieces, err := ReadFEN(cfg.FEN)
		if err != nil {
			return err
		}
		s.Pieces = pieces
	}
	if cfg.Orientation != nil {
		s.Orientation = *cfg.Orientation
	}
	if cfg.TurnColor != nil {
		s.TurnColor = *cfg.TurnColor
	}
	if cfg.Check != nil {
		if *cfg.Check {
			SetCheck(s, s.TurnColor)
		} else {
			s.Check = ""
		}
	}
	if cfg.LastMove != nil {
		if cfg.LastMove.Dest == "" {
			s.LastMove = nil
		} else {
			lm := *cfg.LastMove
			s.LastMove = &lm
		}
	}
	if cfg.Path != nil {
		s.Path = *cfg.Path
	}
	if cfg.MovableColor != nil {
		s.Movable.Color = *cfg.MovableColor
	}
	if cfg.Dests != nil {
		s.Movable.Dests = *cfg.Dests
	}

	// keep the selection only while it still names a selectable piece
	if sel := s.Selected(); sel != "" {
		if _, ok := s.Pieces[sel]; ok && (isMovable(s, sel) || isPremovable(s, sel)) {
			setSelected(s, sel)
		} else {
			Unselect(s)
		}
	}
	callChange(s)
	return nil
}
