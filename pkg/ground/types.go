package ground

type Color int

const (
	ColorNone Color = iota
	White
	Black
	// Both lets either side move, used for analysis boards
	Both
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Both:
		return "both"
	default:
		return "none"
	}
}

// Opposite returns the other side. ColorNone and Both are returned unchanged.
func (c Color) Opposite() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return c
	}
}

type Role int

const (
	NoRole Role = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

var Roles = []Role{King, Queen, Rook, Bishop, Knight, Pawn}

func (r Role) String() string {
	switch r {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	default:
		return ""
	}
}

// Letter is the upper case SAN letter of the role (P for pawns).
func (r Role) Letter() byte {
	switch r {
	case King:
		return 'K'
	case Queen:
		return 'Q'
	case Rook:
		return 'R'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Pawn:
		return 'P'
	default:
		return 0
	}
}

// RoleFromLetter parses a SAN letter in either case.
func RoleFromLetter(b byte) Role {
	switch b {
	case 'K', 'k':
		return King
	case 'Q', 'q':
		return Queen
	case 'R', 'r':
		return Rook
	case 'B', 'b':
		return Bishop
	case 'N', 'n':
		return Knight
	case 'P', 'p':
		return Pawn
	default:
		return NoRole
	}
}

type Piece struct {
	Role  Role  `json:"role"`
	Color Color `json:"color"`
}

// Kind identifies interchangeable pieces. Animation matches moved pieces by kind.
func (p Piece) Kind() string {
	return p.Color.String() + p.Role.String()
}

func (p Piece) String() string {
	return p.Kind()
}

// Pieces is a sparse placement: only occupied squares have an entry.
type Pieces map[Key]Piece

func (p Pieces) Clone() Pieces {
	c := make(Pieces, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// PiecesDiff adds (non-nil) or removes (nil) pieces.
type PiecesDiff map[Key]*Piece

// Dests maps an origin to its legal destinations.
type Dests map[Key][]Key

func (d Dests) Contains(orig, dest Key) bool {
	for _, k := range d[orig] {
		if k == dest {
			return true
		}
	}
	return false
}

// Move is a committed origin/destination pair. Drops have an empty Orig.
type Move struct {
	Orig Key `json:"orig,omitempty"`
	Dest Key `json:"dest"`
}

// Keys returns the highlighted squares of the move.
func (m Move) Keys() []Key {
	if m.Orig == "" {
		return []Key{m.Dest}
	}
	return []Key{m.Orig, m.Dest}
}

type Premove struct {
	Orig Key
	Dest Key
}

type Predrop struct {
	Role Role
	Key  Key
}

// Drop is handed to predrop validation.
type Drop struct {
	Role Role
	Key  Key
}

type MoveMetadata struct {
	Premove  bool
	Predrop  bool
	Captured *Piece
}
