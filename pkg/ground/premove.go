package ground

type mobility func(x1, y1, x2, y2 int) bool

func diff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func pawnMobility(color Color) mobility {
	return func(x1, y1, x2, y2 int) bool {
		if diff(x1, x2) >= 2 {
			return false
		}
		if color == White {
			return y2 == y1+1 || (y1 <= 1 && y2 == y1+2 && x1 == x2)
		}
		return y2 == y1-1 || (y1 >= 6 && y2 == y1-2 && x1 == x2)
	}
}

func knightMobility(x1, y1, x2, y2 int) bool {
	xd, yd := diff(x1, x2), diff(y1, y2)
	return (xd == 1 && yd == 2) || (xd == 2 && yd == 1)
}

func bishopMobility(x1, y1, x2, y2 int) bool {
	return diff(x1, x2) == diff(y1, y2)
}

func rookMobility(x1, y1, x2, y2 int) bool {
	return x1 == x2 || y1 == y2
}

func queenMobility(x1, y1, x2, y2 int) bool {
	return bishopMobility(x1, y1, x2, y2) || rookMobility(x1, y1, x2, y2)
}

func kingMobility(color Color, rookFiles []int, canCastle bool) mobility {
	hasRook := func(file int) bool {
		for _, f := range rookFiles {
			if f == file {
				return true
			}
		}
		return false
	}
	backRank := 0
	if color == Black {
		backRank = 7
	}
	return func(x1, y1, x2, y2 int) bool {
		if diff(x1, x2) < 2 && diff(y1, y2) < 2 {
			return true
		}
		if !canCastle || y1 != y2 || y1 != backRank {
			return false
		}
		if x1 == 4 && ((x2 == 2 && hasRook(0)) || (x2 == 6 && hasRook(7))) {
			return true
		}
		return hasRook(x2)
	}
}

func rookFilesOf(pieces Pieces, color Color) []int {
	backRank := byte('1')
	if color == Black {
		backRank = '8'
	}
	var files []int
	for k, p := range pieces {
		if k.Rank() == backRank && p.Color == color && p.Role == Rook {
			files = append(files, k.Pos().File)
		}
	}
	return files
}

// PremoveDests lists the squares the piece on key could reach on an empty
// board. Used to arm premoves before legal moves are known.
func PremoveDests(pieces Pieces, key Key, canCastle bool) []Key {
	piece, ok := pieces[key]
	if !ok {
		return nil
	}

	var m mobility
	switch piece.Role {
	case Pawn:
		m = pawnMobility(piece.Color)
	case Knight:
		m = knightMobility
	case Bishop:
		m = bishopMobility
	case Rook:
		m = rookMobility
	case Queen:
		m = queenMobility
	case King:
		m = kingMobility(piece.Color, rookFilesOf(pieces, piece.Color), canCastle)
	default:
		return nil
	}

	from := key.Pos()
	var dests []Key
	for _, k := range AllKeys {
		to := k.Pos()
		if to == from {
			continue
		}
		if m(from.File, from.Rank, to.File, to.Rank) {
			dests = append(dests, k)
		}
	}
	return dests
}
