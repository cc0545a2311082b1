package ground

import (
	"math"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AnimVector is the offset of an animated piece from its settled square.
type AnimVector struct {
	Start   Point
	Current Point
}

// Plan is a motion plan: pieces sliding towards their square, and captured
// pieces fading out where they stood.
type Plan struct {
	Anims   map[Key]*AnimVector
	Fadings map[Key]Piece
}

func (p Plan) Empty() bool {
	return len(p.Anims) == 0 && len(p.Fadings) == 0
}

type Animation struct {
	// Start is zero until the first frame
	Start    time.Time
	Duration time.Duration
	Plan     Plan
}

// EaseInOutCubic maps t in [0,1] onto the same range.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return (t-1)*(2*t-2)*(2*t-2) + 1
}

type animPiece struct {
	key   Key
	pos   Pos
	piece Piece
}

func closer(piece animPiece, candidates []animPiece) (animPiece, bool) {
	best, bestDist := -1, math.MaxInt
	for i, c := range candidates {
		if d := c.pos.DistanceSq(piece.pos); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return animPiece{}, false
	}
	return candidates[best], true
}

// ComputePlan diffs two placements. Every piece that appeared is matched with
// the closest vanished piece of the same kind; the pair becomes a slide.
// Vanished pieces left unmatched fade out. Moves longer than maxSquares king
// steps are not animated when maxSquares is positive.
func ComputePlan(prev, cur Pieces, orientation Color, b Bounds, maxSquares int) Plan {
	plan := Plan{Anims: make(map[Key]*AnimVector), Fadings: make(map[Key]Piece)}
	if b.Empty() {
		return plan
	}

	var missings, news []animPiece
	for _, k := range AllKeys {
		curP, hasCur := cur[k]
		preP, hasPre := prev[k]
		switch {
		case hasCur && hasPre:
			if curP != preP {
				missings = append(missings, animPiece{k, k.Pos(), preP})
				news = append(news, animPiece{k, k.Pos(), curP})
			}
		case hasCur:
			news = append(news, animPiece{k, k.Pos(), curP})
		case hasPre:
			missings = append(missings, animPiece{k, k.Pos(), preP})
		}
	}

	animedOrigs := make(map[Key]bool)
	for _, n := range news {
		var candidates []animPiece
		for _, m := range missings {
			if m.piece.Kind() == n.piece.Kind() && !animedOrigs[m.key] {
				candidates = append(candidates, m)
			}
		}
		pre, ok := closer(n, candidates)
		if !ok {
			continue
		}
		animedOrigs[pre.key] = true
		if maxSquares > 0 && pre.pos.Chebyshev(n.pos) > maxSquares {
			continue
		}
		from := PosToTranslate(pre.pos, orientation, b)
		to := PosToTranslate(n.pos, orientation, b)
		vec := Point{RoundBy(from.X - to.X), RoundBy(from.Y - to.Y)}
		if vec.Zero() {
			continue
		}
		plan.Anims[n.key] = &AnimVector{Start: vec, Current: vec}
	}

	for _, m := range missings {
		if !animedOrigs[m.key] {
			plan.Fadings[m.key] = m.piece
		}
	}
	return plan
}

// Step advances the animation to now. It reports false once the animation
// has run its course.
func (a *Animation) Step(now time.Time) bool {
	if a.Start.IsZero() {
		a.Start = now
	}
	if a.Duration <= 0 {
		return false
	}
	rest := 1 - float64(now.Sub(a.Start))/float64(a.Duration)
	if rest <= 0 {
		return false
	}
	ease := EaseInOutCubic(rest)
	for _, v := range a.Plan.Anims {
		v.Current = Point{RoundBy(v.Start.X * ease), RoundBy(v.Start.Y * ease)}
	}
	return true
}

// AnimatedKeys lists the keys of sliding pieces in board order.
func (p Plan) AnimatedKeys() []Key {
	keys := maps.Keys(p.Anims)
	slices.Sort(keys)
	return keys
}
