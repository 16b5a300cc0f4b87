package see

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// scanMates finds mate-in-1 moves and forced mate-in-2 sequences (every
// opponent reply loses to some own follow-up mate-in-1), plus a coarse
// back-rank-weakness pattern flag (spec §4.3 "checkmates" / "mate_patterns").
func scanMates(g *chess.Game, side model.Color) ([]string, []MatePattern) {
	enc := chess.AlgebraicNotation{}
	var mates []string

	for _, m := range g.ValidMoves() {
		san := enc.Encode(g.Position(), m)
		next, err := rules.Clone(g)
		if err != nil {
			continue
		}
		if err := rules.ApplySAN(next, san); err != nil {
			continue
		}
		if next.Method() == chess.Checkmate {
			mates = append(mates, san)
			continue
		}
		if forcedMateInOneAfter(next, side) {
			mates = append(mates, san+" (forced mate-in-2)")
		}
	}

	var patterns []MatePattern
	if sq, ok := backRankWeak(g, side.Opposite()); ok {
		patterns = append(patterns, MatePattern{Name: "back_rank", Squares: []string{sq}})
	}
	return mates, patterns
}

// forcedMateInOneAfter checks that, after own move, every opponent reply
// allows at least one own follow-up delivering checkmate.
func forcedMateInOneAfter(afterOwnMove *chess.Game, side model.Color) bool {
	if len(afterOwnMove.ValidMoves()) == 0 {
		return false // already mate or stalemate, handled by the caller
	}
	enc := chess.AlgebraicNotation{}
	for _, reply := range afterOwnMove.ValidMoves() {
		replySan := enc.Encode(afterOwnMove.Position(), reply)
		afterReply, err := rules.Clone(afterOwnMove)
		if err != nil {
			return false
		}
		if err := rules.ApplySAN(afterReply, replySan); err != nil {
			return false
		}
		if afterReply.Method() == chess.Checkmate {
			return false // the reply mates us, so no own follow-up exists
		}
		if !hasMateInOne(afterReply) {
			return false
		}
	}
	return true
}

func hasMateInOne(g *chess.Game) bool {
	enc := chess.AlgebraicNotation{}
	for _, m := range g.ValidMoves() {
		san := enc.Encode(g.Position(), m)
		next, err := rules.Clone(g)
		if err != nil {
			continue
		}
		if err := rules.ApplySAN(next, san); err != nil {
			continue
		}
		if next.Method() == chess.Checkmate {
			return true
		}
	}
	return false
}

// backRankWeak flags a coarse back-rank weakness: king on its home rank
// with every square directly in front of it (the up-to-three squares on the
// next rank) occupied by some piece of either colour, a structural
// precondition for the classic back-rank mating pattern.
func backRankWeak(g *chess.Game, king model.Color) (string, bool) {
	rank := 0
	if king == model.Black {
		rank = 7
	}
	var kingSq string
	for f := 0; f < 8; f++ {
		sq := string(rune('a'+f)) + string(rune('1'+rank))
		p, ok := rules.PieceAt(g, sq)
		if ok && p.Type() == chess.King && colorOf(p) == king {
			kingSq = sq
			break
		}
	}
	if kingSq == "" {
		return "", false
	}
	escapeRank := rank + 1
	if king == model.Black {
		escapeRank = rank - 1
	}
	f := int(kingSq[0] - 'a')
	blocked := 0
	total := 0
	for _, df := range []int{-1, 0, 1} {
		nf := f + df
		if nf < 0 || nf > 7 {
			continue
		}
		total++
		sq := string(rune('a'+nf)) + string(rune('1'+escapeRank))
		if _, occupied := rules.PieceAt(g, sq); occupied {
			blocked++
		}
	}
	if total > 0 && blocked == total {
		return kingSq, true
	}
	return "", false
}

func colorOf(p chess.Piece) model.Color {
	if p.Color() == chess.White {
		return model.White
	}
	return model.Black
}
