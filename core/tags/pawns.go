package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

// detectPawnTags: doubled pawns per file, passed pawns per pawn with a
// protected flag (spec §4.1 "Pawns").
func detectPawnTags(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	var out []model.Tag

	byFile := map[int][]string{}
	for _, sq := range s.squaresOf(side, chess.Pawn) {
		f := fileIndex(sq[0])
		byFile[f] = append(byFile[f], sq)
	}
	for f := 0; f < 8; f++ {
		squares := byFile[f]
		if len(squares) > 1 {
			out = append(out, model.Tag{
				Name:    "tag.pawn.doubled",
				Side:    side,
				Pieces:  pieceTokens("P", squares),
				Squares: squares,
				Details: map[string]any{"file": string(rune('a' + f))},
			})
		}
	}

	anyProtectedPassed := false
	for _, sq := range s.squaresOf(side, chess.Pawn) {
		if !isPassed(s, sq, side, opp) {
			continue
		}
		protected := pawnGuards(s, sq, side)
		if protected {
			anyProtectedPassed = true
		}
		out = append(out, model.Tag{
			Name:    "tag.pawn.passed",
			Side:    side,
			Pieces:  []string{"P" + sq},
			Squares: []string{sq},
			Details: map[string]any{"protected": protected},
		})
	}
	if anyProtectedPassed {
		out = append(out, model.Tag{Name: "tag.pawn.passed.protected", Side: side})
	}

	return out
}

// isPassed: no enemy pawn on the same or adjacent file ahead of sq (in
// side's direction of travel).
func isPassed(s *snapshot, sq string, side, opp model.Color) bool {
	f, r := fileIndex(sq[0]), rankIndex(sq[1])
	step := 1
	limit := 7
	if side == model.Black {
		step = -1
		limit = 0
	}
	for _, df := range []int{-1, 0, 1} {
		nf := f + df
		if nf < 0 || nf > 7 {
			continue
		}
		for nr := r + step; ; nr += step {
			if (step > 0 && nr > limit) || (step < 0 && nr < limit) {
				break
			}
			if s.isPawn(squareName(nf, nr), opp) {
				return false
			}
		}
	}
	return true
}
