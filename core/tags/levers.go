package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

// detectLeverTags: for each own pawn's push square, an adjacent enemy pawn
// creates a lever (spec §4.1 "Levers").
func detectLeverTags(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	dir := 1
	if side == model.Black {
		dir = -1
	}
	var out []model.Tag
	for _, sq := range s.squaresOf(side, chess.Pawn) {
		f, r := fileIndex(sq[0]), rankIndex(sq[1])
		pushRank := r + dir
		if !inBounds(f, pushRank) {
			continue
		}
		for _, df := range []int{-1, 1} {
			nf := f + df
			if !inBounds(nf, pushRank) {
				continue
			}
			target := squareName(nf, pushRank)
			if s.isPawn(target, opp) {
				out = append(out, model.Tag{
					Name:    "tag.pawn.lever",
					Side:    side,
					Pieces:  []string{"P" + sq},
					Squares: []string{sq, target},
				})
			}
		}
	}
	return out
}
