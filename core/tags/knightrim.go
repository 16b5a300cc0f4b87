package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

// detectKnightRimTags: a knight sitting on the a- or h-file is badly placed
// (spec §4.1 "Knight rim").
func detectKnightRimTags(s *snapshot, side model.Color) []model.Tag {
	var out []model.Tag
	for _, sq := range s.squaresOf(side, chess.Knight) {
		f := fileIndex(sq[0])
		if f == 0 || f == 7 {
			out = append(out, model.Tag{
				Name:    "tag.knight.rim",
				Side:    side,
				Pieces:  []string{"N" + sq},
				Squares: []string{sq},
			})
		}
	}
	return out
}
