package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

// detectFileTags: open/semi-open files, rooks on them, rooks on the 7th/2nd
// rank, and connected rooks (spec §4.1 "Files").
func detectFileTags(s *snapshot, side model.Color) []model.Tag {
	var out []model.Tag
	opp := side.Opposite()
	ownPawns := s.pawnFiles(side)
	oppPawns := s.pawnFiles(opp)

	for f := 0; f < 8; f++ {
		ownOnFile := ownPawns[f] > 0
		oppOnFile := oppPawns[f] > 0
		fileLetter := string(rune('a' + f))
		switch {
		case !ownOnFile && !oppOnFile:
			out = append(out, model.Tag{Name: "tag.file.open", Side: model.Both, Details: map[string]any{"file": fileLetter}})
		case !ownOnFile && oppOnFile:
			out = append(out, model.Tag{Name: "tag.file.semi_open", Side: side, Details: map[string]any{"file": fileLetter}})
		}
	}

	rookRank := map[model.Color]int{model.White: 6, model.Black: 1} // 7th for white, 2nd for black (0-indexed)
	for _, rsq := range s.squaresOf(side, chess.Rook) {
		f := fileIndex(rsq[0])
		if ownPawns[f] == 0 && oppPawns[f] == 0 {
			out = append(out, model.Tag{Name: "tag.rook.open_file", Side: side, Pieces: []string{"R" + rsq}, Squares: []string{rsq}})
		} else if ownPawns[f] == 0 && oppPawns[f] > 0 {
			out = append(out, model.Tag{Name: "tag.rook.semi_open_file", Side: side, Pieces: []string{"R" + rsq}, Squares: []string{rsq}})
		}
		if rankIndex(rsq[1]) == rookRank[side] {
			out = append(out, model.Tag{Name: "tag.rook.seventh_rank", Side: side, Pieces: []string{"R" + rsq}, Squares: []string{rsq}})
		}
	}

	out = append(out, connectedRooks(s, side)...)
	return out
}

// connectedRooks: two own rooks on the same rank or file with nothing
// between them.
func connectedRooks(s *snapshot, side model.Color) []model.Tag {
	rooks := s.squaresOf(side, chess.Rook)
	if len(rooks) < 2 {
		return nil
	}
	var out []model.Tag
	for i := 0; i < len(rooks); i++ {
		for j := i + 1; j < len(rooks); j++ {
			a, b := rooks[i], rooks[j]
			if connected(s, a, b) {
				out = append(out, model.Tag{
					Name:    "tag.rook.connected",
					Side:    side,
					Pieces:  []string{"R" + a, "R" + b},
					Squares: []string{a, b},
				})
			}
		}
	}
	return out
}

func connected(s *snapshot, a, b string) bool {
	fa, ra := fileIndex(a[0]), rankIndex(a[1])
	fb, rb := fileIndex(b[0]), rankIndex(b[1])
	if fa == fb {
		return emptyBetween(s, fa, ra, fb, rb)
	}
	if ra == rb {
		return emptyBetween(s, fa, ra, fb, rb)
	}
	return false
}

func emptyBetween(s *snapshot, fa, ra, fb, rb int) bool {
	df := sign(fb - fa)
	dr := sign(rb - ra)
	f, r := fa+df, ra+dr
	for f != fb || r != rb {
		if !s.empty(squareName(f, r)) {
			return false
		}
		f += df
		r += dr
	}
	return true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
