package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

var diagonalDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// detectDiagonalTags: per own bishop/queen, per direction, marks the
// diagonal "open" when >=2 empty squares run out from it, flags long
// diagonals (a1-h8 / h1-a8) with total open length >= 4, and batteries
// (bishop+queen stacked toward the enemy king) (spec §4.1 "Diagonals").
func detectDiagonalTags(s *snapshot, side model.Color) []model.Tag {
	var out []model.Tag
	diagSlider := func(pt chess.PieceType) {
		for _, sq := range s.squaresOf(side, pt) {
			for _, d := range diagonalDirs {
				openLen, reaches := diagonalRun(s, sq, d)
				if openLen >= 2 {
					out = append(out, model.Tag{
						Name:    "tag.diagonal.open",
						Side:    side,
						Pieces:  []string{pieceLetter(pt) + sq},
						Squares: append([]string{sq}, reaches...),
						Details: map[string]any{"length": openLen},
					})
				}
				// Only the direction running along the long diagonal counts,
				// and its open run is summed with the run the other way.
				if d[0] > 0 && isLongDiagonalSquare(sq) && (d[0] == d[1]) == (fileIndex(sq[0]) == rankIndex(sq[1])) {
					back, _ := diagonalRun(s, sq, [2]int{-d[0], -d[1]})
					if total := openLen + back; total >= 4 {
						out = append(out, model.Tag{
							Name:    "tag.diagonal.long",
							Side:    side,
							Pieces:  []string{pieceLetter(pt) + sq},
							Squares: []string{sq},
							Details: map[string]any{"length": total},
						})
					}
				}
			}
		}
	}
	diagSlider(chess.Bishop)
	diagSlider(chess.Queen)

	out = append(out, batteryTags(s, side)...)
	return out
}

func diagonalRun(s *snapshot, from string, d [2]int) (int, []string) {
	f, r := fileIndex(from[0]), rankIndex(from[1])
	var reaches []string
	count := 0
	for {
		f += d[0]
		r += d[1]
		if !inBounds(f, r) {
			break
		}
		sq := squareName(f, r)
		if !s.empty(sq) {
			break
		}
		reaches = append(reaches, sq)
		count++
	}
	return count, reaches
}

func isLongDiagonalSquare(sq string) bool {
	f, r := fileIndex(sq[0]), rankIndex(sq[1])
	return f == r || f+r == 7
}

// batteryTags: own bishop and queen on the same diagonal, aligned so the
// far end points toward the enemy king.
func batteryTags(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	king, ok := s.kingSquare(opp)
	if !ok {
		return nil
	}
	bishops := s.squaresOf(side, chess.Bishop)
	queens := s.squaresOf(side, chess.Queen)
	var out []model.Tag
	for _, b := range bishops {
		for _, q := range queens {
			if !onSameDiagonal(b, q) {
				continue
			}
			if pointsToward(b, q, king) || pointsToward(q, b, king) {
				out = append(out, model.Tag{
					Name:    "tag.diagonal.battery",
					Side:    side,
					Pieces:  []string{"B" + b, "Q" + q},
					Squares: []string{b, q, king},
				})
			}
		}
	}
	return out
}

func onSameDiagonal(a, b string) bool {
	fa, ra := fileIndex(a[0]), rankIndex(a[1])
	fb, rb := fileIndex(b[0]), rankIndex(b[1])
	return fa-ra == fb-rb || fa+ra == fb+rb
}

// pointsToward checks whether walking from near away from far continues
// toward target's diagonal direction.
func pointsToward(near, far, target string) bool {
	fn, rn := fileIndex(near[0]), rankIndex(near[1])
	ff, rf := fileIndex(far[0]), rankIndex(far[1])
	ft, rt := fileIndex(target[0]), rankIndex(target[1])
	dirF, dirR := sign(fn-ff), sign(rn-rf)
	if dirF == 0 && dirR == 0 {
		return false
	}
	return sign(ft-fn) == dirF && sign(rt-rn) == dirR
}

func pieceLetter(pt chess.PieceType) string {
	switch pt {
	case chess.Bishop:
		return "B"
	case chess.Queen:
		return "Q"
	case chess.Rook:
		return "R"
	case chess.Knight:
		return "N"
	case chess.King:
		return "K"
	default:
		return ""
	}
}
