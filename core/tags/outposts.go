package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

// detectOutpostHoleTags: knight outposts and king-zone holes (spec §4.1
// "Outposts / holes").
func detectOutpostHoleTags(s *snapshot, side model.Color) []model.Tag {
	var out []model.Tag
	out = append(out, knightOutposts(s, side)...)
	if pawnStructureChanged(s) {
		out = append(out, holes(s, side)...)
	}
	return out
}

func knightOutposts(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	rank5, rank6 := 4, 5
	if side == model.Black {
		rank5, rank6 = 3, 2
	}
	var out []model.Tag
	for _, sq := range s.squaresOf(side, chess.Knight) {
		r := rankIndex(sq[1])
		if r != rank5 && r != rank6 {
			continue
		}
		if !pawnGuards(s, sq, side) {
			continue
		}
		if enemyPawnCanReach(s, sq, opp) {
			continue
		}
		out = append(out, model.Tag{
			Name:    "tag.knight.outpost",
			Side:    side,
			Pieces:  []string{"N" + sq},
			Squares: []string{sq},
		})
	}
	return out
}

// pawnGuards reports whether one of side's pawns defends sq (a pawn
// diagonally behind it, from side's perspective).
func pawnGuards(s *snapshot, sq string, side model.Color) bool {
	f, r := fileIndex(sq[0]), rankIndex(sq[1])
	behind := -1
	if side == model.White {
		behind = r - 1
	} else {
		behind = r + 1
	}
	for _, df := range []int{-1, 1} {
		if !inBounds(f+df, behind) {
			continue
		}
		if s.isPawn(squareName(f+df, behind), side) {
			return true
		}
	}
	return false
}

// enemyPawnCanReach reports whether any of opp's pawns could capture onto
// sq with a single push/capture, i.e. a pawn one rank toward sq on an
// adjacent file.
func enemyPawnCanReach(s *snapshot, sq string, opp model.Color) bool {
	f, r := fileIndex(sq[0]), rankIndex(sq[1])
	toward := r + 1
	if opp == model.White {
		toward = r - 1
	}
	for _, df := range []int{-1, 1} {
		if !inBounds(f+df, toward) {
			continue
		}
		if s.isPawn(squareName(f+df, toward), opp) {
			return true
		}
	}
	return false
}

func holes(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	king, ok := s.kingSquare(side)
	if !ok {
		return nil
	}
	kf, kr := fileIndex(king[0]), rankIndex(king[1])
	var out []model.Tag
	for _, sq := range allSquares {
		f, r := fileIndex(sq[0]), rankIndex(sq[1])
		if chebyshev(f, r, kf, kr) > 2 {
			continue
		}
		if abs(f-kf) > 1 {
			continue
		}
		if pawnGuards(s, sq, side) {
			continue
		}
		if !controlledBy(s, sq, opp) {
			continue
		}
		out = append(out, model.Tag{
			Name:    "tag.color.hole",
			Side:    side,
			Squares: []string{sq},
		})
	}
	return out
}

func chebyshev(f1, r1, f2, r2 int) int {
	return max(abs(f1-f2), abs(r1-r2))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// controlledBy is a coarse approximation: any of opp's pawns, knights, or
// king attack sq directly (the structural notion the tag family needs,
// not a full attacker-set computation).
func controlledBy(s *snapshot, sq string, opp model.Color) bool {
	f, r := fileIndex(sq[0]), rankIndex(sq[1])
	toward := r + 1
	if opp == model.White {
		toward = r - 1
	}
	for _, df := range []int{-1, 1} {
		if inBounds(f+df, toward) && s.isPawn(squareName(f+df, toward), opp) {
			return true
		}
	}
	for _, off := range knightOffsets {
		nf, nr := f+off[0], r+off[1]
		if inBounds(nf, nr) && s.isPiece(squareName(nf, nr), opp, chess.Knight) {
			return true
		}
	}
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if (df != 0 || dr != 0) && inBounds(f+df, r+dr) && s.isPiece(squareName(f+df, r+dr), opp, chess.King) {
				return true
			}
		}
	}
	return false
}

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {-1, 2}, {-2, 1},
	{1, -2}, {2, -1}, {-1, -2}, {-2, -1},
}

// pawnStructureChanged compares current pawn occupancy to the standard
// opening array; holes are only meaningful once pawns have moved (spec
// §4.1, and the invariant that no hole tag is produced from the initial
// position).
func pawnStructureChanged(s *snapshot) bool {
	for f := 0; f < 8; f++ {
		if !s.isPawn(squareName(f, 1), model.White) {
			return true
		}
		if !s.isPawn(squareName(f, 6), model.Black) {
			return true
		}
	}
	for _, sq := range s.squaresOf(model.White, chess.Pawn) {
		if rankIndex(sq[1]) != 1 {
			return true
		}
	}
	for _, sq := range s.squaresOf(model.Black, chess.Pawn) {
		if rankIndex(sq[1]) != 6 {
			return true
		}
	}
	return false
}
