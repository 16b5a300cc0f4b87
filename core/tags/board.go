package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// cell is one square's occupant, or empty.
type cell struct {
	occupied bool
	color    model.Color
	piece    chess.PieceType
}

// snapshot is a flattened read of the whole board, taken once per detector
// run so every tag family walks plain arrays instead of re-querying the
// rules adapter per square.
type snapshot struct {
	g     *chess.Game
	cells map[string]cell
}

func newSnapshot(g *chess.Game) *snapshot {
	s := &snapshot{g: g, cells: make(map[string]cell, 64)}
	for _, sq := range allSquares {
		p, ok := rules.PieceAt(g, sq)
		if !ok {
			continue
		}
		c := model.White
		if p.Color() == chess.Black {
			c = model.Black
		}
		s.cells[sq] = cell{occupied: true, color: c, piece: p.Type()}
	}
	return s
}

func (s *snapshot) at(sq string) (cell, bool) {
	c, ok := s.cells[sq]
	return c, ok
}

func (s *snapshot) empty(sq string) bool {
	c, ok := s.cells[sq]
	return !ok || !c.occupied
}

func (s *snapshot) isPawn(sq string, side model.Color) bool {
	c, ok := s.cells[sq]
	return ok && c.occupied && c.piece == chess.Pawn && c.color == side
}

func (s *snapshot) isPiece(sq string, side model.Color, pt chess.PieceType) bool {
	c, ok := s.cells[sq]
	return ok && c.occupied && c.piece == pt && c.color == side
}

// kingSquare finds side's king, scanning in rank-major order (deterministic
// even though exactly one king should exist per side).
func (s *snapshot) kingSquare(side model.Color) (string, bool) {
	for _, sq := range allSquares {
		if s.isPiece(sq, side, chess.King) {
			return sq, true
		}
	}
	return "", false
}

// squaresOf returns every square occupied by side's pt, in rank-major order.
func (s *snapshot) squaresOf(side model.Color, pt chess.PieceType) []string {
	var out []string
	for _, sq := range allSquares {
		if s.isPiece(sq, side, pt) {
			out = append(out, sq)
		}
	}
	return out
}

// pawnFiles returns, for side, how many pawns sit on each file (index 0=a..7=h).
func (s *snapshot) pawnFiles(side model.Color) [8]int {
	var files [8]int
	for _, sq := range s.squaresOf(side, chess.Pawn) {
		files[fileIndex(sq[0])]++
	}
	return files
}

func squareColorIsLight(sq string) bool {
	f := fileIndex(sq[0])
	r := rankIndex(sq[1])
	return (f+r)%2 == 1
}
