package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

var startSquares = map[model.Color]map[chess.PieceType][]string{
	model.White: {
		chess.Knight: {"b1", "g1"},
		chess.Bishop: {"c1", "f1"},
		chess.Rook:   {"a1", "h1"},
		chess.Queen:  {"d1"},
	},
	model.Black: {
		chess.Knight: {"b8", "g8"},
		chess.Bishop: {"c8", "f8"},
		chess.Rook:   {"a8", "h8"},
		chess.Queen:  {"d8"},
	},
}

// detectActivityTags: per-piece-type mobility, per-instance undeveloped
// pieces, trapped pieces, bad bishop, bishop pair (spec §4.1 "Activity").
func detectActivityTags(s *snapshot, side model.Color) []model.Tag {
	var out []model.Tag

	order := []chess.PieceType{chess.Knight, chess.Bishop, chess.Rook, chess.Queen}
	mobility := mobilityByPiece(s, side)
	for _, pt := range order {
		total := 0
		for _, n := range mobility[pt] {
			total += n
		}
		out = append(out, model.Tag{
			Name:    "tag.activity." + pieceWord(pt),
			Side:    side,
			Details: map[string]any{"mobility": total},
		})
	}

	for _, pt := range order {
		for _, sq := range startSquares[side][pt] {
			if s.isPiece(sq, side, pt) {
				out = append(out, model.Tag{
					Name:    "tag.piece.undeveloped",
					Side:    side,
					Pieces:  []string{pieceLetter(pt) + sq},
					Squares: []string{sq},
				})
			}
		}
	}

	out = append(out, trappedPieces(s, side)...)
	out = append(out, badBishop(s, side)...)

	bishops := s.squaresOf(side, chess.Bishop)
	if len(bishops) >= 2 {
		out = append(out, model.Tag{Name: "tag.bishop.pair", Side: side, Pieces: pieceTokens("B", bishops)})
	}

	return out
}

// mobilityByPiece sums legal-destination counts per piece type by probing
// each own piece's pseudo-attack squares via rules.Attackers from side's
// own perspective (reusing the same "what can reach here"
// machinery the lever/outpost families use, applied piece-first instead of
// square-first).
func mobilityByPiece(s *snapshot, side model.Color) map[chess.PieceType]map[string]int {
	out := map[chess.PieceType]map[string]int{
		chess.Knight: {},
		chess.Bishop: {},
		chess.Rook:   {},
		chess.Queen:  {},
	}
	for pt := range out {
		for _, sq := range s.squaresOf(side, pt) {
			out[pt][sq] = destinationCount(s, sq, side)
		}
	}
	return out
}

func destinationCount(s *snapshot, from string, side model.Color) int {
	count := 0
	for _, sq := range allSquares {
		if sq == from {
			continue
		}
		att, _ := rules.Attackers(s.g, sq, side)
		for _, a := range att {
			if a == from {
				count++
				break
			}
		}
	}
	return count
}

func trappedPieces(s *snapshot, side model.Color) []model.Tag {
	var out []model.Tag
	for _, pt := range []chess.PieceType{chess.Knight, chess.Bishop, chess.Rook, chess.Queen} {
		for _, sq := range s.squaresOf(side, pt) {
			if destinationCount(s, sq, side) <= 1 {
				out = append(out, model.Tag{
					Name:    "tag.piece.trapped",
					Side:    side,
					Pieces:  []string{pieceLetter(pt) + sq},
					Squares: []string{sq},
				})
			}
		}
	}
	return out
}

func badBishop(s *snapshot, side model.Color) []model.Tag {
	pawns := s.squaresOf(side, chess.Pawn)
	var out []model.Tag
	for _, b := range s.squaresOf(side, chess.Bishop) {
		light := squareColorIsLight(b)
		sameColorPawns := 0
		for _, p := range pawns {
			if squareColorIsLight(p) == light {
				sameColorPawns++
			}
		}
		if len(pawns) == 0 {
			continue
		}
		ratio := float64(sameColorPawns) / float64(len(pawns))
		if ratio > 0.6 && destinationCount(s, b, side) < 5 {
			out = append(out, model.Tag{
				Name:    "tag.bishop.bad",
				Side:    side,
				Pieces:  []string{"B" + b},
				Squares: []string{b},
			})
		}
	}
	return out
}

func pieceTokens(letter string, squares []string) []string {
	out := make([]string, 0, len(squares))
	for _, sq := range squares {
		out = append(out, letter+sq)
	}
	return out
}

func pieceWord(pt chess.PieceType) string {
	switch pt {
	case chess.Knight:
		return "knight"
	case chess.Bishop:
		return "bishop"
	case chess.Rook:
		return "rook"
	case chess.Queen:
		return "queen"
	default:
		return "piece"
	}
}
