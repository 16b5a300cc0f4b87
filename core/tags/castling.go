package tags

import (
	"strings"

	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// detectCastlingTags: rights tags are read off the FEN castling field;
// availability tags additionally require the move to be legal right now,
// probing on side's turn if it is not currently their move (spec §4.1
// "Castling", and the testable-properties invariant that availability
// implies rights).
func detectCastlingTags(s *snapshot, side model.Color) []model.Tag {
	rights := castlingRights(s.g.Position().String())
	var out []model.Tag

	hasKingside := rights[side]["kingside"]
	hasQueenside := rights[side]["queenside"]
	if hasKingside {
		out = append(out, model.Tag{Name: "tag.castling.rights.kingside", Side: side})
	}
	if hasQueenside {
		out = append(out, model.Tag{Name: "tag.castling.rights.queenside", Side: side})
	}
	if !hasKingside && !hasQueenside {
		return out
	}

	legalKingside, legalQueenside := castlingLegalNow(s.g, side)
	if hasKingside && legalKingside {
		out = append(out, model.Tag{Name: "tag.castling.available.kingside", Side: side})
	}
	if hasQueenside && legalQueenside {
		out = append(out, model.Tag{Name: "tag.castling.available.queenside", Side: side})
	}
	return out
}

// castlingRights parses the FEN castling-availability field into a
// per-side, per-wing map.
func castlingRights(fen string) map[model.Color]map[string]bool {
	fields := strings.Fields(fen)
	out := map[model.Color]map[string]bool{
		model.White: {"kingside": false, "queenside": false},
		model.Black: {"kingside": false, "queenside": false},
	}
	if len(fields) < 3 {
		return out
	}
	field := fields[2]
	out[model.White]["kingside"] = strings.Contains(field, "K")
	out[model.White]["queenside"] = strings.Contains(field, "Q")
	out[model.Black]["kingside"] = strings.Contains(field, "k")
	out[model.Black]["queenside"] = strings.Contains(field, "q")
	return out
}

// castlingLegalNow checks castling legality for side by forcing the turn
// (if the position isn't already at side's move) and scanning the
// resulting legal move list for the king's two-square castling moves.
func castlingLegalNow(g *chess.Game, side model.Color) (kingside, queenside bool) {
	probe := g
	if rules.SideToMove(g) != side {
		forced, err := forceSideToMove(g, side)
		if err != nil {
			return false, false
		}
		probe = forced
	}
	enc := chess.AlgebraicNotation{}
	for _, m := range probe.ValidMoves() {
		san := enc.Encode(probe.Position(), m)
		switch san {
		case "O-O":
			kingside = true
		case "O-O-O":
			queenside = true
		}
	}
	return kingside, queenside
}

func forceSideToMove(g *chess.Game, side model.Color) (*chess.Game, error) {
	fields := strings.Fields(g.Position().String())
	if len(fields) < 2 {
		return nil, nil
	}
	if side == model.White {
		fields[1] = "w"
	} else {
		fields[1] = "b"
	}
	return rules.Board(strings.Join(fields, " "))
}
