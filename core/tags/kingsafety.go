package tags

import (
	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// detectKingSafetyTags implements spec §4.1's "King safety" family:
// attacker/defender counts, center exposure, pawn shield state, and file
// openness around the king.
func detectKingSafetyTags(s *snapshot, side model.Color) []model.Tag {
	opp := side.Opposite()
	king, ok := s.kingSquare(side)
	if !ok {
		return nil
	}
	var out []model.Tag

	attackers, _ := rules.Attackers(s.g, king, opp)
	defenders, _ := rules.Attackers(s.g, king, side)
	out = append(out, model.Tag{
		Name: "tag.king.attackers.count", Side: side,
		Pieces: attackers, Details: map[string]any{"count": len(attackers)},
	})
	out = append(out, model.Tag{
		Name: "tag.king.defenders.count", Side: side,
		Pieces: defenders, Details: map[string]any{"count": len(defenders)},
	})

	kf := fileIndex(king[0])
	onCenterFile := kf == fileIndex('d') || kf == fileIndex('e')

	ownPawns := s.pawnFiles(side)
	oppPawns := s.pawnFiles(opp)
	someCentralOpenOrSemi := false
	for _, f := range []int{fileIndex('d'), fileIndex('e')} {
		if ownPawns[f] == 0 {
			someCentralOpenOrSemi = true
		}
	}

	shieldFiles, castleSide := likelyCastleShieldFiles(kf, side)
	shieldCount := 0
	var missing []string
	for _, f := range shieldFiles {
		if shieldPawnPresent(s, f, side) {
			shieldCount++
		} else {
			missing = append(missing, string(rune('a'+f)))
		}
	}

	if onCenterFile && someCentralOpenOrSemi && shieldCount <= 1 {
		out = append(out, model.Tag{Name: "tag.king.center.exposed", Side: side, Squares: []string{king}})
	}

	if shieldCount == 3 {
		out = append(out, model.Tag{Name: "tag.king.shield.intact", Side: side, Details: map[string]any{"side": castleSide}})
	} else {
		for _, f := range missing {
			out = append(out, model.Tag{Name: "tag.king.shield.missing." + f, Side: side})
		}
	}

	for _, f := range []int{kf - 1, kf, kf + 1} {
		if f < 0 || f > 7 {
			continue
		}
		letter := string(rune('a' + f))
		switch {
		case ownPawns[f] == 0 && oppPawns[f] == 0:
			out = append(out, model.Tag{Name: "tag.king.file.open", Side: side, Details: map[string]any{"file": letter}})
		case ownPawns[f] == 0:
			out = append(out, model.Tag{Name: "tag.king.file.semi", Side: side, Details: map[string]any{"file": letter}})
		}
	}

	return out
}

// likelyCastleShieldFiles guesses which three files form the pawn shield in
// front of the king based on which wing it sits on.
func likelyCastleShieldFiles(kf int, side model.Color) ([3]int, string) {
	if kf >= fileIndex('e') {
		return [3]int{fileIndex('f'), fileIndex('g'), fileIndex('h')}, "kingside"
	}
	return [3]int{fileIndex('a'), fileIndex('b'), fileIndex('c')}, "queenside"
}

func shieldPawnPresent(s *snapshot, file int, side model.Color) bool {
	shieldRank := 1
	if side == model.Black {
		shieldRank = 6
	}
	return s.isPiece(squareName(file, shieldRank), side, chess.Pawn)
}
