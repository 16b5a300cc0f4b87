package see

import (
	"sort"

	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// staticExchange runs the classic swap-list algorithm on target: the side
// to move at the target square captures with its least valuable attacker,
// the opponent recaptures with its least valuable attacker, and so on,
// each side stopping early whenever continuing would lose material. It
// returns the net centipawn gain for attackingSide from the full exchange.
// Grounded on two_move_win_engine.py's _see_best_line / _see_refute_by_recapture,
// reimplemented as the standard minimax-over-swap-list form rather than the
// original's explicit recursive defense search.
func staticExchange(g *chess.Game, target string, attackingSide model.Color) int {
	occupant, ok := rules.PieceAt(g, target)
	if !ok {
		return 0
	}
	// gain[i] is the running net for the side making capture i if the
	// exchange stops right after it; onSquare is what the next capture takes.
	var gain []int
	onSquare := rules.PieceValues[occupant.Type()]

	sideToMove := attackingSide
	board, err := rules.Clone(g)
	if err != nil {
		return 0
	}
	occupied := map[string]bool{}
	for {
		attackers, err := rules.Attackers(board, target, sideToMove)
		if err != nil {
			break
		}
		attackers = excludeOccupied(attackers, occupied)
		least, val, ok := leastValuableAttacker(board, attackers)
		if !ok {
			break
		}
		prev := 0
		if len(gain) > 0 {
			prev = gain[len(gain)-1]
		}
		gain = append(gain, onSquare-prev)
		onSquare = val
		occupied[least] = true
		sideToMove = sideToMove.Opposite()
	}
	if len(gain) == 0 {
		return 0
	}

	for i := len(gain) - 2; i >= 0; i-- {
		if -gain[i+1] < gain[i] {
			gain[i] = -gain[i+1]
		}
	}
	if gain[0] < 0 {
		return 0
	}
	return gain[0]
}

func excludeOccupied(squares []string, used map[string]bool) []string {
	var out []string
	for _, sq := range squares {
		if !used[sq] {
			out = append(out, sq)
		}
	}
	return out
}

func leastValuableAttacker(g *chess.Game, squares []string) (string, int, bool) {
	if len(squares) == 0 {
		return "", 0, false
	}
	type cand struct {
		sq  string
		val int
	}
	var cands []cand
	for _, sq := range squares {
		p, ok := rules.PieceAt(g, sq)
		if !ok {
			continue
		}
		cands = append(cands, cand{sq, rules.PieceValues[p.Type()]})
	}
	if len(cands) == 0 {
		return "", 0, false
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].val < cands[j].val })
	return cands[0].sq, cands[0].val, true
}

// SEENetAfterMove plays moveSAN (which must be a capture or any move that
// lands on target) and runs staticExchange from the mover's opponent's
// perspective to find the best recapture sequence, returning the net
// centipawn result for the side that played moveSAN.
func SEENetAfterMove(g *chess.Game, moveSAN string, mover model.Color) (int, error) {
	next, err := rules.Clone(g)
	if err != nil {
		return 0, err
	}
	m, err := rules.ParseSAN(next, moveSAN)
	if err != nil {
		return 0, err
	}
	target := m.S2().String()
	captured, hadCapture := rules.PieceAt(next, target)
	if err := rules.ApplySAN(next, moveSAN); err != nil {
		return 0, err
	}
	base := 0
	if hadCapture {
		base = rules.PieceValues[captured.Type()]
	}
	recapture := staticExchange(next, target, mover.Opposite())
	return base - recapture, nil
}
