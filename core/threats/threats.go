// Package threats implements the tactical threat detector (spec §4.2):
// per-side fork/pin/skewer/discovered-attack threat tags, each a candidate
// move plus its target(s). These feed both the structural tag set (§4.1)
// and the SEE scanner's open_tactics taxonomy (§4.3).
package threats

import (
	"sort"
	"strings"

	"github.com/notnil/chess"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// Detect runs the fork/pin/skewer/discovered-attack families for side on
// fen, returning threat tags in a deterministic order (by move SAN, then
// by family).
func Detect(fen string, side model.Color) ([]model.ThreatTag, error) {
	g, err := rules.Board(fen)
	if err != nil {
		return nil, err
	}
	if rules.SideToMove(g) != side {
		g, err = forceTurn(fen, side)
		if err != nil {
			return nil, err
		}
	}

	var out []model.ThreatTag
	out = append(out, detectForks(g, side)...)
	out = append(out, detectPinsAndSkewers(g, side)...)
	out = append(out, detectDiscoveredAttacks(g, side)...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Move != out[j].Move {
			return out[i].Move < out[j].Move
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// forceTurn rewrites fen's side-to-move field and reloads it, so the
// ValidMoves probes below enumerate side's pseudo-attacks regardless of
// whose turn it actually is (mirroring core/tags' forced-turn probing).
func forceTurn(fen string, side model.Color) (*chess.Game, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return rules.Board(fen)
	}
	if side == model.White {
		fields[1] = "w"
	} else {
		fields[1] = "b"
	}
	return rules.Board(strings.Join(fields, " "))
}

// detectForks: a legal move by side lands a piece on a square from which it
// attacks 2+ enemy pieces other than pawns and kings (see
// attackedEnemyPieces); piece values are not compared.
func detectForks(g *chess.Game, side model.Color) []model.ThreatTag {
	opp := side.Opposite()
	enc := chess.AlgebraicNotation{}
	var out []model.ThreatTag

	for _, m := range g.ValidMoves() {
		san := enc.Encode(g.Position(), m)
		next, err := rules.Clone(g)
		if err != nil {
			continue
		}
		if err := rules.ApplySAN(next, san); err != nil {
			continue
		}
		dest := m.S2().String()
		targets := attackedEnemyPieces(next, dest, opp)
		if len(targets) < 2 {
			continue
		}
		out = append(out, model.ThreatTag{
			Tag: model.Tag{
				Name: "tag.threat.fork",
				Side: side,
			},
			Move:    san,
			Targets: targets,
		})
	}
	return out
}

// attackedEnemyPieces lists the opp-owned squares that the piece now
// sitting on `from` attacks, excluding pawns and kings (forks are judged on
// pieces of consequence, matching the original detector's treatment of
// forks as a piece-value tactic). forkingSide is the owner of `from`.
func attackedEnemyPieces(g *chess.Game, from string, opp model.Color) []string {
	forkingSide := opp.Opposite()
	probe, err := forceTurn(g.Position().String(), forkingSide)
	if err != nil {
		return nil
	}
	var targets []string
	for _, m := range probe.ValidMoves() {
		if m.S1().String() != from {
			continue
		}
		p, ok := rules.PieceAt(probe, m.S2().String())
		if !ok || colorOf(p) != opp {
			continue
		}
		if p.Type() == chess.Pawn || p.Type() == chess.King {
			continue
		}
		targets = append(targets, m.S2().String())
	}
	return dedupe(targets)
}

// detectPinsAndSkewers: for each opp slider-attacking line from one of
// side's own sliders through exactly one enemy piece toward the enemy
// king (pin) or toward a higher/equal-value enemy piece (skewer).
func detectPinsAndSkewers(g *chess.Game, side model.Color) []model.ThreatTag {
	opp := side.Opposite()
	var out []model.ThreatTag
	kingSq := findKing(g, opp)
	if kingSq == "" {
		return out
	}
	for _, pt := range []chess.PieceType{chess.Bishop, chess.Rook, chess.Queen} {
		for _, from := range squaresOf(g, side, pt) {
			for _, dir := range directionsFor(pt) {
				pinned, beyond, ok := rayPierce(g, from, dir, opp)
				if !ok || pinned == "" {
					continue
				}
				if beyond == kingSq {
					out = append(out, model.ThreatTag{
						Tag:     model.Tag{Name: "tag.threat.pin", Side: side, Pieces: []string{letterOf(pt) + from}},
						Move:    "",
						Targets: []string{pinned, beyond},
					})
					continue
				}
				if bp, occ := rules.PieceAt(g, beyond); occ && colorOf(bp) == opp && pieceValueAt(g, beyond) >= pieceValueAt(g, pinned) {
					out = append(out, model.ThreatTag{
						Tag:     model.Tag{Name: "tag.threat.skewer", Side: side, Pieces: []string{letterOf(pt) + from}},
						Move:    "",
						Targets: []string{pinned, beyond},
					})
				}
			}
		}
	}
	return out
}

// detectDiscoveredAttacks: side has a slider whose line to the enemy king
// is currently blocked by exactly one of side's own pieces; moving that
// blocker would unmask the attack. Lines to other enemy pieces are not
// reported.
func detectDiscoveredAttacks(g *chess.Game, side model.Color) []model.ThreatTag {
	var out []model.ThreatTag
	kingSq := findKing(g, side.Opposite())
	if kingSq == "" {
		return out
	}
	for _, pt := range []chess.PieceType{chess.Bishop, chess.Rook, chess.Queen} {
		for _, from := range squaresOf(g, side, pt) {
			for _, dir := range directionsFor(pt) {
				blocker, beyond, ok := rayPierceOwn(g, from, dir, side)
				if !ok || blocker == "" || beyond != kingSq {
					continue
				}
				out = append(out, model.ThreatTag{
					Tag:     model.Tag{Name: "tag.threat.discovered_attack", Side: side, Pieces: []string{letterOf(pt) + from, blocker}},
					Move:    "",
					Targets: []string{kingSq},
				})
			}
		}
	}
	return out
}

func findKing(g *chess.Game, side model.Color) string {
	sq, _ := kingSquare(g, side)
	return sq
}

func kingSquare(g *chess.Game, side model.Color) (string, bool) {
	for _, sq := range boardSquares {
		p, ok := rules.PieceAt(g, sq)
		if ok && p.Type() == chess.King && colorOf(p) == side {
			return sq, true
		}
	}
	return "", false
}

func colorOf(p chess.Piece) model.Color {
	if p.Color() == chess.White {
		return model.White
	}
	return model.Black
}

func squaresOf(g *chess.Game, side model.Color, pt chess.PieceType) []string {
	var out []string
	for _, sq := range boardSquares {
		p, ok := rules.PieceAt(g, sq)
		if ok && p.Type() == pt && colorOf(p) == side {
			out = append(out, sq)
		}
	}
	return out
}

var boardSquares = func() []string {
	var out []string
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			out = append(out, string(rune('a'+f))+string(rune('1'+r)))
		}
	}
	return out
}()

func directionsFor(pt chess.PieceType) [][2]int {
	diag := [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	straight := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	switch pt {
	case chess.Bishop:
		return diag
	case chess.Rook:
		return straight
	default:
		return append(append([][2]int{}, diag...), straight...)
	}
}

// rayPierce walks from `from` in dir, skipping empty squares, and returns
// the first enemy piece hit (pinned) and the next occupied square beyond it
// (beyond), or ok=false if the first piece hit is not an enemy piece or the
// edge is reached before a second piece.
func rayPierce(g *chess.Game, from string, dir [2]int, opp model.Color) (pinned, beyond string, ok bool) {
	f, r := int(from[0]-'a'), int(from[1]-'1')
	var firstHit string
	for {
		f += dir[0]
		r += dir[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return "", "", false
		}
		sq := string(rune('a'+f)) + string(rune('1'+r))
		p, occupied := rules.PieceAt(g, sq)
		if !occupied {
			continue
		}
		if firstHit == "" {
			if colorOf(p) != opp {
				return "", "", false
			}
			firstHit = sq
			continue
		}
		return firstHit, sq, true
	}
}

// rayPierceOwn is rayPierce's mirror for discovered attacks: the first hit
// must be side's own piece (the blocker), and we report what lies beyond.
func rayPierceOwn(g *chess.Game, from string, dir [2]int, side model.Color) (blocker, beyond string, ok bool) {
	f, r := int(from[0]-'a'), int(from[1]-'1')
	var firstHit string
	for {
		f += dir[0]
		r += dir[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return "", "", false
		}
		sq := string(rune('a'+f)) + string(rune('1'+r))
		p, occupied := rules.PieceAt(g, sq)
		if !occupied {
			continue
		}
		if firstHit == "" {
			if colorOf(p) != side {
				return "", "", false
			}
			firstHit = sq
			continue
		}
		return firstHit, sq, true
	}
}

func pieceValueAt(g *chess.Game, sq string) int {
	p, ok := rules.PieceAt(g, sq)
	if !ok {
		return 0
	}
	return rules.PieceValues[p.Type()]
}

func letterOf(pt chess.PieceType) string {
	switch pt {
	case chess.Bishop:
		return "B"
	case chess.Rook:
		return "R"
	case chess.Queen:
		return "Q"
	case chess.Knight:
		return "N"
	case chess.King:
		return "K"
	default:
		return ""
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
