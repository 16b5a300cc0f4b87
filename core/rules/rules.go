// Package rules is the thin adapter over the external chess rules engine
// (spec §2, "Rules adapter: thin wrapper over chess-rules library; piece
// values, SAN parsing, legal moves, attackers"). Every other core/internal
// package that needs to know what a legal move is, what a piece is worth,
// or who attacks a square goes through here rather than importing
// github.com/notnil/chess directly, so the rules library stays swappable.
package rules

import (
	"fmt"

	"github.com/notnil/chess"

	"boardsense.dev/sentinel/internal/model"
)

// PieceValues are the standard material weights used by the SEE scanner and
// the baseline/investigator material-delta computations. Centipawn scale.
var PieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

// Board loads a position from FEN. Returns an error wrapping the library's
// parse error if the FEN is malformed.
func Board(fen string) (*chess.Game, error) {
	fn, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("rules: parse fen %q: %w", fen, err)
	}
	return chess.NewGame(fn), nil
}

// SideToMove returns White/Black for the side to move in a loaded game.
func SideToMove(g *chess.Game) model.Color {
	if g.Position().Turn() == chess.White {
		return model.White
	}
	return model.Black
}

// LegalMoves returns every legal move from the current position, as SAN
// strings, in the library's generation order.
func LegalMoves(g *chess.Game) []string {
	enc := chess.AlgebraicNotation{}
	moves := g.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, enc.Encode(g.Position(), m))
	}
	return out
}

// ParseSAN resolves a SAN string against the current position's legal
// moves. Returns an error if the SAN does not match any legal move —
// spec §7's "illegal move / invalid SAN" error kind.
func ParseSAN(g *chess.Game, san string) (*chess.Move, error) {
	enc := chess.AlgebraicNotation{}
	for _, m := range g.ValidMoves() {
		if enc.Encode(g.Position(), m) == san {
			return m, nil
		}
	}
	return nil, fmt.Errorf("rules: %q is not a legal move in this position", san)
}

// ApplySAN plays a SAN move against g, mutating it in place. It is the
// caller's responsibility to clone beforehand (via FEN round-trip) if the
// original position must survive.
func ApplySAN(g *chess.Game, san string) error {
	m, err := ParseSAN(g, san)
	if err != nil {
		return err
	}
	return g.Move(m)
}

// Clone returns an independent copy of g positioned identically, so callers
// can explore a line without mutating the caller's game.
func Clone(g *chess.Game) (*chess.Game, error) {
	return Board(g.Position().String())
}

// PieceAt returns the piece occupying a square in algebraic form ("e4"), or
// (chess.NoPiece, false) if the square is empty or not a valid square name.
func PieceAt(g *chess.Game, square string) (chess.Piece, bool) {
	sq, ok := parseSquare(square)
	if !ok {
		return chess.NoPiece, false
	}
	p := g.Position().Board().Piece(sq)
	if p == chess.NoPiece {
		return chess.NoPiece, false
	}
	return p, true
}

// MaterialBalanceCP sums side's piece values and subtracts the opponent's,
// in centipawns. Used by goal predicates (e.g. investigate_target's
// material_threshold mode) that need a position's raw material balance
// rather than an engine eval.
func MaterialBalanceCP(g *chess.Game, side model.Color) int {
	balance := 0
	board := g.Position().Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		val := PieceValues[p.Type()]
		pieceSide := model.White
		if p.Color() == chess.Black {
			pieceSide = model.Black
		}
		if pieceSide == side {
			balance += val
		} else {
			balance -= val
		}
	}
	return balance
}

// PieceKindAt returns the one-letter kind ("P","N","B","R","Q","K") and color
// of the piece occupying square, or ok=false if the square is empty.
func PieceKindAt(g *chess.Game, square string) (kind string, side model.Color, ok bool) {
	p, found := PieceAt(g, square)
	if !found {
		return "", "", false
	}
	side = model.White
	if p.Color() == chess.Black {
		side = model.Black
	}
	return pieceLetter(p.Type()), side, true
}

func pieceLetter(t chess.PieceType) string {
	switch t {
	case chess.Pawn:
		return "P"
	case chess.Knight:
		return "N"
	case chess.Bishop:
		return "B"
	case chess.Rook:
		return "R"
	case chess.Queen:
		return "Q"
	case chess.King:
		return "K"
	default:
		return ""
	}
}

// Attackers returns the squares (algebraic) from which side has a piece
// that legally or pseudo-legally attacks target, used by the tag detector
// (levers, outposts) and the SEE scanner's exchange walk. This enumerates
// by simulating "what if it were side's move" and filtering generated
// moves/captures landing on target, since the rules library does not
// expose attacker sets directly.
func Attackers(g *chess.Game, target string, side model.Color) ([]string, error) {
	fen := g.Position().String()
	probe, err := forceTurn(fen, side)
	if err != nil {
		return nil, err
	}
	enc := chess.AlgebraicNotation{}
	var out []string
	for _, m := range probe.ValidMoves() {
		if squareName(m.S2()) == target {
			out = append(out, squareName(m.S1()))
		}
		_ = enc
	}
	return dedupe(out), nil
}

// forceTurn returns a game at the same board state as fen but with side to
// move forced, by rewriting the FEN's side-to-move field. Used only to
// enumerate pseudo-attacks; the resulting game is never played out for
// real, only probed with ValidMoves.
func forceTurn(fen string, side model.Color) (*chess.Game, error) {
	fields := splitFields(fen)
	if len(fields) < 2 {
		return nil, fmt.Errorf("rules: malformed fen %q", fen)
	}
	if side == model.White {
		fields[1] = "w"
	} else {
		fields[1] = "b"
	}
	return Board(joinFields(fields))
}

func splitFields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += f
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func squareName(sq chess.Square) string {
	return sq.String()
}

func parseSquare(s string) (chess.Square, bool) {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if sq.String() == s {
			return sq, true
		}
	}
	return 0, false
}
