// Package model holds the immutable data types shared across the
// investigation pipeline: positions, moves, tags, analyses, and the
// envelopes the controller assembles from them.
package model

import "strings"

// Position is a FEN string plus the side to move. Identity is the FEN's
// first four fields (board, side, castling, en-passant); the halfmove clock
// and fullmove number do not affect any analysis keyed by a Position.
type Position struct {
	FEN  string
	Side Color
}

// Color is a side to move or own a piece.
type Color string

const (
	White Color = "white"
	Black Color = "black"
	Both  Color = "both"
)

// Opposite returns the other color. Both is returned unchanged.
func (c Color) Opposite() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return Both
	}
}

// NormalizeFEN returns the first four space-separated fields of a FEN,
// which is the cache/identity key for a Position per spec §3.
func NormalizeFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) <= 4 {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:4], " ")
}

// Move is a SAN string plus, on demand, a UCI string; it is only meaningful
// resolved against a specific position.
type Move struct {
	SAN string
	UCI string
}
