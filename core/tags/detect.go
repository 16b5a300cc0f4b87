// Package tags implements the structural tag detector (spec §4.1): a set
// of pure functions over a position that emit files/levers/diagonals/
// outposts-holes/center-space/king-safety/castling/activity/pawns/knight-rim
// tags for both sides. Grounded on original_source/backend/tag_detector.py,
// reimplemented against the rules adapter instead of python-chess.
package tags

import (
	"fmt"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// family is one obligatory tag family's detector function.
type family func(s *snapshot, side model.Color) []model.Tag

var families = []family{
	detectFileTags,
	detectLeverTags,
	detectDiagonalTags,
	detectOutpostHoleTags,
	detectCenterSpaceTags,
	detectKingSafetyTags,
	detectCastlingTags,
	detectActivityTags,
	detectPawnTags,
	detectKnightRimTags,
}

// Detect runs every tag family on both sides of fen. Family and side order
// is fixed so that two calls on the same position always produce tags in
// the same order (the determinism the instance-level invariant requires).
func Detect(fen string) ([]model.Tag, error) {
	g, err := rules.Board(fen)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	snap := newSnapshot(g)

	var out []model.Tag
	for _, side := range []model.Color{model.White, model.Black} {
		for _, f := range families {
			out = append(out, f(snap, side)...)
		}
	}
	return out, nil
}
