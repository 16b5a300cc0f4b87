// Package baseline implements the dual-depth (D2/D16) "intuition" scan
// (spec §4.4): the canonical grounding primitive every investigation and
// the controller's facts assembly build on. Grounded on
// original_source/backend/two_move_win_engine.py's dual-pass structure,
// reimplemented against core/engine's Analyzer contract.
package baseline

import (
	"context"
	"fmt"
	"sort"

	"boardsense.dev/sentinel/core/cache"
	"boardsense.dev/sentinel/core/engine"
	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// Defaults mirror spec §4.4.
const (
	DefaultD2Depth  = 2
	DefaultD16Depth = 16
)

// GapThresholdCP bounds which D2 candidates are worth a D16 confirmation
// pass: only candidates within this many centipawns of the D2 best move
// get re-scanned deeply.
const GapThresholdCP = 150

// Scanner runs the dual-depth scan, reading/writing through an analysis
// cache so repeated requests for the same (fen, depth, multi_pv) don't
// re-invoke the engine pool.
type Scanner struct {
	Engine engine.Analyzer
	Cache  *cache.Cache
}

// Evidence is the restartable per-move delta block attached to a Record.
type Evidence struct {
	MoveSAN       string `json:"move_san"`
	EvalStartCP   int    `json:"eval_start_cp"`
	EvalEndCP     int    `json:"eval_end_cp"`
	MaterialStartCP int  `json:"material_start_cp"`
	MaterialEndCP   int  `json:"material_end_cp"`
}

// Record is the root output of a dual-depth scan (spec §4.4 item 3).
type Record struct {
	EvalD2           int            `json:"eval_d2"`
	BestMoveD2       string         `json:"best_move_d2"`
	TopMovesD2       []engine.Line  `json:"top_moves_d2"`
	EvalD16          int            `json:"eval_d16"`
	BestMoveD16      string         `json:"best_move_d16"`
	SecondBestMoveD16 string        `json:"second_best_move_d16,omitempty"`
	PVD16            []string       `json:"pv_d16"`
	PVAfterMove      []string       `json:"pv_after_move,omitempty"`
	Evidence         []Evidence     `json:"evidence"`
	PGN              string         `json:"pgn"`
	Partial          bool           `json:"partial"`
}

// Scan runs the two-phase D2-then-D16 scan named in spec §4.4 steps 1-2.
// branchingLimit bounds the D2 multi-PV width (and thus how many
// candidates get a D16 confirmation pass); pgnMaxChars bounds the rendered
// main-line PGN's length (truncated without splitting a move token, per
// the testable property in spec §8).
func (s *Scanner) Scan(ctx context.Context, fen string, d2Depth, d16Depth, branchingLimit, pgnMaxChars int) (Record, error) {
	if d2Depth <= 0 {
		d2Depth = DefaultD2Depth
	}
	if d16Depth <= 0 {
		d16Depth = DefaultD16Depth
	}

	d2, err := s.analyzeCached(ctx, fen, d2Depth, branchingLimit)
	if err != nil {
		return Record{}, fmt.Errorf("baseline: d2 scan: %w", err)
	}

	g, err := rules.Board(fen)
	if err != nil {
		return Record{}, fmt.Errorf("baseline: board: %w", err)
	}
	mover := rules.SideToMove(g)

	rec := Record{
		EvalD2:     d2.EvalCP,
		BestMoveD2: d2.BestMove,
		TopMovesD2: d2.Lines,
		Partial:    d2.Partial,
	}

	within := candidatesWithinGap(d2.Lines, GapThresholdCP)
	var deep []engine.Line
	for _, cand := range within {
		d16, err := s.analyzeCachedAfterMove(ctx, fen, cand.MoveSAN, d16Depth)
		if err != nil {
			continue
		}
		deep = append(deep, engine.Line{MoveSAN: cand.MoveSAN, EvalCP: d16.EvalCP, PVSan: pvFromAnalysis(d16)})
	}
	// deep's eval is already white-positive (core/engine's normalization);
	// the best line for the side actually choosing among these candidates
	// maximizes its own eval, which for black means minimizing white-eval.
	sort.Slice(deep, func(i, j int) bool {
		if mover == model.Black {
			return deep[i].EvalCP < deep[j].EvalCP
		}
		return deep[i].EvalCP > deep[j].EvalCP
	})

	if len(deep) > 0 {
		rec.BestMoveD16 = deep[0].MoveSAN
		rec.EvalD16 = deep[0].EvalCP
		rec.PVD16 = append([]string{deep[0].MoveSAN}, deep[0].PVSan...)
	}
	if len(deep) > 1 {
		rec.SecondBestMoveD16 = deep[1].MoveSAN
	}
	if rec.BestMoveD16 == "" {
		rec.BestMoveD16 = d2.BestMove
		rec.EvalD16 = d2.EvalCP
	}

	rec.PGN = renderPGNBounded(rec.PVD16, pgnMaxChars)
	return rec, nil
}

// TopMovesD2AsPVLines converts the scanner's internal engine.Line slice
// into the model package's PVLine shape, for embedding in an
// InvestigationResult.
func (r Record) TopMovesD2AsPVLines() []model.PVLine {
	out := make([]model.PVLine, 0, len(r.TopMovesD2))
	for i, l := range r.TopMovesD2 {
		out = append(out, model.PVLine{Rank: i + 1, MoveSAN: l.MoveSAN, EvalCP: l.EvalCP, PVSan: l.PVSan})
	}
	return out
}

// AnalyzeCached runs a single cache-then-engine analysis, independent of the
// dual-depth Scan pipeline. Exported so callers needing a quick multi-PV
// probe (e.g. the planner's candidate-move collection, spec §4.6 step 3)
// can reuse the same cache without duplicating its logic.
func (s *Scanner) AnalyzeCached(ctx context.Context, fen string, depth, multiPV int) (engine.Analysis, error) {
	return s.analyzeCached(ctx, fen, depth, multiPV)
}

func (s *Scanner) analyzeCached(ctx context.Context, fen string, depth, multiPV int) (engine.Analysis, error) {
	if multiPV <= 0 {
		multiPV = 1
	}
	if s.Cache != nil {
		if hit, ok, err := s.Cache.Get(ctx, fen, depth, multiPV); err == nil && ok {
			return hit, nil
		}
	}
	a, err := s.Engine.Analyze(ctx, fen, depth, multiPV)
	if err != nil {
		return engine.Analysis{}, err
	}
	if s.Cache != nil {
		_ = s.Cache.Put(ctx, fen, depth, multiPV, a)
	}
	return a, nil
}

// analyzeCachedAfterMove plays moveSAN against fen and runs a depth-16
// confirmation scan on the resulting position, cached under the post-move
// FEN like any other position analysis.
func (s *Scanner) analyzeCachedAfterMove(ctx context.Context, fen, moveSAN string, depth int) (engine.Analysis, error) {
	g, err := rules.Board(fen)
	if err != nil {
		return engine.Analysis{}, fmt.Errorf("baseline: board: %w", err)
	}
	if err := rules.ApplySAN(g, moveSAN); err != nil {
		return engine.Analysis{}, fmt.Errorf("baseline: apply %q: %w", moveSAN, err)
	}
	return s.analyzeCached(ctx, g.Position().String(), depth, 1)
}

func pvFromAnalysis(a engine.Analysis) []string {
	if len(a.Lines) == 0 {
		return nil
	}
	return a.Lines[0].PVSan
}

func candidatesWithinGap(lines []engine.Line, gapCP int) []engine.Line {
	if len(lines) == 0 {
		return nil
	}
	best := lines[0].EvalCP
	var out []engine.Line
	for _, l := range lines {
		// Evals are white-positive, so the gap is taken as a distance to
		// hold for either side to move.
		gap := best - l.EvalCP
		if gap < 0 {
			gap = -gap
		}
		if gap <= gapCP {
			out = append(out, l)
		}
	}
	return out
}
