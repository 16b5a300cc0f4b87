package controller

import (
	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/core/see"
	"boardsense.dev/sentinel/internal/model"
)

// StableMultiPVGapCP is the minimum centipawn gap between the top two D2
// lines for multi_pv_stable to hold (spec §4.8 step 6's confidence signal).
const StableMultiPVGapCP = 40

// buildFactsCard assembles the grounded evidence the writer stages may cite
// (spec §4.8 step 6): every field traces back to an engine call or a
// tag/threat detector, never to writer-stage invention.
func buildFactsCard(fen string, rec baseline.Record, tagSet model.TagSet, profile *model.ProfileSignal) model.FactsCard {
	recommended := rec.BestMoveD16
	if recommended == "" {
		recommended = rec.BestMoveD2
	}

	fc := model.FactsCard{
		FEN:             fen,
		EngineTopK:      rec.TopMovesD2AsPVLines(),
		RecommendedMove: recommended,
		ConfidenceSignals: model.Confidence{
			D2D16Agree:    rec.BestMoveD2 == rec.BestMoveD16 || rec.BestMoveD16 == "",
			MultiPVStable: multiPVStable(rec),
			SEEValidated:  seeValidated(fen, recommended),
		},
		ProfileSignal: profile,
	}
	if rec.PVD16 != nil {
		fc.DeepEval = &model.AnalysisResult{
			EvalCP:      rec.EvalD16,
			BestMoveSAN: recommended,
			PVSan:       rec.PVD16,
			Depth:       16,
			Partial:     rec.Partial,
		}
	}
	if profile != nil && profile.SampleSize < 3 {
		fc.ProfileSignal = nil // spec supplement: only cite profile with >=3 samples
	}

	top := topSideTags(tagSet, 5)
	fc.TagSample = top
	return fc
}

func multiPVStable(rec baseline.Record) bool {
	if len(rec.TopMovesD2) < 2 {
		return true
	}
	gap := rec.TopMovesD2[0].EvalCP - rec.TopMovesD2[1].EvalCP
	if gap < 0 {
		gap = -gap // evals are white-positive; with black to move the best line is lowest
	}
	return gap >= StableMultiPVGapCP
}

// seeValidated reports whether the recommended move is at least not a
// material-losing SEE trade, a deterministic grounding signal distinct from
// engine eval (spec §4.8 step 6 confidence signal "see_validated").
func seeValidated(fen, moveSAN string) bool {
	if moveSAN == "" {
		return false
	}
	g, err := rules.Board(fen)
	if err != nil {
		return false
	}
	mover := rules.SideToMove(g)
	net, err := see.SEENetAfterMove(g, moveSAN, mover)
	if err != nil {
		return false
	}
	return net >= -50
}

func topSideTags(ts model.TagSet, k int) []model.Tag {
	if len(ts.Tags) <= k {
		return ts.Tags
	}
	return ts.Tags[:k]
}
