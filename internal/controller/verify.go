package controller

import (
	"boardsense.dev/sentinel/internal/model"
)

// verifyRecommendation implements spec §4.8 step 10 and the §8 Verifier
// property: if recommended_move is not among facts.top_moves (the engine's
// own candidate set), strip it and annotate the stop reason. Membership in
// the engine's candidate set is a stronger check than mere legality: a move
// can be legal in the root position yet outside the engine's top-K, in
// which case it is not grounded in anything the facts card actually cites.
func verifyRecommendation(fen string, env *model.AnswerEnvelope) {
	if env.RecommendedMove == "" {
		return
	}
	for _, pv := range env.Facts.EngineTopK {
		if pv.MoveSAN == env.RecommendedMove {
			return
		}
	}
	env.RecommendedMove = ""
	env.StopReason = model.StopVerifierRejected
}
