package controller

import (
	"testing"

	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/internal/model"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func testRecord() baseline.Record {
	return baseline.Record{
		EvalD2:      35,
		BestMoveD2:  "e4",
		BestMoveD16: "e4",
		EvalD16:     40,
		PVD16:       []string{"e4", "e5", "Nf3"},
	}
}

func TestTryFastRoute_EmptyMessage(t *testing.T) {
	r := tryFastRoute("   ")
	if !r.Handled || r.StopReason != "empty_message" {
		t.Fatalf("got %+v, want handled empty_message", r)
	}
}

func TestTryFastRoute_PlayIntent(t *testing.T) {
	r := tryFastRoute("Hey, let's play a game sometime")
	if !r.Handled || r.StopReason != "play_intent_detected" {
		t.Fatalf("got %+v, want handled play_intent_detected", r)
	}
}

func TestTryFastRoute_Passthrough(t *testing.T) {
	r := tryFastRoute("what's the best move here?")
	if r.Handled {
		t.Fatalf("expected unhandled, got %+v", r)
	}
}

func TestCoerceIntent_GameReviewToGameSelect(t *testing.T) {
	intent := model.Intent{Name: "game_review", Goal: "help me pick a game to review", UserIntentSummary: "which game should we look at"}
	got := coerceIntent(intent)
	if got.Name != "game_select" {
		t.Fatalf("intent.Name = %q, want game_select", got.Name)
	}
}

func TestCoerceIntent_LeavesOtherIntentsAlone(t *testing.T) {
	intent := model.Intent{Name: "position_analysis", Goal: "find the best move"}
	got := coerceIntent(intent)
	if got.Name != "position_analysis" {
		t.Fatalf("intent.Name = %q, want unchanged", got.Name)
	}
}

func TestValidateUICommands_DropsUnknownKind(t *testing.T) {
	cmds := []model.UICommand{{Kind: "launch_missiles"}, {Kind: "annotate", Squares: []string{"e4"}}}
	got := validateUICommands(cmds, "discuss", false)
	if len(got) != 1 || got[0].Kind != "annotate" {
		t.Fatalf("got %+v, want only annotate", got)
	}
}

func TestValidateUICommands_DropsMutationsOutsidePlayMode(t *testing.T) {
	cmds := []model.UICommand{{Kind: "push_move"}, {Kind: "annotate"}}
	got := validateUICommands(cmds, "discuss", false)
	if len(got) != 1 || got[0].Kind != "annotate" {
		t.Fatalf("got %+v, want only annotate", got)
	}
}

func TestValidateUICommands_AllowsMutationsInPlayMode(t *testing.T) {
	cmds := []model.UICommand{{Kind: "push_move"}}
	got := validateUICommands(cmds, "play", true)
	if len(got) != 1 {
		t.Fatalf("got %+v, want push_move kept", got)
	}
}

func TestRoutePolicy_KnownModes(t *testing.T) {
	for _, mode := range []string{"play", "review", "analyze", "discuss", "unknown_mode"} {
		p := RoutePolicy(mode)
		if p.DeepDepth <= 0 || p.MaxTimeS <= 0 {
			t.Fatalf("mode %q: got degenerate policy %+v", mode, p)
		}
	}
}

func TestVerifyRecommendation_RejectsIllegalMove(t *testing.T) {
	env := &model.AnswerEnvelope{RecommendedMove: "Qh5+"}
	verifyRecommendation(startFEN, env)
	if env.RecommendedMove != "" || env.StopReason != model.StopVerifierRejected {
		t.Fatalf("got %+v, want stripped recommendation and verifier_rejected", env)
	}
}

func TestVerifyRecommendation_AcceptsTopKMove(t *testing.T) {
	env := &model.AnswerEnvelope{
		RecommendedMove: "e4",
		Facts:           model.FactsCard{EngineTopK: []model.PVLine{{Rank: 1, MoveSAN: "e4"}}},
	}
	verifyRecommendation(startFEN, env)
	if env.RecommendedMove != "e4" {
		t.Fatalf("got %+v, want e4 retained", env)
	}
}

func TestBuildFactsCard_HidesSparseProfileSignal(t *testing.T) {
	fc := buildFactsCard(startFEN, testRecord(), model.TagSet{}, &model.ProfileSignal{Pattern: "hangs_pieces", SampleSize: 2})
	if fc.ProfileSignal != nil {
		t.Fatalf("expected profile signal hidden below sample size 3, got %+v", fc.ProfileSignal)
	}
}

func TestBuildFactsCard_SurfacesStrongProfileSignal(t *testing.T) {
	fc := buildFactsCard(startFEN, testRecord(), model.TagSet{}, &model.ProfileSignal{Pattern: "hangs_pieces", SampleSize: 5})
	if fc.ProfileSignal == nil {
		t.Fatalf("expected profile signal present at sample size 5")
	}
}
