package planner

import (
	"testing"

	"boardsense.dev/sentinel/internal/model"
)

func TestRepairStepReferences_InvestigateTargetWitness(t *testing.T) {
	plan := &model.ExecutionPlan{
		Steps: []model.ExecutionStep{
			{StepNumber: 1, ActionType: model.ActionInvestigateTarget},
			{StepNumber: 2, ActionType: model.ActionApplyLine, Parameters: map[string]any{"line_ref": "step:1.witness_line_san"}},
		},
	}
	repairStepReferences(plan)
	got := plan.Steps[1].Parameters["line_ref"]
	want := "step:1.goal_search_results.witness_line_san"
	if got != want {
		t.Fatalf("line_ref = %q, want %q", got, want)
	}
}

func TestRepairStepReferences_InvestigateMoveWitnessBecomesPVAfterMove(t *testing.T) {
	plan := &model.ExecutionPlan{
		Steps: []model.ExecutionStep{
			{StepNumber: 3, ActionType: model.ActionInvestigateMove},
			{StepNumber: 4, ActionType: model.ActionApplyLine, Parameters: map[string]any{"line_ref": "step:3.witness_line_san"}},
		},
	}
	repairStepReferences(plan)
	got := plan.Steps[1].Parameters["line_ref"]
	want := "step:3.pv_after_move"
	if got != want {
		t.Fatalf("line_ref = %q, want %q", got, want)
	}
}

func TestRepairStepReferences_FallsBackToFirstTargetStep(t *testing.T) {
	plan := &model.ExecutionPlan{
		Steps: []model.ExecutionStep{
			{StepNumber: 1, ActionType: model.ActionInvestigateTarget},
			{StepNumber: 2, ActionType: model.ActionInvestigatePosition},
			{StepNumber: 3, ActionType: model.ActionApplyLine, Parameters: map[string]any{"line_ref": "step:2.witness_line_san"}},
		},
	}
	repairStepReferences(plan)
	got := plan.Steps[2].Parameters["line_ref"]
	want := "step:1.goal_search_results.witness_line_san"
	if got != want {
		t.Fatalf("line_ref = %q, want %q", got, want)
	}
}

func TestFilterUnnecessaryClarifications_DropsStyleQuestionWhenContextSufficient(t *testing.T) {
	plan := &model.ExecutionPlan{
		OriginalIntent: model.Intent{
			Goal:                  "evaluate the position",
			UserIntentSummary:     "user wants an evaluation",
			InvestigationRequests: []model.InvestigationRequest{{InvestigationType: "investigate_position"}},
		},
		Steps: []model.ExecutionStep{
			{StepNumber: 1, ActionType: model.ActionAskClarification, Parameters: map[string]any{"question": "What level of detail would you like?"}},
			{StepNumber: 2, ActionType: model.ActionInvestigatePosition},
		},
	}
	filterUnnecessaryClarifications(plan, "startpos-fen")
	if len(plan.Steps) != 1 {
		t.Fatalf("expected style clarification dropped, got %d steps", len(plan.Steps))
	}
	if plan.Steps[0].ActionType != model.ActionInvestigatePosition {
		t.Fatalf("expected remaining step to be investigate_position, got %s", plan.Steps[0].ActionType)
	}
}

func TestFilterUnnecessaryClarifications_KeepsCriticalQuestionWithoutFEN(t *testing.T) {
	plan := &model.ExecutionPlan{
		OriginalIntent: model.Intent{
			Goal:              "play the knight",
			UserIntentSummary: "user wants to move a knight",
		},
		Steps: []model.ExecutionStep{
			{StepNumber: 1, ActionType: model.ActionAskClarification, Parameters: map[string]any{"question": "Which knight did you mean?"}},
		},
	}
	filterUnnecessaryClarifications(plan, "")
	if len(plan.Steps) != 1 {
		t.Fatalf("expected clarification kept without FEN, got %d steps", len(plan.Steps))
	}
}

func TestCapCandidates_PreservesEngineBest(t *testing.T) {
	cands := []candidate{
		{MoveSAN: "a4", Reason: "engine_candidate"},
		{MoveSAN: "b4", Reason: "engine_candidate"},
		{MoveSAN: "c4", Reason: "engine_candidate"},
		{MoveSAN: "Nf3", Reason: "engine_best"},
	}
	capped := capCandidates(cands, 2)
	if len(capped) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(capped))
	}
	found := false
	for _, c := range capped {
		if c.Reason == "engine_best" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected engine_best preserved in capped set: %+v", capped)
	}
}

func TestDedupeCandidates_CaseAndWhitespaceInsensitive(t *testing.T) {
	cands := []candidate{{MoveSAN: "Nf3"}, {MoveSAN: " nf3 "}, {MoveSAN: "Nxe5"}}
	deduped := dedupeCandidates(cands)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d: %+v", len(deduped), deduped)
	}
}

func TestResolvePieceIdentity_InsertsClarificationStep(t *testing.T) {
	plan := &model.ExecutionPlan{
		OriginalIntent: model.Intent{NeedsClarification: "needs_clarification:knight:Nb1,Nd2"},
		Steps: []model.ExecutionStep{
			{StepNumber: 1, ActionType: model.ActionInvestigatePosition},
		},
	}
	resolvePieceIdentity(plan)
	if len(plan.Steps) != 2 {
		t.Fatalf("expected clarification step inserted, got %d steps", len(plan.Steps))
	}
	if plan.Steps[0].ActionType != model.ActionAskClarification {
		t.Fatalf("expected first step to be ask_clarification, got %s", plan.Steps[0].ActionType)
	}
	if plan.Steps[0].StepNumber != 1 || plan.Steps[1].StepNumber != 2 {
		t.Fatalf("expected dense renumbering, got %d, %d", plan.Steps[0].StepNumber, plan.Steps[1].StepNumber)
	}
}

func TestFallbackPlan_NoFENAsksClarification(t *testing.T) {
	plan := fallbackPlan(model.Intent{}, "")
	if len(plan.Steps) != 1 || plan.Steps[0].ActionType != model.ActionAskClarification {
		t.Fatalf("expected a single ask_clarification step, got %+v", plan.Steps)
	}
}

func TestFallbackPlan_WithFENInvestigatesPosition(t *testing.T) {
	plan := fallbackPlan(model.Intent{}, "8/8/8/8/8/8/8/K6k w - - 0 1")
	if len(plan.Steps) != 2 || plan.Steps[0].ActionType != model.ActionInvestigatePosition {
		t.Fatalf("expected investigate_position then answer, got %+v", plan.Steps)
	}
}
