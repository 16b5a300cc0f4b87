package planner

import (
	"context"
	"fmt"
	"strconv"

	"boardsense.dev/sentinel/common/id"
	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/internal/model"
)

func shortID() string {
	return strconv.FormatInt(id.New(), 36)
}

// draftSystemPrompt constrains the LLM collaborator to the closed action set
// and a JSON-only response, per spec §4.6 step 1.
const draftSystemPrompt = `You are the planning layer of a chess analysis assistant.
Given a classified intent and position context, produce a JSON object:
{
  "plan_id": "plan_xxxxxxxx",
  "discussion_agenda": ["..."],
  "steps": [
    {
      "step_number": 1,
      "action_type": "investigate_position|investigate_move|investigate_target|apply_line|select_line|save_state|score_state|select_state|audit_line|retry_investigate_target|investigate_game|synthesize|answer|ask_clarification",
      "parameters": {},
      "purpose": "...",
      "tool_to_call": null,
      "expected_output": "..."
    }
  ]
}
Use only the listed action_type values. Return JSON only, no prose.`

type stepDraft struct {
	StepNumber     int            `json:"step_number"`
	ActionType     string         `json:"action_type"`
	Parameters     map[string]any `json:"parameters"`
	Purpose        string         `json:"purpose"`
	ToolToCall     string         `json:"tool_to_call"`
	ExpectedOutput string         `json:"expected_output"`
}

type planDraft struct {
	PlanID           string      `json:"plan_id"`
	DiscussionAgenda []string    `json:"discussion_agenda"`
	Steps            []stepDraft `json:"steps"`
}

// draftPlan runs the intent-to-steps LLM call under the JSON-only contract
// (spec §4.6 step 1), falling back to a deterministic minimal plan if the
// LLM call or schema validation fails even after one repair retry.
func (p *Planner) draftPlan(ctx context.Context, intent model.Intent, fen string, userText string) *model.ExecutionPlan {
	var draft planDraft
	err := llm.CompleteJSON(ctx, p.Client, llm.StagePlannerDraft, draftSystemPrompt, userText, &draft, func() error {
		return validateDraft(draft)
	})
	if err != nil {
		return fallbackPlan(intent, fen)
	}

	steps := make([]model.ExecutionStep, 0, len(draft.Steps))
	for _, sd := range draft.Steps {
		steps = append(steps, model.ExecutionStep{
			StepNumber:     sd.StepNumber,
			ActionType:     model.ActionType(sd.ActionType),
			Parameters:     sd.Parameters,
			Purpose:        sd.Purpose,
			Tool:           sd.ToolToCall,
			ExpectedOutput: sd.ExpectedOutput,
			Status:         model.StepPending,
		})
	}

	planID := draft.PlanID
	if planID == "" {
		planID = "plan_" + shortID()
	}

	return &model.ExecutionPlan{
		PlanID:           planID,
		OriginalIntent:   intent,
		DiscussionAgenda: draft.DiscussionAgenda,
		Steps:            steps,
	}
}

func validateDraft(d planDraft) error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("planner: draft has no steps")
	}
	for _, s := range d.Steps {
		if !validActionType(s.ActionType) {
			return fmt.Errorf("planner: unknown action_type %q", s.ActionType)
		}
	}
	return nil
}

func validActionType(a string) bool {
	switch model.ActionType(a) {
	case model.ActionAskClarification, model.ActionInvestigatePosition, model.ActionInvestigateMove,
		model.ActionInvestigateTarget, model.ActionApplyLine, model.ActionSelectLine, model.ActionSaveState,
		model.ActionScoreState, model.ActionSelectState, model.ActionAuditLine, model.ActionRetryInvestigateTarget,
		model.ActionInvestigateGame, model.ActionSynthesize, model.ActionAnswer:
		return true
	default:
		return false
	}
}

// fallbackPlan is the deterministic minimal plan used when the LLM draft
// call fails outright (spec §4.6's implicit robustness requirement, grounded
// on original_source/backend/planner.py's _create_fallback_plan): one
// investigate_position step when a FEN is known, otherwise a single
// ask_clarification step.
func fallbackPlan(intent model.Intent, fen string) *model.ExecutionPlan {
	var steps []model.ExecutionStep
	if fen != "" {
		steps = append(steps, model.ExecutionStep{
			StepNumber: 1,
			ActionType: model.ActionInvestigatePosition,
			Parameters: map[string]any{"fen_ref": fen, "depth": 16},
			Purpose:    "fallback investigation after planner draft failure",
			Status:     model.StepPending,
		})
		steps = append(steps, model.ExecutionStep{
			StepNumber: 2,
			ActionType: model.ActionAnswer,
			Purpose:    "summarize fallback investigation",
			Status:     model.StepPending,
		})
	} else {
		steps = append(steps, model.ExecutionStep{
			StepNumber: 1,
			ActionType: model.ActionAskClarification,
			Parameters: map[string]any{"question": "Which position or game would you like me to look at?"},
			Purpose:    "no FEN available to investigate",
			Status:     model.StepPending,
		})
	}
	return &model.ExecutionPlan{
		PlanID:         "plan_fallback_" + shortID(),
		OriginalIntent: intent,
		Steps:          steps,
		Fallback:       true,
	}
}
