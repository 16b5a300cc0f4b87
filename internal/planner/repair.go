package planner

import (
	"strconv"
	"strings"

	"boardsense.dev/sentinel/internal/model"
)

// repairStepReferences rewrites common LLM reference mistakes in line_ref
// parameters of apply_line steps (spec §4.6 step 2), grounded on
// original_source/backend/planner.py's _repair_step_references:
//   - a naked ".witness_line_san" against an investigate_target step becomes
//     ".goal_search_results.witness_line_san"
//   - against an investigate_move step it becomes ".pv_after_move"
//   - against anything else, or when unresolvable, it points at the first
//     investigate_target step's witness line if one exists in the plan
func repairStepReferences(plan *model.ExecutionPlan) {
	firstTarget := -1
	for _, s := range plan.Steps {
		if s.ActionType == model.ActionInvestigateTarget {
			firstTarget = s.StepNumber
			break
		}
	}

	for i := range plan.Steps {
		s := &plan.Steps[i]
		if s.ActionType != model.ActionApplyLine {
			continue
		}
		lineRef, _ := s.Parameters["line_ref"].(string)
		if lineRef == "" {
			continue
		}

		n, rest, ok := splitStepRef(lineRef)
		if !ok {
			continue
		}
		producer, found := plan.StepByNumber(n)

		switch {
		case strings.Contains(rest, "goal_search_results") && found && producer.ActionType != model.ActionInvestigateTarget && firstTarget != -1:
			s.Parameters["line_ref"] = witnessRef(firstTarget)
		case rest == "witness_line_san" && found && producer.ActionType == model.ActionInvestigateTarget:
			s.Parameters["line_ref"] = witnessRef(n)
		case rest == "witness_line_san" && found && producer.ActionType == model.ActionInvestigateMove:
			s.Parameters["line_ref"] = pvAfterMoveRef(n)
		case rest == "witness_line_san" && firstTarget != -1:
			s.Parameters["line_ref"] = witnessRef(firstTarget)
		}
	}
}

func witnessRef(n int) string {
	return "step:" + strconv.Itoa(n) + ".goal_search_results.witness_line_san"
}

func pvAfterMoveRef(n int) string {
	return "step:" + strconv.Itoa(n) + ".pv_after_move"
}

// splitStepRef parses "step:N.<rest>" into (N, rest, true).
func splitStepRef(ref string) (n int, rest string, ok bool) {
	after, found := strings.CutPrefix(ref, "step:")
	if !found {
		return 0, "", false
	}
	parts := strings.SplitN(after, ".", 2)
	num, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 2 {
		rest = parts[1]
	}
	return num, rest, true
}

// stylePreferenceKeywords names the clarification topics spec §4.6 step 2
// treats as non-critical when FEN and investigation requests are present.
var stylePreferenceKeywords = []string{
	"preference", "style", "detail", "level", "how would you like", "kingside castling",
}

// filterUnnecessaryClarifications drops ask_clarification steps whose
// question is about style/verbosity once the intent already has enough
// context to proceed (spec §4.6 step 2), then renumbers.
func filterUnnecessaryClarifications(plan *model.ExecutionPlan, fen string) {
	hasFEN := fen != ""
	hasRequests := len(plan.OriginalIntent.InvestigationRequests) > 0
	intentClear := plan.OriginalIntent.Goal != "" && plan.OriginalIntent.UserIntentSummary != ""

	if !(hasFEN && hasRequests && intentClear) {
		return
	}

	filtered := plan.Steps[:0:0]
	for _, s := range plan.Steps {
		if s.ActionType == model.ActionAskClarification {
			question := strings.ToLower(questionOf(s))
			if isStylePreference(question) {
				continue
			}
		}
		filtered = append(filtered, s)
	}
	plan.Steps = filtered
	plan.Renumber()
}

func questionOf(s model.ExecutionStep) string {
	q, _ := s.Parameters["question"].(string)
	return q
}

func isStylePreference(question string) bool {
	for _, kw := range stylePreferenceKeywords {
		if strings.Contains(question, kw) {
			return true
		}
	}
	return false
}
