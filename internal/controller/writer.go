package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/internal/model"
)

const justificationSystemPrompt = `You write a short chess justification using ONLY the provided facts.
Return JSON only:
{
  "paragraph": "short justification paragraph",
  "worded_pv": [{"move": "Nf3", "why": "develops and eyes e5"}],
  "ui_commands": [{"kind": "annotate", "squares": ["e4"], "label": "central pawn"}]
}
Do not invent facts not present in the input.`

const explanationSystemPrompt = `You write the final explanation for the user using ONLY the provided facts
and the prior justification. Return JSON only:
{"explanation": "final explanation text"}`

type justificationDraft struct {
	Paragraph  string            `json:"paragraph"`
	WordedPV   []wordedPVItem    `json:"worded_pv"`
	UICommands []model.UICommand `json:"ui_commands"`
}

type wordedPVItem struct {
	Move string `json:"move"`
	Why  string `json:"why"`
}

type explanationDraft struct {
	Explanation string `json:"explanation"`
}

// writeJustification runs the justification-writer LLM call constrained to
// facts (spec §4.8 step 7).
func (c *Controller) writeJustification(ctx context.Context, facts model.FactsCard) (justificationDraft, error) {
	var draft justificationDraft
	userText := factsUserText(facts)
	err := llm.CompleteJSON(ctx, c.Client, llm.StageJustification, justificationSystemPrompt, userText, &draft, func() error {
		if strings.TrimSpace(draft.Paragraph) == "" {
			return fmt.Errorf("controller: justification missing paragraph")
		}
		return nil
	})
	return draft, err
}

// writeExplanation runs the explanation-writer LLM call (spec §4.8 step 8),
// strips step-reference markers, and appends the first worded-PV move and a
// recommended line when the text lacks them. UI commands are not handled
// here; on a failed call it returns the justification paragraph.
func (c *Controller) writeExplanation(ctx context.Context, facts model.FactsCard, justification justificationDraft) (string, error) {
	var draft explanationDraft
	userText := factsUserText(facts) + "\n\nJustification paragraph:\n" + justification.Paragraph
	err := llm.CompleteJSON(ctx, c.Client, llm.StageExplanation, explanationSystemPrompt, userText, &draft, func() error {
		if strings.TrimSpace(draft.Explanation) == "" {
			return fmt.Errorf("controller: explanation missing text")
		}
		return nil
	})
	if err != nil {
		return justification.Paragraph, nil
	}
	text, stripped := sanitizeExplanation(draft.Explanation)
	if stripped > 0 {
		slog.WarnContext(ctx, "stripped internal step-reference markers from explanation", "count", stripped)
	}
	text = ensureWordedPVPresent(text, justification.WordedPV)
	text = ensureLineIsNatural(text, facts)
	return text, nil
}

func factsUserText(facts model.FactsCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fen: %s\n", facts.FEN)
	fmt.Fprintf(&b, "recommended_move: %s\n", facts.RecommendedMove)
	if facts.DeepEval != nil {
		fmt.Fprintf(&b, "deep_eval_cp: %d\n", facts.DeepEval.EvalCP)
		fmt.Fprintf(&b, "deep_pv: %s\n", strings.Join(facts.DeepEval.PVSan, " "))
	}
	for _, l := range facts.EngineTopK {
		fmt.Fprintf(&b, "candidate: %s eval_cp=%d pv=%s\n", l.MoveSAN, l.EvalCP, strings.Join(l.PVSan, " "))
	}
	for _, t := range facts.TagSample {
		fmt.Fprintf(&b, "tag: %s (%s)\n", t.Name, t.Side)
	}
	if facts.ProfileSignal != nil {
		fmt.Fprintf(&b, "profile_pattern: %s (n=%d)\n", facts.ProfileSignal.Pattern, facts.ProfileSignal.SampleSize)
	}
	return b.String()
}

// ensureWordedPVPresent guarantees the first worded-PV move token appears in
// the explanation text, appending it if the writer dropped it (spec §4.8
// step 8, grounded on original_source/backend/task_controller.py's
// _ensure_worded_pv_present).
func ensureWordedPVPresent(text string, wordedPV []wordedPVItem) string {
	if len(wordedPV) == 0 {
		return text
	}
	first := wordedPV[0]
	if first.Move == "" || strings.Contains(text, first.Move) {
		return text
	}
	return text + fmt.Sprintf("\n%s — %s", first.Move, first.Why)
}

// ensureLineIsNatural guarantees a recommended PV line is phrased naturally
// in the final text, grounded on the same file's _ensure_line_is_natural.
func ensureLineIsNatural(text string, facts model.FactsCard) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "a clean line is") || strings.Contains(lower, "one concrete continuation is") {
		return text
	}
	line := recommendedLineFromFacts(facts)
	if line == "" {
		return text
	}
	return text + "\nA clean line is: " + line
}

func recommendedLineFromFacts(facts model.FactsCard) string {
	if facts.DeepEval != nil && len(facts.DeepEval.PVSan) > 0 {
		return strings.Join(facts.DeepEval.PVSan, " ")
	}
	for _, l := range facts.EngineTopK {
		if l.MoveSAN == facts.RecommendedMove && len(l.PVSan) > 0 {
			return strings.Join(l.PVSan, " ")
		}
	}
	if len(facts.EngineTopK) > 0 && len(facts.EngineTopK[0].PVSan) > 0 {
		return strings.Join(facts.EngineTopK[0].PVSan, " ")
	}
	return ""
}
