package controller

import (
	"context"
	"fmt"
	"strings"

	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/internal/model"
)

const classifySystemPrompt = `You classify a chess chat turn into a structured intent.
Return JSON only:
{
  "intent": "string label",
  "goal": "short goal phrase",
  "user_intent_summary": "one sentence summary",
  "mode": "discuss|analyze|play|review",
  "investigation_required": true,
  "investigation_requests": [{"investigation_type": "investigate_position|investigate_move|investigate_target|investigate_game", "focus": "optional SAN or description", "parameters": {}}],
  "connected_ideas": ["white_knight_b1"],
  "needs_clarification": ""
}`

// classifyIntent calls the LLM under the JSON-only contract (spec §4.8 step
// 2), constraining the prompt to the last n chat turns. Falls back to a
// minimal chat-mode intent if the call fails outright.
func (c *Controller) classifyIntent(ctx context.Context, req model.TaskRequest, sessionID string) model.Intent {
	history := req.RecentHistory(10, 800)
	userText := buildIntentUserText(req.LastUserMessage(), history, req.FEN)

	var intent model.Intent
	err := llm.CompleteJSON(ctx, c.Client, llm.StageIntent, classifySystemPrompt, userText, &intent, func() error {
		if intent.Goal == "" && intent.UserIntentSummary == "" {
			return fmt.Errorf("controller: intent missing goal/summary")
		}
		return nil
	})
	if err != nil {
		return model.Intent{
			Name:              "chat_fallback",
			Goal:              "respond conversationally",
			UserIntentSummary: req.LastUserMessage(),
			Mode:              "discuss",
		}
	}
	return coerceIntent(intent)
}

func buildIntentUserText(message string, history []model.ChatMessage, fen string) string {
	var b strings.Builder
	b.WriteString("FEN: ")
	b.WriteString(fen)
	b.WriteString("\n\nRecent turns:\n")
	for _, h := range history {
		b.WriteString(h.Role)
		b.WriteString(": ")
		b.WriteString(h.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nLatest user message: ")
	b.WriteString(message)
	return b.String()
}

// gameReviewSelectionHints are the purpose labels spec §4.8 step 3 names
// for deriving selection requests when a game_review intent is coerced to
// game_select.
var gameReviewSelectionHints = []string{"last_game", "won_game", "rapid_game", "played_as_black"}

// coerceIntent implements spec §4.8 step 3: a game_review intent whose
// goal/summary actually asks to list or choose among multiple games is
// coerced to game_select.
func coerceIntent(intent model.Intent) model.Intent {
	if intent.Name != "game_review" {
		return intent
	}
	combined := strings.ToLower(intent.Goal + " " + intent.UserIntentSummary)
	listingWords := []string{"which game", "list my games", "choose a game", "pick a game", "my games"}
	for _, w := range listingWords {
		if strings.Contains(combined, w) {
			intent.Name = "game_select"
			if len(intent.InvestigationRequests) == 0 {
				for _, hint := range gameReviewSelectionHints {
					if strings.Contains(combined, strings.ReplaceAll(hint, "_", " ")) {
						intent.InvestigationRequests = append(intent.InvestigationRequests, model.InvestigationRequest{
							InvestigationType: "game_select",
							Focus:             hint,
						})
					}
				}
			}
			return intent
		}
	}
	return intent
}
