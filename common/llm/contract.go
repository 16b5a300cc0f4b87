package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Stage names the JSON-only contract being requested, used in log lines and
// error messages (spec §4.8: intent classification,
// planner plan, justification, explanation, chat response).
type Stage string

const (
	StageIntent        Stage = "intent_classification"
	StagePlannerDraft   Stage = "planner_draft"
	StageJustification Stage = "justification"
	StageExplanation   Stage = "explanation"
	StageChat          Stage = "chat"
)

// CompleteJSON implements the complete_json contract named in spec §7/§4.8:
// a system-prompt-constrained call whose response must unmarshal into out
// (out must be a pointer). On a schema-validation failure (json.Unmarshal
// error, or validate returning an error) it retries once with a "repair"
// variant of the prompt that includes the raw bad output and the error, per
// spec §7's "schema-invalid LLM output: one repair retry then chat
// fallback" error kind. The caller decides the chat fallback when
// CompleteJSON still fails after the repair attempt.
func CompleteJSON(ctx context.Context, client AgentClient, stage Stage, systemPrompt, userText string, out any, validate func() error) error {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userText},
	}

	resp, err := client.ChatWithTools(ctx, AgentRequest{Messages: messages})
	if err != nil {
		return fmt.Errorf("llm: %s: %w", stage, err)
	}
	contractErr := json.Unmarshal([]byte(resp.Content), out)
	if contractErr == nil && validate != nil {
		contractErr = validate()
	}
	if contractErr == nil {
		return nil
	}

	slog.WarnContext(ctx, "llm json contract failed validation, retrying with repair prompt", "stage", stage)
	repairPrompt := fmt.Sprintf(
		"Your previous response did not match the required JSON schema. Previous response:\n%s\n\nError: %s\n\nReturn ONLY valid JSON matching the schema.",
		resp.Content, contractErr,
	)
	messages = append(messages, Message{Role: "user", Content: repairPrompt})
	resp, err = client.ChatWithTools(ctx, AgentRequest{Messages: messages})
	if err != nil {
		return fmt.Errorf("llm: %s: repair attempt: %w", stage, err)
	}
	if err := json.Unmarshal([]byte(resp.Content), out); err != nil {
		return fmt.Errorf("llm: %s: repair attempt still invalid: %w", stage, err)
	}
	if validate != nil {
		return validate()
	}
	return nil
}
