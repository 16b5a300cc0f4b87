package model

// FactsCard is the grounded evidence the controller hands to the
// justification/explanation writers (spec §4.8). Every field here must
// trace back to an engine call or tag/threat detector output; the writer
// stages are not permitted to introduce claims the facts card doesn't
// support.
type FactsCard struct {
	FEN               string     `json:"fen"`
	EngineTopK        []PVLine   `json:"engine_top_k"`
	RecommendedMove   string     `json:"recommended_move,omitempty"`
	TagSample         []Tag      `json:"tag_sample,omitempty"`
	ConfidenceSignals Confidence `json:"confidence_signals"`
	DeepEval          *AnalysisResult `json:"deep_eval,omitempty"`
	EvidenceExamples  []string   `json:"evidence_examples,omitempty"`
	ProfileSignal     *ProfileSignal `json:"profile_signal,omitempty"`
}

// Confidence summarizes how much the controller trusts its own facts card,
// driving the escalation ladder in spec §4.8 (light/compare/deep).
type Confidence struct {
	D2D16Agree   bool `json:"d2_d16_agree"`
	MultiPVStable bool `json:"multi_pv_stable"`
	SEEValidated bool `json:"see_validated"`
}

// ProfileSignal is the optional supplemented per-account pattern signal
// from internal/profile; the justification writer may only cite it when
// SampleSize is at least 3 (spec supplement, see SPEC_FULL.md §C).
type ProfileSignal struct {
	Pattern    string `json:"pattern"`
	SampleSize int    `json:"sample_size"`
}

// StopReason is why the controller stopped running steps (spec §4.8/§7).
type StopReason string

const (
	StopCompleted           StopReason = "completed"
	StopBudgetTimeExceeded  StopReason = "budget_time_exceeded"
	StopBudgetStepsExceeded StopReason = "budget_steps_exceeded"
	StopClarificationNeeded StopReason = "clarification_needed"
	StopVerifierRejected    StopReason = "verifier_rejected"
)

// BudgetUsage reports consumed vs allotted controller budget.
type BudgetUsage struct {
	StepsUsed   int     `json:"steps_used"`
	StepsLimit  int     `json:"steps_limit"`
	SecondsUsed float64 `json:"seconds_used"`
	SecondsLimit float64 `json:"seconds_limit"`
}

// AnswerEnvelope is the controller's final output for a task (spec §4.8).
// RecommendedMove and Explanation may be empty when StopReason indicates
// the task ended before producing a recommendation (e.g. clarification
// needed, verifier rejected the candidate).
type AnswerEnvelope struct {
	TaskID          string      `json:"task_id"`
	Facts           FactsCard   `json:"facts"`
	RecommendedMove string      `json:"recommended_move,omitempty"`
	Explanation     string      `json:"explanation,omitempty"`
	UICommands      []UICommand `json:"ui_commands,omitempty"`
	Confidence      Confidence  `json:"confidence"`
	StopReason      StopReason  `json:"stop_reason"`
	Budget          BudgetUsage `json:"budget"`
	ArtifactsUsed   []string    `json:"artifacts_used,omitempty"`
}

// UICommand is a validated client-facing directive (e.g. highlight squares,
// draw an arrow). The controller only emits commands whose kind is in the UI
// command validator's closed set and passes its mutation filter; squares,
// arrows and labels are not checked against the facts card.
type UICommand struct {
	Kind    string   `json:"kind"`
	Squares []string `json:"squares,omitempty"`
	Arrows  [][2]string `json:"arrows,omitempty"`
	Label   string   `json:"label,omitempty"`
}

// GameRef identifies a single game on an external platform for
// investigate_game / profile aggregation (spec §6 supplement).
type GameRef struct {
	Platform string `json:"platform"`
	GameID   string `json:"game_id"`
	PGN      string `json:"pgn,omitempty"`
	PlayedAt string `json:"played_at,omitempty"`
}
