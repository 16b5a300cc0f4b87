package model

import "sort"

// ActionType is the closed set of step actions the planner may emit and the
// executor must dispatch on exhaustively (spec §4.6/§4.7).
type ActionType string

const (
	ActionAskClarification     ActionType = "ask_clarification"
	ActionInvestigatePosition  ActionType = "investigate_position"
	ActionInvestigateMove      ActionType = "investigate_move"
	ActionInvestigateTarget    ActionType = "investigate_target"
	ActionApplyLine            ActionType = "apply_line"
	ActionSelectLine           ActionType = "select_line"
	ActionSaveState            ActionType = "save_state"
	ActionScoreState           ActionType = "score_state"
	ActionSelectState          ActionType = "select_state"
	ActionAuditLine            ActionType = "audit_line"
	ActionRetryInvestigateTarget ActionType = "retry_investigate_target"
	ActionInvestigateGame      ActionType = "investigate_game"
	ActionSynthesize           ActionType = "synthesize"
	ActionAnswer               ActionType = "answer"
)

// StepStatus tracks a step's lifecycle through the executor.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// ExecutionStep is one entry of an ExecutionPlan (spec §3/§4.6). Parameters
// may reference prior step output via "step:N.path" or named state via
// "state:NAME"; resolution is the executor's job, not the planner's.
type ExecutionStep struct {
	StepNumber     int            `json:"step_number"`
	ActionType     ActionType     `json:"action_type"`
	Parameters     map[string]any `json:"parameters"`
	Purpose        string         `json:"purpose"`
	Tool           string         `json:"tool,omitempty"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	Status         StepStatus     `json:"status"`
	Result         any            `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// ExecutionPlan is the planner's ordered step list plus the metadata the
// controller and executor need to run and audit it (spec §4.6). Step
// numbers must be dense 1..N; the planner's repair pass is responsible for
// renumbering after any drop/merge.
type ExecutionPlan struct {
	PlanID          string          `json:"plan_id"`
	OriginalIntent  Intent          `json:"original_intent"`
	DiscussionAgenda []string       `json:"discussion_agenda,omitempty"`
	Steps           []ExecutionStep `json:"steps"`
	RequiresCandidateMoves bool     `json:"requires_candidate_moves,omitempty"`
	Fallback        bool            `json:"fallback,omitempty"`
}

// StepsInOrder returns the plan's steps sorted by StepNumber. Callers that
// mutate Steps in place must preserve the dense 1..N invariant themselves.
func (p *ExecutionPlan) StepsInOrder() []ExecutionStep {
	out := make([]ExecutionStep, len(p.Steps))
	copy(out, p.Steps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out
}

// StepByNumber finds a step, or (nil, false) if no step has that number.
func (p *ExecutionPlan) StepByNumber(n int) (*ExecutionStep, bool) {
	for i := range p.Steps {
		if p.Steps[i].StepNumber == n {
			return &p.Steps[i], true
		}
	}
	return nil, false
}

// Renumber reassigns StepNumber 1..len(Steps) in current slice order. Used
// by the planner's repair pass after dropping or merging steps.
func (p *ExecutionPlan) Renumber() {
	for i := range p.Steps {
		p.Steps[i].StepNumber = i + 1
	}
}
