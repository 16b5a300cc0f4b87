package model

// Intent is the controller's classified reading of a user turn (spec §4.6
// input, §4.8 step 2): a goal/summary pair plus a list of typed
// investigation requests the planner turns into steps.
type Intent struct {
	Name                   string                 `json:"intent"`
	Goal                   string                 `json:"goal"`
	UserIntentSummary      string                 `json:"user_intent_summary"`
	Mode                   string                 `json:"mode"` // discuss | analyze | play | review
	InvestigationRequired  bool                   `json:"investigation_required"`
	InvestigationRequests  []InvestigationRequest `json:"investigation_requests"`
	ConnectedIdeas         []string               `json:"connected_ideas,omitempty"`
	NeedsClarification     string                 `json:"needs_clarification,omitempty"`
}

// InvestigationRequest is one typed purpose the classified intent asks the
// planner to turn into a step (spec §4.6).
type InvestigationRequest struct {
	InvestigationType string         `json:"investigation_type"`
	Focus             string         `json:"focus,omitempty"`
	Parameters        map[string]any `json:"parameters,omitempty"`
}
