// Package see implements the SEE / two-move tactical scanner (spec §4.3):
// classifies 1-2 ply tactics into a bounded taxonomy with a static-
// exchange-evaluation validation verdict, grounded on
// original_source/backend/two_move_win_engine.py's _validate_tactic /
// _see_best_line / _find_best_defense family of methods.
package see

import "boardsense.dev/sentinel/internal/model"

// TacticKind is the closed taxonomy of 1-2 ply tactics this scanner names.
type TacticKind string

const (
	Fork               TacticKind = "fork"
	Skewer             TacticKind = "skewer"
	DiscoveredAttack   TacticKind = "discovered_attack"
	DoubleAttack       TacticKind = "double_attack"
	PinWin             TacticKind = "pin_win"
	Deflection         TacticKind = "deflection"
	Overloading        TacticKind = "overloading"
)

// Verdict is the SEE gate's classification of a candidate tactic after
// simulating the opponent's best defense.
type Verdict string

const (
	VerdictWin         Verdict = "win"
	VerdictEqualTrade  Verdict = "equal_trade"
	VerdictLosesMaterial Verdict = "loses_material"
)

// Tactic is one open or blocked tactic found by Scan.
type Tactic struct {
	Kind         TacticKind `json:"kind"`
	MoveSAN      string     `json:"move_san"`
	Targets      []string   `json:"targets,omitempty"`
	Verdict      Verdict    `json:"verdict"`
	MaterialNet  int        `json:"material_net_cp"`
	ClearingMove string     `json:"clearing_move,omitempty"` // set only for blocked_tactics
}

// Capture is one capture move annotated with its SEE outcome.
type Capture struct {
	MoveSAN     string `json:"move_san"`
	TargetSquare string `json:"target_square"`
	SEENet      int    `json:"see_net_cp"`
	Winning     bool   `json:"winning"`
	MateForcing bool   `json:"mate_forcing"`
}

// Promotion classifies a pawn promotion opportunity.
type Promotion struct {
	MoveSAN string `json:"move_san"`
	Status  string `json:"status"` // immediate | threat | blocked
}

// MatePattern names a recognized forced-mate structural shape.
type MatePattern struct {
	Name string `json:"name"`
	Squares []string `json:"squares,omitempty"`
}

// Result is the full output of Scan for one position and side (spec §4.3).
type Result struct {
	OpenTactics   []Tactic      `json:"open_tactics"`
	BlockedTactics []Tactic     `json:"blocked_tactics"`
	OpenCaptures  []Capture     `json:"open_captures"`
	ClosedCaptures []Capture    `json:"closed_captures"`
	Promotions    []Promotion   `json:"promotions"`
	Checkmates    []string      `json:"checkmates"` // mate-in-1 SAN, or "<move> (forced mate-in-2)"
	MatePatterns  []MatePattern `json:"mate_patterns"`

	HasWinningTactic    bool `json:"has_winning_tactic"`
	HasLosingTactic     bool `json:"has_losing_tactic"`
	HasImmediateThreat  bool `json:"has_immediate_threat"`
	HasPromotionThreat  bool `json:"has_promotion_threat"`
	HasMateThreat       bool `json:"has_mate_threat"`
}

// ThreatSource is a provider of pre-computed threat tags for a position and
// side. Scan does not take one: it always calls threats.Detect itself.
type ThreatSource interface {
	Threats(fen string, side model.Color) ([]model.ThreatTag, error)
}
