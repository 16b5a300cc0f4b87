package model

// AnalysisResult is a single engine analysis of one position at one depth
// (spec §3). PVSan is kept as a finite SAN sequence, not a lazily-expanded
// one: the engine adapter truncates to the configured PV length before this
// type is populated.
type AnalysisResult struct {
	EvalCP      int        `json:"eval_cp"`
	BestMoveSAN string     `json:"best_move_san"`
	PVSan       []string   `json:"pv_san"`
	MultiPV     []PVLine   `json:"multi_pv,omitempty"`
	Depth       int        `json:"depth"`
	Partial     bool       `json:"partial,omitempty"` // true if the engine call hit its timeout before completing depth
}

// PVLine is one entry of a multi-PV analysis: a ranked alternative move with
// its own evaluation and principal variation.
type PVLine struct {
	Rank    int      `json:"rank"`
	MoveSAN string   `json:"move_san"`
	EvalCP  int      `json:"eval_cp"`
	PVSan   []string `json:"pv_san"`
}

// InvestigationResult is the output of investigate_move/investigate_position
// (spec §4.5). Fields are populated selectively depending on which
// investigation was requested; zero values mean "not computed", not "zero".
type InvestigationResult struct {
	PlayerMove    string   `json:"player_move,omitempty"`
	EvalBefore    int      `json:"eval_before_cp"`
	EvalAfter     int      `json:"eval_after_cp"`
	EvalDropCP    int      `json:"eval_drop_cp"`
	PVAfterMove   []string `json:"pv_after_move,omitempty"`

	BestMove      string `json:"best_move,omitempty"`
	BestMoveD16   string `json:"best_move_d16,omitempty"`

	TopMovesD2 []PVLine `json:"top_moves_d2,omitempty"`

	CandidateMoves   []string          `json:"candidate_moves,omitempty"`
	TacticsFound     []ThreatTag       `json:"tactics_found,omitempty"`
	ThemesIdentified []string          `json:"themes_identified,omitempty"`
	PGNBranches      map[string]string `json:"pgn_branches,omitempty"`

	// HasWinningTactic/HasLosingTactic are the SEE scanner's verdict on this
	// position/move, not just the raw threat detector (spec §4.3): a tactic
	// only counts here once it survives the opponent's best defense.
	HasWinningTactic bool `json:"has_winning_tactic,omitempty"`
	HasLosingTactic  bool `json:"has_losing_tactic,omitempty"`

	GoalSearchResults []GoalSearchResult `json:"goal_search_results,omitempty"`

	// EvidenceDelta captures the D2-vs-D16 disagreement, set only when the
	// two passes' best moves differ; it triggers no further scan.
	EvidenceDelta *EvidenceDelta `json:"evidence_delta,omitempty"`
}

// GoalSearchResult is one hit from a goal-directed search (e.g. "find a way
// to win the exchange"): the move that achieves the goal and the line that
// justifies it.
type GoalSearchResult struct {
	MoveSAN     string   `json:"move_san"`
	LineSan     []string `json:"line_san"`
	Achieves    string   `json:"achieves"`
	MaterialNet int      `json:"material_net_cp"`
}

// EvidenceDelta records the gap between a shallow (D2) and deep (D16) scan
// of the same position whose best moves differ.
type EvidenceDelta struct {
	ShallowBestMove string `json:"shallow_best_move"`
	DeepBestMove    string `json:"deep_best_move"`
	EvalDeltaCP     int    `json:"eval_delta_cp"`
}
