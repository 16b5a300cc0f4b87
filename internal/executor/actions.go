package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

// ApplyLineResult is the apply_line step's result shape (spec §4.7).
type ApplyLineResult struct {
	StartFEN    string   `json:"start_fen"`
	MovesSan    []string `json:"moves_san"`
	FENs        []string `json:"fens"`
	EndFEN      string   `json:"end_fen"`
	PliesApplied int     `json:"plies_applied"`
	Error       string   `json:"error,omitempty"`
}

// executeApplyLine resolves fen_ref/line_ref, prepends the player move when
// the line came from a .pv_after_move (which already includes it — the
// investigator's InvestigateMove builds PVAfterMove with the move
// prepended, so no extra work is needed here beyond reading it), and
// replays SAN up to max_plies ∈ [0, 60] (spec §4.7 apply_line).
func (ex *Executor) executeApplyLine(plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	fenRef, _ := step.Parameters["fen_ref"].(string)
	lineRef, _ := step.Parameters["line_ref"].(string)
	maxPlies, ok := step.Parameters["max_plies"].(int)
	if !ok || maxPlies < 0 || maxPlies > 60 {
		maxPlies = 60
	}

	startFEN := ex.resolveFEN(plan, fenRef, rootFEN)
	line := resolveLineRef(plan, lineRef)

	g, err := rules.Board(startFEN)
	if err != nil {
		step.Result = ApplyLineResult{StartFEN: startFEN, Error: err.Error()}
		return nil
	}

	result := ApplyLineResult{StartFEN: startFEN}
	for i, san := range line {
		if i >= maxPlies {
			break
		}
		if err := rules.ApplySAN(g, san); err != nil {
			result.Error = fmt.Sprintf("illegal move %q at ply %d: %v", san, i, err)
			break
		}
		result.MovesSan = append(result.MovesSan, san)
		result.FENs = append(result.FENs, g.Position().String())
		result.PliesApplied++
	}
	result.EndFEN = g.Position().String()
	step.Result = result
	return nil
}

// SelectLineResult is the select_line step's result.
type SelectLineResult struct {
	SelectedIndex int      `json:"selected_index"`
	LineSan       []string `json:"line_san"`
}

// executeSelectLine chooses a line from a witnesses list (spec §4.7
// select_line): strategy ∈ {first, by_index, shortest}; shortest
// tie-breaks by lexicographic join of SAN.
func (ex *Executor) executeSelectLine(plan *model.ExecutionPlan, step *model.ExecutionStep) error {
	sourceRef, _ := step.Parameters["source_ref"].(string)
	strategy, _ := step.Parameters["strategy"].(string)
	index, _ := step.Parameters["index"].(int)

	witnesses := resolveWitnesses(plan, sourceRef)
	if len(witnesses) == 0 {
		step.Result = SelectLineResult{SelectedIndex: -1}
		return nil
	}

	switch strategy {
	case "by_index":
		if index < 0 || index >= len(witnesses) {
			index = 0
		}
		step.Result = SelectLineResult{SelectedIndex: index, LineSan: witnesses[index].LineSan}
	case "shortest":
		best := 0
		for i := 1; i < len(witnesses); i++ {
			if shorterOrLexFirst(witnesses[i].LineSan, witnesses[best].LineSan) {
				best = i
			}
		}
		step.Result = SelectLineResult{SelectedIndex: best, LineSan: witnesses[best].LineSan}
	default: // "first"
		step.Result = SelectLineResult{SelectedIndex: 0, LineSan: witnesses[0].LineSan}
	}
	return nil
}

func shorterOrLexFirst(a, b []string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return strings.Join(a, " ") < strings.Join(b, " ")
}

func resolveWitnesses(plan *model.ExecutionPlan, ref string) []model.GoalSearchResult {
	path, ok := strings.CutPrefix(ref, "step:")
	if !ok {
		return nil
	}
	v, ok := resolveStepPath(plan, path)
	if !ok {
		return nil
	}
	if res, ok := v.(model.InvestigationResult); ok {
		return res.GoalSearchResults
	}
	return nil
}

// executeSaveState binds a name to a resolved FEN in the executor's
// state_slots (spec §4.7 save_state).
func (ex *Executor) executeSaveState(plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	fenRef, _ := step.Parameters["fen_ref"].(string)
	name, _ := step.Parameters["save_as"].(string)
	if name == "" {
		return fmt.Errorf("executor: save_state missing save_as")
	}
	ex.StateSlots[name] = ex.resolveFEN(plan, fenRef, rootFEN)
	step.Result = map[string]any{"saved_as": name}
	return nil
}

// ScoreStateResult is the score_state step's result (spec §4.7).
type ScoreStateResult struct {
	EvalCPWhite  int    `json:"eval_cp_white"`
	ScoreSideCP  int    `json:"score_side_cp"`
	BestMoveSAN  string `json:"best_move_san"`
	Breakdown    string `json:"breakdown,omitempty"`
}

// executeScoreState runs a bounded-depth analysis on a saved/resolved
// state (default depth 8, clamped to 1..18) (spec §4.7 score_state). It
// reuses the Investigator's embedded baseline scanner at D2 since the
// executor itself has no direct engine handle; depth here governs the D2
// pass only, matching the shallow-probe intent of a quick state score.
func (ex *Executor) executeScoreState(ctx context.Context, plan *model.ExecutionPlan, step *model.ExecutionStep) error {
	fenRef, _ := step.Parameters["fen_ref"].(string)
	depth, _ := step.Parameters["depth"].(int)
	if depth <= 0 {
		depth = 8
	}
	if depth > 18 {
		depth = 18
	}
	fen := ex.resolveFEN(plan, fenRef, "")
	if fen == "" {
		return fmt.Errorf("executor: score_state: could not resolve fen_ref %q", fenRef)
	}
	inv := ex.NewInvestigator()
	res, err := inv.InvestigatePosition(ctx, fen, depth, "")
	if err != nil {
		return err
	}
	g, err := rules.Board(fen)
	if err != nil {
		return err
	}
	evalWhite := 0
	if len(res.TopMovesD2) > 0 {
		evalWhite = res.TopMovesD2[0].EvalCP
	}
	scoreSide := evalWhite
	if rules.SideToMove(g) == model.Black {
		scoreSide = -evalWhite
	}
	step.Result = ScoreStateResult{EvalCPWhite: evalWhite, ScoreSideCP: scoreSide, BestMoveSAN: res.BestMove}
	return nil
}

// executeSelectState picks among candidate state slots by numeric score
// (min or max), saving the winner under save_as (spec §4.7 select_state).
func (ex *Executor) executeSelectState(plan *model.ExecutionPlan, step *model.ExecutionStep) error {
	candidateRefs, _ := step.Parameters["candidates"].([]string)
	mode, _ := step.Parameters["mode"].(string) // "min" | "max"
	saveAs, _ := step.Parameters["save_as"].(string)

	type scored struct {
		ref   string
		score int
	}
	var all []scored
	for _, ref := range candidateRefs {
		path, ok := strings.CutPrefix(ref, "step:")
		if !ok {
			continue
		}
		v, ok := resolveStepPath(plan, path)
		if !ok {
			continue
		}
		if sr, ok := v.(ScoreStateResult); ok {
			all = append(all, scored{ref: ref, score: sr.ScoreSideCP})
		}
	}
	if len(all) == 0 {
		return fmt.Errorf("executor: select_state: no resolvable candidates")
	}
	sort.Slice(all, func(i, j int) bool {
		if mode == "min" {
			return all[i].score < all[j].score
		}
		return all[i].score > all[j].score
	})
	winner := all[0]
	if saveAs != "" {
		if fen := ex.resolveFEN(plan, winner.ref, ""); fen != "" {
			ex.StateSlots[saveAs] = fen
		}
	}
	step.Result = map[string]any{"selected_ref": winner.ref, "score": winner.score}
	return nil
}

// AuditLineResult is the audit_line step's result (spec §4.7).
type AuditLineResult struct {
	ApplyLineResult
	Score         ScoreStateResult `json:"score"`
	DecisivenessCP int             `json:"decisiveness_cp"`
}

// executeAuditLine runs apply_line then score_state on end_fen at higher
// depth, including the cp gap between best and second reply as a
// decisiveness indicator (spec §4.7 audit_line).
func (ex *Executor) executeAuditLine(ctx context.Context, plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	applyStep := &model.ExecutionStep{Parameters: step.Parameters}
	if err := ex.executeApplyLine(plan, applyStep, rootFEN); err != nil {
		return err
	}
	applied, _ := applyStep.Result.(ApplyLineResult)

	inv := ex.NewInvestigator()
	res, err := inv.InvestigatePosition(ctx, applied.EndFEN, 12, "")
	if err != nil {
		return err
	}
	score := ScoreStateResult{BestMoveSAN: res.BestMove}
	if len(res.TopMovesD2) > 0 {
		score.EvalCPWhite = res.TopMovesD2[0].EvalCP
	}
	decisiveness := 0
	if len(res.TopMovesD2) > 1 {
		decisiveness = res.TopMovesD2[0].EvalCP - res.TopMovesD2[1].EvalCP
	}
	step.Result = AuditLineResult{ApplyLineResult: applied, Score: score, DecisivenessCP: decisiveness}
	return nil
}
