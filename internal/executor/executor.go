// Package executor runs an ExecutionPlan sequentially, with opportunistic
// batched parallelism across consecutive investigate_move steps sharing a
// root FEN (spec §4.7). The batching pattern (WaitGroup + bounded
// semaphore, per-task failure isolation, order-preserving result slice) is
// grounded on the teacher's internal/brain/retriever.go executeToolsParallel.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/investigator"
	"boardsense.dev/sentinel/internal/model"
)

// maxParallelSteps bounds concurrent investigate_move steps inside one
// batch, mirroring the teacher's maxParallelTools constant.
const maxParallelSteps = 4

// InvestigatorFactory produces a fresh Investigator per task, since a
// single Investigator is not concurrency-safe (spec §4.7).
type InvestigatorFactory func() *investigator.Investigator

// Executor runs one ExecutionPlan to completion or until a clarification
// step is hit.
type Executor struct {
	NewInvestigator InvestigatorFactory
	StateSlots      map[string]string // name -> FEN, populated by save_state
}

// Run executes every step of plan in order, honoring opportunistic batching
// of consecutive investigate_move runs. Each step's Status/Result/Error is
// set in place on plan; Run returns needsClarification=true when it stops
// at an ask_clarification step.
func (ex *Executor) Run(ctx context.Context, plan *model.ExecutionPlan, rootFEN string) (needsClarification bool, err error) {
	if ex.StateSlots == nil {
		ex.StateSlots = map[string]string{}
	}
	steps := plan.StepsInOrder()

	for i := 0; i < len(steps); {
		step := &plan.Steps[indexOf(plan, steps[i].StepNumber)]

		if step.ActionType == model.ActionAskClarification {
			step.Status = model.StepDone
			return true, nil
		}

		if step.ActionType == model.ActionInvestigateMove {
			run := collectBatchRun(plan, steps, i, rootFEN, ex)
			if len(run) > 1 {
				ex.runBatch(ctx, plan, run, rootFEN)
				i += len(run)
				continue
			}
		}

		if err := ex.runSingle(ctx, plan, step, rootFEN); err != nil {
			slog.ErrorContext(ctx, "step execution failed, plan may be incomplete", "step", step.StepNumber, "action", step.ActionType, "error", err)
		}
		i++
	}
	return false, nil
}

// collectBatchRun finds the maximal run starting at i of consecutive
// investigate_move steps whose resolved root FEN equals rootFEN.
func collectBatchRun(plan *model.ExecutionPlan, steps []model.ExecutionStep, i int, rootFEN string, ex *Executor) []int {
	var run []int
	for j := i; j < len(steps); j++ {
		s := steps[j]
		if s.ActionType != model.ActionInvestigateMove {
			break
		}
		fenRef, _ := s.Parameters["fen_ref"].(string)
		resolved := ex.resolveFEN(plan, fenRef, rootFEN)
		if resolved != rootFEN {
			break
		}
		run = append(run, s.StepNumber)
	}
	return run
}

func indexOf(plan *model.ExecutionPlan, stepNumber int) int {
	for i := range plan.Steps {
		if plan.Steps[i].StepNumber == stepNumber {
			return i
		}
	}
	return -1
}

// runBatch executes a batch of investigate_move steps concurrently, each
// against its own Investigator instance, preserving result ordering and
// isolating per-task failures (spec §4.7).
func (ex *Executor) runBatch(ctx context.Context, plan *model.ExecutionPlan, stepNumbers []int, rootFEN string) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallelSteps)

	for _, sn := range stepNumbers {
		idx := indexOf(plan, sn)
		plan.Steps[idx].Status = model.StepRunning
	}

	for _, sn := range stepNumbers {
		wg.Add(1)
		go func(stepNumber int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			idx := indexOf(plan, stepNumber)
			step := &plan.Steps[idx]
			inv := ex.NewInvestigator()
			if err := ex.executeInvestigateMove(ctx, inv, plan, step, rootFEN); err != nil {
				step.Status = model.StepFailed
				step.Error = err.Error()
			} else {
				step.Status = model.StepDone
			}
		}(sn)
	}
	wg.Wait()
}

func (ex *Executor) runSingle(ctx context.Context, plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	step.Status = model.StepRunning
	inv := ex.NewInvestigator()

	var err error
	switch step.ActionType {
	case model.ActionInvestigatePosition:
		err = ex.executeInvestigatePosition(ctx, inv, plan, step, rootFEN)
	case model.ActionInvestigateMove:
		err = ex.executeInvestigateMove(ctx, inv, plan, step, rootFEN)
	case model.ActionInvestigateTarget, model.ActionRetryInvestigateTarget:
		err = ex.executeInvestigateTarget(ctx, inv, plan, step, rootFEN)
	case model.ActionApplyLine:
		err = ex.executeApplyLine(plan, step, rootFEN)
	case model.ActionSelectLine:
		err = ex.executeSelectLine(plan, step)
	case model.ActionSaveState:
		err = ex.executeSaveState(plan, step, rootFEN)
	case model.ActionScoreState:
		err = ex.executeScoreState(ctx, plan, step)
	case model.ActionSelectState:
		err = ex.executeSelectState(plan, step)
	case model.ActionAuditLine:
		err = ex.executeAuditLine(ctx, plan, step, rootFEN)
	case model.ActionInvestigateGame:
		err = ex.executeInvestigateGame(ctx, inv, step)
	case model.ActionSynthesize, model.ActionAnswer:
		// No engine work; these are markers consumed downstream.
	default:
		err = fmt.Errorf("executor: unknown action_type %q", step.ActionType)
	}

	if err != nil {
		step.Status = model.StepFailed
		step.Error = err.Error()
		return err
	}
	step.Status = model.StepDone
	return nil
}

func (ex *Executor) executeInvestigatePosition(ctx context.Context, inv *investigator.Investigator, plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	fenRef, _ := step.Parameters["fen_ref"].(string)
	fen := ex.resolveFEN(plan, fenRef, rootFEN)
	depth, _ := step.Parameters["depth"].(int)
	focus, _ := step.Parameters["focus"].(string)
	res, err := inv.InvestigatePosition(ctx, fen, depth, model.Color(focus))
	if err != nil {
		return err
	}
	step.Result = res
	return nil
}

func (ex *Executor) executeInvestigateMove(ctx context.Context, inv *investigator.Investigator, plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	fenRef, _ := step.Parameters["fen_ref"].(string)
	fen := ex.resolveFEN(plan, fenRef, rootFEN)
	moveSAN, _ := step.Parameters["move_san"].(string)
	evidenceMaxPlies, _ := step.Parameters["evidence_max_plies"].(int)
	res, err := inv.InvestigateMove(ctx, fen, moveSAN, baseline.DefaultD16Depth, baseline.DefaultD2Depth, baseline.DefaultD16Depth, evidenceMaxPlies)
	if err != nil {
		return err
	}
	res.PlayerMove = moveSAN
	step.Result = res
	return nil
}

func (ex *Executor) executeInvestigateTarget(ctx context.Context, inv *investigator.Investigator, plan *model.ExecutionPlan, step *model.ExecutionStep, rootFEN string) error {
	fenRef, _ := step.Parameters["fen_ref"].(string)
	fen := ex.resolveFEN(plan, fenRef, rootFEN)

	mover := model.White
	if g, err := rules.Board(fen); err == nil {
		mover = rules.SideToMove(g)
	}
	goal := parseGoal(step.Parameters, mover)

	policy := investigator.SearchPolicy{MaxDepthPlies: 6, BeamWidth: 4, BranchingLimit: 8, OpponentModel: "typical"}
	if om, ok := step.Parameters["opponent_model"].(string); ok && om != "" {
		policy.OpponentModel = om
	}
	if step.ActionType == model.ActionRetryInvestigateTarget {
		retries, _ := step.Parameters["retries"].(int)
		best := model.InvestigationResult{}
		bestRank := -1
		for i := 0; i <= retries; i++ {
			p := policy
			p.MaxDepthPlies += 2 * i
			p.BeamWidth += i
			p.BranchingLimit += 2 * i
			res, err := inv.InvestigateTarget(ctx, fen, goal, p)
			if err != nil {
				continue
			}
			rank := statusRank(res)
			if rank > bestRank {
				best = res
				bestRank = rank
			}
		}
		step.Result = best
		return nil
	}
	res, err := inv.InvestigateTarget(ctx, fen, goal, policy)
	if err != nil {
		return err
	}
	step.Result = res
	return nil
}

func noopGoal() investigator.Goal {
	return investigator.Goal{Predicate: func(string) bool { return false }, Describe: "unspecified"}
}

// parseGoal turns a plan step's free-form "goal" parameter (LLM-authored
// JSON, spec §4.5 investigate_target) into a real predicate. Supported
// modes are the ones the spec names: can_castle_next, material_threshold,
// and piece_reaches_square. Anything else (missing goal, unrecognized
// mode) falls back to a predicate that never fires, which surfaces as
// goal_status "uncertain"/"failure" rather than a wrong answer.
func parseGoal(params map[string]any, mover model.Color) investigator.Goal {
	raw, ok := params["goal"].(map[string]any)
	if !ok {
		return noopGoal()
	}

	side := mover
	if s, ok := raw["side"].(string); ok && s != "" {
		side = model.Color(s)
	}
	describe, _ := raw["describe"].(string)

	mode, _ := raw["mode"].(string)
	switch mode {
	case "can_castle_next":
		castleSide, _ := raw["castle_side"].(string)
		return investigator.Goal{
			Predicate: canCastleNextPredicate(side, castleSide),
			Describe:  describeOr(describe, "can castle "+castleSide+" next"),
		}
	case "material_threshold":
		threshold := paramInt(raw["threshold_cp"])
		comparison, _ := raw["comparison"].(string)
		return investigator.Goal{
			Predicate: materialThresholdPredicate(side, threshold, comparison),
			Describe:  describeOr(describe, "reaches material threshold"),
		}
	case "piece_reaches_square":
		piece, _ := raw["piece"].(string)
		square, _ := raw["square"].(string)
		return investigator.Goal{
			Predicate: pieceReachesSquarePredicate(side, piece, square),
			Describe:  describeOr(describe, piece+" reaches "+square),
		}
	default:
		return noopGoal()
	}
}

// canCastleNextPredicate reports whether side, to move in the given
// position, has the named castling move available right now.
func canCastleNextPredicate(side model.Color, castleSide string) func(string) bool {
	san := castleMoveSAN(castleSide)
	return func(fen string) bool {
		g, err := rules.Board(fen)
		if err != nil {
			return false
		}
		if rules.SideToMove(g) != side {
			return false
		}
		for _, mv := range rules.LegalMoves(g) {
			if mv == san {
				return true
			}
		}
		return false
	}
}

func castleMoveSAN(castleSide string) string {
	switch strings.ToLower(strings.TrimSpace(castleSide)) {
	case "queenside", "o-o-o", "long", "q":
		return "O-O-O"
	default:
		return "O-O"
	}
}

// materialThresholdPredicate reports whether side's material balance meets
// (">=", the default) or falls below ("<=", via comparison "lte") the
// threshold.
func materialThresholdPredicate(side model.Color, thresholdCP int, comparison string) func(string) bool {
	lte := strings.EqualFold(comparison, "lte")
	return func(fen string) bool {
		g, err := rules.Board(fen)
		if err != nil {
			return false
		}
		balance := rules.MaterialBalanceCP(g, side)
		if lte {
			return balance <= thresholdCP
		}
		return balance >= thresholdCP
	}
}

// pieceReachesSquarePredicate reports whether side's piece of the given
// kind occupies square.
func pieceReachesSquarePredicate(side model.Color, piece, square string) func(string) bool {
	want := normalizePieceKind(piece)
	return func(fen string) bool {
		g, err := rules.Board(fen)
		if err != nil {
			return false
		}
		kind, pieceSide, ok := rules.PieceKindAt(g, square)
		if !ok {
			return false
		}
		return pieceSide == side && (want == "" || kind == want)
	}
}

func normalizePieceKind(piece string) string {
	switch strings.ToUpper(strings.TrimSpace(piece)) {
	case "P", "PAWN":
		return "P"
	case "N", "KNIGHT":
		return "N"
	case "B", "BISHOP":
		return "B"
	case "R", "ROOK":
		return "R"
	case "Q", "QUEEN":
		return "Q"
	case "K", "KING":
		return "K"
	default:
		return ""
	}
}

func paramInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func describeOr(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func statusRank(res model.InvestigationResult) int {
	if len(res.ThemesIdentified) == 0 {
		return 0
	}
	switch res.ThemesIdentified[0] {
	case "success":
		return 2
	case "uncertain":
		return 1
	default:
		return 0
	}
}

func (ex *Executor) executeInvestigateGame(ctx context.Context, inv *investigator.Investigator, step *model.ExecutionStep) error {
	movesAny, _ := step.Parameters["moves_san"].([]string)
	startFEN, _ := step.Parameters["start_fen"].(string)
	if startFEN == "" {
		g, err := rules.Board("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
		if err == nil {
			startFEN = g.Position().String()
		}
	}
	res, err := inv.InvestigateGame(ctx, movesAny, startFEN, 150)
	if err != nil {
		return err
	}
	step.Result = res
	return nil
}
