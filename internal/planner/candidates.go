package planner

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/internal/model"
)

type candidate struct {
	MoveSAN string
	EvalCP  int
	HasEval bool
	Reason  string
}

// enforceCandidateMoves implements spec §4.6 step 3: the planner is the
// primary source of candidate-move injection, so it decides up front
// whether any investigate_move steps need adding, and the executor never
// injects its own once RequiresCandidateMoves has been handled here.
func (p *Planner) enforceCandidateMoves(ctx context.Context, plan *model.ExecutionPlan, fen string, prefetched *baseline.Record) {
	if fen == "" {
		return
	}

	named := namedMoves(plan.OriginalIntent)
	var chosen []candidate
	switch {
	case len(named) > 0:
		for _, m := range named {
			chosen = append(chosen, candidate{MoveSAN: m, Reason: "user_named"})
		}
	case prefetched != nil:
		// Baseline already ran; it is the default evidence, no extra
		// candidates are injected (spec §4.6 step 3, second bullet).
		return
	default:
		chosen = p.collectEngineCandidates(ctx, fen)
	}

	chosen = dedupeCandidates(chosen)
	chosen = filterLegal(fen, chosen)
	chosen = capCandidates(chosen, p.MaxCandidateInvestigations)
	if len(chosen) == 0 {
		return
	}

	appendInvestigateMoveSteps(plan, fen, chosen)
}

// collectEngineCandidates prefers a cached multi-PV analysis over a fresh
// probe at EngineProbeDepth (spec §4.6 step 3), ranking so the engine's own
// best move is labeled engine_best.
func (p *Planner) collectEngineCandidates(ctx context.Context, fen string) []candidate {
	if p.Baseline == nil {
		return nil
	}
	limit := p.MaxCandidateInvestigations
	if limit <= 0 {
		limit = 4
	}
	a, err := p.Baseline.AnalyzeCached(ctx, fen, p.EngineProbeDepth, limit)
	if err != nil {
		return nil
	}
	out := make([]candidate, 0, len(a.Lines))
	for i, l := range a.Lines {
		reason := "engine_candidate"
		if i == 0 {
			reason = "engine_best"
		}
		out = append(out, candidate{MoveSAN: l.MoveSAN, EvalCP: l.EvalCP, HasEval: true, Reason: reason})
	}
	return out
}

func dedupeCandidates(cands []candidate) []candidate {
	seen := map[string]bool{}
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		key := normalizeMoveKey(c.MoveSAN)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func normalizeMoveKey(move string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(move), " ", ""))
}

// filterLegal drops candidate moves illegal at fen (spec §4.6 step 5).
func filterLegal(fen string, cands []candidate) []candidate {
	g, err := rules.Board(fen)
	if err != nil {
		return nil
	}
	legal := map[string]bool{}
	for _, m := range rules.LegalMoves(g) {
		legal[normalizeMoveKey(m)] = true
	}
	out := cands[:0:0]
	for _, c := range cands {
		if legal[normalizeMoveKey(c.MoveSAN)] {
			out = append(out, c)
		}
	}
	return out
}

// capCandidates keeps at most max candidates, always preserving an
// engine_best entry if one exists (spec §4.6 step 6).
func capCandidates(cands []candidate, max int) []candidate {
	if max <= 0 || len(cands) <= max {
		return cands
	}
	sort.SliceStable(cands, func(i, j int) bool {
		iBest := cands[i].Reason == "engine_best"
		jBest := cands[j].Reason == "engine_best"
		if iBest != jBest {
			return iBest
		}
		return false
	})
	return cands[:max]
}

func appendInvestigateMoveSteps(plan *model.ExecutionPlan, fen string, cands []candidate) {
	next := nextStepNumber(plan)
	for _, c := range cands {
		plan.Steps = append(plan.Steps, model.ExecutionStep{
			StepNumber: next,
			ActionType: model.ActionInvestigateMove,
			Parameters: map[string]any{"fen_ref": fen, "move_san": c.MoveSAN},
			Purpose:    "investigate candidate move (" + c.Reason + ")",
			Status:     model.StepPending,
		})
		next++
	}
	plan.RequiresCandidateMoves = true
}

func nextStepNumber(plan *model.ExecutionPlan) int {
	max := 0
	for _, s := range plan.Steps {
		if s.StepNumber > max {
			max = s.StepNumber
		}
	}
	return max + 1
}

var sanMovePattern = regexp.MustCompile(`^(O-O-O|O-O|[KQRBN]?[a-h]?[1-8]?x?[a-h][1-8](=[QRBN])?\+?#?)$`)

// namedMoves extracts moves the user explicitly named from the intent's
// investigation requests (focus fields carrying SAN tokens).
func namedMoves(intent model.Intent) []string {
	var out []string
	for _, req := range intent.InvestigationRequests {
		if req.Focus != "" && sanMovePattern.MatchString(req.Focus) {
			out = append(out, req.Focus)
		}
		if mv, ok := req.Parameters["move_san"].(string); ok && mv != "" {
			out = append(out, mv)
		}
	}
	return out
}

// resolvePieceIdentity: when the intent carries a
// "needs_clarification:<piecetype>:<opts>" entity, the plan's first step
// becomes an ask_clarification listing opts and the plan is renumbered.
// connected_ideas entities are not read, so no piece instance is resolved
// from them; without that entity the plan is left unchanged.
func resolvePieceIdentity(plan *model.ExecutionPlan) {
	intent := plan.OriginalIntent
	if intent.NeedsClarification == "" {
		return
	}
	parts := strings.SplitN(intent.NeedsClarification, ":", 3)
	if len(parts) < 2 || parts[0] != "needs_clarification" {
		return
	}
	pieceType := parts[1]
	opts := ""
	if len(parts) == 3 {
		opts = parts[2]
	}

	clarify := model.ExecutionStep{
		StepNumber: 1,
		ActionType: model.ActionAskClarification,
		Parameters: map[string]any{
			"question": "Which " + pieceType + " did you mean?",
			"options":  strings.Split(opts, ","),
		},
		Purpose: "piece identity is ambiguous among " + strings.ReplaceAll(opts, ",", ", "),
		Status:  model.StepPending,
	}
	plan.Steps = append([]model.ExecutionStep{clarify}, plan.Steps...)
	plan.Renumber()
}
