// Package investigator implements the four investigation operations (spec
// §4.5): investigate_position, investigate_move, investigate_target, and
// investigate_game. Grounded on the teacher's request/response service
// shape and original_source/backend's investigation helpers (executor.py's
// _resolve_fen/_apply_san_line family for capture-chain/line replay).
package investigator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/rules"
	"boardsense.dev/sentinel/core/see"
	"boardsense.dev/sentinel/core/tags"
	"boardsense.dev/sentinel/core/threats"
	"boardsense.dev/sentinel/internal/model"
)

// Investigator is a single-request worker; it holds no mutable board state
// across calls, but each concrete Investigate* call plays moves against a
// throwaway cloned game, so a single Investigator is not concurrency-safe
// if the caller reuses its embedded Scanner's cache handle unsynchronized
// across goroutines (spec §4.7's "a single Investigator is not
// concurrency-safe" note — the executor's opportunistic batching mitigates
// this by handing each parallel task its own Investigator instance).
type Investigator struct {
	Baseline *baseline.Scanner
}

// ThemeTopK bounds how many tag names investigate_position surfaces as
// themes_identified.
const ThemeTopK = 5

// EvalDropDecisiveCP marks an eval_drop as a blunder-grade swing for the
// per-move classification in investigate_game.
const EvalDropDecisiveCP = 200

// InvestigatePosition runs the dual-depth scan, attaches tags/threats, gates
// 1-2 ply tactics through the SEE scanner, and derives themes (spec §4.5
// investigate_position). tactics_found and has_winning_tactic/
// has_losing_tactic come from see.Scan, not the raw threat detector: a fork
// or pin the opponent can refute on the board never surfaces here (spec
// §4.3's SEE gate).
func (inv *Investigator) InvestigatePosition(ctx context.Context, fen string, depth int, focus model.Color) (model.InvestigationResult, error) {
	rec, err := inv.Baseline.Scan(ctx, fen, baseline.DefaultD2Depth, depth, 5, 300)
	if err != nil {
		return model.InvestigationResult{}, fmt.Errorf("investigator: investigate_position: %w", err)
	}
	tagSet, err := inv.tagsAndThreats(fen, focus)
	if err != nil {
		return model.InvestigationResult{}, err
	}

	g, err := rules.Board(fen)
	if err != nil {
		return model.InvestigationResult{}, fmt.Errorf("investigator: investigate_position: %w", err)
	}
	side := focus
	if side == "" || side == model.Both {
		side = rules.SideToMove(g)
	}

	seeRes, err := see.Scan(fen, side)
	if err != nil {
		return model.InvestigationResult{}, fmt.Errorf("investigator: investigate_position: see scan: %w", err)
	}
	losing, err := see.ScanOpponentRisk(fen, side)
	if err != nil {
		losing = false
	}

	return model.InvestigationResult{
		BestMove:         rec.BestMoveD2,
		BestMoveD16:      rec.BestMoveD16,
		TopMovesD2:       rec.TopMovesD2AsPVLines(),
		TacticsFound:     tacticsFromSEE(side, seeRes),
		ThemesIdentified: topThemes(tagSet, ThemeTopK),
		HasWinningTactic: seeRes.HasWinningTactic,
		HasLosingTactic:  losing,
	}, nil
}

// tacticsFromSEE converts the SEE scanner's validated open tactics into the
// ThreatTag shape InvestigationResult.tactics_found carries, keeping only
// tactics whose verdict survived the opponent's best defense (spec §4.3).
func tacticsFromSEE(side model.Color, res see.Result) []model.ThreatTag {
	var out []model.ThreatTag
	for _, t := range res.OpenTactics {
		if t.Verdict != see.VerdictWin {
			continue
		}
		out = append(out, model.ThreatTag{
			Tag:     model.Tag{Name: string(t.Kind), Side: side, Squares: t.Targets},
			Move:    t.MoveSAN,
			Targets: t.Targets,
		})
	}
	return out
}

// InvestigateMove plays move_san, re-scans at D2 then D16, computes
// eval_drop (side-to-move-normalized), builds an evidence branch, and
// records per-move tag/material deltas (spec §4.5 investigate_move).
func (inv *Investigator) InvestigateMove(ctx context.Context, fen, moveSAN string, depthBefore, depth2, depth16, evidenceMaxPlies int) (model.InvestigationResult, error) {
	before, err := inv.Baseline.Scan(ctx, fen, depth2, depthBefore, 5, 300)
	if err != nil {
		return model.InvestigationResult{}, fmt.Errorf("investigator: investigate_move: before scan: %w", err)
	}

	g, err := rules.Board(fen)
	if err != nil {
		return model.InvestigationResult{}, err
	}
	mover := rules.SideToMove(g)
	if err := rules.ApplySAN(g, moveSAN); err != nil {
		return model.InvestigationResult{}, fmt.Errorf("investigator: investigate_move: %w", err)
	}
	endFEN := g.Position().String()

	after, err := inv.Baseline.Scan(ctx, endFEN, depth2, depth16, 5, 300)
	if err != nil {
		return model.InvestigationResult{}, fmt.Errorf("investigator: investigate_move: after scan: %w", err)
	}

	// before.EvalD16/after.EvalD16 are already white-positive (core/engine
	// normalizes UCI's side-to-move-relative score); eval_drop is reported
	// from the mover's own perspective, so flip both into that frame first.
	evalBefore := sideNormalize(before.EvalD16, mover)
	evalAfter := sideNormalize(after.EvalD16, mover)
	drop := evalBefore - evalAfter

	evidenceLine := after.PVD16
	if evidenceMaxPlies > 0 && len(evidenceLine) > evidenceMaxPlies {
		evidenceLine = evidenceLine[:evidenceMaxPlies]
	}

	// SEE-gate the played move itself (does it hand back more material than
	// it wins?) and check whether the resulting position leaves the mover
	// exposed to a winning tactic (spec §4.3's gate applied to the
	// investigate_move candidate, not just the recommended line).
	var tacticsFound []model.ThreatTag
	if preMove, boardErr := rules.Board(fen); boardErr == nil {
		if net, seeErr := see.SEENetAfterMove(preMove, moveSAN, mover); seeErr == nil && net > 50 {
			tacticsFound = append(tacticsFound, model.ThreatTag{
				Tag:  model.Tag{Name: "see_validated_gain", Side: mover},
				Move: moveSAN,
			})
		}
	}
	hasLosingTactic, err := see.ScanOpponentRisk(endFEN, mover)
	if err != nil {
		hasLosingTactic = false
	}

	return model.InvestigationResult{
		PlayerMove:      moveSAN,
		EvalBefore:      evalBefore,
		EvalAfter:       evalAfter,
		EvalDropCP:      drop,
		PVAfterMove:     append([]string{moveSAN}, evidenceLine...),
		BestMove:        before.BestMoveD2,
		BestMoveD16:     before.BestMoveD16,
		TopMovesD2:      before.TopMovesD2AsPVLines(),
		TacticsFound:    tacticsFound,
		EvidenceDelta:   deltaIfDisagree(before),
		HasWinningTactic: len(tacticsFound) > 0,
		HasLosingTactic: hasLosingTactic,
	}, nil
}

func deltaIfDisagree(rec baseline.Record) *model.EvidenceDelta {
	if rec.BestMoveD2 == rec.BestMoveD16 {
		return nil
	}
	return &model.EvidenceDelta{
		ShallowBestMove: rec.BestMoveD2,
		DeepBestMove:    rec.BestMoveD16,
		EvalDeltaCP:     rec.EvalD16 - rec.EvalD2,
	}
}

// Goal is a target-search predicate plus a short description of what it
// checks (spec §4.5 investigate_target). The opponent-response model is
// SearchPolicy.OpponentModel, not part of Goal.
type Goal struct {
	Predicate func(fen string) bool
	Describe  string
}

// SearchPolicy bounds investigate_target's best-first search.
type SearchPolicy struct {
	MaxDepthPlies  int
	BeamWidth      int
	BranchingLimit int
	OpponentModel  string // best | worst | typical
}

// InvestigateTarget runs a bounded best-first search toward goal (spec
// §4.5 investigate_target). It is intentionally not exhaustive: beam_width
// and branching_limit keep it polynomial, at the cost of completeness
// (a search that fails to find a witness returns "uncertain", not "failure",
// unless max_depth was exhausted with no remaining candidates).
func (inv *Investigator) InvestigateTarget(ctx context.Context, fen string, goal Goal, policy SearchPolicy) (model.InvestigationResult, error) {
	type node struct {
		fen   string
		line  []string
		depth int
	}
	rootBoard, err := rules.Board(fen)
	searchingSide := model.White
	if err == nil {
		searchingSide = rules.SideToMove(rootBoard)
	}

	frontier := []node{{fen: fen}}
	var witnesses []model.GoalSearchResult
	exhausted := false

	for ply := 0; ply < policy.MaxDepthPlies && len(frontier) > 0; ply++ {
		var next []node
		for _, n := range frontier {
			if goal.Predicate(n.fen) {
				witnesses = append(witnesses, model.GoalSearchResult{
					MoveSAN:  lastOf(n.line),
					LineSan:  n.line,
					Achieves: goal.Describe,
				})
				continue
			}
			g, err := rules.Board(n.fen)
			if err != nil {
				continue
			}
			moves := rules.LegalMoves(g)
			limit := policy.BranchingLimit
			if limit <= 0 || limit > len(moves) {
				limit = len(moves)
			}
			// On the opponent's ply, "best" narrows to a single defensive
			// reply rather than fanning out every legal move, so a witness
			// line doesn't silently assume opponent cooperation. "worst"/
			// "typical" keep the wide branching (spec §4.5: typical is an
			// open question, worst deliberately stays pessimistic-wide).
			if rules.SideToMove(g) != searchingSide && policy.OpponentModel == "best" && len(moves) > 0 {
				limit = 1
			}
			for _, mv := range moves[:limit] {
				child, err := rules.Board(n.fen)
				if err != nil {
					continue
				}
				if err := rules.ApplySAN(child, mv); err != nil {
					continue
				}
				next = append(next, node{fen: child.Position().String(), line: append(append([]string{}, n.line...), mv), depth: n.depth + 1})
			}
		}
		if len(next) > policy.BeamWidth && policy.BeamWidth > 0 {
			next = next[:policy.BeamWidth]
		}
		frontier = next
		if len(frontier) == 0 {
			exhausted = true
		}
	}

	status := "uncertain"
	var witnessLine []string
	if len(witnesses) > 0 {
		sort.Slice(witnesses, func(i, j int) bool {
			if len(witnesses[i].LineSan) != len(witnesses[j].LineSan) {
				return len(witnesses[i].LineSan) < len(witnesses[j].LineSan)
			}
			return strings.Join(witnesses[i].LineSan, " ") < strings.Join(witnesses[j].LineSan, " ")
		})
		status = "success"
		witnessLine = witnesses[0].LineSan
	} else if exhausted {
		status = "failure"
	}

	return model.InvestigationResult{
		GoalSearchResults: witnesses,
		PVAfterMove:       witnessLine,
		ThemesIdentified:  []string{status},
	}, nil
}

func lastOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// MoveClass is the per-ply classification investigate_game assigns.
type MoveClass string

const (
	ClassBest       MoveClass = "best"
	ClassGreat      MoveClass = "great"
	ClassGood       MoveClass = "good"
	ClassInaccuracy MoveClass = "inaccuracy"
	ClassMistake    MoveClass = "mistake"
	ClassBlunder    MoveClass = "blunder"
)

// InvestigateGame runs a per-ply analysis of pgn to surface critical
// moments and classify each move (spec §4.5 investigate_game).
func (inv *Investigator) InvestigateGame(ctx context.Context, pgnMoves []string, startFEN string, swingThresholdCP int) (model.InvestigationResult, error) {
	fen := startFEN
	var branches = map[string]string{}
	var evidenceExamples []string

	for i, san := range pgnMoves {
		res, err := inv.InvestigateMove(ctx, fen, san, baseline.DefaultD16Depth, baseline.DefaultD2Depth, baseline.DefaultD16Depth, 6)
		if err != nil {
			continue
		}
		class := classifyDrop(res.EvalDropCP)
		if res.EvalDropCP >= swingThresholdCP {
			label := fmt.Sprintf("ply_%d_%s", i+1, san)
			branches[label] = strings.Join(res.PVAfterMove, " ")
			evidenceExamples = append(evidenceExamples, fmt.Sprintf("%s: %s (%d cp swing)", label, class, res.EvalDropCP))
		}
		g, err := rules.Board(fen)
		if err != nil {
			continue
		}
		if err := rules.ApplySAN(g, san); err != nil {
			continue
		}
		fen = g.Position().String()
	}

	return model.InvestigationResult{
		PGNBranches:      branches,
		EvidenceExamples: evidenceExamples,
	}, nil
}

func classifyDrop(dropCP int) MoveClass {
	switch {
	case dropCP <= 0:
		return ClassBest
	case dropCP < 10:
		return ClassGreat
	case dropCP < 30:
		return ClassGood
	case dropCP < 80:
		return ClassInaccuracy
	case dropCP < EvalDropDecisiveCP:
		return ClassMistake
	default:
		return ClassBlunder
	}
}

func (inv *Investigator) tagsAndThreats(fen string, focus model.Color) (model.TagSet, error) {
	t, err := tags.Detect(fen)
	if err != nil {
		return model.TagSet{}, err
	}
	side := focus
	if side == "" {
		side = model.Both
	}
	var threatList []model.ThreatTag
	for _, s := range []model.Color{model.White, model.Black} {
		found, err := threats.Detect(fen, s)
		if err != nil {
			continue
		}
		threatList = append(threatList, found...)
	}
	return model.TagSet{Tags: t, Threats: threatList}, nil
}

func topThemes(ts model.TagSet, k int) []string {
	counts := map[string]int{}
	for _, t := range ts.Tags {
		counts[t.Name]++
	}
	for _, t := range ts.Threats {
		counts[t.Name] += 3 // bias toward tactical tags, per spec §4.5
	}
	type kv struct {
		name string
		n    int
	}
	var all []kv
	for name, n := range counts {
		all = append(all, kv{name, n})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].n != all[j].n {
			return all[i].n > all[j].n
		}
		return all[i].name < all[j].name
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]string, len(all))
	for i, kv := range all {
		out[i] = kv.name
	}
	return out
}

func sideNormalize(evalCP int, side model.Color) int {
	if side == model.Black {
		return -evalCP
	}
	return evalCP
}
