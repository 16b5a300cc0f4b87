// Package planner converts a classified Intent into an ExecutionPlan (spec
// §4.6): an LLM draft call under a JSON-only contract, followed by a
// deterministic repair pass, candidate-move enforcement, piece-identity
// resolution, a legality filter, a cap, and dense renumbering. Grounded on
// the teacher's internal/planner (Plan(ctx, event, issue) shape) and
// original_source/backend/planner.py's create_execution_plan pipeline.
package planner

import (
	"context"
	"fmt"

	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/internal/model"
)

// Defaults mirror original_source/backend/planner.py's constructor defaults.
const (
	DefaultEngineProbeDepth            = 12
	DefaultMaxCandidateInvestigations  = 4
	DefaultEngineMoveDropThresholdCP   = 120
)

// Planner is the thinking/planning layer: it turns an abstract Intent into a
// simple, sequential ExecutionPlan.
type Planner struct {
	Client                     llm.AgentClient
	Baseline                   *baseline.Scanner
	EngineProbeDepth           int
	MaxCandidateInvestigations int
	EngineMoveDropThresholdCP  int
}

// New builds a Planner with spec-default tuning knobs.
func New(client llm.AgentClient, scanner *baseline.Scanner) *Planner {
	return &Planner{
		Client:                     client,
		Baseline:                   scanner,
		EngineProbeDepth:           DefaultEngineProbeDepth,
		MaxCandidateInvestigations: DefaultMaxCandidateInvestigations,
		EngineMoveDropThresholdCP:  DefaultEngineMoveDropThresholdCP,
	}
}

// CreateExecutionPlan runs the full pipeline named in spec §4.6. prefetched
// is the controller's already-run baseline scan for fen, if any (nil when
// none has run yet).
func (p *Planner) CreateExecutionPlan(ctx context.Context, intent model.Intent, fen string, prefetched *baseline.Record, userText string) (*model.ExecutionPlan, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("planner: no LLM client configured")
	}

	plan := p.draftPlan(ctx, intent, fen, userText)

	repairStepReferences(plan)
	filterUnnecessaryClarifications(plan, fen)
	p.enforceCandidateMoves(ctx, plan, fen, prefetched)
	resolvePieceIdentity(plan)
	plan.Renumber()

	return plan, nil
}
