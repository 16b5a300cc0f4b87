// Package controller implements the task state machine (spec §4.8): the
// single streaming entry point that turns a TaskRequest into an
// AnswerEnvelope. Grounded on the teacher's internal/brain task-handling
// loop (fast path, then LLM classification, then tool-backed investigation,
// then a grounded writer pass) and original_source/backend/task_controller.py's
// numbered pipeline, reimplemented against this module's own planner,
// executor, and baseline packages rather than ported line by line.
package controller

import (
	"context"
	"log/slog"
	"time"

	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/tags"
	"boardsense.dev/sentinel/core/threats"
	"boardsense.dev/sentinel/internal/executor"
	"boardsense.dev/sentinel/internal/investigator"
	"boardsense.dev/sentinel/internal/model"
	"boardsense.dev/sentinel/internal/planner"
	"boardsense.dev/sentinel/internal/searchindex"
	"boardsense.dev/sentinel/internal/store/plangraph"
)

// DefaultStepBudget and DefaultTimeBudget bound one task run (spec §4.8's
// budget-enforcement step), grounded on original_source/backend/
// task_controller.py's MAX_STEPS/MAX_SECONDS constructor defaults.
const (
	DefaultStepBudget = 24
	DefaultTimeBudgetSeconds = 45.0
)

// Controller is the task state machine. One Controller is shared across
// requests; Run is safe to call concurrently since it builds fresh
// Planner/Executor/Investigator state per call.
type Controller struct {
	Client       llm.AgentClient
	Baseline     *baseline.Scanner
	StepBudget   int
	TimeBudget   time.Duration
	ProfileLookup func(ctx context.Context, sessionID string) *model.ProfileSignal

	// PlanStore, if set, persists each executed plan as a graph for audit
	// and replay (spec SPEC_FULL.md §B's plangraph wiring). Optional.
	PlanStore *plangraph.Store
	// MotifIndex, if set, indexes each investigated position's tag set so
	// the chat-fallback path can later cite a prior motif. Optional.
	MotifIndex *searchindex.Index
}

// New builds a Controller with spec-default budgets.
func New(client llm.AgentClient, scanner *baseline.Scanner) *Controller {
	return &Controller{
		Client:     client,
		Baseline:   scanner,
		StepBudget: DefaultStepBudget,
		TimeBudget: time.Duration(DefaultTimeBudgetSeconds * float64(time.Second)),
	}
}

// Run implements the full spec §4.8 pipeline for a single task request.
func (c *Controller) Run(ctx context.Context, req model.TaskRequest) model.AnswerEnvelope {
	start := time.Now()
	env := model.AnswerEnvelope{TaskID: req.TaskID, StopReason: model.StopCompleted}

	// Step 1: fast router.
	if fr := tryFastRoute(req.LastUserMessage()); fr.Handled {
		env.Explanation = fr.Content
		env.StopReason = model.StopReason(fr.StopReason)
		env.Budget = c.budgetUsage(0, start)
		return env
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, c.timeBudget())
	defer cancel()

	// Step 2-3: intent classification and coercion.
	intent := c.classifyIntent(deadlineCtx, req, req.SessionID)
	stepsUsed := 1

	if intent.NeedsClarification != "" {
		env.Explanation = intent.NeedsClarification
		env.StopReason = model.StopClarificationNeeded
		env.Budget = c.budgetUsage(stepsUsed, start)
		return env
	}

	if !intent.InvestigationRequired {
		env.Explanation = intent.UserIntentSummary
		env.Budget = c.budgetUsage(stepsUsed, start)
		return env
	}

	// Step 4: mode-policy routing.
	policy := RoutePolicy(intent.Mode)

	// Step 5-6: investigation via planner + executor, then facts assembly.
	rec, tagSet, planErr := c.investigate(deadlineCtx, intent, req.FEN, policy)
	stepsUsed++
	if planErr != nil {
		env.StopReason = model.StopBudgetStepsExceeded
		env.Budget = c.budgetUsage(stepsUsed, start)
		return env
	}

	var profile *model.ProfileSignal
	if c.ProfileLookup != nil {
		profile = c.ProfileLookup(deadlineCtx, req.SessionID)
	}
	facts := buildFactsCard(req.FEN, rec, tagSet, profile)
	env.Facts = facts
	env.Confidence = facts.ConfidenceSignals
	env.RecommendedMove = facts.RecommendedMove

	// Step 7-8: justification and explanation writers.
	justification, jErr := c.writeJustification(deadlineCtx, facts)
	stepsUsed++
	if jErr == nil {
		explanation, _ := c.writeExplanation(deadlineCtx, facts, justification)
		env.Explanation = explanation
		env.UICommands = justification.UICommands
	} else {
		env.Explanation = fallbackExplanation(facts)
	}
	stepsUsed++

	// Step 9: UI command validation.
	allowMutations := intent.Mode == "play"
	env.UICommands = validateUICommands(env.UICommands, intent.Mode, allowMutations)

	// Step 10: verifier.
	verifyRecommendation(req.FEN, &env)

	// Step 11: budget enforcement.
	env.Budget = c.budgetUsage(stepsUsed, start)
	if env.Budget.SecondsUsed > env.Budget.SecondsLimit {
		env.StopReason = model.StopBudgetTimeExceeded
	}
	if stepsUsed > c.stepBudget() {
		env.StopReason = model.StopBudgetStepsExceeded
	}
	return env
}

// investigate runs the planner to build an ExecutionPlan scoped to
// intent's investigation requests and executes it, and returns the root
// position's own baseline record and tag set. The plan's step results are
// not part of the return values; they are only persisted when PlanStore is
// set (spec §4.8 step 5's light/compare/deep escalation ladder is
// approximated here by policy's depth selection feeding the baseline scan
// directly, since the full compare-judge branch depends on writer stages
// not present in the retrieval pack).
func (c *Controller) investigate(ctx context.Context, intent model.Intent, fen string, policy ModePolicy) (baseline.Record, model.TagSet, error) {
	rec, err := c.Baseline.Scan(ctx, fen, baseline.DefaultD2Depth, policy.DeepDepth, policy.DeepLines, 300)
	if err != nil {
		return baseline.Record{}, model.TagSet{}, err
	}

	tagSet, err := combinedTagSet(fen)
	if err != nil {
		tagSet = model.TagSet{}
	}

	p := planner.New(c.Client, c.Baseline)
	plan, err := p.CreateExecutionPlan(ctx, intent, fen, &rec, intent.UserIntentSummary)
	if err != nil || plan == nil {
		return rec, tagSet, nil
	}

	ex := &executor.Executor{NewInvestigator: func() *investigator.Investigator {
		return &investigator.Investigator{Baseline: c.Baseline}
	}}
	_, _ = ex.Run(ctx, plan, fen)

	if c.PlanStore != nil {
		if err := c.PlanStore.PersistPlan(ctx, plan); err != nil {
			slog.WarnContext(ctx, "failed to persist plan graph", "error", err, "plan_id", plan.PlanID)
		}
	}
	if c.MotifIndex != nil {
		if err := c.MotifIndex.IndexTagSet(ctx, fen, rec.PGN, tagSet, time.Now().Unix()); err != nil {
			slog.WarnContext(ctx, "failed to index motifs", "error", err)
		}
	}

	return rec, tagSet, nil
}

func combinedTagSet(fen string) (model.TagSet, error) {
	t, err := tags.Detect(fen)
	if err != nil {
		return model.TagSet{}, err
	}
	var threatList []model.ThreatTag
	for _, side := range []model.Color{model.White, model.Black} {
		found, err := threats.Detect(fen, side)
		if err != nil {
			continue
		}
		threatList = append(threatList, found...)
	}
	return model.TagSet{Tags: t, Threats: threatList}, nil
}

func fallbackExplanation(facts model.FactsCard) string {
	if facts.RecommendedMove == "" {
		return "I wasn't able to find a grounded recommendation for this position."
	}
	return "The engine's top candidate here is " + facts.RecommendedMove + "."
}

func (c *Controller) stepBudget() int {
	if c.StepBudget <= 0 {
		return DefaultStepBudget
	}
	return c.StepBudget
}

func (c *Controller) timeBudget() time.Duration {
	if c.TimeBudget <= 0 {
		return time.Duration(DefaultTimeBudgetSeconds * float64(time.Second))
	}
	return c.TimeBudget
}

func (c *Controller) budgetUsage(stepsUsed int, start time.Time) model.BudgetUsage {
	return model.BudgetUsage{
		StepsUsed:    stepsUsed,
		StepsLimit:   c.stepBudget(),
		SecondsUsed:  time.Since(start).Seconds(),
		SecondsLimit: c.timeBudget().Seconds(),
	}
}
