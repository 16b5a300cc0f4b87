// Package plangraph persists an executed ExecutionPlan as a graph for audit
// and replay: each step is a vertex, and each "step:N.path" parameter
// reference a step resolves against becomes an edge; "state:NAME"
// references are not recorded. This mirrors
// the plan's own dependency-DAG shape (spec §3 Ownership, §9's note on
// cyclic/back-reference parameter resolution) so a stored plan run can be
// traversed the same way the executor walked it live.
//
// Grounded on the teacher's common/arangodb client: same
// EnsureDatabase/EnsureCollections/EnsureGraph lifecycle and
// Ingest-documents-then-consume-reader write path, narrowed from a general
// code-graph schema down to one plan/step/ref schema.
package plangraph

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"

	"boardsense.dev/sentinel/internal/model"
)

const (
	graphName      = "plangraph"
	stepCollection = "plan_steps"
	refCollection  = "step_refs"
)

// Config holds the ArangoDB connection details, same shape as the teacher's
// arangodb.Config.
type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("plangraph: arangodb URL is required")
	}
	if c.Database == "" {
		return fmt.Errorf("plangraph: arangodb database name is required")
	}
	return nil
}

// Store persists ExecutionPlan runs as a plan/step/ref graph.
type Store struct {
	conn   connection.Connection
	client arangodb.Client
	db     arangodb.Database
	cfg    Config
}

// New dials ArangoDB. Call EnsureSchema before the first PersistPlan.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))
	if cfg.Username != "" {
		auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
		if err := conn.SetAuthentication(auth); err != nil {
			return nil, fmt.Errorf("plangraph: arangodb auth: %w", err)
		}
	}
	return &Store{conn: conn, client: arangodb.NewClient(conn), cfg: cfg}, nil
}

// EnsureSchema creates the database, the plan_steps/step_refs collections,
// and the plangraph edge definition if they don't already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.DatabaseExists(ctx, s.cfg.Database)
	if err != nil {
		return fmt.Errorf("plangraph: check database: %w", err)
	}
	if !exists {
		if _, err := s.client.CreateDatabase(ctx, s.cfg.Database, nil); err != nil {
			return fmt.Errorf("plangraph: create database: %w", err)
		}
	}
	db, err := s.client.GetDatabase(ctx, s.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("plangraph: get database: %w", err)
	}
	s.db = db

	if err := s.ensureCollection(ctx, stepCollection, false); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, refCollection, true); err != nil {
		return err
	}

	graphExists, err := s.db.GraphExists(ctx, graphName)
	if err != nil {
		return fmt.Errorf("plangraph: check graph: %w", err)
	}
	if !graphExists {
		def := &arangodb.GraphDefinition{
			Name: graphName,
			EdgeDefinitions: []arangodb.EdgeDefinition{
				{Collection: refCollection, From: []string{stepCollection}, To: []string{stepCollection}},
			},
		}
		if _, err := s.db.CreateGraph(ctx, graphName, def, nil); err != nil {
			return fmt.Errorf("plangraph: create graph: %w", err)
		}
		slog.InfoContext(ctx, "plangraph graph created", "graph", graphName)
	}
	return nil
}

func (s *Store) ensureCollection(ctx context.Context, name string, isEdge bool) error {
	exists, err := s.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("plangraph: check collection %s: %w", name, err)
	}
	if exists {
		return nil
	}
	props := &arangodb.CreateCollectionPropertiesV2{}
	colType := arangodb.CollectionTypeDocument
	if isEdge {
		colType = arangodb.CollectionTypeEdge
	}
	props.Type = &colType
	if _, err := s.db.CreateCollectionV2(ctx, name, props); err != nil {
		return fmt.Errorf("plangraph: create collection %s: %w", name, err)
	}
	slog.InfoContext(ctx, "plangraph collection created", "collection", name, "is_edge", isEdge)
	return nil
}

// PersistPlan writes every step of an executed plan as a vertex, plus an
// edge for each parameter value that referenced a prior step ("step:N...").
// References to saved state slots ("state:NAME") produce no edge and are
// not stored.
func (s *Store) PersistPlan(ctx context.Context, plan *model.ExecutionPlan) error {
	if s.db == nil {
		return fmt.Errorf("plangraph: schema not initialized, call EnsureSchema first")
	}
	start := time.Now()

	stepCol, err := s.db.GetCollection(ctx, stepCollection, nil)
	if err != nil {
		return fmt.Errorf("plangraph: get collection %s: %w", stepCollection, err)
	}

	docs := make([]map[string]any, len(plan.Steps))
	for i, step := range plan.Steps {
		docs[i] = map[string]any{
			"_key":        stepKey(plan.PlanID, step.StepNumber),
			"plan_id":     plan.PlanID,
			"step_number": step.StepNumber,
			"action_type": string(step.ActionType),
			"purpose":     step.Purpose,
			"status":      string(step.Status),
		}
	}
	if err := writeDocuments(ctx, stepCol, docs); err != nil {
		return fmt.Errorf("plangraph: ingest steps: %w", err)
	}

	refCol, err := s.db.GetCollection(ctx, refCollection, nil)
	if err != nil {
		return fmt.Errorf("plangraph: get collection %s: %w", refCollection, err)
	}
	edges := stepRefEdges(plan)
	if err := writeDocuments(ctx, refCol, edges); err != nil {
		return fmt.Errorf("plangraph: ingest refs: %w", err)
	}

	slog.DebugContext(ctx, "plangraph plan persisted",
		"plan_id", plan.PlanID, "steps", len(plan.Steps), "refs", len(edges),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// stepRefEdges scans every step's Parameters for "step:N..." reference
// strings and emits one edge per reference found, from the referencing step
// to the referenced one.
func stepRefEdges(plan *model.ExecutionPlan) []map[string]any {
	var edges []map[string]any
	for _, step := range plan.Steps {
		for paramName, v := range step.Parameters {
			ref, ok := v.(string)
			if !ok {
				continue
			}
			path, ok := strings.CutPrefix(ref, "step:")
			if !ok {
				continue
			}
			n, _, _ := strings.Cut(path, ".")
			refNum, err := strconv.Atoi(n)
			if err != nil {
				continue
			}
			edges = append(edges, map[string]any{
				"_key":      fmt.Sprintf("%s:%d-%d-%s", plan.PlanID, step.StepNumber, refNum, paramName),
				"_from":     fmt.Sprintf("%s/%s", stepCollection, stepKey(plan.PlanID, step.StepNumber)),
				"_to":       fmt.Sprintf("%s/%s", stepCollection, stepKey(plan.PlanID, refNum)),
				"parameter": paramName,
			})
		}
	}
	return edges
}

func writeDocuments(ctx context.Context, col arangodb.Collection, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	reader, err := col.CreateDocuments(ctx, docs)
	if err != nil {
		return err
	}
	for {
		if _, readErr := reader.Read(); readErr != nil {
			break
		}
	}
	return nil
}

func stepKey(planID string, stepNumber int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d", planID, stepNumber)))
	return hex.EncodeToString(sum[:])
}

// Close releases the underlying connection. ArangoDB's HTTP2 connection has
// no explicit teardown, matching the teacher's no-op Close.
func (s *Store) Close() error {
	return nil
}
