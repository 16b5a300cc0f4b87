// Package searchindex indexes emitted tags and PGN snippets so the chat
// fallback path (spec §4.8 step 2, the LLM-fallback branch) can cite a
// previously observed motif instead of free-associating an ungrounded
// answer. Grounded on the teacher's codegraph Typesense ingestor
// (golang/process/ingest.go): create-collection-then-upsert-documents, same
// shape, narrowed from a code-symbol schema to a motif schema.
package searchindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"

	"boardsense.dev/sentinel/internal/model"
)

const collectionName = "motifs"

// Config holds the Typesense connection details.
type Config struct {
	URL    string
	APIKey string
}

// Motif is one indexed tag/threat observation, searchable by name and FEN.
type Motif struct {
	ID        string `json:"id"`
	FEN       string `json:"fen"`
	TagName   string `json:"tag_name"`
	Side      string `json:"side"`
	PGNSample string `json:"pgn_sample"`
	ObservedAtUnix int64 `json:"observed_at_unix"`
}

// Index wraps a Typesense client scoped to the motifs collection.
type Index struct {
	client *typesense.Client
}

// New dials Typesense. Call EnsureCollection before the first IndexTagSet.
func New(cfg Config) *Index {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
	)
	return &Index{client: client}
}

// EnsureCollection creates the motifs collection if it doesn't already
// exist; a 409-shaped error from an existing collection is swallowed, same
// as the teacher's ingestor treating "already exists" as success.
func (idx *Index) EnsureCollection(ctx context.Context) error {
	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "fen", Type: "string"},
			{Name: "tag_name", Type: "string", Facet: boolPtr(true)},
			{Name: "side", Type: "string", Facet: boolPtr(true)},
			{Name: "pgn_sample", Type: "string"},
			{Name: "observed_at_unix", Type: "int64"},
		},
	}
	if _, err := idx.client.Collections().Create(ctx, schema); err != nil {
		slog.DebugContext(ctx, "motifs collection create result (may already exist)", "error", err)
	}
	return nil
}

// IndexTagSet upserts one motif document per tag and threat in ts, keyed by
// fen+tag name+side so re-indexing the same position is idempotent.
func (idx *Index) IndexTagSet(ctx context.Context, fen, pgnSample string, ts model.TagSet, observedAtUnix int64) error {
	docs := make([]Motif, 0, len(ts.Tags)+len(ts.Threats))
	for _, t := range ts.Tags {
		docs = append(docs, Motif{
			ID:             motifID(fen, t.Name, string(t.Side)),
			FEN:            fen,
			TagName:        t.Name,
			Side:           string(t.Side),
			PGNSample:      pgnSample,
			ObservedAtUnix: observedAtUnix,
		})
	}
	for _, t := range ts.Threats {
		docs = append(docs, Motif{
			ID:             motifID(fen, t.Name, string(t.Side)),
			FEN:            fen,
			TagName:        t.Name,
			Side:           string(t.Side),
			PGNSample:      pgnSample,
			ObservedAtUnix: observedAtUnix,
		})
	}
	if len(docs) == 0 {
		return nil
	}

	docsAny := make([]interface{}, len(docs))
	for i, d := range docs {
		docsAny[i] = d
	}
	action := api.UPSERT
	if _, err := idx.client.Collection(collectionName).Documents().Import(ctx, docsAny, &api.ImportDocumentsParams{Action: &action}); err != nil {
		return fmt.Errorf("searchindex: import motifs: %w", err)
	}
	return nil
}

// SearchMotifs finds prior motifs matching a tag name, for the chat
// fallback path to cite instead of answering ungrounded.
func (idx *Index) SearchMotifs(ctx context.Context, tagName string, limit int) ([]Motif, error) {
	if limit <= 0 {
		limit = 5
	}
	queryBy := "tag_name,pgn_sample"
	perPage := limit
	params := &api.SearchCollectionParams{
		Q:       &tagName,
		QueryBy: &queryBy,
		PerPage: &perPage,
	}
	result, err := idx.client.Collection(collectionName).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searchindex: search motifs: %w", err)
	}
	if result.Hits == nil {
		return nil, nil
	}
	out := make([]Motif, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		out = append(out, Motif{
			ID:             stringField(doc, "id"),
			FEN:            stringField(doc, "fen"),
			TagName:        stringField(doc, "tag_name"),
			Side:           stringField(doc, "side"),
			PGNSample:      stringField(doc, "pgn_sample"),
		})
	}
	return out, nil
}

func stringField(doc map[string]interface{}, key string) string {
	v, ok := doc[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func boolPtr(b bool) *bool { return &b }

func motifID(fen, tagName, side string) string {
	return fmt.Sprintf("%x", hashMotif(fen, tagName, side))
}

func hashMotif(parts ...string) uint64 {
	var h uint64 = 14695981039346656037
	for _, p := range parts {
		for i := 0; i < len(p); i++ {
			h ^= uint64(p[i])
			h *= 1099511628211
		}
		h ^= ':'
	}
	return h
}
