// Package queue implements a Redis Streams-backed work queue for
// prefetching deep engine scans (spec §4.4/§A.3's "engine pool" ambient
// concern): Producer enqueues a job to have a position warmed for a
// likely-next request, and cmd/worker drains the stream. Nothing in the
// server constructs a Producer. Grounded on the teacher's internal/queue (XReadGroup consumer
// group, requeue-with-attempt, DLQ-on-exhaustion), narrowed from its
// GitLab event-message schema to a single analysis-job payload.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnalysisJob asks a worker to run (and cache) a dual-depth scan for fen,
// independent of any live controller request.
type AnalysisJob struct {
	ID      string
	FEN     string
	D2Depth int
	D16Depth int
	MultiPV int
	Attempt int
	TraceID string
	Raw     redis.XMessage
}

// ConsumerConfig mirrors the teacher's stream/group/consumer-name triad;
// a Producer needs only a stream name.
type ConsumerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	DLQStream    string
	BatchSize    int64
	Block        time.Duration
	MaxAttempts  int
	RequeueDelay time.Duration
}

// JobProcessor processes a single dequeued job.
type JobProcessor func(ctx context.Context, job AnalysisJob) error

// Producer enqueues analysis jobs onto a stream.
type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, job AnalysisJob) error {
	values := map[string]any{
		"fen":       job.FEN,
		"d2_depth":  job.D2Depth,
		"d16_depth": job.D16Depth,
		"multi_pv":  job.MultiPV,
		"attempt":   job.Attempt,
		"trace_id":  job.TraceID,
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("queue: xadd: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return nil
}

// Consumer reads analysis jobs off a stream through a named consumer group.
type Consumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewConsumer(client *redis.Client, cfg ConsumerConfig) (*Consumer, error) {
	c := &Consumer{client: client, cfg: cfg}
	if err := c.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}
	return c, nil
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("queue: creating consumer group: %w", err)
	}
	return nil
}

// Read pulls up to BatchSize pending jobs, blocking for up to Block.
func (c *Consumer) Read(ctx context.Context) ([]AnalysisJob, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: xreadgroup: %w", err)
	}

	var jobs []AnalysisJob
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			job, parseErr := parseJob(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "queue: failed to parse job, acking and dropping", "error", parseErr, "id", msg.ID)
				_ = c.Ack(ctx, AnalysisJob{ID: msg.ID})
				continue
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (c *Consumer) Ack(ctx context.Context, job AnalysisJob) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, job.ID).Err(); err != nil {
		return fmt.Errorf("queue: xack: %w", err)
	}
	return nil
}

func (c *Consumer) Requeue(ctx context.Context, job AnalysisJob, reason string) error {
	if err := c.Ack(ctx, job); err != nil {
		return err
	}
	attempt := job.Attempt + 1
	if c.cfg.MaxAttempts > 0 && attempt > c.cfg.MaxAttempts {
		return c.sendDLQ(ctx, job, reason)
	}
	if c.cfg.RequeueDelay > 0 {
		time.Sleep(c.cfg.RequeueDelay)
	}
	job.Attempt = attempt
	values := map[string]any{
		"fen": job.FEN, "d2_depth": job.D2Depth, "d16_depth": job.D16Depth,
		"multi_pv": job.MultiPV, "attempt": job.Attempt, "trace_id": job.TraceID,
		"last_error": reason,
	}
	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.Stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("queue: xadd requeue: %w", err)
	}
	return nil
}

func (c *Consumer) sendDLQ(ctx context.Context, job AnalysisJob, reason string) error {
	values := map[string]any{
		"fen": job.FEN, "d2_depth": job.D2Depth, "d16_depth": job.D16Depth,
		"multi_pv": job.MultiPV, "attempt": job.Attempt, "trace_id": job.TraceID,
		"error": reason,
	}
	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DLQStream, Values: values}).Err(); err != nil {
		return fmt.Errorf("queue: xadd dlq: %w", err)
	}
	slog.ErrorContext(ctx, "queue: job sent to DLQ", "fen", job.FEN, "reason", reason)
	return nil
}

func parseJob(msg redis.XMessage) (AnalysisJob, error) {
	fen, _ := msg.Values["fen"].(string)
	if fen == "" {
		return AnalysisJob{}, fmt.Errorf("queue: job missing fen")
	}
	return AnalysisJob{
		ID:       msg.ID,
		FEN:      fen,
		D2Depth:  parseIntField(msg.Values, "d2_depth"),
		D16Depth: parseIntField(msg.Values, "d16_depth"),
		MultiPV:  parseIntField(msg.Values, "multi_pv"),
		Attempt:  parseIntField(msg.Values, "attempt"),
		TraceID:  stringField(msg.Values, "trace_id"),
		Raw:      msg,
	}, nil
}

func parseIntField(values map[string]any, key string) int {
	raw, ok := values[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case int:
		return v
	default:
		return 0
	}
}

func stringField(values map[string]any, key string) string {
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}
