package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"boardsense.dev/sentinel/common/id"
	"boardsense.dev/sentinel/common/logger"
	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/cache"
	"boardsense.dev/sentinel/core/config"
	"boardsense.dev/sentinel/core/engine"
	"boardsense.dev/sentinel/internal/queue"
)

// maxAttempts bounds how many times a failed prefetch job is retried
// before it's moved to the dead-letter stream.
const maxAttempts = 3

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "sentinel worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Redis.EngineQueueGroup,
		"consumer_name", cfg.Redis.EngineConsumer)

	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.EngineQueueStream)

	consumer, err := queue.NewConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Redis.EngineQueueStream,
		Group:        cfg.Redis.EngineQueueGroup,
		Consumer:     cfg.Redis.EngineConsumer,
		DLQStream:    cfg.Redis.DLQStream,
		BatchSize:    4,
		Block:        5 * time.Second,
		MaxAttempts:  maxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	enginePool, err := engine.NewPool(ctx, cfg.Engine.BinaryPath, cfg.Engine.PoolSize)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start engine pool", "error", err, "binary", cfg.Engine.BinaryPath)
		os.Exit(1)
	}
	defer enginePool.Close()

	scanner := &baseline.Scanner{Engine: enginePool, Cache: cache.New(redisClient, 10_000)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go runLoop(ctx, &wg, consumer, scanner)

	slog.InfoContext(ctx, "worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown...")
	cancel()

	shutdownComplete := make(chan struct{})
	go func() {
		wg.Wait()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-time.After(30 * time.Second):
		slog.WarnContext(ctx, "shutdown timeout exceeded, forcing exit")
	}

	if err := redisClient.Close(); err != nil {
		slog.ErrorContext(ctx, "redis close error", "error", err)
	}
	slog.InfoContext(ctx, "shutdown complete")
}

// runLoop drains the engine-queue stream, running each job's dual-depth
// scan so its result lands in the shared analysis cache ahead of the next
// controller request for that position.
func runLoop(ctx context.Context, wg *sync.WaitGroup, consumer *queue.Consumer, scanner *baseline.Scanner) {
	defer wg.Done()

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "sentinel.worker.loop"})
	slog.InfoContext(ctx, "worker loop started")

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "worker loop stopping")
			return
		default:
		}

		jobs, err := consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "failed to read from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			processJobSafe(ctx, consumer, scanner, job)
		}
	}
}

func processJobSafe(ctx context.Context, consumer *queue.Consumer, scanner *baseline.Scanner, job queue.AnalysisJob) {
	start := time.Now()
	ctx = logger.WithLogFields(ctx, logger.LogFields{RootFEN: &job.FEN})

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic recovered processing prefetch job",
				"panic", rec, "stack", string(debug.Stack()))
			_ = consumer.Requeue(ctx, job, fmt.Sprintf("panic: %v", rec))
		}
	}()

	d2 := job.D2Depth
	if d2 <= 0 {
		d2 = baseline.DefaultD2Depth
	}
	d16 := job.D16Depth
	if d16 <= 0 {
		d16 = baseline.DefaultD16Depth
	}

	if _, err := scanner.Scan(ctx, job.FEN, d2, d16, job.MultiPV, 300); err != nil {
		slog.ErrorContext(ctx, "prefetch scan failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		_ = consumer.Requeue(ctx, job, err.Error())
		return
	}

	if err := consumer.Ack(ctx, job); err != nil {
		slog.WarnContext(ctx, "failed to ack job", "error", err)
	}
	slog.InfoContext(ctx, "prefetch scan completed", "duration_ms", time.Since(start).Milliseconds())
}

const banner = `
 ███████╗███████╗███╗   ██╗████████╗██╗███╗   ██╗███████╗██╗    ██╗    ██████╗ ██╗  ██╗
 ██╔════╝██╔════╝████╗  ██║╚══██╔══╝██║████╗  ██║██╔════╝██║    ██║    ██╔══██╗██║ ██╔╝
 ███████╗█████╗  ██╔██╗ ██║   ██║   ██║██╔██╗ ██║█████╗  ██║ █╗ ██║    ██████╔╝█████╔╝
 ╚════██║██╔══╝  ██║╚██╗██║   ██║   ██║██║╚██╗██║██╔══╝  ██║███╗██║    ██╔══██╗██╔═██╗
 ███████║███████╗██║ ╚████║   ██║   ██║██║ ╚████║███████╗╚███╔███╔╝    ██║  ██║██║  ██╗
 ╚══════╝╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚═╝╚═╝  ╚═══╝╚══════╝ ╚══╝╚══╝     ╚═╝  ╚═╝╚═╝  ╚═╝
`
