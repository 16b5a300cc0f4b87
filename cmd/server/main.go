package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"boardsense.dev/sentinel/common/id"
	"boardsense.dev/sentinel/common/llm"
	"boardsense.dev/sentinel/common/logger"
	"boardsense.dev/sentinel/common/otel"
	"boardsense.dev/sentinel/core/baseline"
	"boardsense.dev/sentinel/core/cache"
	"boardsense.dev/sentinel/core/config"
	"boardsense.dev/sentinel/core/db"
	"boardsense.dev/sentinel/core/engine"
	"boardsense.dev/sentinel/internal/controller"
	"boardsense.dev/sentinel/internal/http/handler"
	"boardsense.dev/sentinel/internal/http/middleware"
	httprouter "boardsense.dev/sentinel/internal/http/router"
	"boardsense.dev/sentinel/internal/model"
	"boardsense.dev/sentinel/internal/platform"
	"boardsense.dev/sentinel/internal/profile"
	"boardsense.dev/sentinel/internal/searchindex"
	"boardsense.dev/sentinel/internal/store/plangraph"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "sentinel server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var profileStore *profile.Store
	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.WarnContext(ctx, "database unavailable, profile signals disabled", "error", err)
	} else {
		defer database.Close()
		profileStore = profile.New(database)
		if err := profileStore.EnsureSchema(ctx); err != nil {
			slog.WarnContext(ctx, "failed to ensure profile schema, profile signals disabled", "error", err)
			profileStore = nil
		}
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
	slog.InfoContext(ctx, "redis connected")

	enginePool, err := engine.NewPool(ctx, cfg.Engine.BinaryPath, cfg.Engine.PoolSize)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start engine pool", "error", err, "binary", cfg.Engine.BinaryPath)
		os.Exit(1)
	}
	defer enginePool.Close()
	slog.InfoContext(ctx, "engine pool started", "size", cfg.Engine.PoolSize, "binary", cfg.Engine.BinaryPath)

	analysisCache := cache.New(redisClient, 10_000)
	scanner := &baseline.Scanner{Engine: enginePool, Cache: analysisCache}

	intentClient, err := llm.NewAgentClient(llm.Config{
		APIKey: cfg.IntentLLM.APIKey, BaseURL: cfg.IntentLLM.BaseURL, Model: cfg.IntentLLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create intent llm client", "error", err)
		os.Exit(1)
	}

	ctrl := controller.New(intentClient, scanner)
	ctrl.StepBudget = cfg.Controller.StepBudget
	ctrl.TimeBudget = time.Duration(cfg.Controller.TimeBudgetSeconds * float64(time.Second))
	if profileStore != nil {
		ctrl.ProfileLookup = func(ctx context.Context, sessionID string) *model.ProfileSignal {
			signal, err := profileStore.DominantSignal(ctx, sessionID)
			if err != nil {
				return nil
			}
			return signal
		}
	}

	if cfg.PlanGraph.Enabled() {
		planStore, err := plangraph.New(plangraph.Config{
			URL: cfg.PlanGraph.URL, Username: cfg.PlanGraph.Username,
			Password: cfg.PlanGraph.Password, Database: cfg.PlanGraph.Database,
		})
		if err != nil {
			slog.WarnContext(ctx, "plangraph unavailable, plan audit disabled", "error", err)
		} else if err := planStore.EnsureSchema(ctx); err != nil {
			slog.WarnContext(ctx, "failed to ensure plangraph schema, plan audit disabled", "error", err)
		} else {
			ctrl.PlanStore = planStore
		}
	}

	if cfg.SearchIndex.Enabled() {
		motifIndex := searchindex.New(searchindex.Config{URL: cfg.SearchIndex.URL, APIKey: cfg.SearchIndex.APIKey})
		if err := motifIndex.EnsureCollection(ctx); err != nil {
			slog.WarnContext(ctx, "failed to ensure motif collection, motif search disabled", "error", err)
		} else {
			ctrl.MotifIndex = motifIndex
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gamesHandler := handler.NewGamesHandler(platform.NewLichessClient())

	router := setupRouter(cfg, ctrl, gamesHandler)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, ctrl *controller.Controller, games *handler.GamesHandler) *gin.Engine {
	router := gin.New()

	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	analyzeHandler := handler.NewAnalyzeHandler(ctrl)
	httprouter.SetupRoutes(router, analyzeHandler, games, httprouter.RouterConfig{
		IsProduction: cfg.IsProduction(),
		AdminAPIKey:  cfg.AdminAPIKey,
	})

	return router
}

const banner = `
 ███████╗███████╗███╗   ██╗████████╗██╗███╗   ██╗███████╗██╗
 ██╔════╝██╔════╝████╗  ██║╚══██╔══╝██║████╗  ██║██╔════╝██║
 ███████╗█████╗  ██╔██╗ ██║   ██║   ██║██╔██╗ ██║█████╗  ██║
 ╚════██║██╔══╝  ██║╚██╗██║   ██║   ██║██║╚██╗██║██╔══╝  ██║
 ███████║███████╗██║ ╚████║   ██║   ██║██║ ╚████║███████╗███████╗
 ╚══════╝╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚═╝╚═╝  ╚═══╝╚══════╝╚══════╝
`
