package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/config"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/database"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/handlers"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/llm"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/logging"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/media"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/middleware"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/nlp"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

const enrichmentWorkers = 4

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Host),
		zap.String("nlp_endpoint", cfg.NLP.Endpoint))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run over database/sql; the pgx stdlib driver shares the
	// connection settings with the pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Warn("Redis not configured, stats served without cache")
	}

	sosRepo := repositories.NewSosRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	weightRepo := repositories.NewWeightRepository(db)
	enrichmentRepo := repositories.NewEnrichmentRepository(db)
	chatRepo := repositories.NewChatRepository(db)

	var nlpClient *nlp.Client
	if cfg.NLP.Endpoint != "" {
		nlpClient, err = nlp.NewClient(&nlp.Config{
			Endpoint: cfg.NLP.Endpoint,
			Timeout:  time.Duration(cfg.NLP.TimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create NLP client", zap.Error(err))
		}
	} else {
		logger.Warn("NLP endpoint not configured, enrichment disabled")
	}

	var mediaStore media.Store
	if cfg.Media.UploadURL != "" {
		mediaStore = media.NewCloudinaryStore(cfg.Media.UploadURL, cfg.Media.UploadPreset, logger)
	}

	queue := workqueue.New(enrichmentWorkers, logger)

	var cache services.Cache
	if redisClient != nil {
		cache = redisClient
	}
	statsService := services.NewStatsService(sosRepo, cache,
		time.Duration(cfg.Stats.CacheTTLSeconds)*time.Second, logger)
	sosService := services.NewSosService(sosRepo, enrichmentRepo, nlpClient, mediaStore, queue, statsService, logger)
	teamService := services.NewTeamService(teamRepo, sosRepo, statsService, logger)
	scoringService := services.NewScoringService(weightRepo, logger)
	searchService := services.NewSearchService(sosRepo, logger)
	weightService := services.NewWeightService(weightRepo, logger)
	adminService := services.NewAdminService(sosRepo, teamRepo, enrichmentRepo, statsService, logger)

	authMw := auth.NewMiddleware(cfg.Auth.JWTSecret, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSosHandler(sosService, logger).RegisterRoutes(mux, authMw)
	handlers.NewTeamHandler(teamService, logger).RegisterRoutes(mux, authMw)
	handlers.NewSearchHandler(searchService, scoringService, logger).RegisterRoutes(mux, authMw)
	handlers.NewAdminHandler(adminService, weightService, logger).RegisterRoutes(mux, authMw)
	handlers.NewStatsHandler(statsService, logger).RegisterRoutes(mux)

	if cfg.Chat.IsAvailable() {
		llmClient, err := llm.NewClient(&llm.Config{
			Endpoint:       cfg.Chat.BaseURL,
			Model:          cfg.Chat.Model,
			EmbeddingModel: cfg.Chat.EmbeddingModel,
			APIKey:         cfg.Chat.APIKey,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}
		chatbot := services.NewChatbotService(chatRepo, llmClient, statsService, logger)
		handlers.NewChatHandler(chatbot, logger).RegisterRoutes(mux, authMw)
	} else {
		logger.Warn("Chat backend not configured, chatbot routes disabled")
	}

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting aidsense-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("Work queue shutdown failed", zap.Error(err))
	}
}
