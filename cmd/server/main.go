package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"finpal-backend/config"
	"finpal-backend/handlers"
	"finpal-backend/llm"
	"finpal-backend/logger"
	"finpal-backend/marketdata"
	"finpal-backend/middleware"
	"finpal-backend/repository"
	"finpal-backend/service"
	"finpal-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

func main() {
	envLoaded := config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Development, logger.LogLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if !envLoaded {
		logger.Get().Warn("no .env file found, using environment variables")
	}

	ctx := context.Background()

	// Initialize profile store
	profiles, closeStore, err := initProfileStore(ctx, cfg)
	if err != nil {
		logger.Get().Fatal("failed to initialize profile store", zap.Error(err))
	}
	defer closeStore()

	// Initialize conversation archive
	archiveStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		logger.Get().Fatal("failed to initialize archive storage", zap.Error(err))
	}

	// Initialize Gemini client
	var generator llm.TextGenerator
	if cfg.GeminiAPIKey == "" {
		logger.Get().Warn("GEMINI_API_KEY not set, agents are offline")
	} else {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Get().Fatal("failed to initialize Gemini", zap.Error(err))
		}
		defer gemini.Close()
		generator = gemini
		logger.Get().Info("gemini client initialized", zap.String("model", cfg.GeminiModel))
	}

	// Initialize services
	analystService := service.NewAnalystService(
		service.AnalystWithGenerator(generator),
		service.AnalystWithMarketData(marketdata.NewYahooClient()),
	)
	coachService := service.NewCoachService(
		service.CoachWithGenerator(generator),
	)
	coordinatorService := service.NewCoordinatorService(
		service.CoordinatorWithClassifier(generator),
		service.CoordinatorWithAnalyst(analystService),
		service.CoordinatorWithCoach(coachService),
	)

	ledgerOpts := []service.LedgerServiceOption{}
	if archiveStorage != nil {
		ledgerOpts = append(ledgerOpts, service.LedgerWithArchiver(storage.NewConversationArchive(archiveStorage)))
		logger.Get().Info("conversation archive enabled")
	}
	ledgerService := service.NewLedgerService(profiles, ledgerOpts...)
	profileService := service.NewProfileService(profiles)

	authService, err := service.NewAuthService(profiles, cfg.JWTSecret, service.AuthWithTokenTTL(cfg.JWTTTL))
	if err != nil {
		logger.Get().Fatal("failed to initialize auth", zap.Error(err))
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	chatHandler := handlers.NewChatHandler(coordinatorService, analystService, coachService, profileService, ledgerService)

	// Setup Gin router
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"status":    "ok",
			"agents":    generator != nil,
			"timestamp": time.Now().UTC(),
		})
	})

	requireAuth := middleware.Auth(authService)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", requireAuth, authHandler.Me)

		user := api.Group("/user", requireAuth)
		user.GET("/profile", profileHandler.GetProfile)
		user.PUT("/profile", profileHandler.UpdateProfile)
		user.POST("/goals", profileHandler.AddGoal)
		user.PUT("/goals/:goalId", profileHandler.UpdateGoal)
		user.DELETE("/goals/:goalId", profileHandler.DeleteGoal)

		chat := api.Group("/chat", requireAuth)
		chat.POST("", chatHandler.Chat)
		chat.GET("/history", chatHandler.History)
		chat.POST("/stock-analysis", chatHandler.StockAnalysis)
		chat.POST("/spending-analysis", chatHandler.SpendingAnalysis)
	}

	logger.Get().Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("store", string(cfg.StoreType)))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Get().Fatal("failed to start server", zap.Error(err))
	}
}

func initProfileStore(ctx context.Context, cfg *config.Config) (repository.ProfileRepository, func(), error) {
	switch cfg.StoreType {
	case config.StoreMongo:
		return initMongo(ctx, cfg)
	default:
		return initPostgres(ctx, cfg)
	}
}

func initPostgres(ctx context.Context, cfg *config.Config) (repository.ProfileRepository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	logger.Get().Info("postgres connection established")
	return repository.NewPostgresProfileRepository(pool), pool.Close, nil
}

func initMongo(ctx context.Context, cfg *config.Config) (repository.ProfileRepository, func(), error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	closeClient := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Get().Error("failed to disconnect from MongoDB", zap.Error(err))
		}
	}

	if err := client.Ping(ctx, nil); err != nil {
		closeClient()
		return nil, nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	repo := repository.NewMongoProfileRepository(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeClient()
		return nil, nil, err
	}

	logger.Get().Info("mongodb connection established", zap.String("database", cfg.MongoDatabase))
	return repo, closeClient, nil
}
