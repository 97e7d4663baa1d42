package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/clothify/backend/internal/api/handlers"
	"github.com/clothify/backend/internal/cache/redis"
	"github.com/clothify/backend/internal/catalog"
	"github.com/clothify/backend/internal/chat"
	"github.com/clothify/backend/internal/conversation"
	"github.com/clothify/backend/internal/llm"
	"github.com/clothify/backend/internal/metrics"
	"github.com/clothify/backend/internal/middleware/ratelimit"
	"github.com/clothify/backend/internal/middleware/security"
	"github.com/clothify/backend/internal/middleware/validation"
	"github.com/clothify/backend/internal/personalization"
	"github.com/clothify/backend/internal/search/semantic"
	"github.com/clothify/backend/internal/storage/sqlite"
	"github.com/clothify/backend/internal/stylegraph"
	"github.com/clothify/backend/internal/vector/milvus"
	"github.com/clothify/backend/pkg/config"
	appLogger "github.com/clothify/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Clothify API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, sessions stay in memory", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var indexer catalog.Indexer
	var vectorIndex semantic.Index
	if cfg.Milvus.Enabled {
		milvusClient, err := milvus.NewClient(cfg.Milvus.Endpoint, cfg.Milvus.CollectionName, cfg.Milvus.VectorDim)
		if err != nil {
			appLogger.Warn("Milvus unavailable, semantic search scans the catalog", zap.Error(err))
		} else {
			defer milvusClient.Close()
			if err := milvusClient.CreateCollection(context.Background()); err != nil {
				appLogger.Warn("Failed to create product collection", zap.Error(err))
			} else {
				indexer = milvusClient
				vectorIndex = milvusClient
			}
		}
	}

	var graphClient *stylegraph.Client
	if cfg.Neo4j.Enabled {
		graphClient, err = stylegraph.NewClient(
			cfg.Neo4j.URI,
			cfg.Neo4j.Username,
			cfg.Neo4j.Password,
			cfg.Neo4j.Database,
		)
		if err != nil {
			appLogger.Warn("Style graph unavailable, complements fall back to tag scan", zap.Error(err))
			graphClient = nil
		} else {
			defer graphClient.Close(context.Background())
		}
	}

	var graphSyncer catalog.GraphSyncer
	if graphClient != nil {
		graphSyncer = graphClient
	}

	catalogSource := catalog.NewSource(sqliteClient, cfg.Catalog.Endpoint, indexer, graphSyncer)
	if err := catalogSource.Load(context.Background()); err != nil {
		appLogger.Warn("Failed to load catalog from storage", zap.Error(err))
	}
	metrics.CatalogProducts.Set(float64(catalogSource.Size()))

	var llmClient chat.LLM
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
			cfg.LLM.TimeoutSec,
		)
	} else {
		appLogger.Warn("No LLM API key configured, replies use templates")
	}

	var persistence conversation.Persistence
	var replyCache chat.ReplyCache
	if redisClient != nil {
		persistence = redisClient
		replyCache = redisClient
	}

	sessionTTL := time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute
	sessions := conversation.NewStore(persistence, sessionTTL)

	weights := personalization.Weights{
		Style:      cfg.Scoring.StyleWeight,
		Color:      cfg.Scoring.ColorWeight,
		Price:      cfg.Scoring.PriceWeight,
		Brand:      cfg.Scoring.BrandWeight,
		Occasion:   cfg.Scoring.OccasionWeight,
		Behavioral: cfg.Scoring.BehavioralWeight,
	}
	scorer := personalization.NewScorer(weights, catalogSource.Lookup)
	searcher := semantic.NewSearcher(vectorIndex)

	var graph chat.ComplementFinder
	if graphClient != nil {
		graph = graphClient
	}

	engine := chat.NewEngine(
		sqliteClient,
		catalogSource,
		sessions,
		scorer,
		searcher,
		llmClient,
		graph,
		replyCache,
		cfg.Chat.TopN,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Chat.RateLimitPerMin,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	chatHandler := handlers.NewChatHandler(engine, sqliteClient)
	catalogHandler := handlers.NewCatalogHandler(catalogSource, searcher)
	profileHandler := handlers.NewProfileHandler(sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	validator := validation.Middleware(validation.Config{
		MaxMessageLength: cfg.Chat.MaxMessageLength,
		Logger:           appLogger.GetLogger(),
	})

	api.Post("/chat", limiter.Middleware(), validator, chatHandler.HandleChat)
	api.Get("/chat/history", chatHandler.GetChatHistory)
	api.Post("/feedback", chatHandler.HandleFeedback)

	api.Post("/catalog/products", catalogHandler.UpsertProduct)
	api.Get("/catalog/products/:id", catalogHandler.GetProduct)
	api.Post("/catalog/import", validator, catalogHandler.ImportHTML)
	api.Post("/catalog/refresh", catalogHandler.Refresh)
	api.Get("/products/search", catalogHandler.SearchProducts)

	api.Get("/profiles/:id", profileHandler.GetProfile)
	api.Put("/profiles/:id", profileHandler.SaveProfile)
	api.Post("/profiles/:id/purchases", profileHandler.RecordPurchase)
	api.Post("/profiles/:id/ratings", profileHandler.RecordRating)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ready",
			"products": catalogSource.Size(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	if cfg.Catalog.RefreshSec > 0 && cfg.Catalog.Endpoint != "" {
		go refreshLoop(catalogSource, redisClient, time.Duration(cfg.Catalog.RefreshSec)*time.Second)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

func refreshLoop(source *catalog.Source, cache *redis.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := source.Refresh(ctx); err != nil {
			appLogger.Warn("Catalog refresh failed", zap.Error(err))
		} else {
			metrics.CatalogProducts.Set(float64(source.Size()))
			if cache != nil {
				if err := cache.InvalidateReplies(ctx); err != nil {
					appLogger.Warn("Failed to invalidate reply cache", zap.Error(err))
				}
			}
		}
		cancel()
	}
}
