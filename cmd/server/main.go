package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/auth"
	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/handler"
	"github.com/clipforge/api/internal/media"
	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/internal/worker"
	ws "github.com/clipforge/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Storage.UploadPath, cfg.Storage.OutputPath, cfg.Storage.TempPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize media backend
	backend := media.NewFFmpeg(cfg.FFmpeg.Binary, cfg.FFmpeg.ProbeBinary, cfg.Storage.TempPath)

	// Initialize object storage (optional - continues if not configured)
	var objectStore *client.ObjectStore
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		var err error
		objectStore, err = client.NewObjectStore(&cfg.S3)
		if err != nil {
			log.Printf("Warning: object storage not initialized: %v", err)
		}
	} else {
		log.Println("Info: object storage not configured, serving outputs from disk")
	}

	// Initialize OIDC JWKS verifier (optional - falls back to first-party JWT)
	var jwksVerifier *auth.JWKSVerifier
	if cfg.OIDC.Issuer != "" {
		var err error
		jwksVerifier, err = auth.NewJWKSVerifier(&cfg.OIDC)
		if err != nil {
			log.Printf("Warning: JWKS verifier not initialized: %v", err)
		} else {
			defer jwksVerifier.Close()
		}
	}

	// Initialize services
	authService := service.NewAuthService(redisClient, cfg.JWT.Secret, cfg.JWT.Expiration)
	assetService := service.NewAssetService(redisClient, backend, cfg.Storage.UploadPath, int64(cfg.Storage.MaxUploadMB))
	templateService := service.NewTemplateService(redisClient)
	projectService := service.NewProjectService(redisClient, templateService)
	jobService := service.NewJobService(redisClient, asynqClient)
	batchService := service.NewBatchService(assetService, templateService, projectService, jobService, hub)

	// Initialize the render pipeline. Completed outputs are published to
	// object storage when it is configured, so download redirects work.
	var outputPublisher pipeline.Publisher
	if objectStore != nil && objectStore.IsConfigured() {
		outputPublisher = objectStore
	}
	renderer := pipeline.NewSegmentRenderer(backend, assetService)
	orchestrator := pipeline.NewOrchestrator(jobService, projectService, renderer, backend, hub,
		outputPublisher, cfg.Storage.OutputPath, cfg.Storage.TempPath)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	assetHandler := handler.NewAssetHandler(assetService, validate)
	projectHandler := handler.NewProjectHandler(projectService, jobService, batchService, validate)
	templateHandler := handler.NewTemplateHandler(templateService, validate)
	platformHandler := handler.NewPlatformHandler()

	var jobHandler *handler.JobHandler
	if objectStore != nil {
		jobHandler = handler.NewJobHandler(jobService, objectStore)
	} else {
		jobHandler = handler.NewJobHandler(jobService, nil)
	}

	// Initialize middleware (with fallback support)
	var authMiddleware *middleware.AuthMiddleware
	if jwksVerifier != nil && cfg.JWT.Secret != "" {
		authMiddleware = middleware.NewAuthMiddlewareWithFallback(jwksVerifier, cfg.JWT.Secret)
	} else if jwksVerifier != nil {
		authMiddleware = middleware.NewAuthMiddleware(jwksVerifier)
	} else {
		authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    cfg.Storage.MaxUploadMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"storage": objectStore != nil,
				"auth":    jwksVerifier != nil || cfg.JWT.Secret != "",
			},
		})
	})

	// Public auth routes
	app.Post("/api/auth/register", authHandler.Register)
	app.Post("/api/auth/login", authHandler.Login)

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	api.Get("/auth/me", authHandler.Me)

	// Asset routes
	assets := api.Group("/assets")
	assets.Post("/", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), assetHandler.Upload)
	assets.Get("/", assetHandler.List)
	assets.Get("/:id", assetHandler.Get)
	assets.Put("/:id/tags", assetHandler.UpdateTags)
	assets.Delete("/:id", assetHandler.Delete)

	// Project routes
	projects := api.Group("/projects")
	projects.Post("/", projectHandler.Create)
	projects.Post("/from-template", projectHandler.CreateFromTemplate)
	projects.Post("/batch-process", rateLimiter.BatchLimit(cfg.RateLimit.BatchPerHour), projectHandler.Batch)
	projects.Get("/", projectHandler.List)
	projects.Get("/:id", projectHandler.Get)
	projects.Put("/:id", projectHandler.Update)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Post("/:id/process", rateLimiter.ProcessLimit(cfg.RateLimit.ProcessPerHour), projectHandler.Process)

	// Template routes
	templates := api.Group("/templates")
	templates.Post("/", templateHandler.Create)
	templates.Get("/", templateHandler.List)
	templates.Get("/:id", templateHandler.Get)
	templates.Put("/:id", templateHandler.Update)
	templates.Delete("/:id", templateHandler.Delete)

	// Job routes
	jobs := api.Group("/jobs")
	jobs.Get("/", jobHandler.List)
	jobs.Get("/:id", jobHandler.Get)
	jobs.Get("/:id/download", jobHandler.Download)
	jobs.Delete("/:id", jobHandler.Delete)

	// Platform presets
	api.Get("/platforms", platformHandler.List)

	// WebSocket routes: token is passed as a query parameter since browsers
	// cannot set headers on upgrade requests.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		token := c.Query("token")
		userID, err := resolveWSUser(token, jwksVerifier, cfg.JWT.Secret)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("userId", userID)
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("userId").(string)
		hub.HandleConnection(c, userID)
	}))

	// Start Asynq worker server and scheduler
	go startWorkerServer(cfg, orchestrator)
	go startScheduler(cfg)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// resolveWSUser takes the concrete verifier type so the no-OIDC nil pointer
// stays detectable; assigning it to the interface first would hide it.
func resolveWSUser(token string, verifier *auth.JWKSVerifier, jwtSecret string) (string, error) {
	if token == "" {
		return "", fiber.ErrUnauthorized
	}
	if verifier != nil {
		if claims, err := verifier.Validate(token); err == nil {
			return claims.UserID, nil
		}
		if jwtSecret == "" {
			return "", fiber.ErrUnauthorized
		}
	}
	claims, err := auth.ValidateLegacyToken(token, jwtSecret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func startWorkerServer(cfg *config.Config, orchestrator *pipeline.Orchestrator) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Processing.Workers,
			Queues: map[string]int{
				service.QueueVideo: 1,
			},
			LogLevel: asynqLogLevel,
		},
	)

	videoWorker := worker.NewVideoWorker(orchestrator)
	cleanupWorker := worker.NewCleanupWorker(cfg.Storage.TempPath,
		time.Duration(cfg.Processing.TempRetentionHours)*time.Hour)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeVideoRender, videoWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypeTempCleanup, cleanupWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

// startScheduler enqueues the daily temp-cleanup sweep.
func startScheduler(cfg *config.Config) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		nil,
	)

	task := asynq.NewTask(service.TaskTypeTempCleanup, nil)
	if _, err := scheduler.Register("0 3 * * *", task, asynq.Queue(service.QueueVideo)); err != nil {
		log.Printf("Failed to register cleanup schedule: %v", err)
		return
	}

	if err := scheduler.Run(); err != nil {
		log.Printf("Asynq scheduler error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
