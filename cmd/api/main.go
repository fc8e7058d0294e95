package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"talentscreen/cv-evaluator/internal/config"
	"talentscreen/cv-evaluator/internal/handlers"
	"talentscreen/cv-evaluator/internal/models"
	"talentscreen/cv-evaluator/internal/repositories"
	"talentscreen/cv-evaluator/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	tenantRepo := repositories.NewTenantRepository(db)
	fileRepo := repositories.NewUploadedFileRepository(db)
	contextRepo := repositories.NewContextDocumentRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)
	log.Println("✅ Repositories initialized successfully")

	if err := seedDefaultTenant(tenantRepo); err != nil {
		log.Fatalf("❌ Failed to seed default tenant: %v", err)
	}

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	extractor := services.NewTextExtractor(pdfParser, cfg.Storage.StrictExtraction)
	log.Println("✅ Services initialized successfully")

	// Initialize Gemini client, wrapped with the retry policy
	ctx := context.Background()
	geminiClient, err := services.NewGeminiClient(ctx, services.GeminiConfig{
		APIKey:              cfg.Gemini.APIKey,
		Model:               cfg.Gemini.Model,
		EmbedModels:         []string{cfg.Gemini.EmbedModel, "gemini-embedding-001"},
		SimulateFailureProb: cfg.LLM.SimulateFailureProb,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini client: %v", err)
	}
	llm := services.NewRetryingLLMClient(geminiClient)
	log.Println("✅ Gemini client initialized successfully")

	// Initialize vector store and pipeline
	vectorStore := services.NewVectorStore(llm, contextRepo)
	pipeline := services.NewEvaluationPipeline(llm, vectorStore, cfg.LLM.Temperature)

	evaluatorService := services.NewEvaluatorService(
		evalRepo,
		fileRepo,
		vectorStore,
		pipeline,
		cfg.Worker.RetryMaxAttempts,
	)
	log.Println("✅ Evaluator service initialized")

	// Initialize worker
	worker := services.NewWorker(
		evalRepo,
		evaluatorService,
		cfg.Worker.Concurrency,
	)

	worker.Start(ctx)
	log.Println("✅ Worker started successfully")

	// Initialize Handlers
	uploadHandler := handlers.NewUploadHandler(
		fileRepo,
		storageService,
		extractor,
		cfg.Storage.MaxFileSize,
	)
	evaluateHandler := handlers.NewEvaluationHandler(
		evalRepo,
		fileRepo,
		worker,
	)

	resultHandler := handlers.NewResultHandler(evalRepo)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI CV Evaluator API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Tenant-ID",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints, all tenant-scoped
	tenanted := api.Group("/", handlers.ResolveTenant(tenantRepo))
	tenanted.Post("/upload", uploadHandler.HandleUpload)
	tenanted.Post("/evaluate", evaluateHandler.HandleEvaluate)
	tenanted.Get("/result/:id", resultHandler.HandleGetResult)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI CV Evaluator API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/evaluate",
				"GET /api/v1/result/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// seedDefaultTenant creates a first tenant on an empty install so the API is
// usable out of the box.
func seedDefaultTenant(tenantRepo repositories.TenantRepository) error {
	count, err := tenantRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tenant := &models.Tenant{
		ID:   uuid.New(),
		Name: "Default",
		Slug: "default",
	}
	if err := tenantRepo.Create(tenant); err != nil {
		return err
	}

	log.Printf("✅ Default tenant created: %s (slug: %s)\n", tenant.ID, tenant.Slug)
	return nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
