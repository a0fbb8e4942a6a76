package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"inkwell/internal/config"
	"inkwell/internal/crypto"
	"inkwell/internal/database"
	"inkwell/internal/handlers"
	"inkwell/internal/jobs"
	"inkwell/internal/logging"
	"inkwell/internal/models"
	"inkwell/internal/providers"
	"inkwell/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("📋 No .env file found, using environment variables")
	}

	cfg := config.Load()
	logging.Init(cfg.Environment)
	log.Printf("🚀 Starting inkwell engine (%s)", cfg.Environment)

	// Settings
	settingsService := services.NewSettingsService(cfg.SettingsPath)
	if err := settingsService.Load(); err != nil {
		log.Fatalf("❌ Failed to load settings: %v", err)
	}
	defer settingsService.Close()

	// Secret storage (optional: requires a master key)
	var secretStore services.SecretStore
	if cfg.MasterKey != "" {
		enc, err := crypto.NewEncryptionService(cfg.MasterKey)
		if err != nil {
			log.Fatalf("❌ Invalid master key: %v", err)
		}
		fileStore, err := services.NewFileSecretStore(cfg.SecretsPath, enc)
		if err != nil {
			log.Fatalf("❌ Failed to open secret store: %v", err)
		}
		secretStore = fileStore
		log.Println("🔐 Secure credential storage enabled")
	} else {
		log.Println("⚠️ INKWELL_MASTER_KEY not set, secure credential storage disabled")
	}
	credentialService := services.NewCredentialService(settingsService, secretStore)

	// Catalog
	catalogService := services.NewCatalogService(cfg.RegistryURL, cfg.DataDir+"/catalog_cache.json", cfg.RegistryCacheTTL)
	{
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := catalogService.Refresh(ctx); err != nil {
			log.Printf("⚠️ Initial catalog refresh failed: %v", err)
		}
		cancel()
	}

	// Budget compiler
	compiler := services.NewCapsCompiler()
	if cfg.TierCapsPath != "" {
		if err := compiler.LoadTierCaps(cfg.TierCapsPath); err != nil {
			log.Printf("⚠️ Failed to load tier caps overrides: %v", err)
		}
	}

	// Provider adapters, rebuilt whenever settings change so new credentials
	// and endpoints take effect without a restart.
	registry := providers.NewRegistry()
	rebuildAdapters(registry, settingsService, credentialService)
	settingsService.OnChange(func(*models.AiSettings) {
		rebuildAdapters(registry, settingsService, credentialService)
	})
	if err := settingsService.Watch(); err != nil {
		log.Printf("⚠️ Settings watcher unavailable: %v", err)
	}

	// Run history
	var runLogService *services.RunLogService
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Printf("⚠️ Run history disabled: %v", err)
	} else {
		defer db.Close()
		if err := db.Initialize(); err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		runLogService = services.NewRunLogService(db)
	}

	orchestrator := services.NewOrchestrator(
		catalogService,
		settingsService,
		compiler,
		registry,
		services.NewRateLimiter(),
		services.NewRunCache(cfg.RunCacheTTL),
		runLogService,
	)

	// Background jobs
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if cfg.CatalogRefreshCron {
		if err := scheduler.RegisterCatalogRefresh(catalogService); err != nil {
			log.Printf("⚠️ %v", err)
		}
	}
	if runLogService != nil {
		if err := scheduler.RegisterRunLogCleanup(runLogService, cfg.RunRetention); err != nil {
			log.Printf("⚠️ %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	// HTTP surface
	app := fiber.New(fiber.Config{
		AppName:      "inkwell",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost, http://127.0.0.1, app://.",
	}))
	if !cfg.IsProduction() {
		app.Use(fiberlogger.New())
	}

	prometheus := fiberprometheus.New("inkwell")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	healthHandler := handlers.NewHealthHandler(catalogService)
	modelHandler := handlers.NewModelHandler(catalogService)
	runHandler := handlers.NewRunHandler(orchestrator, runLogService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	credentialHandler := handlers.NewCredentialHandler(settingsService, credentialService, secretStore)

	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")
	api.Get("/models", modelHandler.List)
	api.Post("/models/refresh", modelHandler.Refresh)
	api.Post("/models/snapshot", modelHandler.MergeSnapshot)
	api.Post("/run", runHandler.Run)
	api.Get("/runs", runHandler.Recent)
	api.Get("/settings", settingsHandler.Get)
	api.Put("/settings", settingsHandler.Update)
	api.Put("/credentials/:provider", credentialHandler.Set)
	api.Delete("/credentials/:provider", credentialHandler.Delete)
	api.Post("/credentials/migrate", credentialHandler.Migrate)

	go func() {
		addr := "127.0.0.1:" + cfg.Port
		log.Printf("🌐 Listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("❌ Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️ Shutdown error: %v", err)
	}
}

// rebuildAdapters replaces the registry contents from current settings.
// Providers without credentials still get an adapter; auth failures surface
// through the classified taxonomy at run time.
func rebuildAdapters(registry *providers.Registry, settingsService *services.SettingsService, credentials *services.CredentialService) {
	settings := settingsService.Get()
	timeout := time.Duration(settings.Connection.RequestTimeout) * time.Second

	key := func(p models.Provider) string {
		k, err := credentials.GetCredential(p)
		if err != nil {
			return ""
		}
		return k
	}

	openaiBase := settings.Connection.OpenAIBaseURL
	if openaiBase == "" {
		openaiBase = "https://api.openai.com/v1"
	}
	registry.Register(models.ProviderOpenAI,
		providers.NewOpenAIAdapter(models.ProviderOpenAI, openaiBase, key(models.ProviderOpenAI), timeout))
	registry.Register(models.ProviderAnthropic,
		providers.NewAnthropicAdapter("", key(models.ProviderAnthropic), timeout))
	registry.Register(models.ProviderGemini,
		providers.NewOpenAIAdapter(models.ProviderGemini,
			"https://generativelanguage.googleapis.com/v1beta/openai", key(models.ProviderGemini), timeout))
	registry.Register(models.ProviderLocal,
		providers.NewOpenAIAdapter(models.ProviderLocal, settings.Connection.LocalEndpoint, key(models.ProviderLocal), timeout))

	log.Printf("🔌 Provider adapters ready: %d registered", len(registry.Providers()))
}
