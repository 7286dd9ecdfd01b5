package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"latentchat/internal/config"
	"latentchat/internal/conversation"
	"latentchat/internal/generation"
	"latentchat/internal/handler"
	"latentchat/internal/image"
	"latentchat/internal/middleware"
	"latentchat/internal/prompt"
	"latentchat/internal/promptbook"
	"latentchat/internal/repository/postgres"
	"latentchat/internal/router"
	"latentchat/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"persist_images", cfg.PersistImages,
	)

	// Prompt composer and endpoint router, both backed by embedded registries
	engine, err := prompt.NewEngine()
	if err != nil {
		log.Fatalf("Failed to load prompt vocabulary: %v", err)
	}
	endpointRouter, err := router.New()
	if err != nil {
		log.Fatalf("Failed to load model registry: %v", err)
	}

	// Upstream generation client
	httpClient := &http.Client{Timeout: 120 * time.Second}
	client := generation.NewClient(httpClient, cfg.UpstreamURL, cfg.StylizedURL, cfg.APIKey, logger)

	// Image materialization: inline data URIs by default, stored files with
	// public URLs when persistence is enabled
	var materializer image.Materializer = image.Inline{}
	var fileStore *image.FileStore
	if cfg.PersistImages {
		fileStore, err = image.NewFileStore(filepath.Join(cfg.DataDir, "generations"), cfg.PublicBaseURL+"/generations")
		if err != nil {
			log.Fatalf("Failed to create image store: %v", err)
		}
		materializer = image.NewStored(fileStore)
		logger.Info("image persistence enabled", "dir", fileStore.Dir())
	}

	// Prompt book
	book, err := promptbook.Open(filepath.Join(cfg.DataDir, "prompts.json"), logger)
	if err != nil {
		log.Fatalf("Failed to open prompt book: %v", err)
	}

	// Ratings backend, optional
	var ratings service.RatingSink
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		repo := postgres.NewRatingRepository(pool, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare ratings schema: %v", err)
		}
		ratings = repo
		logger.Info("ratings backend connected")
	}

	// Services
	settings := service.NewSettingsStore(endpointRouter)
	chatService := service.NewChatService(engine, endpointRouter, client, materializer,
		conversation.NewStore(), book, settings, ratings, logger)

	logger.Info("services initialized", "session", chatService.Session())

	// Handlers
	proxyHandler := handler.NewProxyHandler(client, storedOnly(materializer), logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	settingsHandler := handler.NewSettingsHandler(settings, endpointRouter, logger)
	bookHandler := handler.NewPromptBookHandler(book, logger)

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Generation edge. Registered without a method pattern: non-POST requests
	// get the fixed 400 body, not a 405.
	mux.HandleFunc("/v1/image", proxyHandler.Generate)

	// Conversation routes
	mux.HandleFunc("POST /api/messages", chatHandler.SendMessage)
	mux.HandleFunc("GET /api/messages", chatHandler.ListMessages)
	mux.HandleFunc("GET /api/messages/last", chatHandler.LastPrompt)
	mux.HandleFunc("POST /api/messages/{id}/retry", chatHandler.RetryMessage)
	mux.HandleFunc("POST /api/messages/{id}/remix", chatHandler.RemixMessage)
	mux.HandleFunc("DELETE /api/messages/{id}", chatHandler.DeleteMessage)
	mux.HandleFunc("GET /api/surprise", chatHandler.Surprise)

	// Settings routes
	mux.HandleFunc("GET /api/settings", settingsHandler.GetSettings)
	mux.HandleFunc("PATCH /api/settings", settingsHandler.UpdateSettings)

	// Prompt book routes
	mux.HandleFunc("GET /api/prompts", bookHandler.ListPrompts)
	mux.HandleFunc("POST /api/prompts", bookHandler.SavePrompt)
	mux.HandleFunc("DELETE /api/prompts", bookHandler.RemovePrompt)

	// Ratings route, only with a backend
	if ratings != nil {
		mux.HandleFunc("POST /api/rate", chatHandler.RateMessage)
	}

	// Stored images are served statically
	if fileStore != nil {
		mux.Handle("GET /generations/",
			http.StripPrefix("/generations/", http.FileServer(http.Dir(fileStore.Dir()))))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Build middleware chain (applied in reverse order, they wrap each other)
	var h http.Handler = mux
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // generation requests are slow
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// storedOnly returns the materializer the proxy edge should use: only a
// stored materializer rewrites proxy responses; in inline mode upstream
// bodies pass through raw.
func storedOnly(m image.Materializer) image.Materializer {
	if _, ok := m.(*image.Stored); ok {
		return m
	}
	return nil
}
