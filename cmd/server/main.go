package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/pushrequest/relay/internal/config"
	"github.com/pushrequest/relay/internal/database"
	"github.com/pushrequest/relay/internal/github"
	"github.com/pushrequest/relay/internal/handlers"
	"github.com/pushrequest/relay/internal/push"
	"github.com/pushrequest/relay/internal/repositories"
	"github.com/pushrequest/relay/internal/services"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Stores
	installationRepo := repositories.NewCachedInstallationRepository(
		repositories.NewPostgresInstallationRepository(postgresPool),
		redisClient,
	)
	userRepo := repositories.NewPostgresUserRepository(postgresPool)

	// Push
	sender, err := push.NewAPNSSender(cfg.APNSAuthKey, cfg.APNSKeyID, cfg.APNSTeamID, cfg.APNSTopic, cfg.APNSProduction)
	if err != nil {
		log.Fatalf("Failed to create APNs sender: %v", err)
	}
	dispatcher := push.NewDispatcher(sender, cfg.PushTimeout)

	// GitHub App API access is optional
	var repoLister services.RepoLister
	if cfg.GitHubAppID != "" && len(cfg.GitHubPrivateKey) > 0 {
		appClient, err := github.NewAppClient(cfg.GitHubAppID, cfg.GitHubPrivateKey)
		if err != nil {
			log.Fatalf("Failed to create GitHub App client: %v", err)
		}
		repoLister = appClient
	} else {
		log.Println("GitHub App credentials not set, authorized-repo refresh disabled")
	}

	// Services and handlers
	webhookService := services.NewWebhookService(installationRepo, userRepo, dispatcher)
	userService := services.NewUserService(userRepo, installationRepo, repoLister)

	webhookHandler := handlers.NewWebhookHandler(webhookService)
	userHandler := handlers.NewUserHandler(userService)
	reposHandler := handlers.NewReposHandler(userService)

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Health check endpoints
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Post("/webhook", webhookHandler.Handle)
	router.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Create)
		r.Get("/", userHandler.Get)
		r.Patch("/", userHandler.Update)
	})
	router.Get("/authorized_repos", reposHandler.List)

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
