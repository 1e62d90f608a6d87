package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/talkwave-app/talkwave-backend/internal/auth"
	"github.com/talkwave-app/talkwave-backend/internal/config"
	"github.com/talkwave-app/talkwave-backend/internal/database"
	"github.com/talkwave-app/talkwave-backend/internal/handlers"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
	"github.com/talkwave-app/talkwave-backend/internal/routes"
	"github.com/talkwave-app/talkwave-backend/internal/services"
	"github.com/talkwave-app/talkwave-backend/internal/store"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer database.Disconnect(client)
	db := client.Database(cfg.MongoDatabase)
	log.Println("Connected to MongoDB")

	// Redis is optional: without it realtime events stay instance-local
	log.Printf("Connecting to Redis...")
	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		log.Printf("Warning: Redis unavailable (%v); realtime events will not cross instances", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Connected to Redis")
	}

	// Stores and indexes
	userStore := store.NewUserStore(db)
	chatStore := store.NewChatStore(db)
	messageStore := store.NewMessageStore(db)
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Printf("Warning: failed to ensure user indexes: %v", err)
	}
	if err := messageStore.EnsureIndexes(ctx); err != nil {
		log.Printf("Warning: failed to ensure message indexes: %v", err)
	}

	// Realtime hub + Redis bridge
	hub := realtime.NewHub(logger)
	bridge := realtime.NewBridge(hub, redisClient, logger)
	bridge.Start(ctx)

	// Services
	tokens := auth.NewJWTManager(cfg.JWTSecret)
	authService := services.NewAuthService(userStore, tokens, logger)
	userService := services.NewUserService(userStore, logger)
	chatService := services.NewChatService(userStore, chatStore, messageStore, bridge, logger)
	messageService := services.NewMessageService(userStore, chatStore, messageStore, store.NewTxRunner(client), bridge, logger)

	var uploadService *services.UploadService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		uploadService, err = services.NewUploadService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: failed to initialize Cloudinary: %v", err)
		} else {
			log.Println("Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Image uploads will not be available")
	}

	api := &handlers.API{
		Auth:     authService,
		Users:    userService,
		Chats:    chatService,
		Messages: messageService,
		Uploads:  uploadService,
		Hub:      hub,
		Bridge:   bridge,
		Tokens:   tokens,
		Logger:   logger,
	}

	// Router
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	routes.SetupRoutes(r, api, tokens)

	log.Printf("talkwave backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
