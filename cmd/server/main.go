package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"

	"github.com/jurishub/chatclient/api/handlers"
	"github.com/jurishub/chatclient/internal/db"
	"github.com/jurishub/chatclient/internal/repository"
	"github.com/jurishub/chatclient/internal/server"
)

// config holds the server configuration, parsed from the environment.
type config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	DBPath       string        `env:"DB_PATH" envDefault:"data/sessions.db"`
	AIThinkDelay time.Duration `env:"AI_THINK_DELAY" envDefault:"300ms"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	sessionRepo := repository.NewSessionRepository(database)

	ai := server.NewAIResponder()
	ai.ThinkDelay = cfg.AIThinkDelay

	rooms := server.NewRoomManager(ai)
	defer rooms.Close()

	sessionHandler := handlers.NewSessionHandler(sessionRepo)
	wsHandler := handlers.NewWebSocketHandler(sessionRepo, rooms)

	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		sessionHandler.RegisterRoutes(api)
	}

	ws := r.Group("/ws")
	{
		wsHandler.RegisterRoutes(ws)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		rooms.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
