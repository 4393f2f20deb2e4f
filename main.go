package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/WanderlustCoder/Bitsy-sub000/modules/api"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/server"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/session"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Pixel Collab - collaborative canvas server ===")

	collabAddr := envOr("COLLAB_ADDR", ":8765")
	apiAddr := ":" + envOr("PORT", "3000")
	width := envIntOr("CANVAS_WIDTH", 32)
	height := envIntOr("CANVAS_HEIGHT", 32)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	sessionModule := session.NewModule(width, height)
	serverModule := server.NewModule(collabAddr, sessionModule.Session())
	apiModule := api.NewModule(apiAddr, sessionModule.Session())

	// Order: session first (event emitter), then the consumers/adapters.
	app.Register(sessionModule)
	app.Register(serverModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(collabAddr, apiAddr, width, height)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(collabAddr, apiAddr string, width, height int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Collab protocol (TCP, length-prefixed frames): %s", collabAddr)
	log.Printf("Canvas: %dx%d", width, height)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", apiAddr)
	log.Println("  GET /health           - Health check")
	log.Println("  GET /api/v1/session   - Session metadata and users")
	log.Println("  GET /api/v1/canvas    - Sparse canvas state")
	log.Println("  GET /api/v1/chat      - Chat history")
	log.Println("  GET /api/v1/activity  - Collab event feed")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}
