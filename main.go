package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/audioscribe/backend/internal/api"
	"github.com/audioscribe/backend/internal/auth"
	"github.com/audioscribe/backend/internal/config"
	"github.com/audioscribe/backend/internal/db"
	"github.com/audioscribe/backend/internal/job"
	"github.com/audioscribe/backend/internal/transcribe"
)

func main() {
	cfg := config.Load()

	// Ensure data directories exist
	os.MkdirAll(cfg.DataPath, 0755)
	os.MkdirAll(cfg.UploadPath, 0755)
	os.MkdirAll(cfg.SubtitlePath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Job queue and transcription service
	jobQueue := job.NewJobQueue(database.DB())
	defer jobQueue.Stop()

	gemini := transcribe.NewGeminiTranscriber(cfg.GeminiAPIKey,
		func() string { return database.GetSetting("gemini_model", cfg.GeminiModel) },
		func() string { return database.GetSetting("gemini_api_key", "") },
	)
	transcribeService := transcribe.NewService(cfg.UploadPath, cfg.SubtitlePath, database)
	transcribeService.RegisterEngine(gemini)
	jobQueue.RegisterHandler(job.JobTranscribe, transcribeService.HandleJob)

	// Create router
	router := api.NewRouter(database, jwtService, cfg, jobQueue)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Upload path: %s", cfg.UploadPath)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		jobQueue.Stop()
		database.Close()
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
