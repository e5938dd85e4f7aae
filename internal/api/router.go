package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/audioscribe/backend/internal/api/handlers"
	"github.com/audioscribe/backend/internal/api/middleware"
	"github.com/audioscribe/backend/internal/auth"
	"github.com/audioscribe/backend/internal/config"
	"github.com/audioscribe/backend/internal/db"
	"github.com/audioscribe/backend/internal/job"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, jobQueue *job.JobQueue) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	transcriptionHandler := handlers.NewTranscriptionHandler(database, jobQueue,
		cfg.UploadPath, cfg.SubtitlePath, cfg.MaxUploadMB<<20)
	jobHandler := handlers.NewJobHandler(jobQueue)
	settingsHandler := handlers.NewSettingsHandler(database)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		// Auth (public, rate limited)
		r.With(loginLimiter.Handler, middleware.MaxBodySize(1<<20)).
			Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Auth
			r.Get("/auth/me", authHandler.Me)

			// Transcriptions
			r.Post("/transcriptions", transcriptionHandler.Create)
			r.Get("/transcriptions", transcriptionHandler.List)
			r.Get("/transcriptions/{id}", transcriptionHandler.Get)
			r.Delete("/transcriptions/{id}", transcriptionHandler.Delete)
			r.Get("/transcriptions/{id}/srt", transcriptionHandler.DownloadSRT)
			r.Get("/transcriptions/{id}/vtt", transcriptionHandler.PreviewVTT)

			// Queue management and settings (admin only)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Get("/jobs", jobHandler.ListJobs)
				r.Get("/jobs/{id}", jobHandler.GetJob)
				r.Post("/jobs/{id}/retry", jobHandler.RetryJob)
				r.Delete("/jobs/{id}", jobHandler.CancelJob)

				r.With(middleware.MaxBodySize(1 << 20)).Put("/settings", settingsHandler.UpdateSettings)
				r.Get("/settings", settingsHandler.GetSettings)
			})
		})
	})

	return r
}
