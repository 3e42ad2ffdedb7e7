package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/metrics"
	appMiddleware "github.com/devotee-memorial/backend/internal/middleware"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
)

type RouterConfig struct {
	Profiles  *ProfileHandler
	Offerings *OfferingHandler
	Auth      *AuthHandler

	AuthService    *services.AuthService
	AllowedOrigins []string
	// UploadDir is served under /uploads/ when set.
	UploadDir string
	Log       *logrus.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appMiddleware.RequestLogger(cfg.Log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "ok"}))
	})
	r.Handle("/metrics", metrics.Handler())

	authenticate := appMiddleware.Authenticate(cfg.AuthService)
	require := func(c models.Capability) func(http.Handler) http.Handler {
		return appMiddleware.RequireCapability(cfg.AuthService.Policy(), c)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", cfg.Auth.Login)
			r.With(authenticate).Get("/check", cfg.Auth.Check)
		})

		r.Get("/accepted/profiles", cfg.Profiles.ListAcceptedCards)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", cfg.Profiles.ListAccepted)
			r.Post("/", cfg.Profiles.CreateProfile)

			r.With(authenticate, require(models.CapReviewProfiles)).Get("/pending", cfg.Profiles.ListPending)
			r.With(authenticate, require(models.CapReviewProfiles)).Get("/declined", cfg.Profiles.ListDeclined)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Profiles.GetProfile)
				r.Patch("/achievement", cfg.Profiles.AddAchievement)
				r.Patch("/timeline", cfg.Profiles.AddTimeline)
				r.With(authenticate, require(models.CapModerateProfiles)).Patch("/status", cfg.Profiles.UpdateStatus)
				r.With(authenticate, require(models.CapDeleteProfiles)).Delete("/", cfg.Profiles.DeleteProfile)
			})
		})

		r.Route("/offerings", func(r chi.Router) {
			r.Post("/", cfg.Offerings.CreateOffering)
			r.Get("/profile/{profileId}", cfg.Offerings.ListByProfile)
		})
	})

	if cfg.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	return r
}
