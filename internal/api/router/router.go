// Package router assembles the portal's HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cardialink/portal-api/internal/appointments"
	"github.com/cardialink/portal-api/internal/auth"
	"github.com/cardialink/portal-api/internal/chat"
	"github.com/cardialink/portal-api/internal/doctors"
	"github.com/cardialink/portal-api/internal/files"
	httpmiddleware "github.com/cardialink/portal-api/internal/http/middleware"
	"github.com/cardialink/portal-api/internal/scans"
	"github.com/cardialink/portal-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AuthHandler         *auth.Handler
	SessionValidator    httpmiddleware.SessionValidator
	DoctorsHandler      *doctors.Handler
	FilesHandler        *files.Handler
	ScansHandler        *scans.Handler
	AppointmentsHandler *appointments.Handler
	ChatHandler         *chat.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Post("/auth/register", cfg.AuthHandler.Register)
			public.Post("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.DoctorsHandler != nil {
			public.Mount("/doctors", cfg.DoctorsHandler.Routes())
		}
		if cfg.ScansHandler != nil {
			// Result pages are shareable links; the id is the only capability.
			public.Mount("/results", cfg.ScansHandler.ResultRoutes())
		}
		if cfg.ChatHandler != nil {
			public.Mount("/chat", cfg.ChatHandler.Routes())
		}
	})

	// Session-protected endpoints
	if cfg.SessionValidator != nil {
		r.Group(func(protected chi.Router) {
			protected.Use(httpmiddleware.SessionAuth(cfg.SessionValidator))
			if cfg.AuthHandler != nil {
				protected.Post("/auth/logout", cfg.AuthHandler.Logout)
				protected.Get("/auth/me", cfg.AuthHandler.Me)
				protected.Patch("/auth/me", cfg.AuthHandler.UpdateMe)
			}
			if cfg.FilesHandler != nil {
				protected.Mount("/files", cfg.FilesHandler.Routes())
			}
			if cfg.ScansHandler != nil {
				protected.Mount("/scans", cfg.ScansHandler.SubmitRoutes())
			}
			if cfg.AppointmentsHandler != nil {
				protected.Mount("/appointments", cfg.AppointmentsHandler.Routes())
				protected.Mount("/consultations", cfg.AppointmentsHandler.ConsultationRoutes())
			}
		})
	}

	return r
}
