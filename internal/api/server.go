package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"careercraft/internal/config"
	"careercraft/internal/domain"
	"careercraft/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services are the application services the HTTP API exposes.
type Services struct {
	Consultations *service.ConsultationService
	Registrations *service.RegistrationService
	Media         *service.MediaService
	Content       *service.ContentService
	Throttle      domain.Throttle
}

// HTTPServer serves the public and admin REST API.
type HTTPServer struct {
	cfg       *config.Config
	svc       Services
	auth      *HTTPAuth
	limiter   *rateLimiter
	maxUpload int64
	server    *http.Server
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewHTTPServer(cfg *config.Config, svc Services, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		cfg:       cfg,
		svc:       svc,
		auth:      NewHTTPAuth(cfg.API.Auth, logger),
		limiter:   newRateLimiter(cfg.API.RateLimit, cfg.API.Auth.HeaderAPIKey),
		maxUpload: cfg.Storage.MaxUploadBytes(),
		logger:    logger,
		now:       time.Now,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.API.HTTP.ReadTimeout,
		WriteTimeout:      cfg.API.HTTP.WriteTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, domain.KindNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, domain.KindValidation, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	booking := s.cfg.Booking
	admin := s.auth.Require

	r.Route("/api", func(r chi.Router) {
		r.Route("/consultations", func(r chi.Router) {
			r.With(submissionThrottle(s.svc.Throttle, "consultation", booking.ThrottleLimit, booking.ThrottleWindow, s.logger)).
				Post("/", s.handleCreateConsultation)

			r.Group(func(r chi.Router) {
				r.Use(admin(PermConsultations))
				r.Get("/", s.handleListConsultations)
				r.Get("/export", s.handleExportConsultations)
				r.Get("/{id}", s.handleGetConsultation)
				r.Put("/{id}/status", s.handleUpdateConsultationStatus)
				r.Patch("/{id}/status", s.handleUpdateConsultationStatus)
			})
		})

		r.Route("/registrations", func(r chi.Router) {
			r.With(submissionThrottle(s.svc.Throttle, "registration", booking.ThrottleLimit, booking.ThrottleWindow, s.logger)).
				Post("/", s.handleCreateRegistration)

			r.Group(func(r chi.Router) {
				r.Use(admin(PermRegistrations))
				r.Get("/", s.handleListRegistrations)
				r.Get("/export", s.handleExportRegistrations)
				r.Get("/{id}", s.handleGetRegistration)
				r.Get("/{id}/cv", s.handleDownloadCV)
				r.Delete("/{id}", s.handleDeleteRegistration)
			})
		})

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", s.handleListPartners)
			r.Get("/{id}/logo", s.handlePartnerLogo)
			r.Group(func(r chi.Router) {
				r.Use(admin(PermContent))
				r.Post("/", s.handleCreatePartner)
				r.Put("/{id}", s.handleUpdatePartner)
				r.Delete("/{id}", s.handleDeletePartner)
			})
		})

		r.Route("/success-stories", func(r chi.Router) {
			r.Get("/", s.handleListStories)
			r.Get("/{id}", s.handleGetStory)
			r.Get("/{id}/image", s.handleStoryImage)
			r.Group(func(r chi.Router) {
				r.Use(admin(PermContent))
				r.Post("/", s.handleCreateStory)
				r.Put("/{id}", s.handleUpdateStory)
				r.Delete("/{id}", s.handleDeleteStory)
			})
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.handleListCourses)
			r.Get("/{id}", s.handleGetCourse)
			r.Group(func(r chi.Router) {
				r.Use(admin(PermContent))
				r.Post("/", s.handleCreateCourse)
				r.Put("/{id}", s.handleUpdateCourse)
				r.Delete("/{id}", s.handleDeleteCourse)
			})
		})

		r.Route("/faqs", func(r chi.Router) {
			r.Get("/", s.handleListFAQs)
			r.Get("/{id}", s.handleGetFAQ)
			r.Group(func(r chi.Router) {
				r.Use(admin(PermContent))
				r.Post("/", s.handleCreateFAQ)
				r.Put("/{id}", s.handleUpdateFAQ)
				r.Delete("/{id}", s.handleDeleteFAQ)
			})
		})

		r.Route("/site-stats", func(r chi.Router) {
			r.Get("/", s.handleGetSiteStats)
			r.With(admin(PermContent)).Post("/", s.handleUpdateSiteStats)
		})
	})

	return r
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeDomainError(w, r, s.logger, err)
}
