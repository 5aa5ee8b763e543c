package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/datascope/internal/auth"
	"github.com/frahmantamala/datascope/internal/company"
	"github.com/frahmantamala/datascope/internal/lead"
	"github.com/frahmantamala/datascope/internal/notification"
	"github.com/frahmantamala/datascope/internal/observability"
	"github.com/frahmantamala/datascope/internal/permission"
	"github.com/frahmantamala/datascope/internal/raffle"
	"github.com/frahmantamala/datascope/internal/survey"
	"github.com/frahmantamala/datascope/internal/transport/middleware"
	"github.com/frahmantamala/datascope/internal/transport/swagger"
	"github.com/frahmantamala/datascope/internal/user"
)

// Handlers groups everything the API mounts. Nil handlers leave their routes unmounted.
type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Authenticator
	Company      *company.Handler
	Guard        *permission.Guard
	Permission   *permission.Handler
	User         *user.Handler
	Lead         *lead.Handler
	Survey       *survey.Handler
	Raffle       *raffle.Handler
	Notification *notification.Handler
}

type Options struct {
	Logger          *slog.Logger
	Metrics         *observability.Metrics
	MetricsPath     string
	OpenAPIPath     string
	AllowedOrigins  []string
	Production      bool
	PublicRateLimit int
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.SecureHeaders(opts.Production, opts.Logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, opts.Metrics.Handler())
	}

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Route("/public", func(pr chi.Router) {
			if opts.PublicRateLimit > 0 {
				pr.Use(middleware.PublicRateLimit(opts.PublicRateLimit))
			}
			if h.Lead != nil {
				pr.Post("/companies/{companyID}/leads", h.Lead.CaptureLead)
			}
			if h.Survey != nil {
				pr.Get("/surveys/{id}", h.Survey.GetPublicSurvey)
				pr.Post("/surveys/{id}/responses", h.Survey.SubmitResponse)
			}
			if h.Raffle != nil {
				pr.Get("/raffles/{id}", h.Raffle.GetPublicRaffle)
				pr.Post("/raffles/{id}/entries", h.Raffle.EnterRaffle)
			}
		})

		if h.Auth == nil {
			return
		}

		r.Group(func(ar chi.Router) {
			ar.Use(h.Auth.Middleware)

			// identity only; the profile resolves its company optionally
			if h.User != nil {
				ar.Get("/users/me", h.User.GetCurrentUser)
				ar.Patch("/users/me", h.User.UpdateCurrentUser)
			}
			if h.Company == nil {
				return
			}
			ar.Get("/companies", h.Company.ListCompanies)

			ar.Group(func(sr chi.Router) {
				sr.Use(h.Company.ScopeMiddleware)
				mountScoped(sr, h)
			})
		})
	})
}

func mountScoped(r chi.Router, h Handlers) {
	g := h.Guard

	if h.Permission != nil {
		r.Get("/permissions/me", h.Permission.Me)
		r.Get("/permissions/check", h.Permission.Check)
		r.Post("/permissions/refresh", h.Permission.Refresh)
		r.With(g.Require(permission.ModuleSettings, permission.View)).Get("/roles/{role}/permissions", h.Permission.ListRole)
		r.With(g.Require(permission.ModuleSettings, permission.Edit)).Put("/roles/{role}/permissions", h.Permission.UpdateRole)
	}

	if h.Lead != nil {
		r.Route("/leads", func(lr chi.Router) {
			lr.With(g.Require(permission.ModuleLeads, permission.Create)).Post("/", h.Lead.CreateLead)
			lr.With(g.Require(permission.ModuleLeads, permission.View)).Get("/", h.Lead.ListLeads)
			lr.With(g.Require(permission.ModuleDashboard, permission.View)).Get("/stats", h.Lead.Stats)
			lr.With(g.Require(permission.ModuleLeads, permission.Export)).Get("/export", h.Lead.Export)
			lr.With(g.Require(permission.ModuleLeads, permission.Create)).Post("/import", h.Lead.Import)
			lr.With(g.Require(permission.ModuleLeads, permission.View)).Get("/{id}", h.Lead.GetLead)
			lr.With(g.Require(permission.ModuleLeads, permission.Edit)).Patch("/{id}", h.Lead.UpdateLead)
			lr.With(g.Require(permission.ModuleLeads, permission.Edit)).Patch("/{id}/status", h.Lead.ChangeStatus)
			lr.With(g.Require(permission.ModuleLeads, permission.Delete)).Delete("/{id}", h.Lead.DeleteLead)
		})
	}

	if h.Survey != nil {
		r.Route("/surveys", func(sr chi.Router) {
			sr.With(g.Require(permission.ModuleSurveys, permission.Create)).Post("/", h.Survey.CreateSurvey)
			sr.With(g.Require(permission.ModuleSurveys, permission.View)).Get("/", h.Survey.ListSurveys)
			sr.With(g.Require(permission.ModuleSurveys, permission.View)).Get("/{id}", h.Survey.GetSurvey)
			sr.With(g.Require(permission.ModuleSurveys, permission.View)).Get("/{id}/responses", h.Survey.ListResponses)
			sr.With(g.Require(permission.ModuleSurveys, permission.Edit)).Post("/{id}/deactivate", h.Survey.DeactivateSurvey)
		})
	}

	if h.Raffle != nil {
		r.Route("/raffles", func(rr chi.Router) {
			rr.With(g.Require(permission.ModuleRaffles, permission.Create)).Post("/", h.Raffle.CreateRaffle)
			rr.With(g.Require(permission.ModuleRaffles, permission.View)).Get("/", h.Raffle.ListRaffles)
			rr.With(g.Require(permission.ModuleRaffles, permission.View)).Get("/{id}", h.Raffle.GetRaffle)
			rr.With(g.Require(permission.ModuleRaffles, permission.View)).Get("/{id}/entries", h.Raffle.ListEntries)
			rr.With(g.Require(permission.ModuleRaffles, permission.Edit)).Post("/{id}/close", h.Raffle.CloseRaffle)
			rr.With(g.Require(permission.ModuleRaffles, permission.Draw)).Post("/{id}/draw", h.Raffle.DrawRaffle)
		})
	}

	if h.Notification != nil {
		r.Route("/notifications", func(nr chi.Router) {
			nr.Use(g.Require(permission.ModuleNotifications, permission.View))
			nr.Get("/", h.Notification.List)
			nr.Get("/unread-count", h.Notification.UnreadCount)
			nr.Patch("/{id}/read", h.Notification.MarkRead)
			nr.Post("/read-all", h.Notification.MarkAllRead)
			nr.With(g.Require(permission.ModuleNotifications, permission.Delete)).Delete("/{id}", h.Notification.Delete)
		})
	}
}
