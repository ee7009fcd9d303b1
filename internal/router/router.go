// Package router wires every HTTP route. Rate limiters attached with
// Use limit all endpoints of that group combined.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/middleware/metrics"
	rl "github.com/kep-app/kep/internal/middleware/ratelimiter"
	"github.com/kep-app/kep/internal/setup"
)

func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	authMw := deps.Auth

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.Config.Public.StaticDir))))

	// HTML pages
	r.Group(func(r chi.Router) {
		r.Use(authMw.OptionalAuth())
		r.Get("/", h.IndexPage)
		r.Get("/groups", h.GroupsPage)
		r.Get("/export", h.ExportCurrent)
		r.Get("/login", h.LoginPage)
		r.With(mw.RateLimit(rl.OnceInSecond(), mw.GetIP)).Post("/login", h.LoginForm)
		r.Post("/generate", h.GenerateForm)
	})
	r.Group(func(r chi.Router) {
		r.Use(authMw.NeedAuth())
		r.Post("/logout", h.LogoutForm)
		// SubmitItemForm: 1 per second per pubkey
		r.With(mw.RateLimit(rl.OnceInSecond(), mw.GetPubkeyFromContext)).Post("/submit", h.SubmitItemForm)
		r.Get("/settings", h.SettingsPage)
		r.Post("/settings", h.SettingsForm)
	})
	r.Group(func(r chi.Router) {
		r.Use(authMw.AdminOnly())
		r.Get("/admin", h.AdminPage)
		r.Post("/admin", h.AdminConfigForm)
		r.Post("/admin/thread", h.ThreadForm)
		r.Post("/moderate", h.ModerateItemForm)
	})

	// JSON API
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMw.OptionalAuth())
			r.Get("/thread", h.GetCurrentThread)
			r.Get("/thread/{thread}/items", h.ListItems)
			r.Get("/thread/{thread}/groups", h.GroupedItems)
			r.Get("/thread/{thread}/export", h.ExportAgenda)
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(mw.RateLimit(rl.OnceInSecond(), mw.GetIP)).Post("/login", h.Login)
			r.With(mw.RateLimit(rl.New(1.0/10, 1, time.Hour), mw.GetIP)).Post("/generate", h.GenerateKeypair)
			r.With(authMw.OptionalAuth()).Post("/logout", h.Logout)
			r.With(authMw.NeedAuth()).Get("/whoami", h.Whoami)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw.NeedAuth())
			r.Use(mw.RateLimit(rl.Rps10(), mw.GetPubkeyFromContext))
			r.Post("/thread/{thread}/items", h.SubmitItem)
			r.Get("/preferences", h.GetPreferences)
			r.Put("/preferences", h.SavePreferences)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw.AdminOnly())
			r.Post("/thread", h.CreateThread)
			r.Patch("/thread/{thread}", h.UpdateThread)
			r.Patch("/thread/{thread}/items/{item}", h.UpdateItem)
			r.Get("/admin/config", h.GetAdminConfig)
			r.Put("/admin/config", h.SaveAdminConfig)
		})
	})

	return r
}
