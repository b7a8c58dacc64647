package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/forum/internal/handler"
	mw "github.com/itchan-dev/forum/internal/middleware"
	"github.com/itchan-dev/forum/internal/middleware/metrics"
	"github.com/itchan-dev/forum/internal/setup"
)

// New creates and configures the chi router with all the routes.
// Forum pages are matched last, by the catch-all, so every fixed prefix
// here must stay in service.ReservedSlugs.
func New(deps *setup.Dependencies) *chi.Mux {
	h := deps.Handler
	auth := deps.Auth
	public := deps.Config.Public

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Compress(5))
	r.Use(mw.SecurityHeadersWithCSP(public.SecureCookies, mw.DefaultCSP))
	r.Use(auth.OptionalAuth())

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/static/*", handler.Static())

	// Feeds and sitemaps can be fetched from any origin
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
			MaxAge:         300,
		}))
		r.Get("/sitemap.xml", h.SitemapIndex)
		r.Get("/sitemap-{section}.xml", h.SitemapSection)
		r.Get("/{format:(rss|atom)}/thread/{thread}/", h.ThreadFeed)
		r.Get("/{format:(rss|atom)}/*", h.LatestThreadsFeed)
	})

	// HTML pages and forms
	r.Group(func(r chi.Router) {
		r.Use(mw.GenerateCSRFToken(mw.CSRFConfig{SecureCookies: public.SecureCookies}))
		r.Use(mw.ValidateCSRFToken())
		postLimit := mw.RateLimitPosts(deps.RateLimiter)

		r.Get("/", h.Index)
		r.Get("/accounts/login/", h.LoginGet)
		r.Post("/accounts/login/", h.LoginPost)
		r.Post("/accounts/logout/", h.Logout)
		r.Get("/thread/{thread}/", h.GetThread)

		r.Group(func(r chi.Router) {
			r.Use(auth.NeedAuth())
			r.Get("/thread/{thread}/reply/", h.Reply)
			r.With(postLimit).Post("/thread/{thread}/reply/", h.Reply)
			r.Get("/thread/{thread}/post/{post}/edit/", h.EditPost)
			r.Post("/thread/{thread}/post/{post}/edit/", h.EditPost)
			r.Get("/thread/{thread}/post/{post}/delete/", h.DeletePost)
			r.Post("/thread/{thread}/post/{post}/delete/", h.DeletePost)
			r.Get("/subscriptions/", h.GetSubscriptions)
			r.Post("/subscriptions/", h.PostSubscriptions)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminOnly())
			r.Post("/thread/{thread}/sticky", h.ToggleSticky)
			r.Post("/thread/{thread}/close", h.ToggleClosed)
		})

		// Nested forums: /<slug>/.../ and /<slug>/.../new/
		r.Get("/*", h.Forum)
		r.With(postLimit).Post("/*", h.Forum)
	})

	return r
}
