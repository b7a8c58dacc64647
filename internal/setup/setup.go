package setup

import (
	"time"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/email"
	"github.com/itchan-dev/forum/internal/handler"
	"github.com/itchan-dev/forum/internal/jwt"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/markdown"
	mw "github.com/itchan-dev/forum/internal/middleware"
	"github.com/itchan-dev/forum/internal/middleware/ratelimiter"
	"github.com/itchan-dev/forum/internal/service"
	"github.com/itchan-dev/forum/internal/storage/pg"
)

// rateLimiterExpiration is how long an idle user's bucket is kept.
const rateLimiterExpiration = time.Hour

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config      *config.Config
	Storage     *pg.Storage
	Handler     *handler.Handler
	Auth        *mw.Auth
	Notifier    *service.Notifier
	RateLimiter *ratelimiter.UserRateLimiter
}

// SetupDependencies initializes all dependencies required for the server.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	public := &cfg.Public
	text := markdown.New()
	mailer := email.New(&cfg.Private.Email, cfg.Sender())
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	notifier := service.NewNotifier(storage, mailer, text, public, cfg.Sender())
	forum := service.NewForum(storage, public)
	services := handler.Services{
		Forum:        forum,
		Thread:       service.NewThread(storage, forum, public),
		Post:         service.NewPost(storage, forum, text, notifier, public),
		Subscription: service.NewSubscription(storage),
		Auth:         service.NewAuth(storage, jwtService),
		Syndication:  service.NewSyndication(storage, forum, public),
		Health:       storage,
	}
	h := handler.New(handler.MustLoadTemplates(text), cfg.Public, services, text)

	return &Dependencies{
		Config:      cfg,
		Storage:     storage,
		Handler:     h,
		Auth:        mw.NewAuth(jwtService, public.SecureCookies),
		Notifier:    notifier,
		RateLimiter: ratelimiter.NewUserRateLimiter(public.PostRateInterval, public.PostRateBurst, rateLimiterExpiration),
	}, nil
}

// Close waits for pending notifications, then releases the database.
func (d *Dependencies) Close() {
	d.Notifier.Close()
	if err := d.Storage.Cleanup(); err != nil {
		logger.Log.Error("failed to close storage", "error", err)
	}
}
