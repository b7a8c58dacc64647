package handler

import (
	"html/template"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/feed"
	"github.com/itchan-dev/forum/internal/service"
)

type Renderer interface {
	Render(body string) string
}

type Handler struct {
	Templates map[string]*template.Template
	Public    config.Public

	forum        service.ForumService
	thread       service.ThreadService
	post         service.PostService
	subscription service.SubscriptionService
	auth         service.AuthService
	syndication  service.SyndicationService
	health       HealthChecker
	renderer     Renderer
	feeds        *feed.Builder
}

// Services groups what the handlers call into.
type Services struct {
	Forum        service.ForumService
	Thread       service.ThreadService
	Post         service.PostService
	Subscription service.SubscriptionService
	Auth         service.AuthService
	Syndication  service.SyndicationService
	Health       HealthChecker
}

func New(templates map[string]*template.Template, publicCfg config.Public, services Services, renderer Renderer) *Handler {
	return &Handler{
		Templates:    templates,
		Public:       publicCfg,
		forum:        services.Forum,
		thread:       services.Thread,
		post:         services.Post,
		subscription: services.Subscription,
		auth:         services.Auth,
		syndication:  services.Syndication,
		health:       services.Health,
		renderer:     renderer,
		feeds:        feed.New(publicCfg.SiteURL, publicCfg.SiteName, renderer),
	}
}
