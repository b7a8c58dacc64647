package handler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/sitemap"
)

func (h *Handler) SitemapIndex(w http.ResponseWriter, r *http.Request) {
	h.writeSitemap(w, r, sitemap.New(h.Public.SiteURL).Index())
}

// SitemapSection lists what an anonymous visitor can see in one section.
func (h *Handler) SitemapSection(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if !sitemap.IsSection(section) {
		h.writePlainError(w, r, internal_errors.NotFound("Sitemap not found"))
		return
	}

	b := sitemap.New(h.Public.SiteURL)
	ctx := r.Context()
	switch section {
	case "forums":
		forums, err := h.syndication.PublicForums(ctx)
		if err != nil {
			h.writePlainError(w, r, err)
			return
		}
		for _, f := range forums {
			b.Add(f.URL(), f.LastPostAt.Time)
		}
	case "threads":
		threads, err := h.syndication.PublicThreads(ctx)
		if err != nil {
			h.writePlainError(w, r, err)
			return
		}
		for _, t := range threads {
			b.Add(t.URL(), t.LastPostAt)
		}
	case "posts":
		posts, err := h.syndication.PublicPosts(ctx)
		if err != nil {
			h.writePlainError(w, r, err)
			return
		}
		for _, p := range posts {
			lastMod := p.CreatedAt
			if p.ModifiedAt.Valid {
				lastMod = p.ModifiedAt.Time
			}
			b.Add(p.URL(), lastMod)
		}
	}
	h.writeSitemap(w, r, b.URLSet())
}

func (h *Handler) writeSitemap(w http.ResponseWriter, r *http.Request, doc any) {
	var buf bytes.Buffer
	if err := sitemap.Write(&buf, doc); err != nil {
		logger.Log.Error("failed to write sitemap", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
