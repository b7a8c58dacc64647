package handler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/feed"
	"github.com/itchan-dev/forum/internal/logger"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

func feedFormat(r *http.Request) (feed.Format, error) {
	format, ok := feed.ParseFormat(chi.URLParam(r, "format"))
	if !ok {
		return "", internal_errors.NotFound("Feed not found")
	}
	return format, nil
}

// LatestThreadsFeed serves /rss/ and /atom/ and their forum variants
// /rss/<slugs>/ and /atom/<slugs>/.
func (h *Handler) LatestThreadsFeed(w http.ResponseWriter, r *http.Request) {
	format, err := feedFormat(r)
	if err != nil {
		h.writePlainError(w, r, err)
		return
	}
	user := mw.GetUserFromContext(r)

	var forum *domain.Forum
	if rest := chi.URLParam(r, "*"); rest != "" {
		slugs, ok := splitPath(rest)
		if !ok {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		if forum, err = h.forum.Resolve(r.Context(), user, slugs); err != nil {
			h.writePlainError(w, r, err)
			return
		}
	}

	threads, err := h.syndication.RecentThreads(r.Context(), user, forum)
	if err != nil {
		h.writePlainError(w, r, err)
		return
	}
	h.writeFeed(w, r, h.feeds.Threads(forum, threads), format)
}

// ThreadFeed serves the latest posts of one thread.
func (h *Handler) ThreadFeed(w http.ResponseWriter, r *http.Request) {
	format, err := feedFormat(r)
	if err != nil {
		h.writePlainError(w, r, err)
		return
	}
	id, err := idParam(r, "thread")
	if err != nil {
		h.writePlainError(w, r, err)
		return
	}
	thread, posts, err := h.syndication.RecentPosts(r.Context(), mw.GetUserFromContext(r), id)
	if err != nil {
		h.writePlainError(w, r, err)
		return
	}
	h.writeFeed(w, r, h.feeds.Posts(thread, posts), format)
}

func (h *Handler) writeFeed(w http.ResponseWriter, r *http.Request, f *feeds.Feed, format feed.Format) {
	if checkNotModified(w, r, f.Updated) {
		return
	}
	var buf bytes.Buffer
	if err := feed.Write(&buf, f, format); err != nil {
		logger.Log.Error("failed to write feed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = buf.WriteTo(w)
}

// writePlainError answers feed readers and crawlers in plain text rather than an HTML page.
func (h *Handler) writePlainError(w http.ResponseWriter, r *http.Request, err error) {
	status := internal_errors.StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("feed failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal error", status)
		return
	}
	if status == http.StatusForbidden {
		status = http.StatusNotFound
	}
	http.Error(w, http.StatusText(status), status)
}
