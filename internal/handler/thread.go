package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

type threadPageData struct {
	Thread *domain.ThreadView
}

// idParam reads a numeric URL parameter; anything else is NotFound.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, internal_errors.NotFound("Page not found")
	}
	return id, nil
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	view, err := h.thread.View(r.Context(), mw.GetUserFromContext(r), id, page)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "thread.html", threadPageData{Thread: view})
}

func (h *Handler) ToggleSticky(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "sticky", h.thread.ToggleSticky)
}

func (h *Handler) ToggleClosed(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "closed", h.thread.ToggleClosed)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, flag string, fn func(context.Context, domain.ThreadId) (bool, error)) {
	id, err := idParam(r, "thread")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	value, err := fn(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	logger.Log.Info("thread flag toggled", "thread_id", id, "flag", flag, "value", value, "admin_id", mw.GetUserFromContext(r).Id)

	thread := domain.ThreadMetadata{Id: id}
	http.Redirect(w, r, thread.URL(), http.StatusSeeOther)
}
