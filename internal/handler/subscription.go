package handler

import (
	"net/http"

	"github.com/itchan-dev/forum/internal/domain"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

type subscriptionsPageData struct {
	Subscriptions []domain.Subscription
}

func (h *Handler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscription.List(r.Context(), mw.GetUserFromContext(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "subscriptions.html", subscriptionsPageData{Subscriptions: subs})
}

// PostSubscriptions keeps the checked threads and drops every other subscription.
func (h *Handler) PostSubscriptions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	keep := parseIds(r.PostForm["thread"])
	if err := h.subscription.Keep(r.Context(), mw.GetUserFromContext(r), keep); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/subscriptions/", http.StatusSeeOther)
}
