package handler

import (
	"net/http"

	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

type loginPageData struct {
	Form FormData
	Next string
}

func (h *Handler) LoginGet(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if mw.GetUserFromContext(r) != nil {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	h.renderTemplate(w, r, "login.html", loginPageData{Next: next})
}

func (h *Handler) LoginPost(w http.ResponseWriter, r *http.Request) {
	form := parseLoginForm(r)
	data := loginPageData{
		Form: FormData{Values: map[string]string{"username": form.Username}},
		Next: safeNext(r.PostFormValue("next")),
	}
	if verr := validateForm(form); verr.OrNil() != nil {
		data.Form.Errors = verr.Fields
		h.renderTemplateStatus(w, r, http.StatusBadRequest, "login.html", data, "")
		return
	}

	token, err := h.auth.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		status := internal_errors.StatusCode(err)
		if status == http.StatusInternalServerError {
			h.renderError(w, r, err)
			return
		}
		logger.Log.Info("failed login", "username", form.Username)
		h.renderTemplateStatus(w, r, status, "login.html", data, err.Error())
		return
	}

	mw.SetAccessToken(w, token, int(h.Public.JwtTTL.Seconds()), h.Public.SecureCookies)
	http.Redirect(w, r, data.Next, http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	mw.ClearAccessToken(w, h.Public.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
