package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	Error     string
	User      *domain.User
	CSRFToken string // CSRF token for form submissions
	SiteName  string
	Path      string // current request URI, used as the login "next" target
}

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

// FormData is shared by every page holding a submission form.
type FormData struct {
	Values map[string]string
	Errors map[string]string
}

func (h *Handler) initCommonTemplateData(r *http.Request) CommonTemplateData {
	return CommonTemplateData{
		User:      mw.GetUserFromContext(r),
		CSRFToken: mw.GetCSRFTokenFromContext(r),
		SiteName:  h.Public.SiteName,
		Path:      r.URL.RequestURI(),
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateStatus(w, r, http.StatusOK, name, data, "")
}

func (h *Handler) renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any, errMsg string) {
	tmpl, ok := h.Templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(r)
	common.Error = errMsg

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: common}); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPageData struct {
	Status  int
	Title   string
	Message string
}

// renderError shows the error page for err. Missing and forbidden objects
// share the same "not found" page; only the status differs.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := internal_errors.StatusCode(err)
	data := errorPageData{Status: status, Message: err.Error()}
	switch status {
	case http.StatusNotFound, http.StatusForbidden:
		data.Title = "Page not found"
	case http.StatusConflict:
		data.Title = "This action is not possible"
	case http.StatusBadRequest:
		data.Title = "Bad request"
	case http.StatusInternalServerError:
		logger.Log.Error("request failed", "path", r.URL.Path, "error", err)
		data.Title = "Server error"
		data.Message = "Something went wrong. Please try again later."
	default:
		data.Title = http.StatusText(status)
	}
	h.renderTemplateStatus(w, r, status, "error.html", data, "")
}

// checkNotModified handles HTTP conditional GET requests using Last-Modified/If-Modified-Since.
// Returns true if a 304 Not Modified response was sent (caller should return early).
func checkNotModified(w http.ResponseWriter, r *http.Request, lastModified time.Time) bool {
	if lastModified.IsZero() {
		return false
	}
	lastModified = lastModified.UTC().Truncate(time.Second)

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Vary", "Cookie")
	w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))

	if ifModifiedSince := r.Header.Get("If-Modified-Since"); ifModifiedSince != "" {
		if t, err := http.ParseTime(ifModifiedSince); err == nil {
			if !lastModified.After(t.UTC().Truncate(time.Second)) {
				w.WriteHeader(http.StatusNotModified)
				return true
			}
		}
	}
	return false
}

// pageParam reads ?page=; a missing value is page 1, anything unparsable is NotFound.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, internal_errors.NotFound("Page not found")
	}
	return page, nil
}

func markdownFunc(renderer Renderer) func(string) template.HTML {
	return func(body string) template.HTML {
		return template.HTML(renderer.Render(body))
	}
}
