package handler

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/internal/domain"
	mw "github.com/itchan-dev/forum/internal/middleware"
	"github.com/itchan-dev/forum/internal/service"
)

type indexPageData struct {
	Forums []*domain.Forum
}

type forumPageData struct {
	Forum   *domain.Forum
	Threads domain.Page[domain.ThreadMetadata]
}

type newThreadPageData struct {
	Forum       *domain.Forum
	Form        FormData
	Subscribe   bool
	Preview     template.HTML
	TitleMaxLen int
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	forums, err := h.forum.List(r.Context(), mw.GetUserFromContext(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "index.html", indexPageData{Forums: forums})
}

// splitPath turns "general/offtopic/" into its slugs. ok is false when the
// trailing slash is missing.
func splitPath(raw string) (slugs []domain.ForumSlug, ok bool) {
	if !strings.HasSuffix(raw, "/") {
		return nil, false
	}
	for _, s := range strings.Split(raw, "/") {
		if s != "" {
			slugs = append(slugs, s)
		}
	}
	return slugs, true
}

// Forum serves every nested forum URL: /<slugs>/ lists threads and
// /<slugs>/new/ is the new-thread form.
func (h *Handler) Forum(w http.ResponseWriter, r *http.Request) {
	slugs, ok := splitPath(chi.URLParam(r, "*"))
	if !ok {
		if r.Method == http.MethodGet {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		http.NotFound(w, r)
		return
	}

	newThread := len(slugs) > 1 && slugs[len(slugs)-1] == service.NewThreadSlug
	if newThread {
		slugs = slugs[:len(slugs)-1]
	}

	user := mw.GetUserFromContext(r)
	forum, err := h.forum.Resolve(r.Context(), user, slugs)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	switch {
	case newThread && user == nil:
		http.Redirect(w, r, mw.LoginURL+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
	case newThread && r.Method == http.MethodPost:
		h.createThread(w, r, user, forum)
	case newThread:
		h.renderTemplate(w, r, "newthread.html", newThreadPageData{Forum: forum, Subscribe: true, TitleMaxLen: h.Public.ThreadTitleMaxLen})
	case r.Method != http.MethodGet && r.Method != http.MethodHead:
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		h.listThreads(w, r, forum)
	}
}

func (h *Handler) listThreads(w http.ResponseWriter, r *http.Request, forum *domain.Forum) {
	page, err := pageParam(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	threads, err := h.forum.Threads(r.Context(), forum, page)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, "forum.html", forumPageData{Forum: forum, Threads: threads})
}

func (h *Handler) createThread(w http.ResponseWriter, r *http.Request, user *domain.User, forum *domain.Forum) {
	form := parseThreadForm(r)
	data := newThreadPageData{
		Forum:       forum,
		Form:        FormData{Values: map[string]string{"title": form.Title, "body": form.Body}},
		Subscribe:   form.Subscribe,
		TitleMaxLen: h.Public.ThreadTitleMaxLen,
	}

	if verr := validateForm(form); verr.OrNil() != nil {
		data.Form.Errors = verr.Fields
		h.renderTemplateStatus(w, r, http.StatusBadRequest, "newthread.html", data, "")
		return
	}
	if form.Preview {
		data.Preview = markdownFunc(h.renderer)(form.Body)
		h.renderTemplate(w, r, "newthread.html", data)
		return
	}

	id, err := h.thread.Create(r.Context(), forum, domain.ThreadCreationData{
		Forum:     forum.Id,
		Title:     form.Title,
		Author:    *user,
		Body:      form.Body,
		Subscribe: form.Subscribe,
	})
	if err != nil {
		if fields, ok := formErrors(err); ok {
			data.Form.Errors = fields
			h.renderTemplateStatus(w, r, http.StatusBadRequest, "newthread.html", data, "")
			return
		}
		h.renderError(w, r, err)
		return
	}
	thread := domain.ThreadMetadata{Id: id}
	http.Redirect(w, r, thread.URL(), http.StatusSeeOther)
}
