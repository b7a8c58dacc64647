package handler

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/itchan-dev/forum/internal/domain"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

type postFormPageData struct {
	Thread    *domain.Thread
	Post      *domain.Post // nil when replying
	Form      FormData
	Subscribe bool
	Preview   template.HTML
	Action    string
}

type deletePageData struct {
	Post *domain.Post
}

// Reply serves the reply form. A submission is validated and then either
// previewed or stored, depending on the preview button.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	user := mw.GetUserFromContext(r)

	thread, err := h.post.ReplyTarget(r.Context(), user, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := postFormPageData{Thread: thread, Subscribe: true, Action: fmt.Sprintf("/thread/%d/reply/", id)}
	if r.Method != http.MethodPost {
		h.renderTemplate(w, r, "reply.html", data)
		return
	}

	form := parsePostForm(r)
	data.Form.Values = map[string]string{"body": form.Body}
	data.Subscribe = form.Subscribe
	if verr := validateForm(form); verr.OrNil() != nil {
		data.Form.Errors = verr.Fields
		h.renderTemplateStatus(w, r, http.StatusBadRequest, "reply.html", data, "")
		return
	}

	result, err := h.post.Reply(r.Context(), user, id, form.draft())
	if err != nil {
		if fields, ok := formErrors(err); ok {
			data.Form.Errors = fields
			h.renderTemplateStatus(w, r, http.StatusBadRequest, "reply.html", data, "")
			return
		}
		h.renderError(w, r, err)
		return
	}
	if !result.Persisted {
		data.Preview = template.HTML(result.Preview)
		h.renderTemplate(w, r, "reply.html", data)
		return
	}
	http.Redirect(w, r, h.postLocation(thread.PostCount+1, result.Post), http.StatusSeeOther)
}

// postLocation links to the page of the thread holding the post at position n.
func (h *Handler) postLocation(n int, post *domain.Post) string {
	page := domain.Page[*domain.Post]{PerPage: h.Public.PostsPerPage, Total: n}.TotalPages()
	if page <= 1 {
		return post.URL()
	}
	return fmt.Sprintf("/thread/%d/?page=%d#post%d", post.ThreadId, page, post.Id)
}

func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	postId, err := idParam(r, "post")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	user := mw.GetUserFromContext(r)
	action := fmt.Sprintf("/thread/%d/post/%d/edit/", threadId, postId)

	if r.Method != http.MethodPost {
		post, err := h.post.GetOwn(r.Context(), user, threadId, postId)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		thread, err := h.thread.Get(r.Context(), user, threadId)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		h.renderTemplate(w, r, "reply.html", postFormPageData{
			Thread: thread,
			Post:   post,
			Form:   FormData{Values: map[string]string{"body": post.Body}},
			Action: action,
		})
		return
	}

	form := parsePostForm(r)
	data := postFormPageData{
		Form:   FormData{Values: map[string]string{"body": form.Body}},
		Action: action,
	}
	if verr := validateForm(form); verr.OrNil() != nil {
		h.renderEditErrors(w, r, user, threadId, postId, data, verr.Fields)
		return
	}

	result, err := h.post.Edit(r.Context(), user, threadId, postId, form.draft())
	if err != nil {
		if fields, ok := formErrors(err); ok {
			h.renderEditErrors(w, r, user, threadId, postId, data, fields)
			return
		}
		h.renderError(w, r, err)
		return
	}
	if !result.Persisted {
		data.Thread = result.Thread
		data.Post = result.Post
		data.Preview = template.HTML(result.Preview)
		h.renderTemplate(w, r, "reply.html", data)
		return
	}
	http.Redirect(w, r, result.Post.URL(), http.StatusSeeOther)
}

// renderEditErrors re-renders the edit form, loading the post first so a
// stranger still gets NotFound rather than the form.
func (h *Handler) renderEditErrors(w http.ResponseWriter, r *http.Request, user *domain.User, threadId domain.ThreadId, postId domain.PostId, data postFormPageData, fields map[string]string) {
	post, err := h.post.GetOwn(r.Context(), user, threadId, postId)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	thread, err := h.thread.Get(r.Context(), user, threadId)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data.Thread = thread
	data.Post = post
	data.Form.Errors = fields
	h.renderTemplateStatus(w, r, http.StatusBadRequest, "reply.html", data, "")
}

// DeletePost asks for confirmation on GET and deletes on a confirmed POST.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	postId, err := idParam(r, "post")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	confirmed := r.Method == http.MethodPost && formBool(r, "confirm")
	result, err := h.post.Delete(r.Context(), mw.GetUserFromContext(r), threadId, postId, confirmed)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if !result.Deleted {
		h.renderTemplate(w, r, "post_delete.html", deletePageData{Post: result.Post})
		return
	}
	thread := domain.ThreadMetadata{Id: threadId}
	http.Redirect(w, r, thread.URL(), http.StatusSeeOther)
}
