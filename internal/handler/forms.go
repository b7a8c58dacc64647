package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

var validate = newValidator()

// newValidator reports fields by their form tag, so errors line up with input names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	return v
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type threadForm struct {
	Title     string `form:"title" validate:"required"`
	Body      string `form:"body" validate:"required"`
	Subscribe bool
	Preview   bool
}

type postForm struct {
	Body      string `form:"body" validate:"required"`
	Subscribe bool
	Preview   bool
}

func (f postForm) draft() domain.PostDraft {
	return domain.PostDraft{Body: f.Body, Subscribe: f.Subscribe, Preview: f.Preview}
}

func formBool(r *http.Request, name string) bool {
	return r.PostFormValue(name) != ""
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
}

func parseThreadForm(r *http.Request) threadForm {
	return threadForm{
		Title:     strings.TrimSpace(r.PostFormValue("title")),
		Body:      r.PostFormValue("body"),
		Subscribe: formBool(r, "subscribe"),
		Preview:   formBool(r, "preview"),
	}
}

func parsePostForm(r *http.Request) postForm {
	return postForm{
		Body:      r.PostFormValue("body"),
		Subscribe: formBool(r, "subscribe"),
		Preview:   formBool(r, "preview"),
	}
}

// validateForm checks the struct tags of form.
func validateForm(form any) *internal_errors.ValidationError {
	verr := &internal_errors.ValidationError{}
	err := validate.Struct(form)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("form", "Invalid form")
		return verr
	}
	for _, fe := range fieldErrs {
		name := fe.Field()
		switch fe.Tag() {
		case "required":
			verr.Add(name, "This field is required")
		default:
			verr.Add(name, "Invalid value")
		}
	}
	return verr
}

// formErrors unwraps field errors from a service error; ok is false for any other error.
func formErrors(err error) (map[string]string, bool) {
	var verr *internal_errors.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// parseIds reads every value of a repeated integer field, skipping garbage.
func parseIds(values []string) []domain.ThreadId {
	ids := make([]domain.ThreadId, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// safeNext accepts only same-site relative paths as a redirect target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
