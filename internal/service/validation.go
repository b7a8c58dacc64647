package service

import (
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/forum/internal/config"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

func validateTitle(verr *internal_errors.ValidationError, cfg *config.Public, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		verr.Add("title", "This field is required")
	case utf8.RuneCountInString(title) > cfg.ThreadTitleMaxLen:
		verr.Add("title", "Title is too long")
	}
}

func validateBody(verr *internal_errors.ValidationError, cfg *config.Public, body string) {
	switch {
	case strings.TrimSpace(body) == "":
		verr.Add("body", "This field is required")
	case utf8.RuneCountInString(body) > cfg.PostBodyMaxLen:
		verr.Add("body", "Text is too long")
	}
}
