package utils

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/kep-app/kep/internal/errors"
)

// ItemContentValidator checks agenda item submissions.
type ItemContentValidator struct {
	MaxChars int
}

func (v *ItemContentValidator) Content(content string) error {
	if strings.TrimSpace(content) == "" {
		return &errors.ErrorWithStatusCode{Message: "Agenda item can't be empty", StatusCode: http.StatusBadRequest}
	}
	if utf8.RuneCountInString(content) > v.MaxChars {
		return &errors.ErrorWithStatusCode{Message: "Agenda item is too long", StatusCode: http.StatusBadRequest}
	}
	return nil
}

// ThreadTitleValidator checks thread titles.
type ThreadTitleValidator struct{}

func (v *ThreadTitleValidator) Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return &errors.ErrorWithStatusCode{Message: "Thread title can't be empty", StatusCode: http.StatusBadRequest}
	}
	if utf8.RuneCountInString(title) > 200 {
		return &errors.ErrorWithStatusCode{Message: "Thread title is too long", StatusCode: http.StatusBadRequest}
	}
	return nil
}

// RelayURLValidator checks relay endpoints in the admin config form.
type RelayURLValidator struct{}

func (v *RelayURLValidator) URL(url string) error {
	if !strings.HasPrefix(url, "wss://") && !strings.HasPrefix(url, "ws://") {
		return &errors.ErrorWithStatusCode{Message: "Relay must be a ws:// or wss:// URL", StatusCode: http.StatusBadRequest}
	}
	return nil
}
