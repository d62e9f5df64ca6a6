package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"studyportal/internal/backend"
	"studyportal/internal/documents"
	"studyportal/internal/status"
	"studyportal/internal/wizard"
)

const (
	flashNotice  = "notice"
	flashWarning = "warning"
	flashError   = "error"
)

const (
	msgSomethingWrong = "Something went wrong. Please try again."
	msgAlreadyDeleted = "Already deleted"
)

func (s *Service) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Service) redirectWithFlash(w http.ResponseWriter, r *http.Request, path, kind, msg string) {
	v := url.Values{}
	v.Set(kind, msg)

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	http.Redirect(w, r, path+sep+v.Encode(), http.StatusSeeOther)
}

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, path, msg string) {
	s.redirectWithFlash(w, r, path, flashNotice, msg)
}

func (s *Service) redirectWithWarning(w http.ResponseWriter, r *http.Request, path, msg string) {
	s.redirectWithFlash(w, r, path, flashWarning, msg)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	s.redirectWithFlash(w, r, path, flashError, msg)
}

// redirectForError sends the user back to path with the flash that err maps to.
func (s *Service) redirectForError(w http.ResponseWriter, r *http.Request, path string, err error) {
	kind, msg := flashFor(err)
	s.redirectWithFlash(w, r, path, kind, msg)
}

// flashFor maps a handler error onto the message the user sees. Backend
// messages are shown as the backend wrote them.
func flashFor(err error) (kind, msg string) {
	var (
		locked    *status.LockedError
		uploadErr *documents.UploadError
	)

	switch {
	case errors.As(err, &locked):
		return flashWarning, fmt.Sprintf("Editing is disabled while your application is %s.", locked.Label)
	case errors.Is(err, wizard.ErrPersonalInfoRequired), errors.Is(err, documents.ErrNoOwner):
		return flashError, "Please complete your personal information first."
	case errors.Is(err, wizard.ErrAcademicInfoRequired):
		return flashError, "Please complete your academic information first."
	case errors.As(err, &uploadErr):
		return flashError, uploadErr.Message
	case errors.Is(err, backend.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return flashError, msgSomethingWrong
	}

	if m, ok := backend.Message(err); ok {
		return flashError, m
	}
	return flashError, msgSomethingWrong
}
