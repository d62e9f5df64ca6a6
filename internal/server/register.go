package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"studyportal/internal"
	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Debug("user is already logged in, redirecting to portal")
		http.Redirect(w, r, "/portal", http.StatusSeeOther)
		return
	}

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
	}

	s.render(w, r, "page.register", data)
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/register", "Invalid form payload.")
		return
	}

	var reg types.Registration
	if err := decoder.Decode(&reg, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode registration form")
		s.redirectWithError(w, r, "/register", "Invalid form payload.")
		return
	}
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
	}

	if errs := s.validator.Struct(reg); errs != nil {
		s.logger.WithField("field_errors", errs).Info("validation errors during registration")

		data.FieldErrors = errs
		data.Error = "Please fix the highlighted fields."
		s.render(w, r, "page.register", data)
		return
	}

	err := s.repos.Auth.Register(ctx, &reg)
	if err != nil {
		s.logger.WithError(err).Error("failed to register user")

		_, data.Error = flashFor(err)
		if errors.Is(err, backend.ErrAlreadyExists) {
			data.FieldErrors = map[string]string{"email": "An account with this email already exists."}
			data.Error = "Please fix the highlighted fields."
		}
		s.render(w, r, "page.register", data)
		return
	}

	v := url.Values{}
	v.Set(flashNotice, "Account created. Please sign in.")
	http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
}
