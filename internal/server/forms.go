package server

import (
	"net/http"
	"strings"

	"studyportal/pkg/types"
)

func (s *Service) handleGetContact(w http.ResponseWriter, r *http.Request) {
	data := &types.ContactPageData{
		BasePageData: types.BasePageData{Title: "Contact Us"},
	}

	s.render(w, r, "page.contact", data)
}

func (s *Service) handlePostContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/contact", "Invalid form payload.")
		return
	}

	data := &types.ContactPageData{
		BasePageData: types.BasePageData{Title: "Contact Us"},
	}

	if err := decoder.Decode(&data.Form, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode contact form")
		s.redirectWithError(w, r, "/contact", "Invalid form payload.")
		return
	}
	data.Form.Name = strings.TrimSpace(data.Form.Name)
	data.Form.Email = strings.TrimSpace(data.Form.Email)
	data.Form.Message = strings.TrimSpace(data.Form.Message)

	if errs := s.validator.Struct(data.Form); errs != nil {
		data.FieldErrors = errs
		data.Error = "Please fix the highlighted fields."
		s.render(w, r, "page.contact", data)
		return
	}

	if err := s.repos.Forms.SubmitContact(r.Context(), &data.Form); err != nil {
		s.logger.WithError(err).Error("failed to submit contact request")
		s.redirectForError(w, r, "/contact", err)
		return
	}

	s.redirectWithNotice(w, r, "/contact", "Thanks, we will be in touch shortly.")
}
