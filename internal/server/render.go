package server

import (
	"net/http"

	"studyportal/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	return s.renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func (s *Service) renderTemplateStatus(w http.ResponseWriter, r *http.Request, code int, templateName string, data any) error {
	identity, _ := s.identityFromContext(r.Context())

	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{IsAuthenticated: identity != nil}
		if identity != nil {
			navbar.IsAdmin = identity.IsAdmin()
			navbar.UserID = identity.UserID
			navbar.UserEmail = identity.Email
		}
		setter.SetNavbarData(navbar)
	}

	if setter, ok := data.(types.FlashSetter); ok {
		q := r.URL.Query()
		setter.SetFlash(q.Get(flashNotice), q.Get(flashWarning), q.Get(flashError))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	return s.templates.ExecuteTemplate(w, templateName, data)
}

// render writes the page and falls back to a bare 500 when the template
// itself fails.
func (s *Service) render(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	s.renderStatus(w, r, http.StatusOK, templateName, data)
}

func (s *Service) renderStatus(w http.ResponseWriter, r *http.Request, code int, templateName string, data any) {
	if err := s.renderTemplateStatus(w, r, code, templateName, data); err != nil {
		s.logger.WithError(err).WithField("template", templateName).Error("failed to render page")
		s.internalServerError(w)
	}
}
