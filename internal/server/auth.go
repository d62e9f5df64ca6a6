package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"studyportal/internal"
	"studyportal/internal/store"
	"studyportal/pkg/types"
)

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	_, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err == nil {
		s.logger.Debug("user is already logged in, redirecting to portal")
		http.Redirect(w, r, "/portal", http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Sign In"},
	}

	s.render(w, r, "page.login", data)
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/login", "Invalid form payload.")
		return
	}

	var creds types.Credentials
	if err := decoder.Decode(&creds, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode login form")
		s.redirectWithError(w, r, "/login", "Invalid form payload.")
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Sign In"},
		Email:        creds.Email,
	}

	if errs := s.validator.Struct(creds); errs != nil {
		data.Error = "Please enter your email and password."
		s.render(w, r, "page.login", data)
		return
	}

	token, err := s.repos.Auth.Login(ctx, creds)
	if err != nil {
		s.logger.WithError(err).Warn("login failed")

		data.Error = msgSomethingWrong
		if errors.Is(err, store.ErrInvalidCredentials) {
			data.Error = "Invalid email or password."
		}
		s.render(w, r, "page.login", data)
		return
	}

	identity, err := s.verifier.Verify(ctx, token.Token)
	if err != nil {
		s.logger.WithError(err).Error("backend issued a token that does not verify")
		data.Error = msgSomethingWrong
		s.render(w, r, "page.login", data)
		return
	}

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, token.Token)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.internalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   token.ExpiresIn,
		Path:     "/",
	})

	s.logger.WithField("user_id", identity.UserID).Info("user logged in")

	// Check to see if this login attempt was the result of an unauthed redirect
	redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME)
	if err == nil {
		s.clearRedirectCookie(w)
		if path := redirectCookie.Value; isLocalPath(path) {
			http.Redirect(w, r, path, http.StatusSeeOther)
			return
		}
	}

	if identity.IsAdmin() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/portal", http.StatusSeeOther)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAccessCookie(w)
	s.clearRedirectCookie(w)
	s.redirectWithNotice(w, r, "/", "You have been signed out.")
}

// isLocalPath rejects anything that would leave the site.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

func (s *Service) secureCookies() bool {
	return s.config.Environment != "development"
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
