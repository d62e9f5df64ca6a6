package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"studyportal/internal/metrics"
	"studyportal/internal/status"
	"studyportal/internal/store"
	"studyportal/internal/validation"
	"studyportal/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// TokenVerifier turns a backend-issued token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*types.Identity, error)
}

// Repositories are the backend-backed stores the handlers use.
type Repositories struct {
	Auth         *store.AuthRepository
	PersonalInfo *store.PersonalInfoRepository
	Academic     *store.AcademicRepository
	Applications *store.ApplicationRepository
	Lookups      *store.LookupRepository
	Applicants   *store.ApplicantRepository
	Documents    *store.DocumentRepository
	Users        *store.UserRepository
	Messages     *store.MessageRepository
	Forms        *store.FormsRepository
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template
	validator *validation.Validator
	metrics   *metrics.Metrics

	repos    Repositories
	verifier TokenVerifier
	cookie   *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	repos Repositories,
	verifier TokenVerifier,
	m *metrics.Metrics,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
	}

	s := &Service{
		logger:    logger,
		config:    config,
		validator: validation.New(),
		metrics:   m,
		repos:     repos,
		verifier:  verifier,
		cookie:    securecookie.New(hashKey, blockKey),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	if err := s.buildRouter(mux); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) error {
	r.Use(s.RequestID)
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/contact", s.handleGetContact, http.MethodGet)
	r.HandleFunc("/contact", s.handlePostContact, http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler(), http.MethodGet)

	r.HandleFunc("/register", s.handleGetRegister, http.MethodGet)
	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout, http.MethodGet, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/portal", s.handleGetDashboard, http.MethodGet)
		r.HandleFunc("/portal/back/:step", s.handleBack, http.MethodGet)

		r.HandleFunc("/portal/personal-info", s.handleGetPersonalInfo, http.MethodGet)
		r.HandleFunc("/portal/personal-info", s.handlePostPersonalInfo, http.MethodPost)
		r.HandleFunc("/portal/personal-info/edit", s.handleGetPersonalInfoEdit, http.MethodGet)

		r.HandleFunc("/portal/academic-info", s.handleGetAcademicInfo, http.MethodGet)
		r.HandleFunc("/portal/academic-info", s.handlePostAcademicInfo, http.MethodPost)
		r.HandleFunc("/portal/academic-info/edit", s.handleGetAcademicInfoEdit, http.MethodGet)
		r.HandleFunc("/portal/academic-info/delete", s.handlePostAcademicInfoDelete, http.MethodPost)

		for _, g := range documentPages {
			base := g.step.Path()
			r.HandleFunc(base, func(w http.ResponseWriter, r *http.Request) { s.handleGetDocuments(w, r, g) }, http.MethodGet)
			r.HandleFunc(base, func(w http.ResponseWriter, r *http.Request) { s.handlePostDocumentsContinue(w, r, g) }, http.MethodPost)
			r.HandleFunc(base+"/:slot/upload", func(w http.ResponseWriter, r *http.Request) { s.handlePostDocumentUpload(w, r, g) }, http.MethodPost)
			r.HandleFunc(base+"/:slot/delete", func(w http.ResponseWriter, r *http.Request) { s.handlePostDocumentDelete(w, r, g) }, http.MethodPost)
		}

		r.HandleFunc("/portal/summary", s.handleGetSummary, http.MethodGet)
		r.HandleFunc("/portal/summary/submit", s.handlePostSummarySubmit, http.MethodPost)
		r.HandleFunc("/portal/status", s.handleGetApplicationStatus, http.MethodGet)
		r.HandleFunc("/portal/inbox", s.handleGetInbox, http.MethodGet)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/admin", s.handleGetAdmin, http.MethodGet)
			r.HandleFunc("/admin/applications", s.handleGetAdminApplications, http.MethodGet)
			r.HandleFunc("/admin/applications/:id|^[0-9]+$/status", s.handlePostAdminApplicationStatus, http.MethodPost)
			r.HandleFunc("/admin/applications/:id|^[0-9]+$/documents", s.handleGetAdminDocuments, http.MethodGet)
			r.HandleFunc("/admin/applications/:id|^[0-9]+$/documents/:slot/:docID|^[0-9]+$/status", s.handlePostAdminDocumentStatus, http.MethodPost)
			r.HandleFunc("/admin/users", s.handleGetAdminUsers, http.MethodGet)
			r.HandleFunc("/admin/users/:id/delete", s.handlePostAdminUserDelete, http.MethodPost)
			r.HandleFunc("/admin/messages", s.handleGetAdminMessages, http.MethodGet)
			r.HandleFunc("/admin/messages", s.handlePostAdminMessage, http.MethodPost)
			r.HandleFunc("/admin/analytics", s.handleGetAdminAnalytics, http.MethodGet)
		})
	})

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)

	return nil
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"statusLabel": status.Label,
		"docStatusLabel": func(code types.DocumentStatus) string {
			return status.DocumentLabel(code)
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) identityFromContext(ctx context.Context) (*types.Identity, error) {
	id, ok := ctx.Value(contextKeyIdentity).(*types.Identity)
	if !ok || id == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return id, nil
}
