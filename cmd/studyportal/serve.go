package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyportal/internal/auth"
	"studyportal/internal/backend"
	"studyportal/internal/metrics"
	"studyportal/internal/server"
	"studyportal/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger := newLogger(config)
	m := metrics.New()

	client := backend.New(config.BackendBaseURL, backendTimeout(config), backend.WithObserver(m))

	personalRepo := store.NewPersonalInfoRepository(client)
	academicRepo := store.NewAcademicRepository(client)
	applicationRepo := store.NewApplicationRepository(client)
	lookupRepo := store.NewLookupRepository(client)

	repos := server.Repositories{
		Auth:         store.NewAuthRepository(client),
		PersonalInfo: personalRepo,
		Academic:     academicRepo,
		Applications: applicationRepo,
		Lookups:      lookupRepo,
		Applicants:   store.NewApplicantRepository(personalRepo, academicRepo, applicationRepo, lookupRepo),
		Documents:    store.NewDocumentRepository(client),
		Users:        store.NewUserRepository(client),
		Messages:     store.NewMessageRepository(client),
		Forms:        store.NewFormsRepository(client),
	}

	keys, err := auth.NewRemoteKeys(ctx, config.BackendJWKSURL)
	if err != nil {
		return fmt.Errorf("failed to set up token keys: %w", err)
	}

	srv, err := server.New(config, logger, repos, auth.NewVerifier(keys), m)
	if err != nil {
		return err
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":    config.ServerPort,
			"backend": config.BackendBaseURL,
		}).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
