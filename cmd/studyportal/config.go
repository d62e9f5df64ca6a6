package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"studyportal/pkg/types"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the optional env file and then the process environment.
// Values already set in the environment win over the file.
func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	if path := cCtx.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.BackendBaseURL == "" {
		return nil, fmt.Errorf("set BACKEND_BASE_URL")
	}
	c.BackendBaseURL = strings.TrimRight(c.BackendBaseURL, "/")

	if c.BackendJWKSURL == "" {
		c.BackendJWKSURL = c.BackendBaseURL + "/.well-known/jwks.json"
	}

	return c, nil
}

func backendTimeout(c *types.Config) time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func newLogger(c *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).WithField("log_level", c.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
