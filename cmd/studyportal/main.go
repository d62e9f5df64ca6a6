package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "studyportal",
		Usage: "Student admissions portal in front of the admissions REST backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Optional .env file loaded before the environment is read",
				Value:   ".env",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			lookupsCommand,
			statusesCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
