package main

import (
	"fmt"

	"studyportal/internal/backend"
	"studyportal/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var lookupsCommand = &cli.Command{
	Name:  "lookups",
	Usage: "Fetch and print the school, program and course lists",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "token",
			Usage: "Bearer token for backends that protect the lookup lists",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Print without colors",
		},
	},
	Action: func(cCtx *cli.Context) error {
		config, err := loadConfig(cCtx)
		if err != nil {
			return err
		}

		ctx := cCtx.Context
		if token := cCtx.String("token"); token != "" {
			ctx = backend.WithToken(ctx, token)
		}

		client := backend.New(config.BackendBaseURL, backendTimeout(config))
		lookups, err := store.NewLookupRepository(client).All(ctx)
		if err != nil {
			return fmt.Errorf("fetch lookups: %w", err)
		}

		printer := pp.New()
		printer.SetColoringEnabled(!cCtx.Bool("no-color"))
		printer.SetExportedOnly(true)

		_, _ = printer.Println(lookups)
		return nil
	},
}
