// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/gardener/sdaf-landscapes/pkg/metrics"
	"github.com/gardener/sdaf-landscapes/pkg/version"
)

func main() {
	app := &cli.App{
		Name:                 "landscapes",
		Version:              version.Version,
		EnableBashCompletion: true,
		Usage:                "command-line tool for managing SDAF landscapes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enables debug mode, if set",
				Value: false,
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config file",
				Aliases: []string{"file"},
				EnvVars: []string{"LANDSCAPES_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "connection-string",
				Usage:   "storage endpoint, overrides the configured connection string",
				EnvVars: []string{"LANDSCAPES_CONNECTION_STRING"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "load environment variables from the given file",
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "write metrics to the given file on exit",
				EnvVars: []string{"LANDSCAPES_METRICS_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			// Environment files have to be loaded before the identity
			// settings are read from the environment.
			if envFiles := ctx.StringSlice("env-file"); len(envFiles) > 0 {
				if err := godotenv.Load(envFiles...); err != nil {
					return fmt.Errorf("Cannot load environment file: %w", err)
				}
			}

			conf, err := loadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("Cannot parse config: %w", err)
			}

			// Overrides from flags/options
			if ctx.IsSet("debug") {
				conf.Debug = ctx.Bool("debug")
			}

			if ctx.IsSet("connection-string") {
				conf.Storage.ConnectionStrings[conf.Storage.ConnectionStringKey] = ctx.String("connection-string")
			}

			if ctx.IsSet("metrics-file") {
				conf.Metrics.TextFile = ctx.String("metrics-file")
			}

			logger, err := newLogger(os.Stderr, conf)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx.Context = context.WithValue(ctx.Context, configKey{}, conf)
			return nil
		},
		After: func(ctx *cli.Context) error {
			conf, ok := lookupConfig(ctx)
			if !ok || conf.Metrics.TextFile == "" {
				return nil
			}

			if err := metrics.WriteTextFile(conf.Metrics.TextFile); err != nil {
				return fmt.Errorf("Cannot write metrics: %w", err)
			}

			return nil
		},
		Commands: []*cli.Command{
			NewTableCommand(),
			NewBlobCommand(),
			NewLandscapeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
