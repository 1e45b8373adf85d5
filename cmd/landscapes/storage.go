// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

// errNoResourceName is returned when a storage resource name was not
// specified.
var errNoResourceName = errors.New("no resource name specified")

// NewTableCommand returns a new command for interfacing with tables.
func NewTableCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "table",
		Usage:   "table operations",
		Aliases: []string{"t"},
		Subcommands: []*cli.Command{
			{
				Name:      "ensure",
				Usage:     "create a table, unless it exists already",
				ArgsUsage: "NAME",
				Action: func(ctx *cli.Context) error {
					name := ctx.Args().First()
					if name == "" {
						return errNoResourceName
					}

					conf := getConfig(ctx)
					handle, err := newAccessor(conf).GetTableClient(ctx.Context, name)
					if err != nil {
						return err
					}

					fmt.Printf("%-10s: %s\n", "Table", handle.Name)
					fmt.Printf("%-10s: %s\n", "Endpoint", handle.Endpoint)

					return nil
				},
			},
		},
	}

	return cmd
}

// NewBlobCommand returns a new command for interfacing with blob containers.
func NewBlobCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "blob",
		Usage:   "blob container operations",
		Aliases: []string{"b"},
		Subcommands: []*cli.Command{
			{
				Name:      "ensure",
				Usage:     "create a blob container, unless it exists already",
				ArgsUsage: "NAME",
				Action: func(ctx *cli.Context) error {
					name := ctx.Args().First()
					if name == "" {
						return errNoResourceName
					}

					conf := getConfig(ctx)
					handle, err := newAccessor(conf).GetBlobClient(ctx.Context, name)
					if err != nil {
						return err
					}

					fmt.Printf("%-10s: %s\n", "Container", handle.Name)
					fmt.Printf("%-10s: %s\n", "Endpoint", handle.Endpoint)

					return nil
				},
			},
		},
	}

	return cmd
}
