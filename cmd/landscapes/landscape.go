// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/urfave/cli/v2"

	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
)

// Output formats supported by the landscape commands.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// keyFlags returns the flags identifying a single landscape.
func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "environment",
			Usage:    "environment of the landscape",
			Required: true,
			Aliases:  []string{"env"},
		},
		&cli.StringFlag{
			Name:     "id",
			Usage:    "id of the landscape",
			Required: true,
		},
	}
}

// outputFlag returns the flag selecting the output format.
func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Usage:   "output format, one of json or yaml",
		Value:   outputJSON,
		Aliases: []string{"o"},
	}
}

// printRecord prints the record in the given format.
func printRecord(w io.Writer, rec models.Record, format string) error {
	switch format {
	case outputJSON:
		_, err := fmt.Fprintln(w, rec.Landscape)
		return err
	case outputYAML:
		l, err := rec.Decode()
		if err != nil {
			return err
		}

		if l.Additional != nil {
			l.Additional = yamlValue(l.Additional).(map[string]any)
		}

		data, err := yaml.Marshal(l)
		if err != nil {
			return err
		}

		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}

// yamlValue converts the numbers of a decoded free-form value into native
// integers or floats, so that they are rendered as YAML numbers.
func yamlValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(val.String(), 10, 64); err == nil {
			return u
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = yamlValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = yamlValue(item)
		}
		return out
	default:
		return v
	}
}

// printRecordInfo prints the keys and the metadata of the record.
func printRecordInfo(w io.Writer, rec models.Record) {
	fmt.Fprintf(w, "%-15s: %s\n", "Partition Key", rec.PartitionKey)
	fmt.Fprintf(w, "%-15s: %s\n", "Row Key", rec.RowKey)
	fmt.Fprintf(w, "%-15s: %t\n", "Default", rec.IsDefault)
	if rec.ETag != "" {
		fmt.Fprintf(w, "%-15s: %s\n", "ETag", rec.ETag)
	}
}

// NewLandscapeCommand returns a new command for managing landscapes.
func NewLandscapeCommand() *cli.Command {
	cmd := &cli.Command{
		Name:    "landscape",
		Usage:   "landscape operations",
		Aliases: []string{"l"},
		Subcommands: []*cli.Command{
			{
				Name:  "render",
				Usage: "render a landscape file into a table record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "path to the landscape file",
						Required: true,
						Aliases:  []string{"f"},
					},
				},
				Action: func(ctx *cli.Context) error {
					l, err := readLandscapeFile(ctx.String("file"))
					if err != nil {
						return err
					}

					conf := getConfig(ctx)
					rec, err := models.NewRecord(l, serializerOptions(conf))
					if err != nil {
						return err
					}

					printRecordInfo(os.Stdout, rec)
					fmt.Println(rec.Landscape)

					return nil
				},
			},
			{
				Name:  "put",
				Usage: "store a landscape from file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "path to the landscape file",
						Required: true,
						Aliases:  []string{"f"},
					},
				},
				Action: func(ctx *cli.Context) error {
					l, err := readLandscapeFile(ctx.String("file"))
					if err != nil {
						return err
					}

					rec, err := newStore(getConfig(ctx)).Put(ctx.Context, l)
					if err != nil {
						return err
					}

					printRecordInfo(os.Stdout, rec)

					return nil
				},
			},
			{
				Name:  "get",
				Usage: "get a landscape",
				Flags: append(keyFlags(), outputFlag()),
				Action: func(ctx *cli.Context) error {
					rec, err := newStore(getConfig(ctx)).Get(ctx.Context, ctx.String("environment"), ctx.String("id"))
					if err != nil {
						return err
					}

					return printRecord(os.Stdout, rec, ctx.String("output"))
				},
			},
			{
				Name:    "list",
				Usage:   "list landscapes",
				Aliases: []string{"ls"},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "environment",
						Usage:   "list only landscapes of this environment",
						Aliases: []string{"env"},
					},
				},
				Action: func(ctx *cli.Context) error {
					items, err := newStore(getConfig(ctx)).List(ctx.Context, ctx.String("environment"))
					if err != nil {
						return err
					}

					if len(items) == 0 {
						return nil
					}

					headers := []string{
						"ENVIRONMENT",
						"ID",
						"DEFAULT",
						"TIMESTAMP",
					}
					table := newTableWriter(os.Stdout, headers)
					for _, item := range items {
						timestamp := na
						if item.Timestamp != nil {
							timestamp = item.Timestamp.Format(time.RFC3339)
						}

						row := []string{
							item.PartitionKey,
							item.RowKey,
							strconv.FormatBool(item.IsDefault),
							timestamp,
						}
						if err := table.Append(row); err != nil {
							return err
						}
					}

					return table.Render()
				},
			},
			{
				Name:  "delete",
				Usage: "delete a landscape",
				Flags: keyFlags(),
				Action: func(ctx *cli.Context) error {
					return newStore(getConfig(ctx)).Delete(ctx.Context, ctx.String("environment"), ctx.String("id"))
				},
			},
			{
				Name:  "default",
				Usage: "default landscape operations",
				Subcommands: []*cli.Command{
					{
						Name:  "get",
						Usage: "get the default landscape of an environment",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "environment",
								Usage:    "environment of the landscape",
								Required: true,
								Aliases:  []string{"env"},
							},
							outputFlag(),
						},
						Action: func(ctx *cli.Context) error {
							rec, err := newStore(getConfig(ctx)).GetDefault(ctx.Context, ctx.String("environment"))
							if err != nil {
								return err
							}

							return printRecord(os.Stdout, rec, ctx.String("output"))
						},
					},
					{
						Name:  "set",
						Usage: "make a landscape the default of its environment",
						Flags: keyFlags(),
						Action: func(ctx *cli.Context) error {
							rec, err := newStore(getConfig(ctx)).SetDefault(ctx.Context, ctx.String("environment"), ctx.String("id"))
							if err != nil {
								return err
							}

							printRecordInfo(os.Stdout, rec)

							return nil
						},
					},
				},
			},
			{
				Name:  "export",
				Usage: "export a landscape to the exports container",
				Flags: keyFlags(),
				Action: func(ctx *cli.Context) error {
					name, err := newStore(getConfig(ctx)).Export(ctx.Context, ctx.String("environment"), ctx.String("id"))
					if err != nil {
						return err
					}

					fmt.Println(name)

					return nil
				},
			},
			{
				Name:  "import",
				Usage: "import a landscape from the exports container",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "blob",
						Usage:    "name of the exported landscape",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					rec, err := newStore(getConfig(ctx)).Import(ctx.Context, ctx.String("blob"))
					if err != nil {
						return err
					}

					printRecordInfo(os.Stdout, rec)

					return nil
				},
			},
		},
	}

	return cmd
}
